package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wasmcore/wasm2ssa/internal/ir"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "br_table", KindBrTable.String())
	assert.Equal(t, "call_indirect", KindCallIndirect.String())
	assert.Contains(t, KindI32Add.String(), "kind(")
}

func TestBlockTypeEmpty(t *testing.T) {
	var bt BlockType
	assert.Empty(t, bt.Params)
	assert.Empty(t, bt.Results)
}

func TestOperatorPayloadIsolatedPerKind(t *testing.T) {
	op := Operator{Kind: KindI32Const, I32: 42}
	assert.EqualValues(t, 42, op.I32)
	assert.Zero(t, op.I64)

	load := Operator{Kind: KindI32Load, MemArg: MemArg{Offset: 8, Align: 2}}
	assert.EqualValues(t, 8, load.MemArg.Offset)

	sel := Operator{Kind: KindTypedSelect, SelectType: ir.TypeF64}
	assert.Equal(t, ir.TypeF64, sel.SelectType)

	table := Operator{Kind: KindBrTable, TableTargets: []uint32{1, 2, 3}, RelativeDepth: 4}
	assert.Len(t, table.TableTargets, 3)
	assert.EqualValues(t, 4, table.RelativeDepth)
}
