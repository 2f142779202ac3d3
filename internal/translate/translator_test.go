package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmcore/wasm2ssa/internal/environ/environtest"
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// newFixture returns a fresh Builder/Translator/Env triple, with the
// translator already Init'd for sig against localTypes (which must
// include sig.Params as its prefix, per Init's contract).
func newFixture(sig *ir.Signature, localTypes []ir.Type) (ir.Builder, *Translator, *environtest.Env) {
	b := ir.NewBuilder()
	b.Init(sig)
	env := environtest.New()
	tr := NewTranslator()
	tr.Init(b, env, sig, localTypes)
	return b, tr, env
}

func i32i32i32() *ir.Signature {
	return &ir.Signature{Params: []ir.Type{ir.TypeI32, ir.TypeI32}, Results: []ir.Type{ir.TypeI32}}
}

func TestTranslateAdd(t *testing.T) {
	sig := i32i32i32()
	_, tr, _ := newFixture(sig, sig.Params)

	ops := []operator.Operator{
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindLocalGet, Index: 1},
		{Kind: operator.KindI32Add},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))
}

func TestTranslateIfElseBothLive(t *testing.T) {
	sig := i32i32i32()
	b, tr, _ := newFixture(sig, sig.Params)

	ops := []operator.Operator{
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindIf, BlockType: operator.BlockType{Results: []ir.Type{ir.TypeI32}}},
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindElse},
		{Kind: operator.KindLocalGet, Index: 1},
		{Kind: operator.KindEnd},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))

	out := b.Format()
	assert.Contains(t, out, "brz")
	assert.Contains(t, out, "jump")
}

// TestTranslateIfNoElse exercises the implicit-empty-else path: an `if`
// producing one result with no explicit `else` must thread its block
// parameter straight through to the join block.
func TestTranslateIfNoElse(t *testing.T) {
	sig := &ir.Signature{Params: []ir.Type{ir.TypeI32}, Results: []ir.Type{ir.TypeI32}}
	b, tr, _ := newFixture(sig, sig.Params)

	ops := []operator.Operator{
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindIf, BlockType: operator.BlockType{Params: []ir.Type{ir.TypeI32}, Results: []ir.Type{ir.TypeI32}}},
		{Kind: operator.KindI32Const, I32: 1},
		{Kind: operator.KindI32Add},
		{Kind: operator.KindEnd},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))
	assert.NotEmpty(t, b.Format())
}

// TestTranslateLoopBranch builds a trivial "loop { br 0 }"-shaped body
// wrapped so it terminates (br out of an enclosing block first), and
// checks the loop header ends up with more than one predecessor (the
// initial entry jump, plus the backward branch).
func TestTranslateLoopBranch(t *testing.T) {
	sig := &ir.Signature{Params: []ir.Type{ir.TypeI32}, Results: []ir.Type{ir.TypeI32}}
	b, tr, _ := newFixture(sig, sig.Params)

	ops := []operator.Operator{
		{Kind: operator.KindBlock, BlockType: operator.BlockType{Results: []ir.Type{ir.TypeI32}}},
		{Kind: operator.KindLoop, BlockType: operator.BlockType{}},
		{Kind: operator.KindLocalGet, Index: 0}, // the value carried out as the block's result
		{Kind: operator.KindLocalGet, Index: 0}, // the br_if condition
		{Kind: operator.KindBrIf, RelativeDepth: 1}, // exit the outer block
		{Kind: operator.KindBr, RelativeDepth: 0},   // loop back
		{Kind: operator.KindEnd},                    // end loop (unreachable: br above)
		{Kind: operator.KindEnd},                    // end block
		{Kind: operator.KindEnd},                    // end function
	}
	require.NoError(t, tr.TranslateSafely(ops))
	out := b.Format()
	assert.Contains(t, out, "brnz")
	// The header (blk3) is the only block entered from both the entry
	// block's jump and its own backward branch.
	assert.Contains(t, out, "<- (blk0, blk3)")
}

func TestTranslateBrTable(t *testing.T) {
	sig := &ir.Signature{Params: []ir.Type{ir.TypeI32}, Results: []ir.Type{ir.TypeI32}}
	b, tr, _ := newFixture(sig, sig.Params)

	ops := []operator.Operator{
		{Kind: operator.KindBlock, BlockType: operator.BlockType{Results: []ir.Type{ir.TypeI32}}},
		{Kind: operator.KindBlock, BlockType: operator.BlockType{Results: []ir.Type{ir.TypeI32}}},
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindBrTable, TableTargets: []uint32{0}, RelativeDepth: 1},
		{Kind: operator.KindEnd}, // inner block end (unreachable fallthrough)
		{Kind: operator.KindEnd}, // outer block end
		{Kind: operator.KindEnd}, // function end
	}
	require.NoError(t, tr.TranslateSafely(ops))
	assert.Contains(t, b.Format(), "br_table")
}

// TestTranslateUnreachablePropagation checks that code after an
// unconditional `return` inside a nested block is correctly skipped, and
// that the block's own `end` — reached entirely via the unreachable
// dispatcher — does not panic or miscount the control stack.
func TestTranslateUnreachablePropagation(t *testing.T) {
	sig := &ir.Signature{Results: []ir.Type{ir.TypeI32}}
	_, tr, _ := newFixture(sig, nil)

	ops := []operator.Operator{
		{Kind: operator.KindBlock, BlockType: operator.BlockType{}},
		{Kind: operator.KindI32Const, I32: 1},
		{Kind: operator.KindReturn},
		// Dead code: a nested block opened and closed entirely
		// within unreachable territory, plus an arithmetic op that must
		// be skipped rather than act on an empty operand stack.
		{Kind: operator.KindBlock, BlockType: operator.BlockType{}},
		{Kind: operator.KindI32Add},
		{Kind: operator.KindEnd},
		{Kind: operator.KindEnd},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))
}

func TestTranslateCallMemoizesEntityCache(t *testing.T) {
	sig := &ir.Signature{Results: []ir.Type{ir.TypeI32}}
	_, tr, env := newFixture(sig, nil)
	env.Types = []*ir.Signature{{Results: []ir.Type{ir.TypeI32}}}
	env.Funcs = []environtest.FuncSpec{{TypeIndex: 0}}

	ops := []operator.Operator{
		{Kind: operator.KindCall, FuncIndex: 0},
		{Kind: operator.KindCall, FuncIndex: 0},
		{Kind: operator.KindI32Add},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))
	assert.Equal(t, 1, env.MadeFuncCount(0))
	assert.Len(t, env.Calls, 2)
}

func TestTranslateGlobalSetOnConstPanics(t *testing.T) {
	sig := &ir.Signature{}
	_, tr, env := newFixture(sig, nil)
	env.Globals = []environtest.GlobalSpec{{Type: ir.TypeI32, Mutable: false}}

	ops := []operator.Operator{
		{Kind: operator.KindI32Const, I32: 1},
		{Kind: operator.KindGlobalSet, Index: 0},
		{Kind: operator.KindEnd},
	}
	err := tr.TranslateSafely(ops)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "immutable"))
}

func TestTranslateLoadStoreRoundTrip(t *testing.T) {
	sig := &ir.Signature{Params: []ir.Type{ir.TypeI32, ir.TypeI32}}
	b, tr, env := newFixture(sig, sig.Params)
	env.Memories = []environtest.HeapSpec{{AddrType: ir.TypeI32, GuardSize: 1 << 16}}

	ops := []operator.Operator{
		{Kind: operator.KindLocalGet, Index: 0},
		{Kind: operator.KindLocalGet, Index: 1},
		{Kind: operator.KindI32Store, MemArg: operator.MemArg{Offset: 4}},
		{Kind: operator.KindEnd},
	}
	require.NoError(t, tr.TranslateSafely(ops))
	assert.Contains(t, b.Format(), "heap_addr")
	assert.Contains(t, b.Format(), "store")
}

func TestTranslateSaturatingTruncRejected(t *testing.T) {
	sig := &ir.Signature{Results: []ir.Type{ir.TypeI32}}
	_, tr, _ := newFixture(sig, nil)

	ops := []operator.Operator{
		{Kind: operator.KindF32Const, F32: 1.5},
		{Kind: operator.KindI32TruncSatF32S},
		{Kind: operator.KindEnd},
	}
	err := tr.TranslateSafely(ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saturating")
}

func TestTranslateMalformedStreamPanics(t *testing.T) {
	sig := &ir.Signature{}
	_, tr, _ := newFixture(sig, nil)

	ops := []operator.Operator{
		{Kind: operator.KindBlock, BlockType: operator.BlockType{}},
		// Missing matching `end` for the block and for the function.
	}
	err := tr.TranslateSafely(ops)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
