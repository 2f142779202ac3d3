package decoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmcore/wasm2ssa/internal/decoder"
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/leb128"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// section builds one module section: id byte, LEB128 size, payload.
func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(payload)))...)
	return append(out, payload...)
}

func vec(n uint32, items ...[]byte) []byte {
	out := leb128.EncodeUint32(n)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// buildModule assembles a minimal module with a single (i32, i32) -> i32
// function whose raw body is code (locals-decl-plus-opcodes, the Code
// section entry payload minus its own length prefix).
func buildModule(t *testing.T, code []byte) []byte {
	t.Helper()
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	// Type section: one type, (i32, i32) -> i32.
	oneType := append([]byte{0x60}, vec(2, []byte{0x7F}, []byte{0x7F})...)
	oneType = append(oneType, vec(1, []byte{0x7F})...)
	typeSection := section(1, vec(1, oneType))

	// Function section: one function, using type 0.
	funcSection := section(3, vec(1, leb128.EncodeUint32(0)))

	// Code section: one body.
	bodyWithLen := append(leb128.EncodeUint32(uint32(len(code))), code...)
	codeSection := section(10, vec(1, bodyWithLen))

	out = append(out, typeSection...)
	out = append(out, funcSection...)
	out = append(out, codeSection...)
	return out
}

func TestParseModuleAndDecodeAddFunction(t *testing.T) {
	// No extra locals; body: local.get 0, local.get 1, i32.add, end.
	code := []byte{
		0x00,       // 0 local-decl groups
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x6A, // i32.add
		0x0B, // end
	}
	mod, err := decoder.ParseModule(buildModule(t, code))
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, []ir.Type{ir.TypeI32, ir.TypeI32}, mod.Functions[0].Sig.Params)
	assert.Equal(t, []ir.Type{ir.TypeI32}, mod.Functions[0].Sig.Results)

	locals, ops, err := mod.DecodeFunction(0)
	require.NoError(t, err)
	assert.Equal(t, []ir.Type{ir.TypeI32, ir.TypeI32}, locals)

	require.Len(t, ops, 4)
	assert.Equal(t, operator.KindLocalGet, ops[0].Kind)
	assert.EqualValues(t, 0, ops[0].Index)
	assert.Equal(t, operator.KindLocalGet, ops[1].Kind)
	assert.EqualValues(t, 1, ops[1].Index)
	assert.Equal(t, operator.KindI32Add, ops[2].Kind)
	assert.Equal(t, operator.KindEnd, ops[3].Kind)
}

func TestDecodeFunctionWithExtraLocalsAndConst(t *testing.T) {
	code := []byte{
		0x01,       // 1 local-decl group
		0x02, 0x7E, // 2 locals of type i64
		0x41, 0x2A, // i32.const 42
		0x1A, // drop
		0x0B, // end
	}
	mod, err := decoder.ParseModule(buildModule(t, code))
	require.NoError(t, err)

	locals, ops, err := mod.DecodeFunction(0)
	require.NoError(t, err)
	assert.Equal(t, []ir.Type{ir.TypeI32, ir.TypeI32, ir.TypeI64, ir.TypeI64}, locals)
	require.Len(t, ops, 3)
	assert.Equal(t, operator.KindI32Const, ops[0].Kind)
	assert.EqualValues(t, 42, ops[0].I32)
	assert.Equal(t, operator.KindDrop, ops[1].Kind)
}

func TestDecodeBlockAndBrIf(t *testing.T) {
	code := []byte{
		0x00,             // no locals
		0x02, 0x7F,       // block (result i32)
		0x20, 0x00,       // local.get 0
		0x20, 0x00,       // local.get 0
		0x0D, 0x00,       // br_if 0
		0x0B,             // end (block)
		0x0B,             // end (function)
	}
	mod, err := decoder.ParseModule(buildModule(t, code))
	require.NoError(t, err)

	_, ops, err := mod.DecodeFunction(0)
	require.NoError(t, err)
	require.Len(t, ops, 6)
	assert.Equal(t, operator.KindBlock, ops[0].Kind)
	assert.Equal(t, []ir.Type{ir.TypeI32}, ops[0].BlockType.Results)
	assert.Equal(t, operator.KindBrIf, ops[3].Kind)
	assert.EqualValues(t, 0, ops[3].RelativeDepth)
}

func TestDecodeTruncatedModuleErrors(t *testing.T) {
	_, err := decoder.ParseModule([]byte{0x00, 0x61, 0x73})
	assert.Error(t, err)
}

func TestDecodeBadMagicErrors(t *testing.T) {
	_, err := decoder.ParseModule([]byte{0x01, 0x02, 0x03, 0x04, 0x01, 0x00, 0x00, 0x00})
	assert.Error(t, err)
}
