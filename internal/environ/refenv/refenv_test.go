package refenv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmcore/wasm2ssa/internal/decoder"
	"github.com/wasmcore/wasm2ssa/internal/environ/refenv"
	"github.com/wasmcore/wasm2ssa/internal/ir"
)

func testModule() *decoder.Module {
	sig := &ir.Signature{ID: 0, Results: []ir.Type{ir.TypeI32}}
	return &decoder.Module{
		Types:     []*ir.Signature{sig},
		Functions: []decoder.Function{{Sig: sig}},
		Memories:  []decoder.MemoryDecl{{MinPages: 1}},
		Globals: []decoder.GlobalDecl{
			{Type: ir.TypeI32, Mutable: true},
			{Type: ir.TypeI32, Mutable: false, InitI32: 7},
		},
	}
}

func newBuilderWithBlock() ir.Builder {
	b := ir.NewBuilder()
	b.Init(&ir.Signature{})
	b.SetCurrentBlock(b.AllocateBasicBlock())
	return b
}

func TestMakeGlobalMutableVsConst(t *testing.T) {
	env, err := refenv.New(testModule(), false)
	require.NoError(t, err)
	b := newBuilderWithBlock()

	mutGv, typ := env.MakeGlobal(b, 0)
	assert.Equal(t, ir.TypeI32, typ)
	assert.Equal(t, ir.GlobalVarKindMemory, b.GlobalData(mutGv).Kind)

	constGv, _ := env.MakeGlobal(b, 1)
	data := b.GlobalData(constGv)
	assert.Equal(t, ir.GlobalVarKindConst, data.Kind)
	assert.True(t, data.Const.Valid())
}

func TestMakeHeapRejectsNonZeroIndex(t *testing.T) {
	env, err := refenv.New(testModule(), false)
	require.NoError(t, err)
	b := newBuilderWithBlock()

	require.NotPanics(t, func() { env.MakeHeap(b, 0) })
	assert.Panics(t, func() { env.MakeHeap(b, 1) })
}

func TestNewRejectsMultiMemory(t *testing.T) {
	mod := testModule()
	mod.Memories = append(mod.Memories, decoder.MemoryDecl{MinPages: 1})
	_, err := refenv.New(mod, false)
	assert.Error(t, err)
}

func TestMakeDirectFuncNormalArgsMatchesFullParams(t *testing.T) {
	mod := testModule()
	mod.Functions[0].Sig = &ir.Signature{ID: 0, Params: []ir.Type{ir.TypeI32, ir.TypeI64}}
	env, err := refenv.New(mod, false)
	require.NoError(t, err)
	b := newBuilderWithBlock()

	_, sig, normalArgs := env.MakeDirectFunc(b, 0)
	assert.Equal(t, 2, normalArgs)
	assert.Len(t, sig.Params, 2)
}

func TestTranslateCallEmitsCallInstruction(t *testing.T) {
	mod := testModule()
	mod.Functions[0].Sig = &ir.Signature{ID: 0, Results: []ir.Type{ir.TypeI32}}
	env, err := refenv.New(mod, false)
	require.NoError(t, err)
	b := newBuilderWithBlock()

	fn, sig, _ := env.MakeDirectFunc(b, 0)
	results := env.TranslateCall(b, fn, sig, nil)
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid())
}
