// Package refenv is an importable (non-test) reference environ.Environment
// wired to the reference decoder, modeling one default linear memory and
// the module's declared globals. It is the Environment cmd/wasm2ssa uses
// to demonstrate the full decode-to-IR pipeline end-to-end; a real host
// embedding this translator would supply its own Environment backed by
// its actual module/instance representation instead.
package refenv

import (
	"github.com/pkg/errors"

	"github.com/wasmcore/wasm2ssa/internal/decoder"
	"github.com/wasmcore/wasm2ssa/internal/environ"
	"github.com/wasmcore/wasm2ssa/internal/ir"
)

// defaultGuardSize is the guard-page region refenv gives its one modeled
// memory: 64 KiB, the WebAssembly page size itself, so a single page of
// slop is enough to absorb the largest narrow access this translator
// emits without a second bounds check.
const defaultGuardSize = 1 << 16

// Env is a reference Environment over a decoder.Module: every global and
// the module's memories (at most one is modeled; multi-memory is a
// non-goal) resolve against the module's actual declarations, and every
// function call/memory intrinsic lowers to the matching core IR
// instruction with no further backend behind it.
type Env struct {
	module    *decoder.Module
	returnEnd bool

	globalVarToIdx map[ir.GlobalVar]uint32
	heapToIdx      map[ir.Heap]uint32
}

// New returns an Env over module. returnAtEnd is reported by Flags().
func New(module *decoder.Module, returnAtEnd bool) (*Env, error) {
	if len(module.Memories) > 1 {
		return nil, errors.New("refenv: multi-memory modules are unsupported")
	}
	return &Env{
		module:         module,
		returnEnd:      returnAtEnd,
		globalVarToIdx: make(map[ir.GlobalVar]uint32),
		heapToIdx:      make(map[ir.Heap]uint32),
	}, nil
}

// NativePointerType implements environ.Environment.
func (e *Env) NativePointerType() ir.Type { return ir.TypeI32 }

type flags struct{ returnAtEnd bool }

func (f flags) ReturnAtEnd() bool { return f.returnAtEnd }

// Flags implements environ.Environment.
func (e *Env) Flags() environ.Flags { return flags{returnAtEnd: e.returnEnd} }

// MakeGlobal implements environ.Environment. A mutable global becomes a
// memory-backed GlobalVar; an immutable one folds to its decoded
// constant, emitted as an iconst/f32const/f64const into the current
// block, matching how the function-level zero-initializer for locals is
// built.
func (e *Env) MakeGlobal(b ir.Builder, index uint32) (ir.GlobalVar, ir.Type) {
	if index >= uint32(len(e.module.Globals)) {
		panic(errors.Errorf("refenv: unknown global index %d", index))
	}
	decl := e.module.Globals[index]
	var data ir.GlobalVarData
	if decl.Mutable {
		data = ir.GlobalVarData{Kind: ir.GlobalVarKindMemory, Type: decl.Type}
	} else {
		data = ir.GlobalVarData{Kind: ir.GlobalVarKindConst, Type: decl.Type, Const: e.constValue(b, decl)}
	}
	gv := b.DeclareGlobal(data)
	e.globalVarToIdx[gv] = index
	return gv, decl.Type
}

func (e *Env) constValue(b ir.Builder, decl decoder.GlobalDecl) ir.Value {
	instr := b.AllocateInstruction()
	switch decl.Type {
	case ir.TypeI32:
		instr.AsIconst(ir.TypeI32, uint64(uint32(decl.InitI32)))
	case ir.TypeI64:
		instr.AsIconst(ir.TypeI64, uint64(decl.InitI64))
	case ir.TypeF32:
		instr.AsF32const(decl.InitF32)
	case ir.TypeF64:
		instr.AsF64const(decl.InitF64)
	default:
		panic(errors.Errorf("refenv: unsupported global type %s", decl.Type))
	}
	b.InsertInstruction(instr)
	return instr.Return()
}

// MakeHeap implements environ.Environment. refenv models at most one
// memory, always index 0.
func (e *Env) MakeHeap(b ir.Builder, index uint32) ir.Heap {
	if index != 0 || len(e.module.Memories) == 0 {
		panic(errors.Errorf("refenv: unknown memory index %d", index))
	}
	h := b.DeclareHeap(ir.HeapData{AddrType: ir.TypeI32, GuardSize: defaultGuardSize})
	e.heapToIdx[h] = index
	return h
}

// MakeIndirectSig implements environ.Environment.
func (e *Env) MakeIndirectSig(b ir.Builder, typeIndex uint32) (ir.SigRef, *ir.Signature) {
	if typeIndex >= uint32(len(e.module.Types)) {
		panic(errors.Errorf("refenv: unknown type index %d", typeIndex))
	}
	sig := e.module.Types[typeIndex]
	return b.DeclareSigRef(sig), sig
}

// MakeDirectFunc implements environ.Environment. refenv injects no
// implicit ABI parameters ahead of the WebAssembly-visible ones (unlike
// environtest, which models a host that does); normalArgs always equals
// the full parameter count.
func (e *Env) MakeDirectFunc(b ir.Builder, funcIndex uint32) (ir.FuncRef, *ir.Signature, int) {
	if funcIndex >= uint32(len(e.module.Functions)) {
		panic(errors.Errorf("refenv: unknown function index %d", funcIndex))
	}
	sig := e.module.Functions[funcIndex].Sig
	return b.DeclareFuncRef(sig), sig, len(sig.Params)
}

// TranslateCall implements environ.Environment.
func (e *Env) TranslateCall(b ir.Builder, fn ir.FuncRef, sig *ir.Signature, args []ir.Value) []ir.Value {
	var resultType ir.Type
	if len(sig.Results) > 0 {
		resultType = sig.Results[0]
	}
	instr := b.AllocateInstruction().AsCall(fn, args, resultType)
	b.InsertInstruction(instr)
	if resultType == 0 {
		return nil
	}
	return []ir.Value{instr.Return()}
}

// TranslateCallIndirect implements environ.Environment. refenv has no
// real table to bounds/null/signature-check against, so (like
// environtest) it trusts the popped table-slot value directly as the
// callee's code pointer.
func (e *Env) TranslateCallIndirect(b ir.Builder, sig ir.SigRef, sigData *ir.Signature, tableIndex ir.Value, args []ir.Value) []ir.Value {
	var resultType ir.Type
	if len(sigData.Results) > 0 {
		resultType = sigData.Results[0]
	}
	instr := b.AllocateInstruction().AsCallIndirect(tableIndex, sig, args, resultType)
	b.InsertInstruction(instr)
	if resultType == 0 {
		return nil
	}
	return []ir.Value{instr.Return()}
}

// TranslateGrowMemory implements environ.Environment.
func (e *Env) TranslateGrowMemory(b ir.Builder, heap ir.Heap, delta ir.Value) ir.Value {
	if _, ok := e.heapToIdx[heap]; !ok {
		panic(errors.Errorf("refenv: unknown heap %s", heap))
	}
	instr := b.AllocateInstruction().AsMemoryGrow(heap, delta)
	b.InsertInstruction(instr)
	return instr.Return()
}

// TranslateCurrentMemory implements environ.Environment.
func (e *Env) TranslateCurrentMemory(b ir.Builder, heap ir.Heap) ir.Value {
	instr := b.AllocateInstruction().AsMemorySize(heap)
	b.InsertInstruction(instr)
	return instr.Return()
}
