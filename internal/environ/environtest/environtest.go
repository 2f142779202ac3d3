// Package environtest is a deterministic, recording Environment used by
// internal/translate's own tests. It models one module with a fixed set
// of globals, memories, function types, and functions. It counts the
// MakeGlobal, MakeHeap and MakeDirectFunc calls it receives per index and
// records every TranslateCall invocation, so tests can assert the entity
// cache really does memoize (each Make* called at most once per index) and
// that direct calls see the arguments the dispatcher built. Indirect calls
// and memory intrinsics are not recorded.
package environtest

import (
	"fmt"

	"github.com/wasmcore/wasm2ssa/internal/environ"
	"github.com/wasmcore/wasm2ssa/internal/ir"
)

// GlobalSpec describes one module global.
type GlobalSpec struct {
	Type    ir.Type
	Mutable bool
	// Const is used verbatim as the GlobalVarData when Mutable is false;
	// immutable globals fold to a compile-time constant instead of a
	// memory slot, matching the GlobalValue::Const source variant.
	Const ir.Value
}

// HeapSpec describes one module memory.
type HeapSpec struct {
	AddrType  ir.Type
	GuardSize int64
}

// FuncSpec describes one module function: its type index, plus any ABI
// parameters the environment's calling convention injects ahead of the
// WebAssembly-visible ones (e.g. an execution-context pointer).
type FuncSpec struct {
	TypeIndex uint32
	ABIParams []ir.Type
}

// CallRecord captures one TranslateCall invocation for test assertions.
type CallRecord struct {
	Fn   ir.FuncRef
	Args []ir.Value
}

// Env is a test-double Environment over a fixed, explicit module shape.
type Env struct {
	Globals   []GlobalSpec
	Memories  []HeapSpec
	Types     []*ir.Signature
	Funcs     []FuncSpec
	ReturnEnd bool

	// madeGlobal/madeHeap/madeSig/madeFunc record how many times each
	// Make* was called per index, to let tests assert the entity cache
	// truly memoizes.
	madeGlobal map[uint32]int
	madeHeap   map[uint32]int
	madeSig    map[uint32]int
	madeFunc   map[uint32]int

	Calls []CallRecord

	nextGlobalVar  ir.GlobalVar
	globalVarToIdx map[ir.GlobalVar]uint32
	nextHeap       ir.Heap
	heapToIdx      map[ir.Heap]uint32
	nextFuncRef    ir.FuncRef
	nextSigRef     ir.SigRef
}

// New returns a ready-to-use Env.
func New() *Env {
	return &Env{
		madeGlobal:     make(map[uint32]int),
		madeHeap:       make(map[uint32]int),
		madeSig:        make(map[uint32]int),
		madeFunc:       make(map[uint32]int),
		globalVarToIdx: make(map[ir.GlobalVar]uint32),
		heapToIdx:      make(map[ir.Heap]uint32),
	}
}

// MadeGlobalCount returns how many times MakeGlobal(index) was called.
func (e *Env) MadeGlobalCount(index uint32) int { return e.madeGlobal[index] }

// MadeHeapCount returns how many times MakeHeap(index) was called.
func (e *Env) MadeHeapCount(index uint32) int { return e.madeHeap[index] }

// MadeFuncCount returns how many times MakeDirectFunc(index) was called.
func (e *Env) MadeFuncCount(index uint32) int { return e.madeFunc[index] }

// NativePointerType implements environ.Environment.
func (e *Env) NativePointerType() ir.Type { return ir.TypeI32 }

// Flags implements environ.Environment.
func (e *Env) Flags() environ.Flags { return flags{returnAtEnd: e.ReturnEnd} }

type flags struct{ returnAtEnd bool }

func (f flags) ReturnAtEnd() bool { return f.returnAtEnd }

// MakeGlobal implements environ.Environment.
func (e *Env) MakeGlobal(b ir.Builder, index uint32) (ir.GlobalVar, ir.Type) {
	e.madeGlobal[index]++
	spec := e.Globals[index]
	var data ir.GlobalVarData
	if spec.Mutable {
		data = ir.GlobalVarData{Kind: ir.GlobalVarKindMemory, Type: spec.Type}
	} else {
		data = ir.GlobalVarData{Kind: ir.GlobalVarKindConst, Const: spec.Const, Type: spec.Type}
	}
	gv := b.DeclareGlobal(data)
	e.globalVarToIdx[gv] = index
	return gv, spec.Type
}

// MakeHeap implements environ.Environment.
func (e *Env) MakeHeap(b ir.Builder, index uint32) ir.Heap {
	e.madeHeap[index]++
	spec := e.Memories[index]
	h := b.DeclareHeap(ir.HeapData{AddrType: spec.AddrType, GuardSize: spec.GuardSize})
	e.heapToIdx[h] = index
	return h
}

// MakeIndirectSig implements environ.Environment.
func (e *Env) MakeIndirectSig(b ir.Builder, typeIndex uint32) (ir.SigRef, *ir.Signature) {
	e.madeSig[typeIndex]++
	sig := e.Types[typeIndex]
	return b.DeclareSigRef(sig), sig
}

// MakeDirectFunc implements environ.Environment.
func (e *Env) MakeDirectFunc(b ir.Builder, funcIndex uint32) (ir.FuncRef, *ir.Signature, int) {
	e.madeFunc[funcIndex]++
	spec := e.Funcs[funcIndex]
	base := e.Types[spec.TypeIndex]
	full := &ir.Signature{
		ID:      base.ID,
		Params:  append(append([]ir.Type{}, spec.ABIParams...), base.Params...),
		Results: base.Results,
	}
	return b.DeclareFuncRef(full), full, len(base.Params)
}

// TranslateCall implements environ.Environment.
func (e *Env) TranslateCall(b ir.Builder, fn ir.FuncRef, sig *ir.Signature, args []ir.Value) []ir.Value {
	e.Calls = append(e.Calls, CallRecord{Fn: fn, Args: args})
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

// TranslateCallIndirect implements environ.Environment. This test double
// has no real table to bounds/null/signature-check, so it trusts
// tableIndex directly as the callee's code pointer.
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
		panic(fmt.Sprintf("BUG: unknown heap %s", heap))
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
