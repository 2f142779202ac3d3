// Package environ declares the host/module boundary the translate
// package calls out to for anything it cannot decide on its own: how a
// global, heap, or callee is represented, and how a call or a memory
// intrinsic actually lowers. This is the "Environment" external
// collaborator; the core never reaches into module/instance state
// directly. environtest supplies a reference implementation for tests,
// and refenv supplies one wired to the reference decoder in cmd/wasm2ssa.
package environ

import "github.com/wasmcore/wasm2ssa/internal/ir"

// Flags reports translator-wide options the embedder controls.
type Flags interface {
	// ReturnAtEnd reports whether the function epilogue should fall
	// through to an explicit ir.OpcodeReturn at the end of the entry
	// driver's final block, as opposed to letting every exit path
	// (including any unreachable tail) terminate on its own.
	ReturnAtEnd() bool
}

// Environment is consumed by the translator to resolve every reference
// to module-level state (globals, memories, signatures, functions) and to
// lower every call and memory-growth/size intrinsic. Each Make* method is
// called at most once per (function, index) pair thanks to translate's
// entity cache (internal/translate's entityCache), matching the "get or
// create" memoization the source data model requires.
type Environment interface {
	// NativePointerType returns the IR type used to represent addresses
	// (I32 for wasm32, I64 for wasm64 — memory64 itself remains a
	// non-goal, but the hook exists so a 64-bit-addressed heap could be
	// wired in without touching the translator).
	NativePointerType() ir.Type

	// Flags returns the active Flags for this translation.
	Flags() Flags

	// MakeGlobal declares index's backing GlobalVar on b and returns it
	// along with the global's value type.
	MakeGlobal(b ir.Builder, index uint32) (ir.GlobalVar, ir.Type)

	// MakeHeap declares index's backing Heap on b and returns it.
	MakeHeap(b ir.Builder, index uint32) ir.Heap

	// MakeIndirectSig declares typeIndex's signature on b for use by
	// call_indirect and returns both the SigRef and the resolved
	// Signature (so the translator can pop the right number/types of
	// call arguments without a second round-trip).
	MakeIndirectSig(b ir.Builder, typeIndex uint32) (ir.SigRef, *ir.Signature)

	// MakeDirectFunc declares funcIndex's callee on b for use by call and
	// returns the FuncRef, the resolved Signature, and the number of
	// "normal" (non-ABI-injected) parameters the caller must supply —
	// normalArgs may be less than len(Signature.Params) when the ABI
	// prepends implicit parameters ahead of the WebAssembly-visible ones.
	MakeDirectFunc(b ir.Builder, funcIndex uint32) (fn ir.FuncRef, sig *ir.Signature, normalArgs int)

	// TranslateCall lowers a direct call to fn with sig, given the
	// WebAssembly-visible args (already ABI-adjusted by the caller if
	// MakeDirectFunc reported a reduced normalArgs), returning the
	// callee's results.
	TranslateCall(b ir.Builder, fn ir.FuncRef, sig *ir.Signature, args []ir.Value) []ir.Value

	// TranslateCallIndirect lowers a call_indirect: tableIndex is the raw
	// i32 table-slot operand the translator popped off the stack,
	// unvalidated. Table layout is entirely an Environment concern (there
	// is no ir.Table entity — only linear-memory addressing through Heap
	// is core data), so bounds-checking the index, null-checking the
	// slot, and matching its signature against sig are this method's
	// responsibility, each lowering to the appropriate ir.TrapCode on
	// failure.
	TranslateCallIndirect(b ir.Builder, sig ir.SigRef, sigData *ir.Signature, tableIndex ir.Value, args []ir.Value) []ir.Value

	// TranslateGrowMemory lowers memory.grow on heap by delta pages,
	// returning the previous size in pages (or -1 on failure), per the
	// instruction's defined semantics.
	TranslateGrowMemory(b ir.Builder, heap ir.Heap, delta ir.Value) ir.Value

	// TranslateCurrentMemory lowers memory.size on heap, returning the
	// current size in pages.
	TranslateCurrentMemory(b ir.Builder, heap ir.Heap) ir.Value
}
