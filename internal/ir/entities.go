package ir

import "fmt"

// This file generalizes the builder with the entity handles the translated
// source language needs beyond plain Values: a linear memory ("Heap"), a
// module-level global ("GlobalVar"), a callee signature reachable only
// through a table ("SigRef"), a directly-callable function ("FuncRef"),
// and a branch-table of destinations ("JumpTable"). Memory accesses and
// globals go through these named entities rather than lowering to raw
// moduleCtx-offset arithmetic inline, so a caller can distinguish, cache,
// and re-resolve each reference without re-deriving its address formula.

// Heap identifies a linear memory declared on a Builder via DeclareHeap.
type Heap uint32

// String implements fmt.Stringer.
func (h Heap) String() string { return fmt.Sprintf("heap%d", uint32(h)) }

// HeapData describes a declared Heap: the pointer type used to address it
// and the size, in bytes, of its guard region. GuardSize must be positive;
// a zero guard size means "no guard pages", which the heap address former
// (translate.heapAddr) refuses to operate against.
type HeapData struct {
	AddrType  Type
	GuardSize int64
}

// GlobalVar identifies a module-level global declared on a Builder via
// DeclareGlobal.
type GlobalVar uint32

// String implements fmt.Stringer.
func (g GlobalVar) String() string { return fmt.Sprintf("gv%d", uint32(g)) }

// GlobalVarData describes a declared GlobalVar. Kind distinguishes an
// immutable constant global (GlobalVarKindConst, Const populated) from one
// backed by memory (GlobalVarKindMemory, Type populated), matching the
// GlobalValue tagged union of the source data model.
type GlobalVarData struct {
	Kind  GlobalVarKind
	Const Value
	Slot  GlobalVar
	Type  Type
}

// GlobalVarKind tags a GlobalVarData's variant.
type GlobalVarKind byte

const (
	// GlobalVarKindConst marks a global whose value is a compile-time
	// constant folded directly into uses.
	GlobalVarKindConst GlobalVarKind = iota
	// GlobalVarKindMemory marks a global backed by a memory slot that
	// must be loaded/stored through GlobalGet/GlobalSet instructions.
	GlobalVarKindMemory
)

// SigRef identifies a signature reachable only indirectly (through
// call_indirect), declared on a Builder via DeclareSigRef.
type SigRef uint32

// String implements fmt.Stringer.
func (s SigRef) String() string { return fmt.Sprintf("sigref%d", uint32(s)) }

// FuncRef identifies a directly-callable function, declared on a Builder
// via DeclareFuncRef.
type FuncRef uint32

// String implements fmt.Stringer.
func (f FuncRef) String() string { return fmt.Sprintf("funcref%d", uint32(f)) }

// JumpTable identifies a table of branch destinations used by br_table,
// declared on a Builder via DeclareJumpTable. Unlike a plain slice of
// BasicBlock targets, a JumpTable is a named entity so that instruction
// formatting and later consumers can refer to it without duplicating the
// destination list inline; see DESIGN.md.
type JumpTable uint32

// String implements fmt.Stringer.
func (j JumpTable) String() string { return fmt.Sprintf("jt%d", uint32(j)) }
