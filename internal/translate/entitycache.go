package translate

import (
	"github.com/wasmcore/wasm2ssa/internal/environ"
	"github.com/wasmcore/wasm2ssa/internal/ir"
)

// entityCache memoizes the per-function IR handles the Environment hands
// back for globals, heaps, indirect signatures, and directly-callable
// functions, so that translating `global.get $g` twice (or calling the
// same function twice) only asks the Environment to declare $g/the callee
// once, the same get-or-create memoization a map keyed by index would
// give a single eager declaration pass, but applied lazily per reference
// instead.
type entityCache struct {
	globals struct {
		idx  map[uint32]ir.GlobalVar
		typ  map[uint32]ir.Type
	}
	heaps        map[uint32]ir.Heap
	indirectSigs map[uint32]indirectSigEntry
	directFuncs  map[uint32]directFuncEntry
}

type indirectSigEntry struct {
	ref ir.SigRef
	sig *ir.Signature
}

type directFuncEntry struct {
	ref        ir.FuncRef
	sig        *ir.Signature
	normalArgs int
}

func newEntityCache() *entityCache {
	c := &entityCache{
		heaps:        make(map[uint32]ir.Heap),
		indirectSigs: make(map[uint32]indirectSigEntry),
		directFuncs:  make(map[uint32]directFuncEntry),
	}
	c.globals.idx = make(map[uint32]ir.GlobalVar)
	c.globals.typ = make(map[uint32]ir.Type)
	return c
}

func (c *entityCache) reset() {
	for k := range c.globals.idx {
		delete(c.globals.idx, k)
	}
	for k := range c.globals.typ {
		delete(c.globals.typ, k)
	}
	for k := range c.heaps {
		delete(c.heaps, k)
	}
	for k := range c.indirectSigs {
		delete(c.indirectSigs, k)
	}
	for k := range c.directFuncs {
		delete(c.directFuncs, k)
	}
}

func (c *entityCache) getGlobal(b ir.Builder, env environ.Environment, index uint32) (ir.GlobalVar, ir.Type) {
	if gv, ok := c.globals.idx[index]; ok {
		return gv, c.globals.typ[index]
	}
	gv, t := env.MakeGlobal(b, index)
	c.globals.idx[index] = gv
	c.globals.typ[index] = t
	return gv, t
}

func (c *entityCache) getHeap(b ir.Builder, env environ.Environment, index uint32) ir.Heap {
	if h, ok := c.heaps[index]; ok {
		return h
	}
	h := env.MakeHeap(b, index)
	c.heaps[index] = h
	return h
}

func (c *entityCache) getIndirectSig(b ir.Builder, env environ.Environment, typeIndex uint32) (ir.SigRef, *ir.Signature) {
	if e, ok := c.indirectSigs[typeIndex]; ok {
		return e.ref, e.sig
	}
	ref, sig := env.MakeIndirectSig(b, typeIndex)
	c.indirectSigs[typeIndex] = indirectSigEntry{ref, sig}
	return ref, sig
}

func (c *entityCache) getDirectFunc(b ir.Builder, env environ.Environment, funcIndex uint32) (ir.FuncRef, *ir.Signature, int) {
	if e, ok := c.directFuncs[funcIndex]; ok {
		return e.ref, e.sig, e.normalArgs
	}
	ref, sig, normalArgs := env.MakeDirectFunc(b, funcIndex)
	c.directFuncs[funcIndex] = directFuncEntry{ref, sig, normalArgs}
	return ref, sig, normalArgs
}
