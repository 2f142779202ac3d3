package translate

import (
	"math"

	"github.com/wasmcore/wasm2ssa/internal/ir"
)

// heapAddr forms a checked address into heap at addr+offset, emitting one
// ir.OpcodeHeapAddr instruction plus, when offset straddles the int32
// range, one adjustment add. The returned (base, signedOffset) pair is
// meant to be folded into the load/store instruction's own immediate
// offset rather than added eagerly, so that accesses whose offsets fall
// in the same guard-sized bucket end up as CSE-identical heap_addr
// instructions differing only in the immediate the load/store applies
// afterward.
//
// The quantized check_size computation and the int32-overflow split exist
// so that two loads at different-but-nearby static offsets against the
// same base reuse one bounds check, which a naive
// bounds-check-every-access translation cannot do.
func heapAddr(b ir.Builder, heap ir.Heap, addr ir.Value, offset uint32, addrType ir.Type) (base ir.Value, signedOffset int32) {
	data := b.HeapData(heap)
	guardSize := data.GuardSize
	if guardSize <= 0 {
		panic(fault("heap guard pages are required (guard_size must be > 0)"))
	}

	checkSize := quantizedCheckSize(offset, guardSize)

	instr := b.AllocateInstruction().AsHeapAddr(heap, addr, checkSize, addrType)
	b.InsertInstruction(instr)
	base = instr.Return()

	const int32Max = uint32(math.MaxInt32)
	if offset > int32Max {
		adj := b.AllocateInstruction().AsBinary(ir.OpcodeIadd, addrType,
			base, constUint(b, addrType, uint64(int32Max)+1))
		b.InsertInstruction(adj)
		return adj.Return(), int32(offset - (int32Max + 1))
	}
	return base, int32(offset)
}

// quantizedCheckSize computes min(uint32Max, 1 + (offset/guardSize)*guardSize).
// Quantizing to multiples of the guard size makes the resulting check_size
// identical across accesses whose offsets fall in the same guard-sized
// bucket, which lets a later optimization pass (out of this translator's
// scope) common them up.
func quantizedCheckSize(offset uint32, guardSize int64) uint32 {
	q := 1 + (int64(offset)/guardSize)*guardSize
	if q > int64(math.MaxUint32) {
		return math.MaxUint32
	}
	return uint32(q)
}

// constUint emits an iconst of the given type and raw bit pattern.
func constUint(b ir.Builder, t ir.Type, bits uint64) ir.Value {
	instr := b.AllocateInstruction().AsIconst(t, bits)
	b.InsertInstruction(instr)
	return instr.Return()
}
