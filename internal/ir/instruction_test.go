package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionDataRoundTrips(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})
	b.SetCurrentBlock(b.AllocateBasicBlock())

	x := constI32(b, 3)
	y := constI32(b, 4)

	add := b.AllocateInstruction().AsBinary(OpcodeIadd, TypeI32, x, y)
	b.InsertInstruction(add)
	gx, gy, _ := add.Args()
	assert.Equal(t, x, gx)
	assert.Equal(t, y, gy)
	assert.True(t, add.Return().Valid())
	assert.Equal(t, TypeI32, add.Return().Type())

	icmp := b.AllocateInstruction().AsIcmp(IntSLT, x, y)
	b.InsertInstruction(icmp)
	assert.Equal(t, IntSLT, icmp.IcmpCC())

	heap := b.DeclareHeap(HeapData{AddrType: TypeI32, GuardSize: 1 << 16})
	ha := b.AllocateInstruction().AsHeapAddr(heap, x, 65537, TypeI32)
	b.InsertInstruction(ha)
	gotHeap, gotAddr, gotCheck := ha.HeapAddrData()
	assert.Equal(t, heap, gotHeap)
	assert.Equal(t, x, gotAddr)
	assert.EqualValues(t, 65537, gotCheck)

	store := b.AllocateInstruction().AsStore(TypeI32, ha.Return(), y, 8)
	b.InsertInstruction(store)
	base, val, off := store.StoreData()
	assert.Equal(t, ha.Return(), base)
	assert.Equal(t, y, val)
	assert.EqualValues(t, 8, off)
	assert.False(t, store.Return().Valid(), "store produces no value")
}

func TestInstructionIsTerminator(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})
	blk := b.AllocateBasicBlock()
	b.SetCurrentBlock(blk)

	jump := b.AllocateInstruction().AsJump(blk, nil)
	assert.True(t, jump.IsTerminator())

	add := b.AllocateInstruction().AsBinary(OpcodeIadd, TypeI32, ValueInvalid, ValueInvalid)
	assert.False(t, add.IsTerminator())

	ret := b.AllocateInstruction().AsReturn(nil)
	assert.True(t, ret.IsTerminator())

	trap := b.AllocateInstruction().AsTrap(TrapUnreachable)
	assert.True(t, trap.IsTerminator())
	assert.Equal(t, TrapUnreachable, trap.TrapCodeData())
}

func TestFloatConstantsRoundTripBits(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})
	b.SetCurrentBlock(b.AllocateBasicBlock())

	f32 := b.AllocateInstruction().AsF32const(1.5)
	b.InsertInstruction(f32)
	_, bits := f32.IconstData()
	assert.Equal(t, float32(1.5), f32frombits(uint32(bits)))

	f64 := b.AllocateInstruction().AsF64const(2.25)
	b.InsertInstruction(f64)
	_, bits64 := f64.IconstData()
	assert.Equal(t, 2.25, f64frombits(bits64))
}

func TestSelectAndLoadNarrowData(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})
	b.SetCurrentBlock(b.AllocateBasicBlock())

	cond := constI32(b, 1)
	x := constI32(b, 10)
	y := constI32(b, 20)
	sel := b.AllocateInstruction().AsSelect(TypeI32, cond, x, y)
	b.InsertInstruction(sel)
	gc, gx, gy := sel.SelectData()
	assert.Equal(t, cond, gc)
	assert.Equal(t, x, gx)
	assert.Equal(t, y, gy)

	ln := b.AllocateInstruction().AsLoadNarrow(TypeI32, x, 4, 8, true)
	b.InsertInstruction(ln)
	base, off, narrow, signed := ln.LoadNarrowData()
	assert.Equal(t, x, base)
	assert.EqualValues(t, 4, off)
	assert.EqualValues(t, 8, narrow)
	assert.True(t, signed)
}

func TestOpcodeStringUnknown(t *testing.T) {
	assert.Equal(t, "opcode(9999)", Opcode(9999).String())
	assert.Equal(t, "iadd", OpcodeIadd.String())
}

func TestValueInvalid(t *testing.T) {
	assert.False(t, ValueInvalid.Valid())
	v := Value(0).setType(TypeF32)
	assert.True(t, v.Valid())
	assert.Equal(t, TypeF32, v.Type())
}

func TestSealPanicsOnLateAddPred(t *testing.T) {
	b := NewBuilder()
	b.Init(&Signature{})
	target := b.AllocateBasicBlock()
	b.Seal(target)

	src := b.AllocateBasicBlock()
	b.SetCurrentBlock(src)
	jump := b.AllocateInstruction().AsJump(target, nil)
	require.Panics(t, func() { b.InsertInstruction(jump) })
}
