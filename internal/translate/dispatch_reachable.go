package translate

import (
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// memoryIndex is the implicit linear memory every load/store/memory.size/
// memory.grow operator addresses. Multiple memories are a non-goal, so
// there is never a memory index to decode here.
const memoryIndex = 0

// translateReachable is component F: the dispatcher invoked for every
// operator while the current position is live.
func (t *Translator) translateReachable(op operator.Operator) {
	switch op.Kind {
	case operator.KindUnreachable:
		instr := t.b.AllocateInstruction().AsTrap(ir.TrapUnreachable)
		t.b.InsertInstruction(instr)
		t.reach.enterUnreachable()
	case operator.KindNop:
		// No IR, no stack effect.

	case operator.KindBlock:
		t.openBlock(op.BlockType)
	case operator.KindLoop:
		t.openLoop(op.BlockType)
	case operator.KindIf:
		t.openIf(op.BlockType)
	case operator.KindElse:
		t.closeElse(t.ctrl.top())
	case operator.KindEnd:
		t.reachableEnd()

	case operator.KindBr:
		t.translateBr(op.RelativeDepth)
	case operator.KindBrIf:
		t.translateBrIf(op.RelativeDepth)
	case operator.KindBrTable:
		t.translateBrTable(op)
	case operator.KindReturn:
		t.translateReturn()
	case operator.KindCall:
		t.translateCall(op.FuncIndex)
	case operator.KindCallIndirect:
		t.translateCallIndirect(op.TypeIndex)

	case operator.KindDrop:
		t.stack.pop()
	case operator.KindSelect:
		t.translateSelect(0, false)
	case operator.KindTypedSelect:
		t.translateSelect(op.SelectType, true)

	case operator.KindLocalGet:
		t.stack.push(t.b.FindValue(t.locals[op.Index]))
	case operator.KindLocalSet:
		t.b.DefineVariableInCurrentBB(t.locals[op.Index], t.stack.pop())
	case operator.KindLocalTee:
		t.b.DefineVariableInCurrentBB(t.locals[op.Index], t.stack.peek())
	case operator.KindGlobalGet:
		t.translateGlobalGet(op.Index)
	case operator.KindGlobalSet:
		t.translateGlobalSet(op.Index)

	case operator.KindI32Load:
		t.translateLoad(op.MemArg, ir.TypeI32)
	case operator.KindI64Load:
		t.translateLoad(op.MemArg, ir.TypeI64)
	case operator.KindF32Load:
		t.translateLoad(op.MemArg, ir.TypeF32)
	case operator.KindF64Load:
		t.translateLoad(op.MemArg, ir.TypeF64)
	case operator.KindI32Load8S:
		t.translateLoadNarrow(op.MemArg, ir.TypeI32, 8, true)
	case operator.KindI32Load8U:
		t.translateLoadNarrow(op.MemArg, ir.TypeI32, 8, false)
	case operator.KindI32Load16S:
		t.translateLoadNarrow(op.MemArg, ir.TypeI32, 16, true)
	case operator.KindI32Load16U:
		t.translateLoadNarrow(op.MemArg, ir.TypeI32, 16, false)
	case operator.KindI64Load8S:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 8, true)
	case operator.KindI64Load8U:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 8, false)
	case operator.KindI64Load16S:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 16, true)
	case operator.KindI64Load16U:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 16, false)
	case operator.KindI64Load32S:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 32, true)
	case operator.KindI64Load32U:
		t.translateLoadNarrow(op.MemArg, ir.TypeI64, 32, false)
	case operator.KindI32Store:
		t.translateStore(op.MemArg, ir.TypeI32)
	case operator.KindI64Store:
		t.translateStore(op.MemArg, ir.TypeI64)
	case operator.KindF32Store:
		t.translateStore(op.MemArg, ir.TypeF32)
	case operator.KindF64Store:
		t.translateStore(op.MemArg, ir.TypeF64)
	case operator.KindI32Store8:
		t.translateStoreNarrow(op.MemArg, 8)
	case operator.KindI32Store16:
		t.translateStoreNarrow(op.MemArg, 16)
	case operator.KindI64Store8:
		t.translateStoreNarrow(op.MemArg, 8)
	case operator.KindI64Store16:
		t.translateStoreNarrow(op.MemArg, 16)
	case operator.KindI64Store32:
		t.translateStoreNarrow(op.MemArg, 32)

	case operator.KindMemorySize:
		heap := t.cache.getHeap(t.b, t.env, memoryIndex)
		t.stack.push(t.env.TranslateCurrentMemory(t.b, heap))
	case operator.KindMemoryGrow:
		heap := t.cache.getHeap(t.b, t.env, memoryIndex)
		delta := t.stack.pop()
		t.stack.push(t.env.TranslateGrowMemory(t.b, heap, delta))

	case operator.KindI32Const:
		t.pushIconst(ir.TypeI32, uint64(uint32(op.I32)))
	case operator.KindI64Const:
		t.pushIconst(ir.TypeI64, uint64(op.I64))
	case operator.KindF32Const:
		instr := t.b.AllocateInstruction().AsF32const(op.F32)
		t.b.InsertInstruction(instr)
		t.stack.push(instr.Return())
	case operator.KindF64Const:
		instr := t.b.AllocateInstruction().AsF64const(op.F64)
		t.b.InsertInstruction(instr)
		t.stack.push(instr.Return())

	case operator.KindI32Eqz:
		t.unOp(ir.OpcodeIeqz, ir.TypeI32)
	case operator.KindI64Eqz:
		t.unOp(ir.OpcodeIeqz, ir.TypeI32)
	case operator.KindI32Eq:
		t.icmp(ir.IntEQ)
	case operator.KindI32Ne:
		t.icmp(ir.IntNE)
	case operator.KindI32LtS:
		t.icmp(ir.IntSLT)
	case operator.KindI32LtU:
		t.icmp(ir.IntULT)
	case operator.KindI32GtS:
		t.icmp(ir.IntSGT)
	case operator.KindI32GtU:
		t.icmp(ir.IntUGT)
	case operator.KindI32LeS:
		t.icmp(ir.IntSLE)
	case operator.KindI32LeU:
		t.icmp(ir.IntULE)
	case operator.KindI32GeS:
		t.icmp(ir.IntSGE)
	case operator.KindI32GeU:
		t.icmp(ir.IntUGE)

	case operator.KindI64Eq:
		t.icmp(ir.IntEQ)
	case operator.KindI64Ne:
		t.icmp(ir.IntNE)
	case operator.KindI64LtS:
		t.icmp(ir.IntSLT)
	case operator.KindI64LtU:
		t.icmp(ir.IntULT)
	case operator.KindI64GtS:
		t.icmp(ir.IntSGT)
	case operator.KindI64GtU:
		t.icmp(ir.IntUGT)
	case operator.KindI64LeS:
		t.icmp(ir.IntSLE)
	case operator.KindI64LeU:
		t.icmp(ir.IntULE)
	case operator.KindI64GeS:
		t.icmp(ir.IntSGE)
	case operator.KindI64GeU:
		t.icmp(ir.IntUGE)

	case operator.KindF32Eq:
		t.fcmp(ir.FloatEQ)
	case operator.KindF32Ne:
		t.fcmp(ir.FloatNE)
	case operator.KindF32Lt:
		t.fcmp(ir.FloatLT)
	case operator.KindF32Gt:
		t.fcmp(ir.FloatGT)
	case operator.KindF32Le:
		t.fcmp(ir.FloatLE)
	case operator.KindF32Ge:
		t.fcmp(ir.FloatGE)
	case operator.KindF64Eq:
		t.fcmp(ir.FloatEQ)
	case operator.KindF64Ne:
		t.fcmp(ir.FloatNE)
	case operator.KindF64Lt:
		t.fcmp(ir.FloatLT)
	case operator.KindF64Gt:
		t.fcmp(ir.FloatGT)
	case operator.KindF64Le:
		t.fcmp(ir.FloatLE)
	case operator.KindF64Ge:
		t.fcmp(ir.FloatGE)

	case operator.KindI32Clz:
		t.unOp(ir.OpcodeClz, ir.TypeI32)
	case operator.KindI32Ctz:
		t.unOp(ir.OpcodeCtz, ir.TypeI32)
	case operator.KindI32Popcnt:
		t.unOp(ir.OpcodePopcnt, ir.TypeI32)
	case operator.KindI32Add:
		t.binOp(ir.OpcodeIadd, ir.TypeI32)
	case operator.KindI32Sub:
		t.binOp(ir.OpcodeIsub, ir.TypeI32)
	case operator.KindI32Mul:
		t.binOp(ir.OpcodeImul, ir.TypeI32)
	case operator.KindI32DivS:
		t.binOp(ir.OpcodeSdiv, ir.TypeI32)
	case operator.KindI32DivU:
		t.binOp(ir.OpcodeUdiv, ir.TypeI32)
	case operator.KindI32RemS:
		t.binOp(ir.OpcodeSrem, ir.TypeI32)
	case operator.KindI32RemU:
		t.binOp(ir.OpcodeUrem, ir.TypeI32)
	case operator.KindI32And:
		t.binOp(ir.OpcodeBand, ir.TypeI32)
	case operator.KindI32Or:
		t.binOp(ir.OpcodeBor, ir.TypeI32)
	case operator.KindI32Xor:
		t.binOp(ir.OpcodeBxor, ir.TypeI32)
	case operator.KindI32Shl:
		t.binOp(ir.OpcodeIshl, ir.TypeI32)
	case operator.KindI32ShrS:
		t.binOp(ir.OpcodeSshr, ir.TypeI32)
	case operator.KindI32ShrU:
		t.binOp(ir.OpcodeUshr, ir.TypeI32)
	case operator.KindI32Rotl:
		t.binOp(ir.OpcodeRotl, ir.TypeI32)
	case operator.KindI32Rotr:
		t.binOp(ir.OpcodeRotr, ir.TypeI32)

	case operator.KindI64Clz:
		t.unOp(ir.OpcodeClz, ir.TypeI64)
	case operator.KindI64Ctz:
		t.unOp(ir.OpcodeCtz, ir.TypeI64)
	case operator.KindI64Popcnt:
		t.unOp(ir.OpcodePopcnt, ir.TypeI64)
	case operator.KindI64Add:
		t.binOp(ir.OpcodeIadd, ir.TypeI64)
	case operator.KindI64Sub:
		t.binOp(ir.OpcodeIsub, ir.TypeI64)
	case operator.KindI64Mul:
		t.binOp(ir.OpcodeImul, ir.TypeI64)
	case operator.KindI64DivS:
		t.binOp(ir.OpcodeSdiv, ir.TypeI64)
	case operator.KindI64DivU:
		t.binOp(ir.OpcodeUdiv, ir.TypeI64)
	case operator.KindI64RemS:
		t.binOp(ir.OpcodeSrem, ir.TypeI64)
	case operator.KindI64RemU:
		t.binOp(ir.OpcodeUrem, ir.TypeI64)
	case operator.KindI64And:
		t.binOp(ir.OpcodeBand, ir.TypeI64)
	case operator.KindI64Or:
		t.binOp(ir.OpcodeBor, ir.TypeI64)
	case operator.KindI64Xor:
		t.binOp(ir.OpcodeBxor, ir.TypeI64)
	case operator.KindI64Shl:
		t.binOp(ir.OpcodeIshl, ir.TypeI64)
	case operator.KindI64ShrS:
		t.binOp(ir.OpcodeSshr, ir.TypeI64)
	case operator.KindI64ShrU:
		t.binOp(ir.OpcodeUshr, ir.TypeI64)
	case operator.KindI64Rotl:
		t.binOp(ir.OpcodeRotl, ir.TypeI64)
	case operator.KindI64Rotr:
		t.binOp(ir.OpcodeRotr, ir.TypeI64)

	case operator.KindF32Abs:
		t.unOp(ir.OpcodeFabs, ir.TypeF32)
	case operator.KindF32Neg:
		t.unOp(ir.OpcodeFneg, ir.TypeF32)
	case operator.KindF32Ceil:
		t.unOp(ir.OpcodeCeil, ir.TypeF32)
	case operator.KindF32Floor:
		t.unOp(ir.OpcodeFloor, ir.TypeF32)
	case operator.KindF32Trunc:
		t.unOp(ir.OpcodeTrunc, ir.TypeF32)
	case operator.KindF32Nearest:
		t.unOp(ir.OpcodeNearest, ir.TypeF32)
	case operator.KindF32Sqrt:
		t.unOp(ir.OpcodeSqrt, ir.TypeF32)
	case operator.KindF32Add:
		t.binOp(ir.OpcodeFadd, ir.TypeF32)
	case operator.KindF32Sub:
		t.binOp(ir.OpcodeFsub, ir.TypeF32)
	case operator.KindF32Mul:
		t.binOp(ir.OpcodeFmul, ir.TypeF32)
	case operator.KindF32Div:
		t.binOp(ir.OpcodeFdiv, ir.TypeF32)
	case operator.KindF32Min:
		t.binOp(ir.OpcodeFmin, ir.TypeF32)
	case operator.KindF32Max:
		t.binOp(ir.OpcodeFmax, ir.TypeF32)
	case operator.KindF32Copysign:
		t.binOp(ir.OpcodeFcopysign, ir.TypeF32)

	case operator.KindF64Abs:
		t.unOp(ir.OpcodeFabs, ir.TypeF64)
	case operator.KindF64Neg:
		t.unOp(ir.OpcodeFneg, ir.TypeF64)
	case operator.KindF64Ceil:
		t.unOp(ir.OpcodeCeil, ir.TypeF64)
	case operator.KindF64Floor:
		t.unOp(ir.OpcodeFloor, ir.TypeF64)
	case operator.KindF64Trunc:
		t.unOp(ir.OpcodeTrunc, ir.TypeF64)
	case operator.KindF64Nearest:
		t.unOp(ir.OpcodeNearest, ir.TypeF64)
	case operator.KindF64Sqrt:
		t.unOp(ir.OpcodeSqrt, ir.TypeF64)
	case operator.KindF64Add:
		t.binOp(ir.OpcodeFadd, ir.TypeF64)
	case operator.KindF64Sub:
		t.binOp(ir.OpcodeFsub, ir.TypeF64)
	case operator.KindF64Mul:
		t.binOp(ir.OpcodeFmul, ir.TypeF64)
	case operator.KindF64Div:
		t.binOp(ir.OpcodeFdiv, ir.TypeF64)
	case operator.KindF64Min:
		t.binOp(ir.OpcodeFmin, ir.TypeF64)
	case operator.KindF64Max:
		t.binOp(ir.OpcodeFmax, ir.TypeF64)
	case operator.KindF64Copysign:
		t.binOp(ir.OpcodeFcopysign, ir.TypeF64)

	case operator.KindI32WrapI64:
		t.convert(ir.OpcodeIreduce, ir.TypeI32)
	case operator.KindI64ExtendI32S:
		t.convert(ir.OpcodeSextend, ir.TypeI64)
	case operator.KindI64ExtendI32U:
		t.convert(ir.OpcodeUextend, ir.TypeI64)
	case operator.KindI32Extend8S, operator.KindI32Extend16S:
		t.convert(ir.OpcodeSextend, ir.TypeI32)
	case operator.KindI64Extend8S, operator.KindI64Extend16S:
		t.convert(ir.OpcodeSextend, ir.TypeI64)

	case operator.KindI32TruncF32S, operator.KindI32TruncF64S:
		t.convert(ir.OpcodeFcvtToSint, ir.TypeI32)
	case operator.KindI32TruncF32U, operator.KindI32TruncF64U:
		t.convert(ir.OpcodeFcvtToUint, ir.TypeI32)
	case operator.KindI64TruncF32S, operator.KindI64TruncF64S:
		t.convert(ir.OpcodeFcvtToSint, ir.TypeI64)
	case operator.KindI64TruncF32U, operator.KindI64TruncF64U:
		t.convert(ir.OpcodeFcvtToUint, ir.TypeI64)

	case operator.KindF32ConvertI32S, operator.KindF32ConvertI64S:
		t.convert(ir.OpcodeFcvtFromSint, ir.TypeF32)
	case operator.KindF32ConvertI32U, operator.KindF32ConvertI64U:
		t.convert(ir.OpcodeFcvtFromUint, ir.TypeF32)
	case operator.KindF64ConvertI32S, operator.KindF64ConvertI64S:
		t.convert(ir.OpcodeFcvtFromSint, ir.TypeF64)
	case operator.KindF64ConvertI32U, operator.KindF64ConvertI64U:
		t.convert(ir.OpcodeFcvtFromUint, ir.TypeF64)

	case operator.KindF32DemoteF64:
		t.convert(ir.OpcodeFdemote, ir.TypeF32)
	case operator.KindF64PromoteF32:
		t.convert(ir.OpcodeFpromote, ir.TypeF64)

	case operator.KindI32ReinterpretF32:
		t.convert(ir.OpcodeBitcast, ir.TypeI32)
	case operator.KindI64ReinterpretF64:
		t.convert(ir.OpcodeBitcast, ir.TypeI64)
	case operator.KindF32ReinterpretI32:
		t.convert(ir.OpcodeBitcast, ir.TypeF32)
	case operator.KindF64ReinterpretI64:
		t.convert(ir.OpcodeBitcast, ir.TypeF64)

	case operator.KindI32TruncSatF32S, operator.KindI32TruncSatF32U,
		operator.KindI32TruncSatF64S, operator.KindI32TruncSatF64U,
		operator.KindI64TruncSatF32S, operator.KindI64TruncSatF32U,
		operator.KindI64TruncSatF64S, operator.KindI64TruncSatF64U:
		panic(faultAt(t.opIndex, "unsupported opcode: saturating truncation (%s)", op.Kind))

	default:
		panic(faultAt(t.opIndex, "unsupported opcode: %s", op.Kind))
	}
}

// reachableEnd handles `end` seen while live, dispatching to the
// function-level close, the loop close (which needs its own exit block),
// or the shared block/if close.
func (t *Translator) reachableEnd() {
	if t.ctrl.len() == 1 {
		t.endFunction(true)
		return
	}
	frame := t.ctrl.top()
	if frame.kind == frameLoop {
		t.closeLoop(t.ctrl.pop())
	} else {
		t.closeConstruct(t.ctrl.pop())
	}
}

// translateBr emits an unconditional branch to the frame `depth` levels
// up, then marks the remainder of the current block unreachable.
func (t *Translator) translateBr(depth uint32) {
	frame := t.ctrl.at(depth)
	args := t.stack.popN(frame.numReturns)
	t.jumpTo(frame.destination, args)
	frame.reachable = true
	t.reach.enterUnreachable()
}

// translateBrIf emits a conditional branch to the frame `depth` levels
// up. Unlike `br`, the branch arguments are only peeked, not popped:
// execution falls through to the next operator, with the same values
// still on the stack, whenever the condition is zero.
func (t *Translator) translateBrIf(depth uint32) {
	cond := t.stack.pop()
	frame := t.ctrl.at(depth)
	args := t.stack.peekN(frame.numReturns)
	instr := t.b.AllocateInstruction().AsBrnz(cond, frame.destination, args)
	t.b.InsertInstruction(instr)
	frame.reachable = true
}

// translateBrTable lowers a br_table to one OpcodeBrTable dispatching
// through a JumpTable of trampoline blocks, one per table entry
// (including the mandatory default), each an unconditional jump carrying
// that entry's own branch arguments — the br_table instruction itself
// carries only the dispatch index, never per-target arguments, so a
// target requiring block arguments needs this one-instruction detour.
func (t *Translator) translateBrTable(op operator.Operator) {
	index := t.stack.pop()

	depths := make([]uint32, 0, len(op.TableTargets)+1)
	depths = append(depths, op.TableTargets...)
	depths = append(depths, op.RelativeDepth)

	targets := make([]ir.BasicBlock, len(depths))
	for i, depth := range depths {
		frame := t.ctrl.at(depth)
		args := t.stack.peekN(frame.numReturns)
		trampoline := t.b.AllocateBasicBlock()
		t.jumpToFrom(trampoline, frame.destination, args)
		frame.reachable = true
		targets[i] = trampoline
	}

	jt := t.b.DeclareJumpTable(targets)
	instr := t.b.AllocateInstruction().AsBrTable(index, jt, targets)
	t.b.InsertInstruction(instr)
	// Each trampoline's only predecessor is the br_table just inserted.
	for _, trampoline := range targets {
		t.b.Seal(trampoline)
	}
	t.reach.enterUnreachable()
}

// jumpToFrom emits an unconditional jump to dst with args, but inserted
// into trampoline rather than the current block (used by br_table's
// per-target trampolines, which never become the current block).
func (t *Translator) jumpToFrom(trampoline, dst ir.BasicBlock, args []ir.Value) {
	instr := t.b.AllocateInstruction().AsJump(dst, args)
	trampoline.InsertInstruction(instr)
}

// translateReturn branches all the way out to the function-level frame
// regardless of how many structured constructs are currently open.
func (t *Translator) translateReturn() {
	frame := t.ctrl.at(uint32(t.ctrl.len() - 1))
	args := t.stack.popN(len(t.results))
	t.jumpTo(frame.destination, args)
	frame.reachable = true
	t.reach.enterUnreachable()
}

func (t *Translator) translateCall(funcIndex uint32) {
	fn, sig, normalArgs := t.cache.getDirectFunc(t.b, t.env, funcIndex)
	args := t.stack.popN(normalArgs)
	results := t.env.TranslateCall(t.b, fn, sig, args)
	t.stack.push(results...)
}

func (t *Translator) translateCallIndirect(typeIndex uint32) {
	tableIndex := t.stack.pop()
	sigRef, sig := t.cache.getIndirectSig(t.b, t.env, typeIndex)
	args := t.stack.popN(len(sig.Params))
	results := t.env.TranslateCallIndirect(t.b, sigRef, sig, tableIndex, args)
	t.stack.push(results...)
}

// translateSelect handles both select (typed false, result type inferred
// from the operands) and typed select (typed true, resultType already
// decoded).
func (t *Translator) translateSelect(resultType ir.Type, typed bool) {
	cond := t.stack.pop()
	y := t.stack.pop()
	x := t.stack.pop()
	if !typed {
		resultType = x.Type()
	}
	instr := t.b.AllocateInstruction().AsSelect(resultType, cond, x, y)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) translateGlobalGet(index uint32) {
	gv, typ := t.cache.getGlobal(t.b, t.env, index)
	data := t.b.GlobalData(gv)
	if data.Kind == ir.GlobalVarKindConst {
		t.stack.push(data.Const)
		return
	}
	instr := t.b.AllocateInstruction().AsGlobalGet(typ, gv)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) translateGlobalSet(index uint32) {
	gv, _ := t.cache.getGlobal(t.b, t.env, index)
	data := t.b.GlobalData(gv)
	if data.Kind == ir.GlobalVarKindConst {
		panic(faultAt(t.opIndex, "cannot mutate immutable global %d", index))
	}
	val := t.stack.pop()
	instr := t.b.AllocateInstruction().AsGlobalSet(gv, val)
	t.b.InsertInstruction(instr)
}

func (t *Translator) translateLoad(ma operator.MemArg, t2 ir.Type) {
	addr := t.stack.pop()
	heap := t.cache.getHeap(t.b, t.env, memoryIndex)
	base, off := heapAddr(t.b, heap, addr, ma.Offset, t.env.NativePointerType())
	instr := t.b.AllocateInstruction().AsLoad(t2, base, off)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) translateLoadNarrow(ma operator.MemArg, result ir.Type, narrowBits byte, signed bool) {
	addr := t.stack.pop()
	heap := t.cache.getHeap(t.b, t.env, memoryIndex)
	base, off := heapAddr(t.b, heap, addr, ma.Offset, t.env.NativePointerType())
	instr := t.b.AllocateInstruction().AsLoadNarrow(result, base, off, narrowBits, signed)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) translateStore(ma operator.MemArg, t2 ir.Type) {
	value := t.stack.pop()
	addr := t.stack.pop()
	heap := t.cache.getHeap(t.b, t.env, memoryIndex)
	base, off := heapAddr(t.b, heap, addr, ma.Offset, t.env.NativePointerType())
	instr := t.b.AllocateInstruction().AsStore(t2, base, value, off)
	t.b.InsertInstruction(instr)
}

func (t *Translator) translateStoreNarrow(ma operator.MemArg, narrowBits byte) {
	value := t.stack.pop()
	addr := t.stack.pop()
	heap := t.cache.getHeap(t.b, t.env, memoryIndex)
	base, off := heapAddr(t.b, heap, addr, ma.Offset, t.env.NativePointerType())
	instr := t.b.AllocateInstruction().AsStoreNarrow(base, value, off, narrowBits)
	t.b.InsertInstruction(instr)
}

func (t *Translator) pushIconst(typ ir.Type, bits uint64) {
	instr := t.b.AllocateInstruction().AsIconst(typ, bits)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) unOp(op ir.Opcode, typ ir.Type) {
	x := t.stack.pop()
	instr := t.b.AllocateInstruction().AsUnary(op, typ, x)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) binOp(op ir.Opcode, typ ir.Type) {
	y := t.stack.pop()
	x := t.stack.pop()
	instr := t.b.AllocateInstruction().AsBinary(op, typ, x, y)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) icmp(cc ir.IntCC) {
	y := t.stack.pop()
	x := t.stack.pop()
	instr := t.b.AllocateInstruction().AsIcmp(cc, x, y)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

func (t *Translator) fcmp(cc ir.FloatCC) {
	y := t.stack.pop()
	x := t.stack.pop()
	instr := t.b.AllocateInstruction().AsFcmp(cc, x, y)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}

// convert handles every unary conversion/reinterpretation opcode: one
// operand, one declared result type, no condition code.
func (t *Translator) convert(op ir.Opcode, result ir.Type) {
	x := t.stack.pop()
	instr := t.b.AllocateInstruction().AsUnary(op, result, x)
	t.b.InsertInstruction(instr)
	t.stack.push(instr.Return())
}
