package ir

import (
	"fmt"
	"strings"
)

// Opcode identifies the operation an Instruction performs. The set here
// covers the WebAssembly MVP numeric/memory/control operators the
// translator lowers to; it intentionally excludes SIMD/vector and
// reference-type opcodes, which are out of scope.
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	// Constants.
	OpcodeIconst
	OpcodeF32const
	OpcodeF64const

	// Integer arithmetic, defined over both I32 and I64 (the operand
	// Type distinguishes width).
	OpcodeIadd
	OpcodeIsub
	OpcodeImul
	OpcodeSdiv
	OpcodeUdiv
	OpcodeSrem
	OpcodeUrem
	OpcodeBand
	OpcodeBor
	OpcodeBxor
	OpcodeIshl
	OpcodeSshr
	OpcodeUshr
	OpcodeRotl
	OpcodeRotr
	OpcodeClz
	OpcodeCtz
	OpcodePopcnt
	OpcodeIeqz

	// Integer comparison; IntCC carried in u1.
	OpcodeIcmp

	// Float arithmetic.
	OpcodeFadd
	OpcodeFsub
	OpcodeFmul
	OpcodeFdiv
	OpcodeFmin
	OpcodeFmax
	OpcodeFcopysign
	OpcodeFabs
	OpcodeFneg
	OpcodeSqrt
	OpcodeCeil
	OpcodeFloor
	OpcodeTrunc
	OpcodeNearest

	// Float comparison; FloatCC carried in u1.
	OpcodeFcmp

	// Conversions.
	OpcodeIreduce       // i64 -> i32 (wrap)
	OpcodeSextend       // sign-extend to wider int, or 8/16-in-32 sign extension
	OpcodeUextend       // zero-extend to wider int
	OpcodeFcvtToSint    // float -> signed int, trapping on overflow/NaN
	OpcodeFcvtToUint    // float -> unsigned int, trapping on overflow/NaN
	OpcodeFcvtFromSint  // signed int -> float
	OpcodeFcvtFromUint  // unsigned int -> float
	OpcodeFdemote       // f64 -> f32
	OpcodeFpromote      // f32 -> f64
	OpcodeBitcast       // reinterpret bits, same width

	// Memory.
	OpcodeHeapAddr
	OpcodeLoad
	OpcodeStore
	// LoadNarrow/StoreNarrow cover the i32.load8_s/load16_u/... family:
	// a sub-word memory access whose offset is in u1 and whose narrow
	// width in bits is the low byte of u2; for LoadNarrow, bit 32 of u2
	// set means sign extension, clear means zero extension.
	OpcodeLoadNarrow
	OpcodeStoreNarrow

	// Globals.
	OpcodeGlobalGet
	OpcodeGlobalSet

	// Calls.
	OpcodeCall
	OpcodeCallIndirect

	// Memory size intrinsics, lowered by the Environment rather than
	// given a fixed expansion here (the host decides how pages-to-bytes
	// bookkeeping and growth failure are represented).
	OpcodeMemoryGrow
	OpcodeMemorySize

	// Control flow. Each basic block ends with exactly one of these.
	OpcodeJump
	OpcodeBrz
	OpcodeBrnz
	OpcodeBrTable
	OpcodeReturn

	// Traps.
	OpcodeTrap

	// Select chooses between v2 and v3 based on a zero/nonzero condition (v).
	OpcodeSelect
)

var opcodeNames = map[Opcode]string{
	OpcodeInvalid:      "invalid",
	OpcodeIconst:       "iconst",
	OpcodeF32const:     "f32const",
	OpcodeF64const:     "f64const",
	OpcodeIadd:         "iadd",
	OpcodeIsub:         "isub",
	OpcodeImul:         "imul",
	OpcodeSdiv:         "sdiv",
	OpcodeUdiv:         "udiv",
	OpcodeSrem:         "srem",
	OpcodeUrem:         "urem",
	OpcodeBand:         "band",
	OpcodeBor:          "bor",
	OpcodeBxor:         "bxor",
	OpcodeIshl:         "ishl",
	OpcodeSshr:         "sshr",
	OpcodeUshr:         "ushr",
	OpcodeRotl:         "rotl",
	OpcodeRotr:         "rotr",
	OpcodeClz:          "clz",
	OpcodeCtz:          "ctz",
	OpcodePopcnt:       "popcnt",
	OpcodeIeqz:         "ieqz",
	OpcodeIcmp:         "icmp",
	OpcodeFadd:         "fadd",
	OpcodeFsub:         "fsub",
	OpcodeFmul:         "fmul",
	OpcodeFdiv:         "fdiv",
	OpcodeFmin:         "fmin",
	OpcodeFmax:         "fmax",
	OpcodeFcopysign:    "fcopysign",
	OpcodeFabs:         "fabs",
	OpcodeFneg:         "fneg",
	OpcodeSqrt:         "sqrt",
	OpcodeCeil:         "ceil",
	OpcodeFloor:        "floor",
	OpcodeTrunc:        "trunc",
	OpcodeNearest:      "nearest",
	OpcodeFcmp:         "fcmp",
	OpcodeIreduce:      "ireduce",
	OpcodeSextend:      "sextend",
	OpcodeUextend:      "uextend",
	OpcodeFcvtToSint:   "fcvt_to_sint",
	OpcodeFcvtToUint:   "fcvt_to_uint",
	OpcodeFcvtFromSint: "fcvt_from_sint",
	OpcodeFcvtFromUint: "fcvt_from_uint",
	OpcodeFdemote:      "fdemote",
	OpcodeFpromote:     "fpromote",
	OpcodeBitcast:      "bitcast",
	OpcodeHeapAddr:     "heap_addr",
	OpcodeLoad:         "load",
	OpcodeStore:        "store",
	OpcodeLoadNarrow:   "load_narrow",
	OpcodeStoreNarrow:  "store_narrow",
	OpcodeGlobalGet:    "global_get",
	OpcodeGlobalSet:    "global_set",
	OpcodeCall:         "call",
	OpcodeCallIndirect: "call_indirect",
	OpcodeMemoryGrow:   "memory_grow",
	OpcodeMemorySize:   "memory_size",
	OpcodeJump:         "jump",
	OpcodeBrz:          "brz",
	OpcodeBrnz:         "brnz",
	OpcodeBrTable:      "br_table",
	OpcodeReturn:       "return",
	OpcodeTrap:         "trap",
	OpcodeSelect:       "select",
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("opcode(%d)", uint32(o))
}

// IntCC is an integer comparison condition code, carried in Instruction.u1
// for OpcodeIcmp.
type IntCC byte

const (
	IntEQ IntCC = iota
	IntNE
	IntSLT
	IntSLE
	IntSGT
	IntSGE
	IntULT
	IntULE
	IntUGT
	IntUGE
)

// FloatCC is a floating-point comparison condition code, carried in
// Instruction.u1 for OpcodeFcmp.
type FloatCC byte

const (
	FloatEQ FloatCC = iota
	FloatNE
	FloatLT
	FloatLE
	FloatGT
	FloatGE
)

// TrapCode identifies why an OpcodeTrap instruction aborts execution.
type TrapCode uint32

const (
	TrapUnreachable TrapCode = iota
	TrapIntegerOverflow
	TrapIntegerDivisionByZero
	TrapInvalidConversionToInteger
	TrapMemoryOutOfBounds
	TrapTableOutOfBounds
	TrapIndirectCallTypeMismatch
	TrapIndirectCallToNull
	TrapUser
)

// Instruction is a single IR instruction. Go has no tagged unions, so one
// flattened struct serves every Opcode; which fields are meaningful is
// determined by Opcode, following the same flattened-struct idiom as the
// SSA builder this package generalizes.
type Instruction struct {
	opcode Opcode
	u1, u2 uint64
	v, v2, v3 Value
	vs     []Value
	typ    Type
	blk    BasicBlock
	targets []BasicBlock // br_table successors, the last entry is the default
	heap   Heap
	global GlobalVar
	sig    SigRef
	fn     FuncRef
	jt     JumpTable

	prev, next *Instruction

	rValue Value
}

func (i *Instruction) reset() {
	*i = Instruction{}
	i.v, i.v2, i.v3, i.rValue = ValueInvalid, ValueInvalid, ValueInvalid, ValueInvalid
	i.typ = typeInvalid
}

// Opcode returns the opcode of i.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Return returns the Value produced by i, if any.
func (i *Instruction) Return() Value { return i.rValue }

// Args returns the up-to-three fixed value arguments of i.
func (i *Instruction) Args() (Value, Value, Value) { return i.v, i.v2, i.v3 }

// VarArgs returns the variable-length argument list of i (e.g. a call's
// actual arguments).
func (i *Instruction) VarArgs() []Value { return i.vs }

// Next returns the instruction immediately after i in its block.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the instruction immediately before i in its block.
func (i *Instruction) Prev() *Instruction { return i.prev }

// IsTerminator reports whether i ends its basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.opcode {
	case OpcodeJump, OpcodeBrz, OpcodeBrnz, OpcodeBrTable, OpcodeReturn, OpcodeTrap:
		return true
	default:
		return false
	}
}

// AsIconst configures i as an OpcodeIconst producing an I32 or I64 value.
func (i *Instruction) AsIconst(t Type, v uint64) *Instruction {
	i.opcode, i.typ, i.u1 = OpcodeIconst, t, v
	return i
}

// IconstData returns the operands of an OpcodeIconst instruction.
func (i *Instruction) IconstData() (Type, uint64) { return i.typ, i.u1 }

// AsF32const configures i as an OpcodeF32const.
func (i *Instruction) AsF32const(v float32) *Instruction {
	i.opcode, i.typ, i.u1 = OpcodeF32const, TypeF32, uint64(f32bits(v))
	return i
}

// AsF64const configures i as an OpcodeF64const.
func (i *Instruction) AsF64const(v float64) *Instruction {
	i.opcode, i.typ, i.u1 = OpcodeF64const, TypeF64, f64bits(v)
	return i
}

// AsBinary configures i as a two-operand arithmetic/comparison instruction.
func (i *Instruction) AsBinary(op Opcode, t Type, x, y Value) *Instruction {
	i.opcode, i.typ, i.v, i.v2 = op, t, x, y
	return i
}

// AsUnary configures i as a one-operand instruction.
func (i *Instruction) AsUnary(op Opcode, t Type, x Value) *Instruction {
	i.opcode, i.typ, i.v = op, t, x
	return i
}

// AsIcmp configures i as an OpcodeIcmp with the given condition code.
func (i *Instruction) AsIcmp(cc IntCC, x, y Value) *Instruction {
	i.opcode, i.typ, i.v, i.v2, i.u1 = OpcodeIcmp, TypeI32, x, y, uint64(cc)
	return i
}

// IcmpCC returns the condition code of an OpcodeIcmp instruction.
func (i *Instruction) IcmpCC() IntCC { return IntCC(i.u1) }

// AsFcmp configures i as an OpcodeFcmp with the given condition code.
func (i *Instruction) AsFcmp(cc FloatCC, x, y Value) *Instruction {
	i.opcode, i.typ, i.v, i.v2, i.u1 = OpcodeFcmp, TypeI32, x, y, uint64(cc)
	return i
}

// FcmpCC returns the condition code of an OpcodeFcmp instruction.
func (i *Instruction) FcmpCC() FloatCC { return FloatCC(i.u1) }

// AsHeapAddr configures i as an OpcodeHeapAddr: forming a checked address
// into heap at addr, of type addrType, where checkSize is the
// CSE-friendly quantized bounds-check size computed by the heap address
// former.
func (i *Instruction) AsHeapAddr(heap Heap, addr Value, checkSize uint32, addrType Type) *Instruction {
	i.opcode, i.typ, i.heap, i.v, i.u1 = OpcodeHeapAddr, addrType, heap, addr, uint64(checkSize)
	return i
}

// HeapAddrData returns the operands of an OpcodeHeapAddr instruction.
func (i *Instruction) HeapAddrData() (heap Heap, addr Value, checkSize uint32) {
	return i.heap, i.v, uint32(i.u1)
}

// AsLoad configures i as a full-width OpcodeLoad from base+offset.
func (i *Instruction) AsLoad(t Type, base Value, offset int32) *Instruction {
	i.opcode, i.typ, i.v, i.u1 = OpcodeLoad, t, base, uint64(uint32(offset))
	return i
}

// AsStore configures i as a full-width OpcodeStore of value to base+offset.
func (i *Instruction) AsStore(t Type, base, value Value, offset int32) *Instruction {
	i.opcode, i.typ, i.v, i.v2, i.u1 = OpcodeStore, t, base, value, uint64(uint32(offset))
	return i
}

// AsLoadNarrow configures i as a sub-word load with sign/zero extension to
// result type t, reading narrowBits from base+offset.
func (i *Instruction) AsLoadNarrow(t Type, base Value, offset int32, narrowBits byte, signed bool) *Instruction {
	i.opcode, i.typ, i.v, i.u1, i.u2 = OpcodeLoadNarrow, t, base, uint64(uint32(offset)), uint64(narrowBits)
	if signed {
		i.u2 |= 1 << 32
	}
	return i
}

// LoadNarrowData returns the operands of an OpcodeLoadNarrow instruction.
func (i *Instruction) LoadNarrowData() (base Value, offset int32, narrowBits byte, signed bool) {
	return i.v, int32(uint32(i.u1)), byte(i.u2), i.u2>>32 != 0
}

// AsStoreNarrow configures i as a sub-word store truncating value to
// narrowBits at base+offset.
func (i *Instruction) AsStoreNarrow(base, value Value, offset int32, narrowBits byte) *Instruction {
	i.opcode, i.v, i.v2, i.u1, i.u2 = OpcodeStoreNarrow, base, value, uint64(uint32(offset)), uint64(narrowBits)
	return i
}

// LoadData returns the operands of an OpcodeLoad instruction.
func (i *Instruction) LoadData() (Value, int32) { return i.v, int32(uint32(i.u1)) }

// StoreData returns the operands of an OpcodeStore instruction.
func (i *Instruction) StoreData() (Value, Value, int32) { return i.v, i.v2, int32(uint32(i.u1)) }

// StoreNarrowData returns the operands of an OpcodeStoreNarrow instruction.
func (i *Instruction) StoreNarrowData() (Value, Value, int32, byte) {
	return i.v, i.v2, int32(uint32(i.u1)), byte(i.u2)
}

// AsGlobalGet configures i as an OpcodeGlobalGet reading g.
func (i *Instruction) AsGlobalGet(t Type, g GlobalVar) *Instruction {
	i.opcode, i.typ, i.global = OpcodeGlobalGet, t, g
	return i
}

// GlobalGetData returns the operand of an OpcodeGlobalGet instruction.
func (i *Instruction) GlobalGetData() GlobalVar { return i.global }

// AsGlobalSet configures i as an OpcodeGlobalSet storing value into g.
func (i *Instruction) AsGlobalSet(g GlobalVar, value Value) *Instruction {
	i.opcode, i.global, i.v = OpcodeGlobalSet, g, value
	return i
}

// GlobalSetData returns the operands of an OpcodeGlobalSet instruction.
func (i *Instruction) GlobalSetData() (GlobalVar, Value) { return i.global, i.v }

// AsCall configures i as a direct OpcodeCall to fn (whose signature was
// already declared via Builder.DeclareFuncRef) with args, producing a
// result of type resultType (the zero Type if the callee returns nothing;
// multi-result callees are out of scope since WebAssembly 1.0 function
// types return at most one value).
func (i *Instruction) AsCall(fn FuncRef, args []Value, resultType Type) *Instruction {
	i.opcode, i.fn, i.vs, i.typ = OpcodeCall, fn, args, resultType
	return i
}

// CallData returns the operands of an OpcodeCall instruction.
func (i *Instruction) CallData() (FuncRef, []Value) { return i.fn, i.vs }

// AsCallIndirect configures i as an indirect call through sig using
// funcPtr (which neither this instruction nor the translator checks; see
// environ.Environment.TranslateCallIndirect) with args,
// producing a result of type resultType (the zero Type if void).
func (i *Instruction) AsCallIndirect(funcPtr Value, sig SigRef, args []Value, resultType Type) *Instruction {
	i.opcode, i.v, i.sig, i.vs, i.typ = OpcodeCallIndirect, funcPtr, sig, args, resultType
	return i
}

// CallIndirectData returns the operands of an OpcodeCallIndirect
// instruction.
func (i *Instruction) CallIndirectData() (Value, SigRef, []Value) { return i.v, i.sig, i.vs }

// AsMemoryGrow configures i as a memory.grow on heap by delta pages,
// producing the previous size in pages (or -1 on failure).
func (i *Instruction) AsMemoryGrow(heap Heap, delta Value) *Instruction {
	i.opcode, i.typ, i.heap, i.v = OpcodeMemoryGrow, TypeI32, heap, delta
	return i
}

// MemoryGrowData returns the operands of an OpcodeMemoryGrow instruction.
func (i *Instruction) MemoryGrowData() (Heap, Value) { return i.heap, i.v }

// AsMemorySize configures i as a memory.size on heap, producing the
// current size in pages.
func (i *Instruction) AsMemorySize(heap Heap) *Instruction {
	i.opcode, i.typ, i.heap = OpcodeMemorySize, TypeI32, heap
	return i
}

// MemorySizeData returns the operand of an OpcodeMemorySize instruction.
func (i *Instruction) MemorySizeData() Heap { return i.heap }

// AsJump configures i as an unconditional jump to blk with block arguments
// args.
func (i *Instruction) AsJump(blk BasicBlock, args []Value) *Instruction {
	i.opcode, i.blk, i.vs = OpcodeJump, blk, args
	return i
}

// AsBrz configures i as a conditional jump to blk (taken when cond == 0)
// with block arguments args.
func (i *Instruction) AsBrz(cond Value, blk BasicBlock, args []Value) *Instruction {
	i.opcode, i.v, i.blk, i.vs = OpcodeBrz, cond, blk, args
	return i
}

// AsBrnz configures i as a conditional jump to blk (taken when cond != 0)
// with block arguments args.
func (i *Instruction) AsBrnz(cond Value, blk BasicBlock, args []Value) *Instruction {
	i.opcode, i.v, i.blk, i.vs = OpcodeBrnz, cond, blk, args
	return i
}

// BranchData returns the condition (ValueInvalid for OpcodeJump), target
// block, and block arguments of a jump/brz/brnz instruction.
func (i *Instruction) BranchData() (cond Value, blk BasicBlock, args []Value) {
	return i.v, i.blk, i.vs
}

// AsBrTable configures i as a br_table dispatching on index through jt,
// whose target list is targets (last entry is the default, matching the
// br_table encoding where the final label is the mandatory default).
func (i *Instruction) AsBrTable(index Value, jt JumpTable, targets []BasicBlock) *Instruction {
	i.opcode, i.v, i.jt, i.targets = OpcodeBrTable, index, jt, targets
	return i
}

// BrTableData returns the operands of an OpcodeBrTable instruction.
func (i *Instruction) BrTableData() (Value, JumpTable, []BasicBlock) { return i.v, i.jt, i.targets }

// AsReturn configures i as a function return of results.
func (i *Instruction) AsReturn(results []Value) *Instruction {
	i.opcode, i.vs = OpcodeReturn, results
	return i
}

// ReturnData returns the results of an OpcodeReturn instruction.
func (i *Instruction) ReturnData() []Value { return i.vs }

// AsTrap configures i as an unconditional trap with the given code.
func (i *Instruction) AsTrap(code TrapCode) *Instruction {
	i.opcode, i.u1 = OpcodeTrap, uint64(code)
	return i
}

// TrapCodeData returns the trap code of an OpcodeTrap instruction.
func (i *Instruction) TrapCodeData() TrapCode { return TrapCode(i.u1) }

// AsSelect configures i as choosing x when cond != 0, else y.
func (i *Instruction) AsSelect(t Type, cond, x, y Value) *Instruction {
	i.opcode, i.typ, i.v, i.v2, i.v3 = OpcodeSelect, t, cond, x, y
	return i
}

// SelectData returns the operands of an OpcodeSelect instruction: cond, x, y.
func (i *Instruction) SelectData() (Value, Value, Value) { return i.v, i.v2, i.v3 }

// Format renders i for debugging.
func (i *Instruction) Format(b Builder) string {
	var sb strings.Builder
	if i.rValue.Valid() {
		sb.WriteString(i.rValue.formatWithType(b))
		sb.WriteString(" = ")
	}
	sb.WriteString(i.opcode.String())
	switch i.opcode {
	case OpcodeIconst:
		fmt.Fprintf(&sb, " %s %d", i.typ, i.u1)
	case OpcodeF32const:
		fmt.Fprintf(&sb, " %g", f32frombits(uint32(i.u1)))
	case OpcodeF64const:
		fmt.Fprintf(&sb, " %g", f64frombits(i.u1))
	case OpcodeJump:
		fmt.Fprintf(&sb, " %s(%s)", i.blk.Name(), formatValues(b, i.vs))
	case OpcodeBrz, OpcodeBrnz:
		fmt.Fprintf(&sb, " %s, %s(%s)", i.v.Format(b), i.blk.Name(), formatValues(b, i.vs))
	case OpcodeBrTable:
		fmt.Fprintf(&sb, " %s, %s", i.v.Format(b), i.jt)
	case OpcodeReturn:
		fmt.Fprintf(&sb, " %s", formatValues(b, i.vs))
	case OpcodeCall:
		fmt.Fprintf(&sb, " %s(%s)", i.fn, formatValues(b, i.vs))
	case OpcodeCallIndirect:
		fmt.Fprintf(&sb, " %s:%s(%s)", i.v.Format(b), i.sig, formatValues(b, i.vs))
	case OpcodeGlobalGet:
		fmt.Fprintf(&sb, " %s", i.global)
	case OpcodeGlobalSet:
		fmt.Fprintf(&sb, " %s, %s", i.global, i.v.Format(b))
	case OpcodeHeapAddr:
		fmt.Fprintf(&sb, " %s, %s, %d", i.heap, i.v.Format(b), i.u1)
	case OpcodeMemoryGrow:
		fmt.Fprintf(&sb, " %s, %s", i.heap, i.v.Format(b))
	case OpcodeMemorySize:
		fmt.Fprintf(&sb, " %s", i.heap)
	case OpcodeTrap:
		fmt.Fprintf(&sb, " %d", i.u1)
	default:
		if i.v.Valid() {
			fmt.Fprintf(&sb, " %s", i.v.Format(b))
		}
		if i.v2.Valid() {
			fmt.Fprintf(&sb, ", %s", i.v2.Format(b))
		}
		if i.v3.Valid() {
			fmt.Fprintf(&sb, ", %s", i.v3.Format(b))
		}
	}
	return sb.String()
}

func formatValues(b Builder, vs []Value) string {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = v.Format(b)
	}
	return strings.Join(ss, ", ")
}
