// Package operator defines the decoded WebAssembly instruction stream the
// translate package consumes: translate never sees raw LEB128 bytes, only
// already-decoded Operator values. A bit-level decoder producing this
// stream from a .wasm function body is an external collaborator;
// internal/decoder supplies a minimal reference one so the package is
// runnable end-to-end.
package operator

import (
	"fmt"

	"github.com/wasmcore/wasm2ssa/internal/ir"
)

// Kind identifies which WebAssembly instruction an Operator represents.
// Saturating truncation opcodes are included so the translator can
// recognize and reject them explicitly (they are valid Wasm but outside
// this translator's supported opcode set).
type Kind uint16

const (
	KindInvalid Kind = iota

	KindUnreachable
	KindNop
	KindBlock
	KindLoop
	KindIf
	KindElse
	KindEnd
	KindBr
	KindBrIf
	KindBrTable
	KindReturn
	KindCall
	KindCallIndirect

	KindDrop
	KindSelect
	KindTypedSelect

	KindLocalGet
	KindLocalSet
	KindLocalTee
	KindGlobalGet
	KindGlobalSet

	KindI32Load
	KindI64Load
	KindF32Load
	KindF64Load
	KindI32Load8S
	KindI32Load8U
	KindI32Load16S
	KindI32Load16U
	KindI64Load8S
	KindI64Load8U
	KindI64Load16S
	KindI64Load16U
	KindI64Load32S
	KindI64Load32U
	KindI32Store
	KindI64Store
	KindF32Store
	KindF64Store
	KindI32Store8
	KindI32Store16
	KindI64Store8
	KindI64Store16
	KindI64Store32

	KindMemorySize
	KindMemoryGrow

	KindI32Const
	KindI64Const
	KindF32Const
	KindF64Const

	KindI32Eqz
	KindI32Eq
	KindI32Ne
	KindI32LtS
	KindI32LtU
	KindI32GtS
	KindI32GtU
	KindI32LeS
	KindI32LeU
	KindI32GeS
	KindI32GeU

	KindI64Eqz
	KindI64Eq
	KindI64Ne
	KindI64LtS
	KindI64LtU
	KindI64GtS
	KindI64GtU
	KindI64LeS
	KindI64LeU
	KindI64GeS
	KindI64GeU

	KindF32Eq
	KindF32Ne
	KindF32Lt
	KindF32Gt
	KindF32Le
	KindF32Ge

	KindF64Eq
	KindF64Ne
	KindF64Lt
	KindF64Gt
	KindF64Le
	KindF64Ge

	KindI32Clz
	KindI32Ctz
	KindI32Popcnt
	KindI32Add
	KindI32Sub
	KindI32Mul
	KindI32DivS
	KindI32DivU
	KindI32RemS
	KindI32RemU
	KindI32And
	KindI32Or
	KindI32Xor
	KindI32Shl
	KindI32ShrS
	KindI32ShrU
	KindI32Rotl
	KindI32Rotr

	KindI64Clz
	KindI64Ctz
	KindI64Popcnt
	KindI64Add
	KindI64Sub
	KindI64Mul
	KindI64DivS
	KindI64DivU
	KindI64RemS
	KindI64RemU
	KindI64And
	KindI64Or
	KindI64Xor
	KindI64Shl
	KindI64ShrS
	KindI64ShrU
	KindI64Rotl
	KindI64Rotr

	KindF32Abs
	KindF32Neg
	KindF32Ceil
	KindF32Floor
	KindF32Trunc
	KindF32Nearest
	KindF32Sqrt
	KindF32Add
	KindF32Sub
	KindF32Mul
	KindF32Div
	KindF32Min
	KindF32Max
	KindF32Copysign

	KindF64Abs
	KindF64Neg
	KindF64Ceil
	KindF64Floor
	KindF64Trunc
	KindF64Nearest
	KindF64Sqrt
	KindF64Add
	KindF64Sub
	KindF64Mul
	KindF64Div
	KindF64Min
	KindF64Max
	KindF64Copysign

	KindI32WrapI64
	KindI32TruncF32S
	KindI32TruncF32U
	KindI32TruncF64S
	KindI32TruncF64U
	KindI64ExtendI32S
	KindI64ExtendI32U
	KindI64TruncF32S
	KindI64TruncF32U
	KindI64TruncF64S
	KindI64TruncF64U
	KindF32ConvertI32S
	KindF32ConvertI32U
	KindF32ConvertI64S
	KindF32ConvertI64U
	KindF32DemoteF64
	KindF64ConvertI32S
	KindF64ConvertI32U
	KindF64ConvertI64S
	KindF64ConvertI64U
	KindF64PromoteF32
	KindI32ReinterpretF32
	KindI64ReinterpretF64
	KindF32ReinterpretI32
	KindF64ReinterpretI64
	KindI32Extend8S
	KindI32Extend16S
	KindI64Extend8S
	KindI64Extend16S

	// Saturating truncation family: valid Wasm (non-trapping conversions
	// proposal), but this translator does not support it; the reachable
	// dispatcher rejects it as a fatal "unsupported opcode" error, while
	// the unreachable dispatcher skips it like any other non-structural
	// operator.
	KindI32TruncSatF32S
	KindI32TruncSatF32U
	KindI32TruncSatF64S
	KindI32TruncSatF64U
	KindI64TruncSatF32S
	KindI64TruncSatF32U
	KindI64TruncSatF64S
	KindI64TruncSatF64U
)

var kindNames = map[Kind]string{
	KindUnreachable: "unreachable", KindNop: "nop", KindBlock: "block",
	KindLoop: "loop", KindIf: "if", KindElse: "else", KindEnd: "end",
	KindBr: "br", KindBrIf: "br_if", KindBrTable: "br_table",
	KindReturn: "return", KindCall: "call", KindCallIndirect: "call_indirect",
	KindDrop: "drop", KindSelect: "select", KindTypedSelect: "select (typed)",
	KindLocalGet: "local.get", KindLocalSet: "local.set", KindLocalTee: "local.tee",
	KindGlobalGet: "global.get", KindGlobalSet: "global.set",
	KindI32Load: "i32.load", KindI64Load: "i64.load", KindF32Load: "f32.load", KindF64Load: "f64.load",
	KindI32Load8S: "i32.load8_s", KindI32Load8U: "i32.load8_u",
	KindI32Load16S: "i32.load16_s", KindI32Load16U: "i32.load16_u",
	KindI64Load8S: "i64.load8_s", KindI64Load8U: "i64.load8_u",
	KindI64Load16S: "i64.load16_s", KindI64Load16U: "i64.load16_u",
	KindI64Load32S: "i64.load32_s", KindI64Load32U: "i64.load32_u",
	KindI32Store: "i32.store", KindI64Store: "i64.store", KindF32Store: "f32.store", KindF64Store: "f64.store",
	KindI32Store8: "i32.store8", KindI32Store16: "i32.store16",
	KindI64Store8: "i64.store8", KindI64Store16: "i64.store16", KindI64Store32: "i64.store32",
	KindMemorySize: "memory.size", KindMemoryGrow: "memory.grow",
	KindI32Const: "i32.const", KindI64Const: "i64.const", KindF32Const: "f32.const", KindF64Const: "f64.const",
	KindI32TruncSatF32S: "i32.trunc_sat_f32_s", KindI32TruncSatF32U: "i32.trunc_sat_f32_u",
	KindI32TruncSatF64S: "i32.trunc_sat_f64_s", KindI32TruncSatF64U: "i32.trunc_sat_f64_u",
	KindI64TruncSatF32S: "i64.trunc_sat_f32_s", KindI64TruncSatF32U: "i64.trunc_sat_f32_u",
	KindI64TruncSatF64S: "i64.trunc_sat_f64_s", KindI64TruncSatF64U: "i64.trunc_sat_f64_u",
}

// String implements fmt.Stringer. Only the opcodes distinguished by name in
// translator fault messages carry an entry; the rest (the bulk of the
// arithmetic/comparison/conversion set) fall back to a numeric rendering,
// which is fine since none of them can fail to translate.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// BlockType is the decoded type of a block/loop/if construct: either the
// empty type, a single value type, or a reference to a multi-value
// function type. Results has length 0 (and is nil as decoded) for the
// empty type.
type BlockType struct {
	Params  []ir.Type
	Results []ir.Type
}

// MemArg is the decoded static offset/alignment immediate pair attached
// to every load/store operator.
type MemArg struct {
	Offset uint32
	Align  uint32
}

// Operator is one decoded WebAssembly instruction. Only the fields
// relevant to Kind are populated, giving each variant its own payload
// without needing Go union types.
type Operator struct {
	Kind Kind

	// I32Const/I64Const/F32Const/F64Const payload.
	I32 int32
	I64 int64
	F32 float32
	F64 float64

	// LocalGet/LocalSet/LocalTee/GlobalGet/GlobalSet index.
	Index uint32

	// Call index (function index) / CallIndirect type index.
	FuncIndex uint32
	TypeIndex uint32

	// Br/BrIf relative depth, or BrTable's default relative depth.
	RelativeDepth uint32
	// BrTable's non-default targets, relative depths.
	TableTargets []uint32

	// Block/Loop/If block type.
	BlockType BlockType

	// TypedSelect's declared operand type.
	SelectType ir.Type

	// Load/store static offset+align.
	MemArg MemArg
}
