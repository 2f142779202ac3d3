package decoder

import (
	"github.com/pkg/errors"

	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// DecodeFunction decodes function index's complete local-variable type
// list (parameters first, then its declared locals) and its operator
// stream, ready to hand to translate.Translator.Init/Translate.
func (m *Module) DecodeFunction(index int) (localTypes []ir.Type, ops []operator.Operator, err error) {
	if index < 0 || index >= len(m.Functions) {
		return nil, nil, errors.Errorf("decoder: function index %d out of range", index)
	}
	fn := m.Functions[index]
	r := newReader(fn.body)

	declared, err := decodeLocalsDecl(r)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decoder: function %d locals", index)
	}
	localTypes = append(append([]ir.Type{}, fn.Sig.Params...), declared...)

	ops, err = decodeOperators(r, m.Types)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "decoder: function %d body", index)
	}
	return localTypes, ops, nil
}

func decodeLocalsDecl(r *reader) ([]ir.Type, error) {
	groups, err := r.u32()
	if err != nil {
		return nil, err
	}
	var out []ir.Type
	for i := uint32(0); i < groups; i++ {
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		t, err := r.valType()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < count; j++ {
			out = append(out, t)
		}
	}
	return out, nil
}

func valTypeFromByte(b byte) (ir.Type, bool) {
	switch b {
	case 0x7F:
		return ir.TypeI32, true
	case 0x7E:
		return ir.TypeI64, true
	case 0x7D:
		return ir.TypeF32, true
	case 0x7C:
		return ir.TypeF64, true
	default:
		return 0, false
	}
}

// decodeBlockType decodes the bt immediate of a block/loop/if: the empty
// type (0x40), a single value type, or a signed LEB128 type index into
// types for the multi-value case.
func decodeBlockType(r *reader, types []*ir.Signature) (operator.BlockType, error) {
	start := r.pos
	b, err := r.byte()
	if err != nil {
		return operator.BlockType{}, err
	}
	if b == 0x40 {
		return operator.BlockType{}, nil
	}
	if t, ok := valTypeFromByte(b); ok {
		return operator.BlockType{Results: []ir.Type{t}}, nil
	}
	r.pos = start
	idx, err := r.s64()
	if err != nil {
		return operator.BlockType{}, errors.Wrap(err, "decoding block type index")
	}
	if idx < 0 || int(idx) >= len(types) {
		return operator.BlockType{}, errors.Errorf("block type references unknown type %d", idx)
	}
	sig := types[idx]
	return operator.BlockType{Params: sig.Params, Results: sig.Results}, nil
}

func decodeMemArg(r *reader) (operator.MemArg, error) {
	align, err := r.u32()
	if err != nil {
		return operator.MemArg{}, err
	}
	offset, err := r.u32()
	if err != nil {
		return operator.MemArg{}, err
	}
	return operator.MemArg{Offset: offset, Align: align}, nil
}

// decodeOperators decodes the opcode stream that follows a function
// body's locals declaration, through and including its final `end`.
func decodeOperators(r *reader, types []*ir.Signature) ([]operator.Operator, error) {
	var ops []operator.Operator
	for !r.done() {
		op, err := r.byte()
		if err != nil {
			return nil, err
		}
		o, err := decodeOne(op, r, types)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding opcode 0x%x at offset %d", op, r.pos-1)
		}
		ops = append(ops, o)
	}
	return ops, nil
}

func decodeOne(op byte, r *reader, types []*ir.Signature) (operator.Operator, error) {
	switch op {
	case 0x00:
		return operator.Operator{Kind: operator.KindUnreachable}, nil
	case 0x01:
		return operator.Operator{Kind: operator.KindNop}, nil
	case 0x02, 0x03, 0x04:
		bt, err := decodeBlockType(r, types)
		if err != nil {
			return operator.Operator{}, err
		}
		kind := map[byte]operator.Kind{0x02: operator.KindBlock, 0x03: operator.KindLoop, 0x04: operator.KindIf}[op]
		return operator.Operator{Kind: kind, BlockType: bt}, nil
	case 0x05:
		return operator.Operator{Kind: operator.KindElse}, nil
	case 0x0B:
		return operator.Operator{Kind: operator.KindEnd}, nil
	case 0x0C, 0x0D:
		depth, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		kind := operator.KindBr
		if op == 0x0D {
			kind = operator.KindBrIf
		}
		return operator.Operator{Kind: kind, RelativeDepth: depth}, nil
	case 0x0E:
		return decodeBrTable(r)
	case 0x0F:
		return operator.Operator{Kind: operator.KindReturn}, nil
	case 0x10:
		idx, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindCall, FuncIndex: idx}, nil
	case 0x11:
		typeIdx, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		if _, err := r.byte(); err != nil { // tableidx, single default table only
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindCallIndirect, TypeIndex: typeIdx}, nil
	case 0x1A:
		return operator.Operator{Kind: operator.KindDrop}, nil
	case 0x1B:
		return operator.Operator{Kind: operator.KindSelect}, nil
	case 0x1C:
		n, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		if n != 1 {
			return operator.Operator{}, errors.Errorf("typed select with %d types unsupported", n)
		}
		t, err := r.valType()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindTypedSelect, SelectType: t}, nil
	case 0x20, 0x21, 0x22:
		idx, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		kind := map[byte]operator.Kind{0x20: operator.KindLocalGet, 0x21: operator.KindLocalSet, 0x22: operator.KindLocalTee}[op]
		return operator.Operator{Kind: kind, Index: idx}, nil
	case 0x23, 0x24:
		idx, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		kind := operator.KindGlobalGet
		if op == 0x24 {
			kind = operator.KindGlobalSet
		}
		return operator.Operator{Kind: kind, Index: idx}, nil
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F,
		0x30, 0x31, 0x32, 0x33, 0x34, 0x35,
		0x36, 0x37, 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E:
		mem, err := decodeMemArg(r)
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: loadStoreKinds[op], MemArg: mem}, nil
	case 0x3F, 0x40:
		if _, err := r.byte(); err != nil { // reserved byte, always 0x00
			return operator.Operator{}, err
		}
		kind := operator.KindMemorySize
		if op == 0x40 {
			kind = operator.KindMemoryGrow
		}
		return operator.Operator{Kind: kind}, nil
	case 0x41:
		v, err := r.s32()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindI32Const, I32: v}, nil
	case 0x42:
		v, err := r.s64()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindI64Const, I64: v}, nil
	case 0x43:
		v, err := r.f32()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindF32Const, F32: v}, nil
	case 0x44:
		v, err := r.f64()
		if err != nil {
			return operator.Operator{}, err
		}
		return operator.Operator{Kind: operator.KindF64Const, F64: v}, nil
	case 0xFC:
		sub, err := r.u32()
		if err != nil {
			return operator.Operator{}, err
		}
		kind, ok := saturatingTruncKinds[sub]
		if !ok {
			return operator.Operator{}, errors.Errorf("unsupported 0xFC sub-opcode %d", sub)
		}
		// Decoded (not rejected here) so the translator's own fatal-error
		// path rejects it with a proper Fault; this decoder's job is
		// recognizing the byte stream, not enforcing the opcode subset.
		return operator.Operator{Kind: kind}, nil
	default:
		if kind, ok := plainKinds[op]; ok {
			return operator.Operator{Kind: kind}, nil
		}
		return operator.Operator{}, errors.Errorf("unsupported opcode byte 0x%x", op)
	}
}

func decodeBrTable(r *reader) (operator.Operator, error) {
	n, err := r.u32()
	if err != nil {
		return operator.Operator{}, err
	}
	targets := make([]uint32, n)
	for i := range targets {
		if targets[i], err = r.u32(); err != nil {
			return operator.Operator{}, err
		}
	}
	def, err := r.u32()
	if err != nil {
		return operator.Operator{}, err
	}
	return operator.Operator{Kind: operator.KindBrTable, TableTargets: targets, RelativeDepth: def}, nil
}

var loadStoreKinds = map[byte]operator.Kind{
	0x28: operator.KindI32Load, 0x29: operator.KindI64Load, 0x2A: operator.KindF32Load, 0x2B: operator.KindF64Load,
	0x2C: operator.KindI32Load8S, 0x2D: operator.KindI32Load8U,
	0x2E: operator.KindI32Load16S, 0x2F: operator.KindI32Load16U,
	0x30: operator.KindI64Load8S, 0x31: operator.KindI64Load8U,
	0x32: operator.KindI64Load16S, 0x33: operator.KindI64Load16U,
	0x34: operator.KindI64Load32S, 0x35: operator.KindI64Load32U,
	0x36: operator.KindI32Store, 0x37: operator.KindI64Store, 0x38: operator.KindF32Store, 0x39: operator.KindF64Store,
	0x3A: operator.KindI32Store8, 0x3B: operator.KindI32Store16,
	0x3C: operator.KindI64Store8, 0x3D: operator.KindI64Store16, 0x3E: operator.KindI64Store32,
}

// plainKinds covers every opcode with no immediate: the bulk of the
// arithmetic/comparison/conversion set, plus the sign-extension ops.
var plainKinds = map[byte]operator.Kind{
	0x45: operator.KindI32Eqz, 0x46: operator.KindI32Eq, 0x47: operator.KindI32Ne,
	0x48: operator.KindI32LtS, 0x49: operator.KindI32LtU, 0x4A: operator.KindI32GtS, 0x4B: operator.KindI32GtU,
	0x4C: operator.KindI32LeS, 0x4D: operator.KindI32LeU, 0x4E: operator.KindI32GeS, 0x4F: operator.KindI32GeU,
	0x50: operator.KindI64Eqz, 0x51: operator.KindI64Eq, 0x52: operator.KindI64Ne,
	0x53: operator.KindI64LtS, 0x54: operator.KindI64LtU, 0x55: operator.KindI64GtS, 0x56: operator.KindI64GtU,
	0x57: operator.KindI64LeS, 0x58: operator.KindI64LeU, 0x59: operator.KindI64GeS, 0x5A: operator.KindI64GeU,
	0x5B: operator.KindF32Eq, 0x5C: operator.KindF32Ne, 0x5D: operator.KindF32Lt, 0x5E: operator.KindF32Gt,
	0x5F: operator.KindF32Le, 0x60: operator.KindF32Ge,
	0x61: operator.KindF64Eq, 0x62: operator.KindF64Ne, 0x63: operator.KindF64Lt, 0x64: operator.KindF64Gt,
	0x65: operator.KindF64Le, 0x66: operator.KindF64Ge,
	0x67: operator.KindI32Clz, 0x68: operator.KindI32Ctz, 0x69: operator.KindI32Popcnt,
	0x6A: operator.KindI32Add, 0x6B: operator.KindI32Sub, 0x6C: operator.KindI32Mul,
	0x6D: operator.KindI32DivS, 0x6E: operator.KindI32DivU, 0x6F: operator.KindI32RemS, 0x70: operator.KindI32RemU,
	0x71: operator.KindI32And, 0x72: operator.KindI32Or, 0x73: operator.KindI32Xor,
	0x74: operator.KindI32Shl, 0x75: operator.KindI32ShrS, 0x76: operator.KindI32ShrU,
	0x77: operator.KindI32Rotl, 0x78: operator.KindI32Rotr,
	0x79: operator.KindI64Clz, 0x7A: operator.KindI64Ctz, 0x7B: operator.KindI64Popcnt,
	0x7C: operator.KindI64Add, 0x7D: operator.KindI64Sub, 0x7E: operator.KindI64Mul,
	0x7F: operator.KindI64DivS, 0x80: operator.KindI64DivU, 0x81: operator.KindI64RemS, 0x82: operator.KindI64RemU,
	0x83: operator.KindI64And, 0x84: operator.KindI64Or, 0x85: operator.KindI64Xor,
	0x86: operator.KindI64Shl, 0x87: operator.KindI64ShrS, 0x88: operator.KindI64ShrU,
	0x89: operator.KindI64Rotl, 0x8A: operator.KindI64Rotr,
	0x8B: operator.KindF32Abs, 0x8C: operator.KindF32Neg, 0x8D: operator.KindF32Ceil, 0x8E: operator.KindF32Floor,
	0x8F: operator.KindF32Trunc, 0x90: operator.KindF32Nearest, 0x91: operator.KindF32Sqrt,
	0x92: operator.KindF32Add, 0x93: operator.KindF32Sub, 0x94: operator.KindF32Mul, 0x95: operator.KindF32Div,
	0x96: operator.KindF32Min, 0x97: operator.KindF32Max, 0x98: operator.KindF32Copysign,
	0x99: operator.KindF64Abs, 0x9A: operator.KindF64Neg, 0x9B: operator.KindF64Ceil, 0x9C: operator.KindF64Floor,
	0x9D: operator.KindF64Trunc, 0x9E: operator.KindF64Nearest, 0x9F: operator.KindF64Sqrt,
	0xA0: operator.KindF64Add, 0xA1: operator.KindF64Sub, 0xA2: operator.KindF64Mul, 0xA3: operator.KindF64Div,
	0xA4: operator.KindF64Min, 0xA5: operator.KindF64Max, 0xA6: operator.KindF64Copysign,
	0xA7: operator.KindI32WrapI64,
	0xA8: operator.KindI32TruncF32S, 0xA9: operator.KindI32TruncF32U,
	0xAA: operator.KindI32TruncF64S, 0xAB: operator.KindI32TruncF64U,
	0xAC: operator.KindI64ExtendI32S, 0xAD: operator.KindI64ExtendI32U,
	0xAE: operator.KindI64TruncF32S, 0xAF: operator.KindI64TruncF32U,
	0xB0: operator.KindI64TruncF64S, 0xB1: operator.KindI64TruncF64U,
	0xB2: operator.KindF32ConvertI32S, 0xB3: operator.KindF32ConvertI32U,
	0xB4: operator.KindF32ConvertI64S, 0xB5: operator.KindF32ConvertI64U,
	0xB6: operator.KindF32DemoteF64,
	0xB7: operator.KindF64ConvertI32S, 0xB8: operator.KindF64ConvertI32U,
	0xB9: operator.KindF64ConvertI64S, 0xBA: operator.KindF64ConvertI64U,
	0xBB: operator.KindF64PromoteF32,
	0xBC: operator.KindI32ReinterpretF32, 0xBD: operator.KindI64ReinterpretF64,
	0xBE: operator.KindF32ReinterpretI32, 0xBF: operator.KindF64ReinterpretI64,
	0xC0: operator.KindI32Extend8S, 0xC1: operator.KindI32Extend16S,
	0xC2: operator.KindI64Extend8S, 0xC3: operator.KindI64Extend16S,
}

var saturatingTruncKinds = map[uint32]operator.Kind{
	0: operator.KindI32TruncSatF32S, 1: operator.KindI32TruncSatF32U,
	2: operator.KindI32TruncSatF64S, 3: operator.KindI32TruncSatF64U,
	4: operator.KindI64TruncSatF32S, 5: operator.KindI64TruncSatF32U,
	6: operator.KindI64TruncSatF64S, 7: operator.KindI64TruncSatF64U,
}
