package decoder

import (
	"github.com/pkg/errors"

	"github.com/wasmcore/wasm2ssa/internal/ir"
)

const (
	sectionCustom = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6D}

// GlobalDecl is one decoded module-level global declaration.
type GlobalDecl struct {
	Type    ir.Type
	Mutable bool
	// InitI32/InitI64/InitF32/InitF64 hold the decoded constant
	// initializer (only one is meaningful, per Type); this decoder only
	// understands a single const instruction as an init expression, which
	// is all real-world modules emit for the globals this translator
	// cares about.
	InitI32 int32
	InitI64 int64
	InitF32 float32
	InitF64 float64
}

// MemoryDecl is one decoded module-level memory declaration (page counts).
type MemoryDecl struct {
	MinPages uint32
	MaxPages uint32
	HasMax   bool
}

// Function is one module function: its signature and raw, not-yet-decoded
// body bytes (locals declarations plus the operator stream, exactly the
// Code section entry's payload).
type Function struct {
	Sig  *ir.Signature
	body []byte
}

// Module is the result of parsing a .wasm binary down to the section
// detail this translator's reference pipeline needs: type/function/code
// for translating a body, plus memory/global so refenv can model a
// module's globals and linear memory.
type Module struct {
	Types     []*ir.Signature
	Functions []Function
	Memories  []MemoryDecl
	Globals   []GlobalDecl
}

// ParseModule decodes a WebAssembly binary module down to the section
// detail Module exposes. Sections this reference decoder does not need
// (import, table, start, element, export, data, custom) are skipped by
// length rather than interpreted.
func ParseModule(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, errors.New("decoder: input too short to be a module")
	}
	for i, b := range wasmMagic {
		if data[i] != b {
			return nil, errors.New("decoder: bad magic number")
		}
	}
	// Version is bytes 4..8, always 0x01 little-endian for the MVP binary
	// format this decoder understands; not otherwise validated.

	r := newReader(data[8:])
	m := &Module{}
	var codeBodies [][]byte
	for !r.done() {
		id, err := r.byte()
		if err != nil {
			return nil, err
		}
		size, err := r.u32()
		if err != nil {
			return nil, errors.Wrap(err, "decoder: reading section size")
		}
		payload, err := r.bytes(size)
		if err != nil {
			return nil, errors.Wrap(err, "decoder: reading section payload")
		}
		switch id {
		case sectionType:
			if m.Types, err = parseTypeSection(payload); err != nil {
				return nil, err
			}
		case sectionFunction:
			typeIdxs, err := parseFunctionSection(payload)
			if err != nil {
				return nil, err
			}
			m.Functions = make([]Function, len(typeIdxs))
			for i, ti := range typeIdxs {
				if int(ti) >= len(m.Types) {
					return nil, errors.Errorf("decoder: function %d references unknown type %d", i, ti)
				}
				m.Functions[i].Sig = m.Types[ti]
			}
		case sectionMemory:
			if m.Memories, err = parseMemorySection(payload); err != nil {
				return nil, err
			}
		case sectionGlobal:
			if m.Globals, err = parseGlobalSection(payload); err != nil {
				return nil, err
			}
		case sectionCode:
			if codeBodies, err = parseCodeSection(payload); err != nil {
				return nil, err
			}
		default:
			// Skipped: custom/import/table/start/element/export/data carry
			// nothing this reference pipeline reads.
		}
	}
	if len(codeBodies) != len(m.Functions) {
		return nil, errors.Errorf("decoder: function section declares %d functions but code section has %d bodies", len(m.Functions), len(codeBodies))
	}
	for i, body := range codeBodies {
		m.Functions[i].body = body
	}
	return m, nil
}

func parseTypeSection(payload []byte) ([]*ir.Signature, error) {
	r := newReader(payload)
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	types := make([]*ir.Signature, count)
	for i := range types {
		form, err := r.byte()
		if err != nil {
			return nil, err
		}
		if form != 0x60 {
			return nil, errors.Errorf("decoder: type %d has unsupported form byte 0x%x", i, form)
		}
		params, err := readValTypeVec(r)
		if err != nil {
			return nil, err
		}
		results, err := readValTypeVec(r)
		if err != nil {
			return nil, err
		}
		types[i] = &ir.Signature{ID: ir.SignatureID(i), Params: params, Results: results}
	}
	return types, nil
}

func readValTypeVec(r *reader) ([]ir.Type, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]ir.Type, n)
	for i := range out {
		if out[i], err = r.valType(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseFunctionSection(payload []byte) ([]uint32, error) {
	r := newReader(payload)
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		if out[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseMemorySection(payload []byte) ([]MemoryDecl, error) {
	r := newReader(payload)
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]MemoryDecl, count)
	for i := range out {
		flags, err := r.byte()
		if err != nil {
			return nil, err
		}
		if out[i].MinPages, err = r.u32(); err != nil {
			return nil, err
		}
		if flags&0x01 != 0 {
			out[i].HasMax = true
			if out[i].MaxPages, err = r.u32(); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func parseGlobalSection(payload []byte) ([]GlobalDecl, error) {
	r := newReader(payload)
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]GlobalDecl, count)
	for i := range out {
		t, err := r.valType()
		if err != nil {
			return nil, err
		}
		mutFlag, err := r.byte()
		if err != nil {
			return nil, err
		}
		out[i].Type = t
		out[i].Mutable = mutFlag == 0x01
		if err := decodeConstInitExpr(r, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeConstInitExpr decodes a global's init expression: exactly one
// const instruction for the global's type, followed by the mandatory
// 0x0B end opcode. Globals initialized from an imported global or a
// ref.func (valid Wasm, but no component of this reference pipeline
// consumes them) are rejected.
func decodeConstInitExpr(r *reader, g *GlobalDecl) error {
	op, err := r.byte()
	if err != nil {
		return err
	}
	switch op {
	case 0x41:
		g.InitI32, err = r.s32()
	case 0x42:
		g.InitI64, err = r.s64()
	case 0x43:
		g.InitF32, err = r.f32()
	case 0x44:
		g.InitF64, err = r.f64()
	default:
		return errors.Errorf("decoder: unsupported global init expression opcode 0x%x", op)
	}
	if err != nil {
		return err
	}
	end, err := r.byte()
	if err != nil {
		return err
	}
	if end != 0x0B {
		return errors.New("decoder: global init expression missing terminating end")
	}
	return nil
}

func parseCodeSection(payload []byte) ([][]byte, error) {
	r := newReader(payload)
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, count)
	for i := range out {
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		body, err := r.bytes(size)
		if err != nil {
			return nil, err
		}
		out[i] = body
	}
	return out, nil
}
