// Package decoder is a minimal reference decoder from raw WebAssembly
// binary bytes to the operator.Operator stream internal/translate
// consumes. It exists as a demo/test-only stand-in for "the external
// decoder" spec.md assumes already exists: production use would swap this
// for a validating, spec-complete decoder, but the core never knows the
// difference since it only ever sees already-decoded Operators.
package decoder

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/leb128"
)

// reader is a forward-only cursor over a byte slice: a disassembly loop
// over a byte-at-a-time reader, but built directly on a slice since every
// call site here already holds the whole section or function body in
// memory.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) done() bool { return r.pos >= len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errors.New("decoder: unexpected end of input")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n uint32) ([]byte, error) {
	if r.pos+int(n) > len(r.buf) {
		return nil, errors.New("decoder: unexpected end of input")
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	v, n, err := leb128.LoadUint32(r.buf[r.pos:])
	if err != nil {
		return 0, errors.Wrap(err, "decoder: reading u32")
	}
	r.pos += n
	return v, nil
}

func (r *reader) s32() (int32, error) {
	v, n, err := leb128.LoadInt32(r.buf[r.pos:])
	if err != nil {
		return 0, errors.Wrap(err, "decoder: reading s32")
	}
	r.pos += n
	return v, nil
}

func (r *reader) s64() (int64, error) {
	v, n, err := leb128.LoadInt64(r.buf[r.pos:])
	if err != nil {
		return 0, errors.Wrap(err, "decoder: reading s64")
	}
	r.pos += n
	return v, nil
}

func (r *reader) f32() (float32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) f64() (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) valType() (ir.Type, error) {
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x7F:
		return ir.TypeI32, nil
	case 0x7E:
		return ir.TypeI64, nil
	case 0x7D:
		return ir.TypeF32, nil
	case 0x7C:
		return ir.TypeF64, nil
	default:
		return 0, errors.Errorf("decoder: unsupported value type byte 0x%x", b)
	}
}
