// Package leb128 encodes and decodes the variable-length integer
// encodings WebAssembly's binary format uses for every index, immediate,
// and count.
package leb128

import "github.com/pkg/errors"

// ErrOverflow is wrapped into the error returned by the Load* functions
// when the encoded value would not fit in the target width.
var ErrOverflow = errors.New("leb128: value overflows target width")

// LoadUint32 decodes an unsigned LEB128-encoded uint32 from the head of
// buf, returning the value, the number of bytes consumed, and an error if
// buf is truncated or the encoding overflows 32 bits.
func LoadUint32(buf []byte) (uint32, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if result>>32 != 0 {
				return 0, 0, errors.Wrap(ErrOverflow, "uint32")
			}
			return uint32(result), i + 1, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, errors.Wrap(ErrOverflow, "uint32")
		}
	}
	return 0, 0, errors.New("leb128: truncated uint32")
}

// LoadInt32 decodes a signed LEB128-encoded int32 from the head of buf.
func LoadInt32(buf []byte) (int32, int, error) {
	v, n, err := loadSigned(buf, 32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed LEB128-encoded int64 from the head of buf.
func LoadInt64(buf []byte) (int64, int, error) {
	v, n, err := loadSigned(buf, 64)
	return v, n, err
}

func loadSigned(buf []byte, size uint) (int64, int, error) {
	var result int64
	var shift uint
	var b byte
	i := 0
	for {
		if i >= len(buf) {
			return 0, 0, errors.New("leb128: truncated signed integer")
		}
		b = buf[i]
		result |= int64(b&0x7f) << shift
		shift += 7
		i++
		if b&0x80 == 0 {
			break
		}
		if shift >= size {
			return 0, 0, errors.Wrap(ErrOverflow, "signed integer")
		}
	}
	if shift > size {
		// The final byte carries bits past the target width; they must all
		// repeat the target's sign bit.
		mask := byte(0x7f) &^ (byte(1)<<(size-1-(shift-7)) - 1)
		if top := b & mask; top != 0 && top != mask {
			return 0, 0, errors.Wrap(ErrOverflow, "signed integer")
		}
	}
	if shift < size && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i, nil
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return encodeSigned(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	return encodeSigned(v)
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	var buf []byte
	u := uint64(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

func encodeSigned(v int64) []byte {
	var buf []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			break
		}
		buf = append(buf, b|0x80)
	}
	return buf
}
