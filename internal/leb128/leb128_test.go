package leb128_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/wasm2ssa/internal/leb128"
)

func TestEncodeInt32(t *testing.T) {
	tests := []struct {
		in       int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-165675008, []byte{0x80, 0x80, 0x80, 0xb1, 0x7f}},
	}
	for _, tc := range tests {
		require.Equal(t, tc.expected, leb128.EncodeInt32(tc.in))
	}
}

func TestLoadInt32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 63, 64, -64, -165675008, 2147483647, -2147483648} {
		encoded := leb128.EncodeInt32(v)
		got, n, err := leb128.LoadInt32(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, v, got)
	}
}

func TestLoadInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808} {
		encoded := leb128.EncodeInt64(v)
		got, n, err := leb128.LoadInt64(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, v, got)
	}
}

func TestLoadUint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 4294967295} {
		encoded := leb128.EncodeUint32(v)
		got, n, err := leb128.LoadUint32(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, v, got)
	}
}

func TestLoadInt32Truncated(t *testing.T) {
	_, _, err := leb128.LoadInt32([]byte{0x80, 0x80})
	require.Error(t, err)
}

func TestLoadUint32Truncated(t *testing.T) {
	_, _, err := leb128.LoadUint32([]byte{0x80})
	require.Error(t, err)
}

func TestLoadUint32MultiByte(t *testing.T) {
	// 0xe5 0x8e 0x26 == 624485 in unsigned LEB128.
	v, n, err := leb128.LoadUint32([]byte{0xe5, 0x8e, 0x26})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, uint32(624485), v)
}
