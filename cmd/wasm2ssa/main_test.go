package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmcore/wasm2ssa/internal/leb128"
)

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(payload)))...)
	return append(out, payload...)
}

func vec(n uint32, items ...[]byte) []byte {
	out := leb128.EncodeUint32(n)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// addModule builds a module with one (i32, i32) -> i32 function computing
// local.get 0 + local.get 1.
func addModule() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	oneType := append([]byte{0x60}, vec(2, []byte{0x7F}, []byte{0x7F})...)
	oneType = append(oneType, vec(1, []byte{0x7F})...)
	out = append(out, section(1, vec(1, oneType))...)
	out = append(out, section(3, vec(1, leb128.EncodeUint32(0)))...)

	code := []byte{0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B}
	body := append(leb128.EncodeUint32(uint32(len(code))), code...)
	out = append(out, section(10, vec(1, body))...)
	return out
}

func runMain(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet("wasm2ssa", flag.ContinueOnError)
	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"wasm2ssa"}, args...)
	exitCode := doMain(stdOut, stdErr)
	return exitCode, stdOut.String(), stdErr.String()
}

func TestTranslateAddFunction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.wasm")
	require.NoError(t, os.WriteFile(path, addModule(), 0o644))

	exitCode, stdOut, stdErr := runMain(t, []string{"translate", path, "0"})
	assert.Equal(t, 0, exitCode, stdErr)
	assert.Contains(t, stdOut, "iadd")
}

func TestTranslateUnknownFunctionIndexFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.wasm")
	require.NoError(t, os.WriteFile(path, addModule(), 0o644))

	exitCode, _, stdErr := runMain(t, []string{"translate", path, "5"})
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stdErr, "decoding function body failed")
}

func TestHelp(t *testing.T) {
	exitCode, _, stdErr := runMain(t, []string{"-h"})
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdErr, "wasm2ssa translate")
}
