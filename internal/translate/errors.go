package translate

import "fmt"

// Fault is the value every fatal translation error panics with. None of
// these are meant to be recoverable by the core itself — they signal a
// malformed operator stream, an opcode outside the supported set, or a
// precondition the Environment violated (e.g. a zero guard size).
// TranslateSafely is the one place allowed to recover a Fault and turn it
// into a returned error, for callers (such as cmd/wasm2ssa) that would
// rather report a diagnostic than crash on one bad function.
type Fault struct {
	// OpIndex is the index, within the function body, of the operator
	// being translated when the fault was raised, or -1 if the fault was
	// raised by a helper that is not given the operator index (heapAddr,
	// or the local zero-initializer run by Init).
	OpIndex int
	Message string
}

// Error implements the error interface so a recovered Fault can be
// returned directly.
func (f *Fault) Error() string {
	if f.OpIndex < 0 {
		return f.Message
	}
	return fmt.Sprintf("operator %d: %s", f.OpIndex, f.Message)
}

// fault builds a Fault not tied to an operator index (used by helpers
// that are not given the current operator index, e.g. heapAddr).
func fault(format string, args ...interface{}) *Fault {
	return &Fault{OpIndex: -1, Message: fmt.Sprintf(format, args...)}
}

// faultAt builds a Fault tied to a specific operator index.
func faultAt(index int, format string, args ...interface{}) *Fault {
	return &Fault{OpIndex: index, Message: fmt.Sprintf(format, args...)}
}
