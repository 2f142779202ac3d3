// Package translate implements the core of this module: turning one
// already-decoded WebAssembly function body (an operator.Operator stream)
// into SSA IR, on the fly, in a single pass over the operators. See
// Translator for the entry point.
package translate

import (
	"fmt"

	"github.com/wasmcore/wasm2ssa/internal/environ"
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// TraceEnabled, when true, makes Translate print one line per operator
// processed (its index, the operand-stack depth, and the operator
// itself) to help debug a miscompile. It mirrors
// wazevoapi.FrontEndLoggingEnabled: an opt-in, package-level debugging
// knob, not a logging framework — nothing in this package's non-debug
// path writes to stdout/stderr.
var TraceEnabled = false

// Translator holds all per-function translation state (components A
// through D of the source design) and drives the operator stream through
// the reachable/unreachable dispatchers (components F and G). A single
// Translator is meant to be reused across many functions: call Init
// before each one.
type Translator struct {
	b   ir.Builder
	env environ.Environment

	stack operandStack
	ctrl  controlStack
	reach reachability
	cache *entityCache

	locals     []ir.Variable
	localTypes []ir.Type

	results []ir.Type

	opIndex int
}

// NewTranslator returns a Translator ready for Init.
func NewTranslator() *Translator {
	return &Translator{cache: newEntityCache()}
}

// Init begins translating a new function of signature sig, whose
// complete local-variable type list (parameters first, then the
// additional locals declared by the function body, each zero-initialized)
// is localTypes. b must already be initialized for sig
// (b.Init(sig)) by the caller, since the caller, not this package, owns
// Builder pooling/reuse policy.
func (t *Translator) Init(b ir.Builder, env environ.Environment, sig *ir.Signature, localTypes []ir.Type) {
	t.b = b
	t.env = env
	t.stack = operandStack{}
	t.ctrl = controlStack{}
	t.reach = reachability{}
	t.cache.reset()
	t.localTypes = localTypes
	t.results = sig.Results
	t.opIndex = 0

	entry := b.AllocateBasicBlock()
	for _, p := range sig.Params {
		entry.AddParam(b, p)
	}
	b.SetCurrentBlock(entry)

	t.locals = make([]ir.Variable, len(localTypes))
	for i, lt := range localTypes {
		v := b.DeclareVariable(lt)
		t.locals[i] = v
		if i < len(sig.Params) {
			b.DefineVariableInCurrentBB(v, entry.Param(i))
		} else {
			b.DefineVariableInCurrentBB(v, zeroValue(b, lt))
		}
	}
	// The entry block can never gain a predecessor, so it is sound (and
	// required, for FindValue to stop recursing) to seal it immediately.
	b.Seal(entry)

	// The function body itself is the outermost structured construct: a
	// plain block whose destination is where `return` (and falling off
	// the final `end`) exits to.
	exit := b.AllocateBasicBlock()
	for _, r := range sig.Results {
		exit.AddParam(b, r)
	}
	t.ctrl.push(controlFrame{
		kind:              frameBlock,
		destination:       exit,
		blockType:         operator.BlockType{Results: sig.Results},
		numReturns:        len(sig.Results),
		originalStackSize: 0,
		reachable:         false,
	})
}

func zeroValue(b ir.Builder, t ir.Type) ir.Value {
	instr := b.AllocateInstruction()
	switch t {
	case ir.TypeI32, ir.TypeI64:
		instr.AsIconst(t, 0)
	case ir.TypeF32:
		instr.AsF32const(0)
	case ir.TypeF64:
		instr.AsF64const(0)
	default:
		panic(fault("unsupported local type %s", t))
	}
	b.InsertInstruction(instr)
	return instr.Return()
}

// Translate drives ops through the dispatchers to completion, panicking
// with a *Fault on any fatal condition. Translate itself performs no
// recovery; use TranslateSafely for a convenience wrapper that converts a
// Fault panic into a returned error.
func (t *Translator) Translate(ops []operator.Operator) {
	for idx, op := range ops {
		t.opIndex = idx
		if TraceEnabled {
			fmt.Printf("[%d] stack=%d unreachable=%v %s\n", idx, t.stack.len(), t.reach.unreachable(), op.Kind)
		}
		if t.reach.unreachable() {
			t.translateUnreachable(op)
		} else {
			t.translateReachable(op)
		}
	}
	if t.ctrl.len() != 0 {
		panic(faultAt(t.opIndex, "malformed operator stream: function body ended with %d unterminated structured construct(s)", t.ctrl.len()))
	}
}

// TranslateSafely is Translate wrapped in a recover that turns any *Fault
// panic into a returned error, for callers that prefer reporting a
// diagnostic over crashing. It is not used by the core itself.
func (t *Translator) TranslateSafely(ops []operator.Operator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*Fault); ok {
				err = f
				return
			}
			panic(r)
		}
	}()
	t.Translate(ops)
	return nil
}

// endFunction closes the function-level control frame (the outermost one
// pushed by Init, popped only by the final `end` of the function body).
// fellThroughLive is true when this is being called from the reachable
// dispatcher (the body just fell off its end while still live); when
// false (called from the unreachable dispatcher), whatever live
// `return`/`br` happened earlier already recorded frame.reachable, and
// the function-level frame's own bookkeeping in the phantom/real counters
// is undone the same way any other real (non-phantom) frame's is.
func (t *Translator) endFunction(fellThroughLive bool) {
	if !fellThroughLive {
		t.reach.popConstruct()
	}
	frame := t.ctrl.pop()
	if fellThroughLive {
		args := t.stack.popN(frame.numReturns)
		t.jumpTo(frame.destination, args)
		frame.reachable = true
	}
	t.b.Seal(frame.destination)
	if frame.reachable && t.env.Flags().ReturnAtEnd() {
		t.b.SetCurrentBlock(frame.destination)
		results := make([]ir.Value, frame.destination.Params())
		for i := range results {
			results[i] = frame.destination.Param(i)
		}
		ret := t.b.AllocateInstruction().AsReturn(results)
		t.b.InsertInstruction(ret)
	}
}

// jumpTo emits an unconditional jump from the current block to dst with
// args. It does not mark any frame reachable; callers set
// frame.reachable themselves.
func (t *Translator) jumpTo(dst ir.BasicBlock, args []ir.Value) {
	instr := t.b.AllocateInstruction().AsJump(dst, args)
	t.b.InsertInstruction(instr)
}
