package translate

import (
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// controlFrameKind tags which of the three structured-control-flow
// constructs a controlFrame represents.
type controlFrameKind byte

const (
	frameBlock controlFrameKind = iota
	frameLoop
	frameIf
)

// controlFrame is the three-case tagged union the control stack holds,
// one per currently-open block/loop/if. Go has no tagged unions, so this
// mirrors the flattened-struct idiom used throughout this package (and
// throughout the IR it builds): which fields matter is determined by
// kind. Block/Loop/If each carry destination, numReturns,
// originalStackSize, and a reachability flag; Loop additionally carries
// its header block, and If its eagerly-allocated else block.
type controlFrame struct {
	kind controlFrameKind

	// destination is the block control transfers to when this
	// construct's scope ends (a `br` targeting it, or falling off the
	// end of it). For Block and If this is the block following the
	// construct; for Loop it is the loop header, since `br`/`br_if`
	// targeting a loop jump back to its top, not past its end.
	destination ir.BasicBlock

	// header is set only for frameLoop: the loop's entry block, identical
	// to destination but named separately because loop bodies also fall
	// through to a distinct "after the loop" block that Loop's
	// destination does NOT point to (the loop's own End allocates and
	// enters that exit block, see closeLoop in control_flow.go).
	header ir.BasicBlock

	// elseBlock is set only for frameIf: the block the `if`'s OpcodeBrz
	// branches to when the condition is false, allocated eagerly (with
	// the construct's own param types as its block params) so the brz's
	// target never needs patching. If `else` is never seen, End itself
	// populates elseBlock with the implicit empty else body (an
	// unconditional jump straight through to destination).
	elseBlock ir.BasicBlock
	// elseReached records whether an `else` was seen for this If frame,
	// distinguishing "if ... end" (condition false skips straight to
	// destination) from "if ... else ... end".
	elseReached bool

	// blockType is the construct's declared parameter/result types.
	blockType operator.BlockType

	// numReturns is the number of values a branch targeting this frame
	// carries: len(blockType.Results) for Block and If, and
	// len(blockType.Params) for Loop (a branch to a loop re-enters its
	// header). Cached since it's consulted on every such branch.
	numReturns int

	// originalStackSize is the operand stack depth at the point this
	// construct was entered, less its declared parameters (which were
	// already consumed/re-pushed as the entry block's parameters). A
	// branch out of this construct is only valid if it leaves exactly
	// this many values (plus the construct's results) on the stack,
	// which is also what makes unreachable code's stack polymorphism
	// sound: we simply reset the stack to this size whenever reachable
	// code ends.
	originalStackSize int

	// reachable records whether the code immediately following this
	// construct is reachable from *any* exit of it found so far (an
	// explicit branch out, or — for Block/If — falling off the end while
	// reachable). It starts false and is set to true the first time such
	// an exit is seen; if it is still false when the construct closes,
	// the destination block itself is unreachable.
	reachable bool
}

// controlStack is the stack of currently-open structured control-flow
// constructs (component B). Index 0 is the outermost (function-level)
// frame.
type controlStack struct {
	frames []controlFrame
}

func (c *controlStack) push(f controlFrame) {
	c.frames = append(c.frames, f)
}

func (c *controlStack) pop() controlFrame {
	l := len(c.frames) - 1
	f := c.frames[l]
	c.frames = c.frames[:l]
	return f
}

func (c *controlStack) top() *controlFrame {
	return &c.frames[len(c.frames)-1]
}

// at returns the frame `depth` levels up from the top (at(0) == top()),
// the addressing scheme br/br_if/br_table's relative depth immediate
// uses.
func (c *controlStack) at(depth uint32) *controlFrame {
	return &c.frames[len(c.frames)-1-int(depth)]
}

func (c *controlStack) len() int {
	return len(c.frames)
}
