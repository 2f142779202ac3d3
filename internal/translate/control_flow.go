package translate

import (
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/operator"
)

// openBlock handles a `block` seen while reachable: the body continues
// appending to the current block (a plain Block never itself forks control
// on entry, only a branch targeting it does), so the only thing entering
// it does is allocate the following block and push a frame for it.
func (t *Translator) openBlock(bt operator.BlockType) {
	params := t.stack.popN(len(bt.Params))
	dst := t.b.AllocateBasicBlock()
	for _, r := range bt.Results {
		dst.AddParam(t.b, r)
	}
	t.ctrl.push(controlFrame{
		kind:              frameBlock,
		destination:       dst,
		blockType:         bt,
		numReturns:        len(bt.Results),
		originalStackSize: t.stack.len(),
		reachable:         false,
	})
	t.stack.push(params...)
}

// openLoop handles a `loop` seen while reachable. Unlike Block, Loop's
// destination (for branches targeting it) is its own header, since
// br/br_if to a loop's label jump back to its top rather than past its
// end; the "after the loop" block is only allocated once End is reached.
// The header is left unsealed: backward branches from later in the body
// add predecessors to it right up until End.
func (t *Translator) openLoop(bt operator.BlockType) {
	params := t.stack.popN(len(bt.Params))
	header := t.b.AllocateBasicBlock()
	for _, p := range bt.Params {
		header.AddParam(t.b, p)
	}
	t.jumpTo(header, params)
	t.b.SetCurrentBlock(header)
	t.ctrl.push(controlFrame{
		kind:              frameLoop,
		destination:       header,
		header:            header,
		blockType:         bt,
		numReturns:        len(bt.Params),
		originalStackSize: t.stack.len(),
		reachable:         false,
	})
	for i := range bt.Params {
		t.stack.push(header.Param(i))
	}
}

// openIf handles an `if` seen while reachable: pops the condition and the
// construct's declared arguments, allocates both the else-block (entered
// when the condition is zero) and the following block up front, and emits
// the conditional branch to else. The "then" body, like a Block's body,
// just continues in the current block.
func (t *Translator) openIf(bt operator.BlockType) {
	cond := t.stack.pop()
	params := t.stack.popN(len(bt.Params))

	elseBlock := t.b.AllocateBasicBlock()
	for _, p := range bt.Params {
		elseBlock.AddParam(t.b, p)
	}
	dst := t.b.AllocateBasicBlock()
	for _, r := range bt.Results {
		dst.AddParam(t.b, r)
	}

	brz := t.b.AllocateInstruction().AsBrz(cond, elseBlock, params)
	t.b.InsertInstruction(brz)

	t.ctrl.push(controlFrame{
		kind:              frameIf,
		destination:       dst,
		elseBlock:         elseBlock,
		blockType:         bt,
		numReturns:        len(bt.Results),
		originalStackSize: t.stack.len(),
		reachable:         false,
	})
	t.stack.push(params...)
}

// closeElse handles an `else` reached while the "then" body is still
// reachable: the then-branch falls through to the construct's
// destination, and translation switches to the (already-allocated)
// else-block to continue with the construct's own parameters back on the
// stack.
func (t *Translator) closeElse(frame *controlFrame) {
	args := t.stack.popN(frame.numReturns)
	t.jumpTo(frame.destination, args)
	frame.reachable = true

	frame.elseReached = true
	t.stack.truncate(frame.originalStackSize)
	t.b.SetCurrentBlock(frame.elseBlock)
	// The if's conditional branch is the else-block's only predecessor.
	t.b.Seal(frame.elseBlock)
	for i := range frame.blockType.Params {
		t.stack.push(frame.elseBlock.Param(i))
	}
}

// closeConstruct handles `end` for a Block or If frame reached while
// still reachable: the live body falls through to destination, which
// makes the construct's tail code reachable no matter what the frame's
// prior state was.
func (t *Translator) closeConstruct(frame controlFrame) {
	args := t.stack.popN(frame.numReturns)
	t.jumpTo(frame.destination, args)
	frame.reachable = true
	t.finishIfWithoutElse(&frame)
	t.enterDestination(frame)
}

// finishIfWithoutElse materializes the implicit empty else body of an
// `if` that had no explicit `else`: the else-block (entered when the
// condition was false) simply forwards its own parameters straight to
// destination unchanged, which is only well formed when the construct's
// param and result arities match — the same requirement plain
// fall-through-without-else Wasm validation enforces upstream of this
// translator.
func (t *Translator) finishIfWithoutElse(frame *controlFrame) {
	if frame.kind != frameIf || frame.elseReached {
		return
	}
	cur := t.b.CurrentBlock()
	t.b.SetCurrentBlock(frame.elseBlock)
	args := make([]ir.Value, frame.elseBlock.Params())
	for i := range args {
		args[i] = frame.elseBlock.Param(i)
	}
	t.jumpTo(frame.destination, args)
	t.b.Seal(frame.elseBlock)
	frame.reachable = true
	t.b.SetCurrentBlock(cur)
}

// closeLoop handles `end` for a Loop frame reached while still reachable:
// the header is finally sealed (every backward branch a `br`/`br_if`
// inside the body could have added as a predecessor has now been seen),
// and falling off the body's end exits the loop through a freshly
// allocated block, exactly like a Block's destination.
func (t *Translator) closeLoop(frame controlFrame) {
	t.b.Seal(frame.header)

	exit := t.b.AllocateBasicBlock()
	for _, r := range frame.blockType.Results {
		exit.AddParam(t.b, r)
	}
	args := t.stack.popN(len(frame.blockType.Results))
	t.jumpTo(exit, args)

	t.b.Seal(exit)
	t.b.SetCurrentBlock(exit)
	t.stack.truncate(frame.originalStackSize)
	for i := range frame.blockType.Results {
		t.stack.push(exit.Param(i))
	}
}

// enterDestination seals frame's destination, switches translation to it,
// and resets the operand stack to what the construct's results leave
// behind — the common tail of every End path that determined the
// construct's destination is in fact reachable.
func (t *Translator) enterDestination(frame controlFrame) {
	t.b.Seal(frame.destination)
	t.b.SetCurrentBlock(frame.destination)
	t.stack.truncate(frame.originalStackSize)
	for i := 0; i < frame.destination.Params(); i++ {
		t.stack.push(frame.destination.Param(i))
	}
}
