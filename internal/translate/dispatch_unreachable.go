package translate

import "github.com/wasmcore/wasm2ssa/internal/operator"

// translateUnreachable is component G: the dispatcher invoked for every
// operator while reach.unreachable() holds. Nearly every operator is
// simply skipped — it can have no effect on a program state that can
// never be reached — except the five structural ones that must still be
// tracked so that nesting stays consistent and, eventually, so that
// translation can tell when code becomes reachable again.
func (t *Translator) translateUnreachable(op operator.Operator) {
	switch op.Kind {
	case operator.KindBlock:
		t.reach.pushConstruct()
		t.ctrl.push(controlFrame{
			kind:       frameBlock,
			blockType:  op.BlockType,
			numReturns: len(op.BlockType.Results),
		})
	case operator.KindLoop:
		t.reach.pushConstruct()
		t.ctrl.push(controlFrame{
			kind:       frameLoop,
			blockType:  op.BlockType,
			numReturns: len(op.BlockType.Params),
		})
	case operator.KindIf:
		t.reach.pushConstruct()
		t.ctrl.push(controlFrame{
			kind:       frameIf,
			blockType:  op.BlockType,
			numReturns: len(op.BlockType.Results),
		})
	case operator.KindElse:
		t.unreachableElse()
	case operator.KindEnd:
		t.unreachableEnd()
	default:
		// Arithmetic, memory, locals/globals, calls, branches: all no-ops
		// here, since none of them can execute.
	}
}

// unreachableElse handles `else` reached while unreachable. If this If's
// own opening was itself phantom (born dead), the else region is just as
// dead and there is nothing to do but record it. Otherwise this If's
// opening allocated a real else-block with the `if`'s conditional branch
// as its one and only predecessor — that edge is unconditionally live
// regardless of what happened to the then-branch afterward — so
// translation resumes there.
func (t *Translator) unreachableElse() {
	// Phantom constructs are always the innermost ones, so a nonzero
	// phantomDepth means this If is phantom. Its counter is left for the
	// matching `end` to pop.
	wasPhantom := t.reach.phantomDepth > 0
	frame := t.ctrl.top()
	frame.elseReached = true
	if wasPhantom {
		return
	}
	t.b.SetCurrentBlock(frame.elseBlock)
	t.b.Seal(frame.elseBlock)
	t.stack.truncate(frame.originalStackSize)
	for i := 0; i < frame.elseBlock.Params(); i++ {
		t.stack.push(frame.elseBlock.Param(i))
	}
	t.reach.reset()
}

// unreachableEnd handles `end` reached while unreachable: always pops
// exactly one frame (every Block/Loop/If, live or phantom, pushes
// exactly one). A phantom frame had no real IR and needs no further
// action. A frame whose opening was real but whose body went dead before
// reaching here is this dead region's boundary: if anything reached its
// destination before it went dead (an earlier, still-live br/br_if out,
// or — for If — an explicit else-less fallthrough), translation resumes
// there; otherwise the dead region simply extends to cover whatever
// follows in the enclosing scope too.
func (t *Translator) unreachableEnd() {
	if t.ctrl.len() == 1 {
		t.endFunction(false)
		return
	}

	wasPhantom := t.reach.popConstruct()
	frame := t.ctrl.pop()
	if wasPhantom {
		return
	}

	if frame.kind == frameLoop {
		t.b.Seal(frame.header)
		t.reach.enterUnreachable()
		return
	}

	t.finishIfWithoutElse(&frame)
	if frame.reachable {
		t.enterDestination(frame)
		return
	}
	t.b.Seal(frame.destination)
	t.reach.enterUnreachable()
}
