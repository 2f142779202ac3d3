package ir

import (
	"fmt"
	"strings"
)

// BasicBlock is a maximal straight-line sequence of instructions, ending
// in exactly one branching instruction once sealed and terminated. Block
// arguments (Params) stand in for the phi functions a textbook SSA
// construction would use; see Builder.Seal and Builder.FindValue for how
// they get populated on the fly as the translator walks a structured
// control-flow graph it cannot pre-order.
type BasicBlock interface {
	// ID returns the unique ID of this block.
	ID() BasicBlockID
	// Name returns a debug name for this block, e.g. "blk3".
	Name() string
	// AddParam adds a typed parameter to this block and returns its Value.
	AddParam(b Builder, t Type) Value
	// Params returns the number of parameters on this block.
	Params() int
	// Param returns the Value of the i-th parameter.
	Param(i int) Value
	// InsertInstruction appends instr to the tail of this block.
	InsertInstruction(instr *Instruction)
	// Root returns the first instruction in this block, or nil if empty.
	Root() *Instruction
	// Tail returns the last instruction in this block, or nil if empty.
	Tail() *Instruction
	// Sealed reports whether all predecessors of this block are known.
	Sealed() bool
	// FormatHeader renders this block's label line for debugging.
	FormatHeader(b Builder) string
}

type (
	basicBlock struct {
		id                      BasicBlockID
		rootInstr, currentInstr *Instruction
		params                  []blockParam
		preds                   []basicBlockPredecessor
		singlePred              *basicBlock
		lastDefinitions         map[Variable]Value
		unknownValues           map[Variable]Value
		sealed                  bool
	}

	// BasicBlockID uniquely identifies a basicBlock within one compiled
	// function.
	BasicBlockID uint32

	blockParam struct {
		value Value
		typ   Type
	}

	basicBlockPredecessor struct {
		blk    *basicBlock
		branch *Instruction
	}
)

// String implements fmt.Stringer.
func (id BasicBlockID) String() string { return fmt.Sprintf("blk%d", uint32(id)) }

// ID implements BasicBlock.ID.
func (bb *basicBlock) ID() BasicBlockID { return bb.id }

// Name implements BasicBlock.Name.
func (bb *basicBlock) Name() string { return bb.id.String() }

// Sealed implements BasicBlock.Sealed.
func (bb *basicBlock) Sealed() bool { return bb.sealed }

// AddParam implements BasicBlock.AddParam.
func (bb *basicBlock) AddParam(b Builder, t Type) Value {
	v := b.allocateValue(t)
	bb.params = append(bb.params, blockParam{typ: t, value: v})
	return v
}

func (bb *basicBlock) addParamOn(t Type, v Value) {
	bb.params = append(bb.params, blockParam{typ: t, value: v})
}

// Params implements BasicBlock.Params.
func (bb *basicBlock) Params() int { return len(bb.params) }

// Param implements BasicBlock.Param.
func (bb *basicBlock) Param(i int) Value { return bb.params[i].value }

// InsertInstruction implements BasicBlock.InsertInstruction.
func (bb *basicBlock) InsertInstruction(next *Instruction) {
	if cur := bb.currentInstr; cur != nil {
		cur.next = next
		next.prev = cur
	} else {
		bb.rootInstr = next
	}
	bb.currentInstr = next

	switch next.opcode {
	case OpcodeJump, OpcodeBrz, OpcodeBrnz:
		next.blk.(*basicBlock).addPred(bb, next)
	case OpcodeBrTable:
		for _, t := range next.targets {
			t.(*basicBlock).addPred(bb, next)
		}
	}
}

// Root implements BasicBlock.Root.
func (bb *basicBlock) Root() *Instruction { return bb.rootInstr }

// Tail implements BasicBlock.Tail.
func (bb *basicBlock) Tail() *Instruction { return bb.currentInstr }

func (bb *basicBlock) addPred(pred *basicBlock, branch *Instruction) {
	if bb.sealed {
		panic("BUG: adding predecessor to an already-sealed block " + bb.Name())
	}
	bb.preds = append(bb.preds, basicBlockPredecessor{blk: pred, branch: branch})
}

func (bb *basicBlock) reset() {
	bb.params = bb.params[:0]
	bb.rootInstr, bb.currentInstr = nil, nil
	bb.preds = bb.preds[:0]
	bb.singlePred = nil
	bb.sealed = false
	bb.unknownValues = make(map[Variable]Value)
	bb.lastDefinitions = make(map[Variable]Value)
}

// FormatHeader implements BasicBlock.FormatHeader.
func (bb *basicBlock) FormatHeader(b Builder) string {
	ps := make([]string, len(bb.params))
	for i, p := range bb.params {
		ps[i] = p.value.formatWithType(b)
	}
	if len(bb.preds) == 0 {
		return fmt.Sprintf("%s: (%s)", bb.Name(), strings.Join(ps, ", "))
	}
	preds := make([]string, len(bb.preds))
	for i, p := range bb.preds {
		preds[i] = p.blk.Name()
	}
	return fmt.Sprintf("%s: (%s) <- (%s)", bb.Name(), strings.Join(ps, ", "), strings.Join(preds, ", "))
}
