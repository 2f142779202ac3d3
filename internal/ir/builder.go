package ir

import (
	"fmt"
	"strings"
)

// Builder builds the SSA IR for one function at a time. A caller reuses a
// single Builder across many functions by calling Init before each one,
// avoiding a fresh allocation per function compiled.
type Builder interface {
	// Init resets the builder to begin building a function of the given
	// signature.
	Init(sig *Signature)
	// Signature returns the signature passed to the most recent Init.
	Signature() *Signature

	// AllocateBasicBlock creates a new, unattached BasicBlock.
	AllocateBasicBlock() BasicBlock
	// CurrentBlock returns the block instructions are currently inserted
	// into.
	CurrentBlock() BasicBlock
	// SetCurrentBlock redirects instruction insertion to b.
	SetCurrentBlock(b BasicBlock)
	// Seal declares that all predecessors of b are now known; after this,
	// no more branches may target b.
	Seal(b BasicBlock)

	// DeclareVariable declares a new Variable of type t.
	DeclareVariable(t Type) Variable
	// DefineVariable records that variable's current value, within block,
	// is value.
	DefineVariable(variable Variable, value Value, block BasicBlock)
	// DefineVariableInCurrentBB is DefineVariable(variable, value,
	// CurrentBlock()).
	DefineVariableInCurrentBB(variable Variable, value Value)
	// FindValue returns the current value of variable as observed from
	// CurrentBlock, inserting block parameters along dominance-frontier
	// joins as needed (the on-the-fly SSA construction algorithm).
	FindValue(variable Variable) Value

	// AllocateInstruction returns a fresh, unconfigured Instruction ready
	// for one of its As* setters.
	AllocateInstruction() *Instruction
	// InsertInstruction appends instr to CurrentBlock and allocates its
	// result Value if the opcode produces one.
	InsertInstruction(instr *Instruction)
	// allocateValue allocates an unused Value of type t.
	allocateValue(t Type) Value

	// AnnotateValue attaches a debug name to value, used by Format.
	AnnotateValue(value Value, name string)

	// DeclareSignature registers sig so that a call referencing it can be
	// formatted and so that UsedSignatures can report it was exercised.
	DeclareSignature(sig *Signature)
	// UsedSignatures returns every signature referenced by an emitted
	// call/call_indirect instruction so far.
	UsedSignatures() []*Signature
	// ResolveSignature returns the Signature registered under id.
	ResolveSignature(id SignatureID) *Signature

	// DeclareHeap registers a linear memory and returns its handle.
	DeclareHeap(data HeapData) Heap
	// HeapData returns the declaration data for h.
	HeapData(h Heap) HeapData
	// DeclareGlobal registers a module-level global and returns its
	// handle.
	DeclareGlobal(data GlobalVarData) GlobalVar
	// GlobalData returns the declaration data for g.
	GlobalData(g GlobalVar) GlobalVarData
	// DeclareSigRef registers a signature reachable only through
	// call_indirect and returns its handle.
	DeclareSigRef(sig *Signature) SigRef
	// DeclareFuncRef registers a directly callable function and returns
	// its handle.
	DeclareFuncRef(sig *Signature) FuncRef
	// DeclareJumpTable registers a br_table destination set and returns
	// its handle.
	DeclareJumpTable(targets []BasicBlock) JumpTable
	// JumpTableTargets returns the destinations registered for jt.
	JumpTableTargets(jt JumpTable) []BasicBlock

	// Format renders every allocated block and instruction for debugging.
	Format() string

	// BlockIteratorBegin starts an iteration over every allocated block,
	// in allocation order.
	BlockIteratorBegin() BasicBlock
	// BlockIteratorNext advances the iteration started by
	// BlockIteratorBegin, returning nil once exhausted.
	BlockIteratorNext() BasicBlock
}

// NewBuilder returns a ready-to-Init Builder.
func NewBuilder() Builder {
	return &builder{
		signatures:       make(map[SignatureID]*Signature),
		valueAnnotations: make(map[ValueID]string),
	}
}

type builder struct {
	currentSignature *Signature
	signatures       map[SignatureID]*Signature

	blocks     []*basicBlock
	currentBB  *basicBlock
	blkIterCur int

	variables    []Type
	nextValueID  ValueID
	nextVariable Variable

	valueAnnotations map[ValueID]string

	heaps      []HeapData
	globals    []GlobalVarData
	sigRefs    []*Signature
	funcRefs   []*Signature
	jumpTables [][]BasicBlock
}

// Init implements Builder.Init.
func (b *builder) Init(sig *Signature) {
	b.currentSignature = sig
	b.blocks = b.blocks[:0]
	b.currentBB = nil
	b.blkIterCur = 0
	b.variables = b.variables[:0]
	b.nextValueID = 0
	b.nextVariable = 0
	for k := range b.valueAnnotations {
		delete(b.valueAnnotations, k)
	}
	for _, s := range b.signatures {
		s.used = false
	}
	b.heaps = b.heaps[:0]
	b.globals = b.globals[:0]
	b.sigRefs = b.sigRefs[:0]
	b.funcRefs = b.funcRefs[:0]
	b.jumpTables = b.jumpTables[:0]
}

// Signature implements Builder.Signature.
func (b *builder) Signature() *Signature { return b.currentSignature }

// AllocateBasicBlock implements Builder.AllocateBasicBlock.
func (b *builder) AllocateBasicBlock() BasicBlock {
	blk := &basicBlock{
		id:              BasicBlockID(len(b.blocks)),
		lastDefinitions: make(map[Variable]Value),
		unknownValues:   make(map[Variable]Value),
	}
	b.blocks = append(b.blocks, blk)
	return blk
}

// CurrentBlock implements Builder.CurrentBlock.
func (b *builder) CurrentBlock() BasicBlock { return b.currentBB }

// SetCurrentBlock implements Builder.SetCurrentBlock.
func (b *builder) SetCurrentBlock(blk BasicBlock) { b.currentBB = blk.(*basicBlock) }

// Seal implements Builder.Seal.
func (b *builder) Seal(raw BasicBlock) {
	blk := raw.(*basicBlock)
	if len(blk.preds) == 1 {
		blk.singlePred = blk.preds[0].blk
	}
	blk.sealed = true

	for variable, placeholder := range blk.unknownValues {
		typ := b.definedVariableType(variable)
		blk.addParamOn(typ, placeholder)
		for i := range blk.preds {
			pred := &blk.preds[i]
			arg := b.findValue(typ, variable, pred.blk)
			pred.branch.vs = append(pred.branch.vs, arg)
		}
	}
}

// DeclareVariable implements Builder.DeclareVariable.
func (b *builder) DeclareVariable(t Type) Variable {
	v := b.nextVariable
	b.nextVariable++
	if int(v) >= len(b.variables) {
		b.variables = append(b.variables, make([]Type, int(v)+1-len(b.variables))...)
	}
	b.variables[v] = t
	return v
}

// DefineVariable implements Builder.DefineVariable.
func (b *builder) DefineVariable(variable Variable, value Value, block BasicBlock) {
	if !b.variables[variable].valid() {
		panic("BUG: variable " + variable.String() + " not declared")
	}
	block.(*basicBlock).lastDefinitions[variable] = value
}

// DefineVariableInCurrentBB implements Builder.DefineVariableInCurrentBB.
func (b *builder) DefineVariableInCurrentBB(variable Variable, value Value) {
	b.DefineVariable(variable, value, b.currentBB)
}

// FindValue implements Builder.FindValue.
func (b *builder) FindValue(variable Variable) Value {
	t := b.definedVariableType(variable)
	return b.findValue(t, variable, b.currentBB)
}

// findValue is the on-the-fly SSA construction algorithm of Braun et al.,
// "Simple and Efficient Construction of Static Single Assignment Form":
// walk predecessors until a definition is found, inserting a block
// parameter (equivalent to a trivial/incomplete phi) at any join or
// not-yet-sealed block encountered along the way.
func (b *builder) findValue(t Type, variable Variable, blk *basicBlock) Value {
	if v, ok := blk.lastDefinitions[variable]; ok {
		return v
	}
	if !blk.sealed {
		// Not all predecessors are known yet: the real definition might
		// still arrive from one we haven't seen. Reserve a placeholder
		// value now and resolve it for real when Seal is eventually
		// called on this block.
		v := b.allocateValue(t)
		blk.lastDefinitions[variable] = v
		blk.unknownValues[variable] = v
		return v
	}
	if blk.singlePred != nil {
		return b.findValue(t, variable, blk.singlePred)
	}
	// Multiple known predecessors: the value depends on which edge control
	// arrived from, so it needs an actual block parameter, with each
	// predecessor's branch supplying the matching argument.
	param := blk.AddParam(b, t)
	b.DefineVariable(variable, param, blk)
	for i := range blk.preds {
		pred := &blk.preds[i]
		arg := b.findValue(t, variable, pred.blk)
		pred.branch.vs = append(pred.branch.vs, arg)
	}
	return param
}

func (b *builder) definedVariableType(variable Variable) Type {
	t := b.variables[variable]
	if !t.valid() {
		panic(fmt.Sprintf("BUG: %s is not declared", variable))
	}
	return t
}

// AllocateInstruction implements Builder.AllocateInstruction.
func (b *builder) AllocateInstruction() *Instruction {
	instr := &Instruction{}
	instr.reset()
	return instr
}

// InsertInstruction implements Builder.InsertInstruction.
func (b *builder) InsertInstruction(instr *Instruction) {
	b.currentBB.InsertInstruction(instr)
	switch instr.opcode {
	case OpcodeCall:
		if int(instr.fn) < len(b.funcRefs) {
			b.funcRefs[instr.fn].used = true
		}
	case OpcodeCallIndirect:
		if int(instr.sig) < len(b.sigRefs) {
			b.sigRefs[instr.sig].used = true
		}
	}
	if !instr.typ.valid() {
		return
	}
	instr.rValue = b.allocateValue(instr.typ)
}

// allocateValue implements Builder.allocateValue.
func (b *builder) allocateValue(t Type) Value {
	v := Value(b.nextValueID).setType(t)
	b.nextValueID++
	return v
}

// AnnotateValue implements Builder.AnnotateValue.
func (b *builder) AnnotateValue(value Value, name string) {
	b.valueAnnotations[value.ID()] = name
}

// DeclareSignature implements Builder.DeclareSignature.
func (b *builder) DeclareSignature(sig *Signature) {
	b.signatures[sig.ID] = sig
	sig.used = false
}

// UsedSignatures implements Builder.UsedSignatures.
func (b *builder) UsedSignatures() []*Signature {
	var ret []*Signature
	for _, s := range b.signatures {
		if s.used {
			ret = append(ret, s)
		}
	}
	return ret
}

// ResolveSignature implements Builder.ResolveSignature.
func (b *builder) ResolveSignature(id SignatureID) *Signature { return b.signatures[id] }

// DeclareHeap implements Builder.DeclareHeap.
func (b *builder) DeclareHeap(data HeapData) Heap {
	id := Heap(len(b.heaps))
	b.heaps = append(b.heaps, data)
	return id
}

// HeapData implements Builder.HeapData.
func (b *builder) HeapData(h Heap) HeapData { return b.heaps[h] }

// DeclareGlobal implements Builder.DeclareGlobal.
func (b *builder) DeclareGlobal(data GlobalVarData) GlobalVar {
	id := GlobalVar(len(b.globals))
	b.globals = append(b.globals, data)
	return id
}

// GlobalData implements Builder.GlobalData.
func (b *builder) GlobalData(g GlobalVar) GlobalVarData { return b.globals[g] }

// DeclareSigRef implements Builder.DeclareSigRef.
func (b *builder) DeclareSigRef(sig *Signature) SigRef {
	id := SigRef(len(b.sigRefs))
	b.sigRefs = append(b.sigRefs, sig)
	b.DeclareSignature(sig)
	return id
}

// DeclareFuncRef implements Builder.DeclareFuncRef.
func (b *builder) DeclareFuncRef(sig *Signature) FuncRef {
	id := FuncRef(len(b.funcRefs))
	b.funcRefs = append(b.funcRefs, sig)
	b.DeclareSignature(sig)
	return id
}

// DeclareJumpTable implements Builder.DeclareJumpTable.
func (b *builder) DeclareJumpTable(targets []BasicBlock) JumpTable {
	id := JumpTable(len(b.jumpTables))
	b.jumpTables = append(b.jumpTables, targets)
	return id
}

// JumpTableTargets implements Builder.JumpTableTargets.
func (b *builder) JumpTableTargets(jt JumpTable) []BasicBlock { return b.jumpTables[jt] }

// BlockIteratorBegin implements Builder.BlockIteratorBegin.
func (b *builder) BlockIteratorBegin() BasicBlock {
	b.blkIterCur = 0
	return b.BlockIteratorNext()
}

// BlockIteratorNext implements Builder.BlockIteratorNext.
func (b *builder) BlockIteratorNext() BasicBlock {
	if b.blkIterCur >= len(b.blocks) {
		return nil
	}
	blk := b.blocks[b.blkIterCur]
	b.blkIterCur++
	return blk
}

// Format implements Builder.Format.
func (b *builder) Format() string {
	var sb strings.Builder
	if used := b.UsedSignatures(); len(used) > 0 {
		sb.WriteString("signatures:\n")
		for _, s := range used {
			sb.WriteString("\t")
			sb.WriteString(s.String())
			sb.WriteString("\n")
		}
	}
	for _, blk := range b.blocks {
		sb.WriteString("\n")
		sb.WriteString(blk.FormatHeader(b))
		sb.WriteString("\n")
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			sb.WriteString("\t")
			sb.WriteString(cur.Format(b))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
