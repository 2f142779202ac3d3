package ir

import (
	"fmt"
	"math"
)

// Variable identifies a source-level variable (a Wasm local or an
// implicit slot the translator introduces). A Variable has multiple
// Values over its lifetime as the source program redefines it; Builder
// tracks the mapping from Variable to its current Value per block.
type Variable uint32

// String implements fmt.Stringer.
func (v Variable) String() string {
	return fmt.Sprintf("var%d", v)
}

// Value is an SSA value. The low 32 bits are an opaque identifier; the
// high 32 bits cache the value's Type so callers can inspect it without a
// builder round-trip.
type Value uint64

// ValueID is the type-erased identity of a Value.
type ValueID uint32

const (
	valueIDInvalid ValueID = math.MaxUint32
	// ValueInvalid is the sentinel for "no value produced" (not the zero
	// Value, which is the valid v0).
	ValueInvalid Value = Value(valueIDInvalid)
)

// Valid reports whether v refers to a real value.
func (v Value) Valid() bool {
	return v.ID() != valueIDInvalid
}

// Type returns the type of v.
func (v Value) Type() Type {
	return Type(v >> 32)
}

// ID returns the type-erased identity of v.
func (v Value) ID() ValueID {
	return ValueID(v)
}

func (v Value) setType(t Type) Value {
	return v | Value(t)<<32
}

// Format renders v for debugging, preferring any annotation attached via
// Builder.AnnotateValue.
func (v Value) Format(b Builder) string {
	if bb, ok := b.(*builder); ok {
		if a, ok := bb.valueAnnotations[v.ID()]; ok {
			return a
		}
	}
	return fmt.Sprintf("v%d", v.ID())
}

func (v Value) formatWithType(b Builder) string {
	return fmt.Sprintf("%s:%s", v.Format(b), v.Type())
}
