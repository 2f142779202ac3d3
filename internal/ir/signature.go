package ir

import (
	"fmt"
	"strings"
)

// SignatureID identifies a Signature declared on a Builder.
type SignatureID uint32

// String implements fmt.Stringer.
func (id SignatureID) String() string {
	return fmt.Sprintf("sig%d", uint32(id))
}

// Signature is a function signature, used both for the function currently
// being compiled and for any callee referenced via SigRef/FuncRef.
type Signature struct {
	ID      SignatureID
	Params  []Type
	Results []Type

	used bool
}

// String implements fmt.Stringer.
func (s *Signature) String() string {
	ps := make([]string, len(s.Params))
	for i, p := range s.Params {
		ps[i] = p.String()
	}
	rs := make([]string, len(s.Results))
	for i, r := range s.Results {
		rs[i] = r.String()
	}
	return fmt.Sprintf("%s: (%s) -> (%s)", s.ID, strings.Join(ps, ", "), strings.Join(rs, ", "))
}
