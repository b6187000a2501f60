// Package value holds the typed compile-time constant representation
// produced by internal/eval and stored on CONSTANT/VARIABLE symbols.
// Grounded on lang/yparse/symtab.go's ConstVal field, generalized from a
// bare int64 to a tagged representation spanning every kind spec.md §4.8
// names (bignum integers, reals, bytes, pointers, and struct/array/slice
// aggregates).
package value

import (
	"fmt"
	"strings"

	"github.com/ashn-dot-dev/sunder-sub000/internal/bignum"
	"github.com/ashn-dot-dev/sunder-sub000/internal/intern"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
)

// AddressKind identifies the storage category of an Address.
type AddressKind int

const (
	AddressInvalid AddressKind = iota
	Absolute
	Static
	Local
)

// Address is the compile-time location model spec.md's resolver uses for
// both runtime objects and address-of constants: an absolute numeric
// address, a named static/global symbol with a byte offset, or a named
// local symbol with an rbp-relative offset and a parameter flag.
type Address struct {
	Kind    AddressKind
	Name    string // STATIC/LOCAL symbol name
	Offset  int64  // STATIC: byte offset; LOCAL: rbp-relative offset
	IsParam bool   // LOCAL only: true if the local is a function parameter
}

func (a Address) String() string {
	switch a.Kind {
	case Absolute:
		return fmt.Sprintf("ABSOLUTE(%d)", a.Offset)
	case Static:
		return fmt.Sprintf("STATIC(%s+%d)", a.Name, a.Offset)
	case Local:
		kind := "local"
		if a.IsParam {
			kind = "param"
		}
		return fmt.Sprintf("LOCAL(%s, %s, rbp%+d)", a.Name, kind, a.Offset)
	default:
		return "INVALID"
	}
}

// Value is a typed, immutable compile-time constant. Exactly one payload
// field is meaningful, selected by Type.Kind.
type Value struct {
	Type *types.Type

	Bool  bool
	Int   *bignum.Int    // sized/unsized integer kinds, byte, enum
	Real  float64        // f32/f64/unsized real
	Bytes *intern.String // interned backing for string/byte-array constants
	Addr  Address        // pointer constants (address-of a static symbol)
	Elems []Value        // array/slice/struct/union member values, in order
}

func NewBool(t *types.Type, b bool) Value { return Value{Type: t, Bool: b} }

func NewInt(t *types.Type, n *bignum.Int) Value { return Value{Type: t, Int: n} }

func NewReal(t *types.Type, f float64) Value { return Value{Type: t, Real: f} }

func NewBytes(t *types.Type, s *intern.String) Value { return Value{Type: t, Bytes: s} }

func NewPointer(t *types.Type, addr Address) Value { return Value{Type: t, Addr: addr} }

func NewAggregate(t *types.Type, elems []Value) Value { return Value{Type: t, Elems: elems} }

// Member returns the value of a named struct/union member, assuming Type
// carries members in the same order as Elems (the invariant every
// aggregate constructor in internal/eval maintains).
func (v Value) Member(name string) (Value, bool) {
	for i, m := range v.Type.Members {
		if m.Name == name {
			return v.Elems[i], true
		}
	}
	return Value{}, false
}

func (v Value) String() string {
	if v.Type == nil {
		return "<no type>"
	}
	switch {
	case v.Type.Kind == types.Bool:
		return fmt.Sprintf("%t", v.Bool)
	case v.Type.IsInteger():
		if v.Int == nil {
			return "0"
		}
		return v.Int.String()
	case v.Type.IsReal():
		return fmt.Sprintf("%g", v.Real)
	case v.Bytes != nil:
		return fmt.Sprintf("%q", v.Bytes.String())
	case v.Type.Kind == types.Pointer:
		return v.Addr.String()
	case v.Elems != nil:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return v.Type.Name + "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.Type.Name + "{}"
	}
}
