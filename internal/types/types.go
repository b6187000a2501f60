// Package types implements Sunder's structural type system: type values
// are uniqued by their canonical printed name, sized integers carry
// concrete widths, and struct/union layout is computed in two phases so
// that self- and mutually-referential declarations (through a pointer or
// slice) can be declared before they are completed. Grounded on
// lang/yparse/types.go's switch-on-Kind Type representation, generalized
// from YAPL's uint8/int16/uint16/block32/64/128 base set to Sunder's full
// kind set and cross-checked against original_source/tir.c for concrete
// sizes and alignments.
package types

import (
	"fmt"
	"strings"
)

// SizeofUnsized is the sentinel size/alignment for types with no fixed
// machine representation (unsized integer/real literals, incomplete
// struct/union, void).
const SizeofUnsized = -1

// Kind identifies the structural category of a Type.
type Kind int

const (
	Invalid Kind = iota
	Any
	Void
	Bool
	Byte

	U8
	S8
	U16
	S16
	U32
	S32
	U64
	S64
	Usize
	Ssize

	Integer // unsized integer literal type
	F32
	F64
	Real // unsized real literal type

	Function
	Pointer
	Array
	Slice
	Struct
	Union
	Enum
)

// Member is a named, offset-assigned struct or union field.
type Member struct {
	Name   string
	Type   *Type
	Offset int
}

// EnumConstant is a single enumerator name (its Value lives on the
// corresponding CONSTANT symbol, per spec.md's symbol model).
type EnumConstant struct {
	Name string
}

// Type is a single structurally-uniqued type value.
type Type struct {
	Kind Kind
	Name string // canonical printed name; the uniquing key in a Registry

	// Function.
	Params []*Type
	Return *Type

	// Pointer.
	Pointee *Type

	// Array.
	Count uint64
	// Array/Slice share Elem.
	Elem *Type

	// Struct/Union.
	Members  []Member
	Complete bool
	size     int
	align    int

	// Enum.
	Values     []EnumConstant
	Underlying *Type
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// IsIntegerKind reports whether k is one of the sized or unsized integer
// kinds, including byte.
func IsIntegerKind(k Kind) bool {
	switch k {
	case Byte, U8, S8, U16, S16, U32, S32, U64, S64, Usize, Ssize, Integer:
		return true
	}
	return false
}

func (t *Type) IsInteger() bool { return t != nil && IsIntegerKind(t.Kind) }

func (t *Type) IsSignedInteger() bool {
	switch t.Kind {
	case S8, S16, S32, S64, Ssize:
		return true
	}
	return false
}

func (t *Type) IsUnsignedInteger() bool {
	switch t.Kind {
	case Byte, U8, U16, U32, U64, Usize:
		return true
	}
	return false
}

func (t *Type) IsReal() bool { return t != nil && (t.Kind == F32 || t.Kind == F64 || t.Kind == Real) }

func (t *Type) IsUnsized() bool { return t != nil && (t.Kind == Integer || t.Kind == Real) }

// Size returns the type's size in bytes, or SizeofUnsized if it has none
// (unsized literal types, void, an incomplete struct/union).
func (t *Type) Size() int {
	switch t.Kind {
	case Void, Integer, Real, Invalid:
		return SizeofUnsized
	case Any:
		return SizeofUnsized
	case Bool, Byte, U8, S8:
		return 1
	case U16, S16:
		return 2
	case U32, S32, F32:
		return 4
	case U64, S64, Usize, Ssize, F64, Pointer, Function:
		return 8
	case Slice:
		return 16
	case Array:
		elemSize := t.Elem.Size()
		if elemSize == SizeofUnsized {
			return SizeofUnsized
		}
		return elemSize * int(t.Count)
	case Struct, Union:
		if !t.Complete {
			return SizeofUnsized
		}
		return t.size
	case Enum:
		return t.Underlying.Size()
	default:
		return SizeofUnsized
	}
}

// Align returns the type's alignment requirement in bytes.
func (t *Type) Align() int {
	switch t.Kind {
	case Struct, Union:
		if !t.Complete {
			return SizeofUnsized
		}
		return t.align
	case Array:
		return t.Elem.Align()
	case Slice:
		return 8 // pointer/count pair of 8-byte words
	case Enum:
		return t.Underlying.Align()
	default:
		sz := t.Size()
		if sz == SizeofUnsized {
			return 1
		}
		return sz
	}
}

// alignUp rounds n up to the next multiple of align (align must be a
// power of two).
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// Registry uniques Type values by canonical printed name. It is seeded
// with the built-in types on construction; every other Type an
// application constructs must come from one of the Registry's constructors
// (Pointer, Slice, Array, Function, Declare*) to preserve pointer-identity
// comparisons.
type Registry struct {
	byName map[string]*Type
}

// NewRegistry returns a Registry pre-populated with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Type)}
	for _, k := range []Kind{Any, Void, Bool, Byte, U8, S8, U16, S16, U32, S32, U64, S64, Usize, Ssize, Integer, F32, F64, Real} {
		t := &Type{Kind: k, Name: builtinName(k)}
		r.byName[t.Name] = t
	}
	return r
}

func builtinName(k Kind) string {
	switch k {
	case Any:
		return "any"
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case U8:
		return "u8"
	case S8:
		return "s8"
	case U16:
		return "u16"
	case S16:
		return "s16"
	case U32:
		return "u32"
	case S32:
		return "s32"
	case U64:
		return "u64"
	case S64:
		return "s64"
	case Usize:
		return "usize"
	case Ssize:
		return "ssize"
	case Integer:
		return "integer"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Real:
		return "real"
	default:
		return "<invalid>"
	}
}

// Builtin looks up a built-in type by its canonical name.
func (r *Registry) Builtin(name string) (*Type, bool) {
	t, ok := r.byName[name]
	if !ok || t.Kind == Struct || t.Kind == Union || t.Kind == Enum || t.Kind == Function || t.Kind == Pointer || t.Kind == Array || t.Kind == Slice {
		return nil, false
	}
	return t, ok
}

// Lookup returns the interned Type with the given canonical name, if any.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// intern returns the canonical Type for name, registering t if name has
// not been seen before.
func (r *Registry) intern(name string, build func() *Type) *Type {
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := build()
	t.Name = name
	r.byName[name] = t
	return t
}

// Pointer returns the uniqued pointer-to-pointee type.
func (r *Registry) Pointer(pointee *Type) *Type {
	name := "*" + pointee.Name
	return r.intern(name, func() *Type { return &Type{Kind: Pointer, Pointee: pointee} })
}

// Slice returns the uniqued slice-of-elem type.
func (r *Registry) Slice(elem *Type) *Type {
	name := "[]" + elem.Name
	return r.intern(name, func() *Type { return &Type{Kind: Slice, Elem: elem} })
}

// Array returns the uniqued [count]elem type.
func (r *Registry) Array(count uint64, elem *Type) *Type {
	name := fmt.Sprintf("[%d]%s", count, elem.Name)
	return r.intern(name, func() *Type { return &Type{Kind: Array, Count: count, Elem: elem} })
}

// Function returns the uniqued func(params) -> ret type.
func (r *Registry) Function(params []*Type, ret *Type) *Type {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	retName := "void"
	if ret != nil {
		retName = ret.Name
	}
	name := fmt.Sprintf("func(%s) -> %s", strings.Join(names, ", "), retName)
	return r.intern(name, func() *Type { return &Type{Kind: Function, Params: params, Return: ret} })
}

// DeclareStruct registers an incomplete struct type under name, or
// returns the existing incomplete/complete type if already declared.
func (r *Registry) DeclareStruct(name string) *Type {
	return r.intern(name, func() *Type { return &Type{Kind: Struct} })
}

// DeclareUnion registers an incomplete union type under name.
func (r *Registry) DeclareUnion(name string) *Type {
	return r.intern(name, func() *Type { return &Type{Kind: Union} })
}

// DeclareEnum registers an enum type under name with the given
// underlying representation (s32, per SPEC_FULL.md's Open Question
// resolution) and its ordered enumerator names.
func (r *Registry) DeclareEnum(name string, underlying *Type, values []EnumConstant) *Type {
	return r.intern(name, func() *Type {
		return &Type{Kind: Enum, Underlying: underlying, Values: values, Complete: true}
	})
}

// CompleteStruct lays out members sequentially with alignment padding
// between fields, per spec.md's struct layout rule, and marks t complete.
// It is an error to complete an already-complete type or to complete it
// with a member whose type is itself incomplete.
func CompleteStruct(t *Type, members []Member) error {
	if t.Kind != Struct {
		return fmt.Errorf("%s is not a struct type", t.Name)
	}
	if t.Complete {
		return fmt.Errorf("struct %s is already complete", t.Name)
	}
	offset := 0
	align := 1
	for i := range members {
		m := &members[i]
		msize, malign := m.Type.Size(), m.Type.Align()
		if msize == SizeofUnsized {
			return fmt.Errorf("member %s.%s has incomplete type %s", t.Name, m.Name, m.Type.Name)
		}
		offset = alignUp(offset, malign)
		m.Offset = offset
		offset += msize
		if malign > align {
			align = malign
		}
	}
	t.Members = members
	t.size = alignUp(offset, align)
	t.align = align
	t.Complete = true
	return nil
}

// CompleteUnion lays every member at offset zero with the union's size
// and alignment taken from its largest member, per spec.md's union
// layout rule, and marks t complete.
func CompleteUnion(t *Type, members []Member) error {
	if t.Kind != Union {
		return fmt.Errorf("%s is not a union type", t.Name)
	}
	if t.Complete {
		return fmt.Errorf("union %s is already complete", t.Name)
	}
	size, align := 0, 1
	for i := range members {
		m := &members[i]
		msize, malign := m.Type.Size(), m.Type.Align()
		if msize == SizeofUnsized {
			return fmt.Errorf("member %s.%s has incomplete type %s", t.Name, m.Name, m.Type.Name)
		}
		m.Offset = 0
		if msize > size {
			size = msize
		}
		if malign > align {
			align = malign
		}
	}
	t.Members = members
	t.size = alignUp(size, align)
	t.align = align
	t.Complete = true
	return nil
}

// Member looks up a named member on a struct or union type.
func (t *Type) Member(name string) (Member, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// IntegerBits returns the bit width of a sized integer kind (byte counts
// as 8); unsized Integer and non-integer kinds return 0.
func (k Kind) IntegerBits() int {
	switch k {
	case Byte, U8, S8:
		return 8
	case U16, S16:
		return 16
	case U32, S32:
		return 32
	case U64, S64, Usize, Ssize:
		return 64
	default:
		return 0
	}
}
