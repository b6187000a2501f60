// Package symbol implements the tagged-union Symbol model and the
// parent-chained, insertion-ordered symbol Table, per spec.md's resolver
// description. Grounded on lang/yparse/symtab.go's SymbolTable
// (Globals map + Structs map + error accumulation) and FuncScope
// (ParamMap/LocalMap + FrameOffset bookkeeping), generalized from YAPL's
// flat global/local split to Sunder's chained lexical scopes and its
// richer tagged-union Symbol kinds (TYPE/VARIABLE/CONSTANT/FUNCTION/
// TEMPLATE/NAMESPACE).
package symbol

import (
	"fmt"

	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
	"github.com/ashn-dot-dev/sunder-sub000/internal/value"
)

// Kind identifies which payload field of a Symbol is meaningful.
type Kind int

const (
	Invalid Kind = iota
	TYPE
	VARIABLE
	CONSTANT
	FUNCTION
	TEMPLATE
	NAMESPACE
)

func (k Kind) String() string {
	switch k {
	case TYPE:
		return "TYPE"
	case VARIABLE:
		return "VARIABLE"
	case CONSTANT:
		return "CONSTANT"
	case FUNCTION:
		return "FUNCTION"
	case TEMPLATE:
		return "TEMPLATE"
	case NAMESPACE:
		return "NAMESPACE"
	default:
		return "INVALID"
	}
}

// Object is the runtime/compile-time representation of a VARIABLE or
// CONSTANT: its type, its storage address, and (for compile-time
// constants and initialized globals) its folded value.
type Object struct {
	Type     *types.Type
	Address  value.Address
	Value    *value.Value
	IsExtern bool
}

// Function holds a FUNCTION symbol's signature and parameter names, in
// declaration order, for call-site arity/type checking.
type Function struct {
	Type       *types.Type // types.Function
	ParamNames []string
}

// Template holds a TEMPLATE symbol's declared parameter names and its
// instantiation cache, keyed by the canonicalized instantiation name
// (e.g. "pair[[s32, bool]]"). Decl is the cst.Decl being instantiated;
// it is held as `any` so this package does not depend on internal/cst.
type Template struct {
	ParamNames []string
	Decl       any
	Instances  map[string]*Symbol
}

// Symbol is a tagged union over the six symbol kinds spec.md names.
// Exactly one of Type/Object/Func/Tmpl/Namespace is meaningful, selected
// by Kind.
type Symbol struct {
	Kind     Kind
	Name     string
	Location source.Location

	// Uses counts how many times this symbol was resolved as a reference
	// (not counting its own declaration), for the unused-local-symbol
	// warning.
	Uses int

	Type      *types.Type // TYPE
	Object    *Object     // VARIABLE, CONSTANT
	Func      *Function   // FUNCTION
	Tmpl      *Template   // TEMPLATE
	Namespace *Table      // NAMESPACE
}

// Table is a lexical scope: a map of symbols defined directly in it, an
// insertion-ordered name list (for deterministic IR emission), and a
// link to its enclosing scope for chained lookups.
type Table struct {
	parent  *Table
	entries map[string]*Symbol
	order   []string
}

// NewTable returns an empty Table chained to parent (nil for the root
// module-level table).
func NewTable(parent *Table) *Table {
	return &Table{parent: parent, entries: make(map[string]*Symbol)}
}

// Parent returns the enclosing scope, or nil at the root.
func (t *Table) Parent() *Table { return t.parent }

// Define inserts sym into t, failing if a symbol with the same name is
// already defined directly in t (shadowing an outer-scope symbol is
// allowed; redeclaring in the same scope is not, per spec.md's
// "redeclaration" error condition).
func (t *Table) Define(sym *Symbol) error {
	if _, exists := t.entries[sym.Name]; exists {
		return fmt.Errorf("redeclaration of %q", sym.Name)
	}
	t.entries[sym.Name] = sym
	t.order = append(t.order, sym.Name)
	return nil
}

// LookupLocal finds a symbol defined directly in t, without searching
// enclosing scopes.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := t.entries[name]
	return sym, ok
}

// Lookup searches t and then its chain of enclosing scopes.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t; s != nil; s = s.parent {
		if sym, ok := s.entries[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Symbols returns every symbol defined directly in t, in insertion order.
func (t *Table) Symbols() []*Symbol {
	syms := make([]*Symbol, len(t.order))
	for i, name := range t.order {
		syms[i] = t.entries[name]
	}
	return syms
}
