package symbol

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
)

func TestDefineAndLookupLocal(t *testing.T) {
	tbl := NewTable(nil)
	r := types.NewRegistry()
	s32, _ := r.Builtin("s32")
	sym := &Symbol{Kind: VARIABLE, Name: "x", Object: &Object{Type: s32}}
	if err := tbl.Define(sym); err != nil {
		t.Fatalf("Define: %v", err)
	}
	got, ok := tbl.LookupLocal("x")
	if !ok || got != sym {
		t.Fatalf("LookupLocal(x) = %v, %v", got, ok)
	}
}

func TestRedeclarationFails(t *testing.T) {
	tbl := NewTable(nil)
	if err := tbl.Define(&Symbol{Kind: CONSTANT, Name: "x"}); err != nil {
		t.Fatalf("first Define: %v", err)
	}
	if err := tbl.Define(&Symbol{Kind: CONSTANT, Name: "x"}); err == nil {
		t.Error("expected redeclaration error")
	}
}

func TestShadowingAcrossScopesIsAllowed(t *testing.T) {
	outer := NewTable(nil)
	if err := outer.Define(&Symbol{Kind: VARIABLE, Name: "x"}); err != nil {
		t.Fatalf("outer Define: %v", err)
	}
	inner := NewTable(outer)
	if err := inner.Define(&Symbol{Kind: VARIABLE, Name: "x"}); err != nil {
		t.Errorf("shadowing in inner scope should be allowed, got error: %v", err)
	}
}

func TestLookupSearchesParentChain(t *testing.T) {
	outer := NewTable(nil)
	outer.Define(&Symbol{Kind: CONSTANT, Name: "PI"})
	inner := NewTable(outer)
	sym, ok := inner.Lookup("PI")
	if !ok || sym.Name != "PI" {
		t.Fatalf("Lookup(PI) from inner scope = %v, %v", sym, ok)
	}
	if _, ok := inner.LookupLocal("PI"); ok {
		t.Error("LookupLocal should not search the parent chain")
	}
}

func TestSymbolsPreservesInsertionOrder(t *testing.T) {
	tbl := NewTable(nil)
	names := []string{"c", "a", "b"}
	for _, n := range names {
		tbl.Define(&Symbol{Kind: CONSTANT, Name: n})
	}
	syms := tbl.Symbols()
	if len(syms) != 3 {
		t.Fatalf("got %d symbols, want 3", len(syms))
	}
	for i, n := range names {
		if syms[i].Name != n {
			t.Errorf("Symbols()[%d] = %s, want %s", i, syms[i].Name, n)
		}
	}
}
