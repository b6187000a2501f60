package order

import (
	"strings"
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/parser"
)

func mustParse(t *testing.T, src string) *cst.Module {
	t.Helper()
	sink := diag.NewSink()
	mod, err := parser.ParseModule("test.sunder", []byte(src), sink)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	return mod
}

func declNames(decls []cst.Decl) []string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = declName(d, i)
	}
	return names
}

func TestOrderSimpleChain(t *testing.T) {
	src := `
		let c: s32 = b;
		let b: s32 = a;
		let a: s32 = 1;
	`
	mod := mustParse(t, src)
	ordered, err := Order(mod.Decls, diag.NewSink())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	got := declNames(ordered)
	pos := make(map[string]int)
	for i, n := range got {
		pos[n] = i
	}
	if pos["b"] >= pos["c"] {
		t.Errorf("expected b before c, got order %v", got)
	}
	if pos["a"] >= pos["b"] {
		t.Errorf("expected a before b, got order %v", got)
	}
}

func TestOrderStructPointerCycleAllowed(t *testing.T) {
	src := `
		struct node {
			var next: *node;
			var value: s32;
		}
	`
	mod := mustParse(t, src)
	if _, err := Order(mod.Decls, diag.NewSink()); err != nil {
		t.Fatalf("self-referential pointer member should not be a cycle error: %v", err)
	}
}

func TestOrderTrueCycleIsFatal(t *testing.T) {
	src := `
		let a: s32 = b;
		let b: s32 = a;
	`
	mod := mustParse(t, src)
	sink := diag.NewSink()
	_, err := Order(mod.Decls, sink)
	if err == nil {
		t.Fatal("expected a fatal diagnostic for a true circular dependency")
	}
	if !strings.Contains(err.Error(), "circular") {
		t.Errorf("error = %v, want mention of circular dependency", err)
	}
}

func TestOrderFunctionMutualRecursionAllowed(t *testing.T) {
	src := `
		func is_even(n: s32) -> s32 {
			return is_odd(n);
		}
		func is_odd(n: s32) -> s32 {
			return is_even(n);
		}
	`
	mod := mustParse(t, src)
	if _, err := Order(mod.Decls, diag.NewSink()); err != nil {
		t.Fatalf("mutually recursive function bodies should not be ordered: %v", err)
	}
}

func TestOrderConstantDependsOnStruct(t *testing.T) {
	src := `
		struct point {
			var x: s32;
			var y: s32;
		}
		let origin: point = point{.x=0, .y=0};
	`
	mod := mustParse(t, src)
	ordered, err := Order(mod.Decls, diag.NewSink())
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	got := declNames(ordered)
	if got[0] != "point" || got[1] != "origin" {
		t.Errorf("got order %v, want [point origin]", got)
	}
}
