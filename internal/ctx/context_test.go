package ctx

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/symbol"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
)

func TestNewInstallsBuiltinTypesInGlobalScope(t *testing.T) {
	c := New(DefaultOptions())
	for _, name := range builtinTypeNames {
		sym, ok := c.Globals.LookupLocal(name)
		if !ok {
			t.Fatalf("builtin type %q not defined in global scope", name)
		}
		if sym.Kind != symbol.TYPE {
			t.Errorf("builtin %q has kind %v, want TYPE", name, sym.Kind)
		}
	}
}

func TestNewInstallsByteTypeAndItsPointerAndSlice(t *testing.T) {
	c := New(DefaultOptions())
	byteType, ok := c.Types.Builtin("byte")
	if !ok {
		t.Fatal("byte type not registered")
	}
	if _, ok := c.Types.Lookup("*byte"); !ok {
		t.Error("*byte should be eagerly constructed")
	}
	if _, ok := c.Types.Lookup("[]byte"); !ok {
		t.Error("[]byte should be eagerly constructed")
	}
	_ = byteType
}

func TestIntLimitsCoverSizedIntegers(t *testing.T) {
	c := New(DefaultOptions())
	cases := []struct {
		kind     types.Kind
		min, max string
	}{
		{types.U8, "0", "255"},
		{types.S8, "-128", "127"},
		{types.U16, "0", "65535"},
		{types.S16, "-32768", "32767"},
		{types.U32, "0", "4294967295"},
		{types.S32, "-2147483648", "2147483647"},
	}
	for _, tc := range cases {
		lim, ok := c.IntLimits[tc.kind]
		if !ok {
			t.Fatalf("no IntLimit recorded for kind %v", tc.kind)
		}
		if lim.Min.String() != tc.min || lim.Max.String() != tc.max {
			t.Errorf("kind %v: got [%s, %s], want [%s, %s]", tc.kind, lim.Min.String(), lim.Max.String(), tc.min, tc.max)
		}
	}
}

func TestIntLimitsCoverUsizeAtWordSize(t *testing.T) {
	c := New(DefaultOptions())
	lim := c.IntLimits[types.Usize]
	if lim.Min.String() != "0" {
		t.Errorf("usize min = %s, want 0", lim.Min.String())
	}
	if lim.Max.String() != "18446744073709551615" {
		t.Errorf("usize max = %s, want 2^64-1", lim.Max.String())
	}
}

func TestInternReturnsPointerIdenticalStrings(t *testing.T) {
	c := New(DefaultOptions())
	a := c.Intern("hello")
	b := c.Intern("hello")
	if a != b {
		t.Error("Intern should return pointer-identical handles for equal content")
	}
}
