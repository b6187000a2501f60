package eval

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/bignum"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ir"
	"github.com/ashn-dot-dev/sunder-sub000/internal/symbol"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
	"github.com/ashn-dot-dev/sunder-sub000/internal/value"
)

func TestEvalLiteralPassesThrough(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	e := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(7))}
	got, err := Eval(c, e)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "7" {
		t.Errorf("got %s, want 7", got.Int.String())
	}
}

func TestEvalBinaryAdd(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	lhs := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(3))}
	rhs := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(4))}
	be := &ir.BinaryExpr{Op: ir.BinaryAdd, Left: lhs, Right: rhs}
	be.Type = s32
	got, err := Eval(c, be)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "7" {
		t.Errorf("got %s, want 7", got.Int.String())
	}
}

func TestEvalCastOutOfRangeFails(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	integer, _ := c.Types.Builtin("integer")
	u8, _ := c.Types.Builtin("u8")
	x := &ir.ValueExpr{Value: value.NewInt(integer, bignum.FromInt64(300))}
	ce := &ir.CastExpr{X: x}
	ce.Type = u8
	if _, err := Eval(c, ce); err == nil {
		t.Fatal("expected out-of-range cast to fail")
	}
}

func TestEvalCastInRangeSucceeds(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	integer, _ := c.Types.Builtin("integer")
	u8, _ := c.Types.Builtin("u8")
	x := &ir.ValueExpr{Value: value.NewInt(integer, bignum.FromInt64(200))}
	ce := &ir.CastExpr{X: x}
	ce.Type = u8
	got, err := Eval(c, ce)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "200" {
		t.Errorf("got %s, want 200", got.Int.String())
	}
}

func TestEvalWrappingAddOverflowsModulo(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	u8, _ := c.Types.Builtin("u8")
	lhs := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(250))}
	rhs := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(10))}
	be := &ir.BinaryExpr{Op: ir.BinaryAddWrapping, Left: lhs, Right: rhs}
	be.Type = u8
	got, err := Eval(c, be)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "4" {
		t.Errorf("got %s, want 4 (250+10 mod 256)", got.Int.String())
	}
}

func TestEvalWrappingNegTruncates(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	u8, _ := c.Types.Builtin("u8")
	x := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(1))}
	ue := &ir.UnaryExpr{Op: ir.UnaryNegWrapping, X: x}
	ue.Type = u8
	got, err := Eval(c, ue)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "255" {
		t.Errorf("-%%1 as u8 = %s, want 255", got.Int.String())
	}
}

func TestEvalDivisionByZeroFails(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	lhs := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(1))}
	rhs := &ir.ValueExpr{Value: value.NewInt(s32, bignum.Zero())}
	be := &ir.BinaryExpr{Op: ir.BinaryDiv, Left: lhs, Right: rhs}
	be.Type = s32
	if _, err := Eval(c, be); err == nil {
		t.Fatal("expected division by zero to fail")
	}
}

func TestEvalUnaryNegationOnUnsignedFails(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	u8, _ := c.Types.Builtin("u8")
	x := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(5))}
	ue := &ir.UnaryExpr{Op: ir.UnaryNeg, X: x}
	ue.Type = u8
	if _, err := Eval(c, ue); err == nil {
		t.Fatal("expected unary negation on unsigned type to fail")
	}
}

func TestEvalCallIsNotConstant(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	ce := &ir.CallExpr{}
	_, err := Eval(c, ce)
	if err == nil {
		t.Fatal("expected call to be non-constant")
	}
	if _, ok := err.(*NotConstantError); !ok {
		t.Errorf("expected *NotConstantError, got %T", err)
	}
}

func TestEvalAddressOfLocalIsNotConstant(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	sym := &symbol.Symbol{
		Kind: symbol.VARIABLE,
		Name: "n",
		Object: &symbol.Object{
			Type:    s32,
			Address: value.Address{Kind: value.Local, Name: "n", Offset: -8},
		},
	}
	local := &ir.SymbolExpr{Symbol: sym}
	ue := &ir.UnaryExpr{Op: ir.UnaryAddr, X: local}
	ue.Type = c.Types.Pointer(s32)
	_, err := Eval(c, ue)
	if err == nil {
		t.Fatal("expected address-of local to be non-constant")
	}
	if _, ok := err.(*NotConstantError); !ok {
		t.Errorf("expected *NotConstantError, got %T (%v)", err, err)
	}
}

func TestEvalDereferenceOfNonLiteralPointerIsNotConstant(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	ptr, _ := c.Types.Builtin("usize")
	x := &ir.ValueExpr{Value: value.NewPointer(ptr, value.Address{Kind: value.Static, Name: "p"})}
	ue := &ir.UnaryExpr{Op: ir.UnaryDeref, X: x}
	ue.Type = s32
	_, err := Eval(c, ue)
	if err == nil {
		t.Fatal("expected dereference of a non-literal pointer to be non-constant")
	}
	if _, ok := err.(*NotConstantError); !ok {
		t.Errorf("expected *NotConstantError, got %T", err)
	}
}

func TestEvalDereferenceOfAddressOfFolds(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	sym := &symbol.Symbol{
		Kind: symbol.VARIABLE,
		Name: "g",
		Object: &symbol.Object{
			Type:    s32,
			Address: value.Address{Kind: value.Static, Name: "g"},
			Value:   valuePtr(value.NewInt(s32, bignum.FromInt64(42))),
		},
	}
	ref := &ir.SymbolExpr{Symbol: sym}
	addr := &ir.UnaryExpr{Op: ir.UnaryAddr, X: ref}
	addr.Type = c.Types.Pointer(s32)
	deref := &ir.UnaryExpr{Op: ir.UnaryDeref, X: addr}
	deref.Type = s32
	got, err := Eval(c, deref)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "42" {
		t.Errorf("*&g = %s, want 42", got.Int.String())
	}
}

func TestEvalOrderingCompareOnPointersIsNotConstant(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	boolT, _ := c.Types.Builtin("bool")
	ptrT := c.Types.Pointer(s32)
	lhs := &ir.ValueExpr{Value: value.NewPointer(ptrT, value.Address{Kind: value.Static, Name: "a"})}
	rhs := &ir.ValueExpr{Value: value.NewPointer(ptrT, value.Address{Kind: value.Static, Name: "b"})}
	be := &ir.BinaryExpr{Op: ir.BinaryLt, Left: lhs, Right: rhs}
	be.Type = boolT
	_, err := Eval(c, be)
	if err == nil {
		t.Fatal("expected ordering compare on pointers to be non-constant")
	}
	if _, ok := err.(*NotConstantError); !ok {
		t.Errorf("expected *NotConstantError, got %T", err)
	}
}

func TestEvalPointerEqualityIsConstant(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	boolT, _ := c.Types.Builtin("bool")
	ptrT := c.Types.Pointer(s32)
	addr := value.Address{Kind: value.Static, Name: "a"}
	lhs := &ir.ValueExpr{Value: value.NewPointer(ptrT, addr)}
	rhs := &ir.ValueExpr{Value: value.NewPointer(ptrT, addr)}
	be := &ir.BinaryExpr{Op: ir.BinaryEq, Left: lhs, Right: rhs}
	be.Type = boolT
	got, err := Eval(c, be)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got.Bool {
		t.Error("expected identical static addresses to compare equal")
	}
}

func TestEvalSizeofReturnsUsize(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	se := &ir.SizeofExpr{Operand: s32}
	got, err := Eval(c, se)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "4" {
		t.Errorf("sizeof(s32) = %s, want 4", got.Int.String())
	}
}

func TestEvalBitwiseAnd(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	u8, _ := c.Types.Builtin("u8")
	lhs := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(0b1100))}
	rhs := &ir.ValueExpr{Value: value.NewInt(u8, bignum.FromInt64(0b1010))}
	be := &ir.BinaryExpr{Op: ir.BinaryBitAnd, Left: lhs, Right: rhs}
	be.Type = u8
	got, err := Eval(c, be)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "8" {
		t.Errorf("0b1100 & 0b1010 = %s, want 8", got.Int.String())
	}
}

func TestEvalShiftRightSignExtends(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s8, _ := c.Types.Builtin("s8")
	lhs := &ir.ValueExpr{Value: value.NewInt(s8, bignum.FromInt64(-8))}
	rhs := &ir.ValueExpr{Value: value.NewInt(s8, bignum.FromInt64(1))}
	be := &ir.BinaryExpr{Op: ir.BinaryShr, Left: lhs, Right: rhs}
	be.Type = s8
	got, err := Eval(c, be)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Int.String() != "-4" {
		t.Errorf("-8 >> 1 as s8 = %s, want -4", got.Int.String())
	}
}

func TestEvalArrayListEllipsisZeroFillsRemainder(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	arrT := c.Types.Array(3, s32)
	first := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(9))}
	ae := &ir.ArrayListExpr{Elems: []ir.Expr{first}, Ellipsis: true}
	ae.Type = arrT
	got, err := Eval(c, ae)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got.Elems) != 3 {
		t.Fatalf("len(Elems) = %d, want 3", len(got.Elems))
	}
	if got.Elems[0].Int.String() != "9" {
		t.Errorf("Elems[0] = %s, want 9", got.Elems[0].Int.String())
	}
	if got.Elems[1].Int.String() != "0" || got.Elems[2].Int.String() != "0" {
		t.Error("expected ellipsis-filled elements to be zero")
	}
}

func TestEvalInitExprZeroFillsUnsetMembers(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	pointT := c.Types.DeclareStruct("point")
	if err := types.CompleteStruct(pointT, []types.Member{{Name: "x", Type: s32}, {Name: "y", Type: s32}}); err != nil {
		t.Fatalf("CompleteStruct: %v", err)
	}
	x := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(1))}
	init := &ir.InitExpr{Members: []ir.InitMember{{Name: "x", X: x}}}
	init.Type = pointT
	got, err := Eval(c, init)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.Elems[0].Int.String() != "1" {
		t.Errorf("x = %s, want 1", got.Elems[0].Int.String())
	}
	if got.Elems[1].Int.String() != "0" {
		t.Errorf("y = %s, want 0 (zero-filled)", got.Elems[1].Int.String())
	}
}

func TestEvalInitExprUnknownMemberFails(t *testing.T) {
	c := ctx.New(ctx.DefaultOptions())
	s32, _ := c.Types.Builtin("s32")
	pointT := c.Types.DeclareStruct("point2")
	if err := types.CompleteStruct(pointT, []types.Member{{Name: "x", Type: s32}}); err != nil {
		t.Fatalf("CompleteStruct: %v", err)
	}
	bogus := &ir.ValueExpr{Value: value.NewInt(s32, bignum.FromInt64(1))}
	init := &ir.InitExpr{Members: []ir.InitMember{{Name: "z", X: bogus}}}
	init.Type = pointT
	if _, err := Eval(c, init); err == nil {
		t.Fatal("expected unknown member name to fail")
	}
}

func valuePtr(v value.Value) *value.Value { return &v }
