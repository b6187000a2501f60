package ir

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/bignum"
	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
	"github.com/ashn-dot-dev/sunder-sub000/internal/value"
)

func TestExprTypeReturnsAssignedType(t *testing.T) {
	r := types.NewRegistry()
	s32, _ := r.Builtin("s32")
	e := &ValueExpr{
		exprBase: exprBase{base: base{Location: source.Builtin}, Type: s32},
		Value:    value.NewInt(s32, bignum.FromInt64(7)),
	}
	var x Expr = e
	if x.ExprType() != s32 {
		t.Errorf("ExprType() = %v, want s32", x.ExprType())
	}
}

func TestStmtVariantsImplementStmt(t *testing.T) {
	var stmts = []Stmt{
		&DeferStmt{},
		&IfStmt{},
		&WhenStmt{},
		&ForRangeStmt{},
		&ForExprStmt{},
		&BreakStmt{},
		&ContinueStmt{},
		&SwitchStmt{},
		&ReturnStmt{},
		&AssertStmt{},
		&AssignStmt{},
		&ExprStmt{},
	}
	if len(stmts) != 12 {
		t.Fatalf("expected 12 statement variants, got %d", len(stmts))
	}
}

func TestExprVariantsImplementExpr(t *testing.T) {
	var exprs = []Expr{
		&SymbolExpr{},
		&ValueExpr{},
		&BytesExpr{},
		&ArrayListExpr{},
		&SliceListExpr{},
		&SliceExpr{},
		&InitExpr{},
		&CastExpr{},
		&CallExpr{},
		&IndexExpr{},
		&AccessSliceExpr{},
		&AccessMemberExpr{},
		&SizeofExpr{},
		&AlignofExpr{},
		&UnaryExpr{},
		&BinaryExpr{},
	}
	if len(exprs) != 16 {
		t.Fatalf("expected 16 expression variants, got %d", len(exprs))
	}
}

func TestBinaryExprDispatch(t *testing.T) {
	r := types.NewRegistry()
	s32, _ := r.Builtin("s32")
	lhs := &ValueExpr{exprBase: exprBase{Type: s32}, Value: value.NewInt(s32, bignum.FromInt64(1))}
	rhs := &ValueExpr{exprBase: exprBase{Type: s32}, Value: value.NewInt(s32, bignum.FromInt64(2))}
	be := &BinaryExpr{exprBase: exprBase{Type: s32}, Op: BinaryAdd, Left: lhs, Right: rhs}
	if be.Op != BinaryAdd {
		t.Errorf("Op = %v, want BinaryAdd", be.Op)
	}
	if be.Left.ExprType() != s32 || be.Right.ExprType() != s32 {
		t.Error("operand types should propagate through ExprType")
	}
}
