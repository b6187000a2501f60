package resolve

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ir"
	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
	"github.com/ashn-dot-dev/sunder-sub000/internal/value"
)

func newTestResolver() (*Resolver, *ctx.Context) {
	c := ctx.New(ctx.DefaultOptions())
	return New(c), c
}

func sym(name string) *cst.SymbolTypeSpec {
	return &cst.SymbolTypeSpec{Name: name}
}

func intLit(text, suffix string) *cst.IntegerLitExpr {
	return &cst.IntegerLitExpr{Text: text, Suffix: suffix}
}

func TestOutOfRangeIntegerSuffixIsFatal(t *testing.T) {
	r, _ := newTestResolver()
	d := &cst.VariableDecl{
		Name: "x", Let: true,
		Type: sym("u8"),
		Init: intLit("256", "u8"),
	}
	if err := r.resolveVariable(d, r.c.Globals); err == nil {
		t.Fatal("expected a fatal diagnostic for an out-of-range literal suffix, got nil")
	}
}

func TestTemplateInstantiationIsCached(t *testing.T) {
	r, _ := newTestResolver()
	decl := &cst.StructDecl{
		Name:     "box",
		Template: &cst.TemplateParams{Names: []string{"T"}},
		Members:  []cst.MemberVariable{{Name: "v", Type: sym("T")}},
	}
	if err := r.resolveStructDecl(decl, r.c.Globals); err != nil {
		t.Fatalf("resolveStructDecl(template): %v", err)
	}

	spec := &cst.SymbolTypeSpec{Name: "box", TypeArgs: []cst.TypeSpec{sym("s32")}}
	t1, err := r.resolveTypeSpec(spec, r.c.Globals)
	if err != nil {
		t.Fatalf("first instantiation: %v", err)
	}
	t2, err := r.resolveTypeSpec(spec, r.c.Globals)
	if err != nil {
		t.Fatalf("second instantiation: %v", err)
	}
	if t1 != t2 {
		t.Errorf("repeated instantiation of box[[s32]] produced distinct types: %p != %p", t1, t2)
	}
	if !t1.Complete {
		t.Error("instantiated struct should be complete")
	}
}

func TestStructLayoutOffsetsAndAlignment(t *testing.T) {
	r, c := newTestResolver()
	decl := &cst.StructDecl{
		Name: "s",
		Members: []cst.MemberVariable{
			{Name: "a", Type: sym("u16")},
			{Name: "b", Type: sym("u8")},
			{Name: "c", Type: sym("u64")},
		},
	}
	if err := r.resolveDecls([]cst.Decl{decl}, c.Globals); err != nil {
		t.Fatalf("resolveDecls: %v", err)
	}
	gotSym, ok := c.Globals.Lookup("s")
	if !ok {
		t.Fatal("struct s was not defined")
	}
	st := gotSym.Type
	a, _ := st.Member("a")
	b, _ := st.Member("b")
	cc, _ := st.Member("c")
	if a.Offset != 0 {
		t.Errorf("a.Offset = %d, want 0", a.Offset)
	}
	if b.Offset != 2 {
		t.Errorf("b.Offset = %d, want 2", b.Offset)
	}
	if cc.Offset != 8 {
		t.Errorf("c.Offset = %d, want 8", cc.Offset)
	}
	if st.Size() != 16 {
		t.Errorf("Size() = %d, want 16", st.Size())
	}
	if st.Align() != 8 {
		t.Errorf("Align() = %d, want 8", st.Align())
	}
}

func TestMutuallyRecursiveStructsComplete(t *testing.T) {
	r, c := newTestResolver()
	declA := &cst.StructDecl{
		Name:    "A",
		Members: []cst.MemberVariable{{Name: "next", Type: &cst.PointerTypeSpec{Pointee: sym("B")}}},
	}
	declB := &cst.StructDecl{
		Name:    "B",
		Members: []cst.MemberVariable{{Name: "next", Type: &cst.PointerTypeSpec{Pointee: sym("A")}}},
	}
	if err := r.resolveDecls([]cst.Decl{declA, declB}, c.Globals); err != nil {
		t.Fatalf("resolveDecls: %v", err)
	}
	aSym, _ := c.Globals.Lookup("A")
	bSym, _ := c.Globals.Lookup("B")
	if !aSym.Type.Complete || !bSym.Type.Complete {
		t.Error("mutually recursive pointer-linked structs should both complete")
	}
}

func TestConstantFoldsArithmetic(t *testing.T) {
	r, c := newTestResolver()
	init := &cst.BinaryExpr{
		Op:   cst.BinaryAdd,
		Left: intLit("1", ""),
		Right: &cst.BinaryExpr{
			Op: cst.BinaryMul, Left: intLit("2", ""), Right: intLit("3", ""),
		},
	}
	decl := &cst.ConstantDecl{Name: "x", Type: sym("s32"), Init: init}
	if err := r.resolveConstant(decl, c.Globals); err != nil {
		t.Fatalf("resolveConstant: %v", err)
	}
	s, ok := c.Globals.Lookup("x")
	if !ok {
		t.Fatal("constant x was not defined")
	}
	if s.Object.Value == nil || s.Object.Value.Int == nil {
		t.Fatal("constant x has no folded integer value")
	}
	if got, ok := s.Object.Value.Int.ToInt64(); !ok || got != 7 {
		t.Errorf("x = %v, want 7", s.Object.Value.Int)
	}
}

func TestDeferTailIsReverseInstallationOrder(t *testing.T) {
	r, c := newTestResolver()
	_, fn, fnScope, err := r.declareFunction(&cst.FunctionDecl{Name: "f", Body: &cst.Block{}}, c.Globals, "f", "f")
	if err != nil {
		t.Fatalf("declareFunction: %v", err)
	}

	body := &cst.Block{
		Stmts: []cst.Stmt{
			&cst.DeferStmt{Body: &cst.Block{Stmts: []cst.Stmt{&cst.ExprStmt{X: &cst.BooleanLitExpr{Value: true}}}}},
			&cst.DeferStmt{Body: &cst.Block{Stmts: []cst.Stmt{&cst.ExprStmt{X: &cst.BooleanLitExpr{Value: false}}}}},
			&cst.ReturnStmt{},
		},
	}
	fc := &funcCtx{fn: fn}
	resolved, err := r.resolveBlock(body, fnScope, fc)
	if err != nil {
		t.Fatalf("resolveBlock: %v", err)
	}
	if len(resolved.Defers) != 2 {
		t.Fatalf("expected 2 defers installed in the block, got %d", len(resolved.Defers))
	}
	var ret *ir.ReturnStmt
	for _, s := range resolved.Stmts {
		if rs, ok := s.(*ir.ReturnStmt); ok {
			ret = rs
		}
	}
	if ret == nil {
		t.Fatal("no return statement resolved")
	}
	if len(ret.DeferTail) != 2 {
		t.Fatalf("expected return's DeferTail to carry 2 defers, got %d", len(ret.DeferTail))
	}
	if ret.DeferTail[0] != resolved.Defers[1] || ret.DeferTail[1] != resolved.Defers[0] {
		t.Error("DeferTail should list defers in reverse installation order")
	}
}

func TestBreakOutsideLoopIsFatal(t *testing.T) {
	r, c := newTestResolver()
	_, fn, fnScope, err := r.declareFunction(&cst.FunctionDecl{Name: "f", Body: &cst.Block{}}, c.Globals, "f", "f")
	if err != nil {
		t.Fatalf("declareFunction: %v", err)
	}
	fc := &funcCtx{fn: fn}
	body := &cst.Block{Stmts: []cst.Stmt{&cst.BreakStmt{}}}
	if _, err := r.resolveBlock(body, fnScope, fc); err == nil {
		t.Fatal("expected a fatal diagnostic for break outside a loop")
	}
}

func TestImplicitCastRejectsMismatchedPointer(t *testing.T) {
	r, c := newTestResolver()
	s32, _ := c.Types.Builtin("s32")
	u8, _ := c.Types.Builtin("u8")
	pS32 := c.Types.Pointer(s32)
	pU8 := c.Types.Pointer(u8)
	anyT, _ := c.Types.Builtin("any")
	pAny := c.Types.Pointer(anyT)

	x := ir.NewValueExpr(source.Builtin, pS32, value.NewPointer(pS32, value.Address{Kind: value.Static, Name: "g"}))
	if _, err := r.implicitCast(x, pU8, source.Builtin); err == nil {
		t.Error("expected implicit cast between unrelated pointer types to fail")
	}
	if _, err := r.implicitCast(x, pAny, source.Builtin); err != nil {
		t.Errorf("expected *s32 to *any to be an allowed implicit cast: %v", err)
	}
}

func TestAssignToConstantWarnsRatherThanFails(t *testing.T) {
	r, c := newTestResolver()
	decl := &cst.ConstantDecl{Name: "x", Type: sym("s32"), Init: intLit("1", "")}
	if err := r.resolveConstant(decl, c.Globals); err != nil {
		t.Fatalf("resolveConstant: %v", err)
	}
	assign := &cst.AssignStmt{LHS: &cst.IdentifierExpr{Name: "x"}, RHS: intLit("2", "")}
	if _, err := r.resolveAssignStmt(assign, c.Globals); err != nil {
		t.Fatalf("expected assignment to a constant to succeed with a warning, got error: %v", err)
	}
	found := false
	for _, d := range c.Sink.Entries() {
		if d.Severity == diag.Warning {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning diagnostic for assignment to a constant")
	}
}

func TestSwitchWarnsOnUnhandledEnumerator(t *testing.T) {
	r, c := newTestResolver()
	enumDecl := &cst.EnumDecl{
		Name: "E",
		Values: []cst.EnumValue{
			{Name: "A"}, {Name: "B"},
		},
	}
	if err := r.resolveEnumDecl(enumDecl, c.Globals); err != nil {
		t.Fatalf("resolveEnumDecl: %v", err)
	}
	_, fn, fnScope, err := r.declareFunction(&cst.FunctionDecl{Name: "f", Body: &cst.Block{}}, c.Globals, "f", "f")
	if err != nil {
		t.Fatalf("declareFunction: %v", err)
	}
	fc := &funcCtx{fn: fn}
	stmt := &cst.SwitchStmt{
		Discriminant: &cst.IdentifierExpr{Qualifier: &cst.IdentifierExpr{Name: "E"}, Name: "A"},
		Cases: []cst.SwitchCase{
			{EnumSymbol: "A", Body: &cst.Block{}},
		},
	}
	if _, err := r.resolveSwitchStmt(stmt, fnScope, fc); err != nil {
		t.Fatalf("resolveSwitchStmt: %v", err)
	}
	found := false
	for _, d := range c.Sink.Entries() {
		if d.Severity == diag.Warning {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning diagnostic for the unhandled enumerator B")
	}
}

func TestNonVoidFunctionWithoutTerminalReturnIsFatal(t *testing.T) {
	r, c := newTestResolver()
	decl := &cst.FunctionDecl{Name: "f", Return: sym("s32"), Body: &cst.Block{}}
	if err := r.resolveFunctionDecl(decl, c.Globals); err != nil {
		t.Fatalf("resolveFunctionDecl: %v", err)
	}
	if err := r.drainWorklist(); err == nil {
		t.Fatal("expected a fatal diagnostic for a non-void function without a terminal return")
	}
}
