package parser

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
)

func parse(t *testing.T, src string) *cst.Module {
	t.Helper()
	sink := diag.NewSink()
	m, err := ParseModule("test.sunder", []byte(src), sink)
	if err != nil {
		t.Fatalf("ParseModule(%q) failed: %v", src, err)
	}
	return m
}

func TestParserPositive(t *testing.T) {
	sources := map[string]string{
		"variable":      "var x: s32 = 1;",
		"let":           "let x = 1;",
		"constant":      "const FOO: s32 = 42;",
		"function":      "func add(a: s32, b: s32) -> s32 { return a + b; }",
		"template_func":  "func id[[T]](x: T) -> T { return x; }",
		"struct":        "struct point { var x: s32; var y: s32; }",
		"union":         "union value { var i: s32; var f: f32; }",
		"enum":          "enum color { RED, GREEN, BLUE = 9, }",
		"alias":         "alias int32 = s32;",
		"extern_var":    "extern var errno: s32;",
		"extern_func":   "extern func write(fd: s32, buf: *byte, n: usize) -> ssize;",
		"if_elif_else":  "func f() -> void { if true { return; } elif false { return; } else { return; } }",
		"when":          "func f() -> void { when true { return; } }",
		"for_range":     "func f() -> void { for i in 0..10 { continue; } }",
		"for_expr":      "func f() -> void { for true { break; } }",
		"switch":        "func f(c: color) -> void { switch c { RED: {} else: {} } }",
		"defer_block":   "func f() -> void { defer { foo(); } }",
		"defer_expr":    "func f() -> void { defer foo(); }",
		"assert":        "func f() -> void { assert 1 == 1; }",
		"call_index":    "func f() -> void { foo(1, 2)[0] = 1; }",
		"slice_expr":    "func f(s: []byte) -> []byte { return s[1:2]; }",
		"template_call":  "func f() -> void { id[[s32]](1); }",
		"array_lit":     "func f() -> void { let a = [3]s32{1, 2, 3}; }",
		"array_ellipsis": "func f() -> void { let a = [3]s32{0, ..}; }",
		"slice_lit":     "func f() -> void { let s = []s32{1, 2}; }",
		"init_expr":     "func f() -> void { let p = point{.x = 1, .y = 2}; }",
		"sizeof":        "func f() -> void { let n = sizeof(s32); }",
		"cast":          "func f() -> void { let n = 1:u8; }",
		"namespace":     "namespace foo::bar; func f() -> void {}",
		"import":        "import \"std\"; func f() -> void {}",
		"extend":        "extend point { func origin() -> point { return point{.x = 0, .y = 0}; } }",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			m := parse(t, src)
			if m == nil {
				t.Fatal("nil module")
			}
		})
	}
}

func TestParserNegative(t *testing.T) {
	sources := map[string]string{
		"missing_semicolon":    "var x: s32 = 1",
		"empty_template_list":  "func id[[]](x: s32) -> s32 { return x; }",
		"unterminated_block":   "func f() -> void { return;",
		"bad_decl":             "123;",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			sink := diag.NewSink()
			_, err := ParseModule("test.sunder", []byte(src), sink)
			if err == nil {
				t.Errorf("expected parse failure for %q", src)
			}
		})
	}
}

func TestOperatorPrecedence(t *testing.T) {
	m := parse(t, "func f() -> void { let x = 1 + 2 * 3; }")
	fn := m.Decls[0].(*cst.FunctionDecl)
	decl := fn.Body.Stmts[0].(*cst.DeclStmt).Decl.(*cst.VariableDecl)
	bin, ok := decl.Init.(*cst.BinaryExpr)
	if !ok {
		t.Fatalf("expected top-level BinaryExpr, got %T", decl.Init)
	}
	if bin.Op != cst.BinaryAdd {
		t.Fatalf("expected top-level op to be Add (lowest precedence), got %v", bin.Op)
	}
	rhs, ok := bin.Right.(*cst.BinaryExpr)
	if !ok || rhs.Op != cst.BinaryMul {
		t.Fatalf("expected right operand to be a Mul expression, got %#v", bin.Right)
	}
}

func TestForRangeStmt(t *testing.T) {
	m := parse(t, "func f() -> void { for i in 0..10 { continue; } }")
	fn := m.Decls[0].(*cst.FunctionDecl)
	rng, ok := fn.Body.Stmts[0].(*cst.ForRangeStmt)
	if !ok {
		t.Fatalf("expected ForRangeStmt, got %T", fn.Body.Stmts[0])
	}
	if rng.LoopVar != "i" {
		t.Errorf("loop var = %q, want i", rng.LoopVar)
	}
}

func TestTemplateArgsOnIdentifier(t *testing.T) {
	m := parse(t, "func f() -> void { id[[s32]](1); }")
	fn := m.Decls[0].(*cst.FunctionDecl)
	call := fn.Body.Stmts[0].(*cst.ExprStmt).X.(*cst.CallExpr)
	ident, ok := call.Callee.(*cst.IdentifierExpr)
	if !ok {
		t.Fatalf("expected IdentifierExpr callee, got %T", call.Callee)
	}
	if len(ident.TypeArgs) != 1 {
		t.Fatalf("expected 1 template argument, got %d", len(ident.TypeArgs))
	}
}
