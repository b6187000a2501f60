package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func TestLoadSingleFileNoImports(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.sunder", "let x: s32 = 1;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "", "")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.CST.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(mod.CST.Decls))
	}
}

func TestLoadResolvesSiblingImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.sunder", "let helper: s32 = 2;\n")
	main := writeFile(t, dir, "main.sunder", "import \"util.sunder\";\nlet x: s32 = 1;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "", "")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(mod.Imports))
	}
	if len(mod.Imports[0].CST.Decls) != 1 {
		t.Errorf("imported module should have 1 decl")
	}
}

func TestLoadCachesSharedImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.sunder", "let shared: s32 = 0;\n")
	writeFile(t, dir, "a.sunder", "import \"shared.sunder\";\nlet a: s32 = 1;\n")
	main := writeFile(t, dir, "main.sunder", "import \"a.sunder\";\nimport \"shared.sunder\";\nlet x: s32 = 1;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "", "")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.Imports) != 2 {
		t.Fatalf("got %d imports, want 2", len(mod.Imports))
	}
	aImport := mod.Imports[0]
	sharedViaA := aImport.Imports[0]
	sharedDirect := mod.Imports[1]
	if sharedViaA != sharedDirect {
		t.Error("shared module loaded through two import paths should be the identical cached instance")
	}
}

func TestLoadCircularImportIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.sunder", "import \"a.sunder\";\nlet b: s32 = 1;\n")
	a := writeFile(t, dir, "a.sunder", "import \"b.sunder\";\nlet a: s32 = 1;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "", "")
	if _, err := l.Load(a); err == nil {
		t.Fatal("expected a fatal diagnostic for circular import")
	}
}

func TestLoadDirectoryImportSkipsTestAndNonSunderFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "a.sunder", "let a: s32 = 1;\n")
	writeFile(t, sub, "b.sunder", "let b: s32 = 2;\n")
	writeFile(t, sub, "a.test.sunder", "let a_test: s32 = 3;\n")
	writeFile(t, sub, "README.md", "not sunder source")

	main := writeFile(t, dir, "main.sunder", "import \"pkg\";\nlet x: s32 = 0;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "", "")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.Imports) != 2 {
		t.Fatalf("got %d imports from directory, want 2 (a.sunder, b.sunder)", len(mod.Imports))
	}
}

func TestPlatformSuffixedFileSkipsPlainSibling(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "sys.sunder", "let generic: s32 = 1;\n")
	writeFile(t, sub, "sys.linux.sunder", "let specific: s32 = 2;\n")

	main := writeFile(t, dir, "main.sunder", "import \"pkg\";\nlet x: s32 = 0;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, nil, "x86_64", "linux")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.Imports) != 1 {
		t.Fatalf("got %d imports, want 1 (plain sys.sunder skipped in favor of sys.linux.sunder)", len(mod.Imports))
	}
	if filepath.Base(mod.Imports[0].Path) != "sys.linux.sunder" {
		t.Errorf("expected sys.linux.sunder to win, got %s", mod.Imports[0].Path)
	}
}

func TestSearchPathFallback(t *testing.T) {
	libDir := t.TempDir()
	writeFile(t, libDir, "std.sunder", "let std_val: s32 = 1;\n")

	srcDir := t.TempDir()
	main := writeFile(t, srcDir, "main.sunder", "import \"std.sunder\";\nlet x: s32 = 0;\n")

	c := ctx.New(ctx.DefaultOptions())
	l := NewLoader(c, []string{libDir}, "", "")
	mod, err := l.Load(main)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mod.Imports) != 1 {
		t.Fatalf("got %d imports, want 1 via search path fallback", len(mod.Imports))
	}
}
