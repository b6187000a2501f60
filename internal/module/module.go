// Package module implements the import-resolution and module-cache layer
// of spec.md §6: given an import string and the importing module's
// canonical path, it locates the target file(s), loads each exactly once,
// and runs it through lex → parse → order. Grounded on spec.md §6's
// search-order and platform-suffix rules directly (no teacher file covers
// multi-file imports; yapl-1/yc.go's single linear Init/Parse/Dump pipeline
// shape is reused for the per-file load sequence).
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
	"github.com/ashn-dot-dev/sunder-sub000/internal/order"
	"github.com/ashn-dot-dev/sunder-sub000/internal/parser"
	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
)

// noLoc is used for diagnostics about the loading process itself (I/O
// failure, unresolved import, circular import) that have no single
// offending token to underline.
func noLoc() source.Location { return source.Builtin }

// Module is a single loaded, ordered source file.
type Module struct {
	Path    string // canonical absolute path
	CST     *cst.Module
	Ordered []cst.Decl // topological order from internal/order
	Imports []*Module  // in import-statement order, after resolution
}

// Loader resolves import strings to files, reads and parses each exactly
// once, and caches the result in the Context's module cache.
type Loader struct {
	Context    *ctx.Context
	SearchPath []string // SUNDER_SEARCH_PATH entries, supplied by the caller
	Arch, Host string    // SUNDER_ARCH/SUNDER_HOST selectors, supplied by the caller
}

// NewLoader returns a Loader sharing c's module cache and diagnostic sink.
func NewLoader(c *ctx.Context, searchPath []string, arch, host string) *Loader {
	return &Loader{Context: c, SearchPath: searchPath, Arch: arch, Host: host}
}

// Load reads, lexes, parses, and orders the module at path (and
// transitively every module it imports), returning the root Module. A
// module already in the cache is returned without reparsing; a module
// currently being loaded (reached via a cycle) is a fatal diagnostic.
func (l *Loader) Load(path string) (*Module, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("module: cannot canonicalize %q: %w", path, err)
	}
	return l.load(canon)
}

func (l *Loader) load(canon string) (*Module, error) {
	if entry, ok := l.Context.Modules[canon]; ok {
		if entry.InProgress {
			return nil, l.Context.Sink.Fatalf(noLoc(), "circular import of %q", canon)
		}
		return entry.Module.(*Module), nil
	}
	l.Context.Modules[canon] = &ctx.ModuleEntry{InProgress: true}

	src, err := os.ReadFile(canon)
	if err != nil {
		return nil, l.Context.Sink.Fatalf(noLoc(), "cannot read %q: %v", canon, err)
	}

	cstMod, err := parser.ParseModule(canon, src, l.Context.Sink)
	if err != nil {
		return nil, err
	}

	ordered, err := order.Order(cstMod.Decls, l.Context.Sink)
	if err != nil {
		return nil, err
	}

	mod := &Module{Path: canon, CST: cstMod, Ordered: ordered}

	for _, imp := range cstMod.Imports {
		targets, err := l.resolveImport(imp.Path, canon)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			child, err := l.load(t)
			if err != nil {
				return nil, err
			}
			mod.Imports = append(mod.Imports, child)
		}
	}

	l.Context.Modules[canon] = &ctx.ModuleEntry{InProgress: false, Module: mod}
	return mod, nil
}

// resolveImport turns an import string into the list of canonical files it
// names: a single file, or (for a directory import) every eligible file
// directly under it, platform-suffix rules applied in both cases.
func (l *Loader) resolveImport(importStr, fromPath string) ([]string, error) {
	candidates := []string{filepath.Join(filepath.Dir(fromPath), importStr)}
	for _, dir := range l.SearchPath {
		candidates = append(candidates, filepath.Join(dir, importStr))
	}

	var resolved string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			resolved = c
			break
		}
	}
	if resolved == "" {
		return nil, l.Context.Sink.Fatalf(noLoc(), "cannot resolve import %q from %q", importStr, fromPath)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, l.Context.Sink.Fatalf(noLoc(), "cannot stat %q: %v", resolved, err)
	}
	if !info.IsDir() {
		if l.platformSuffixSkips(resolved) {
			return nil, nil
		}
		return []string{resolved}, nil
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, l.Context.Sink.Fatalf(noLoc(), "cannot read directory %q: %v", resolved, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".test.sunder") {
			continue
		}
		if !strings.HasSuffix(name, ".sunder") {
			continue
		}
		full := filepath.Join(resolved, name)
		if l.platformSuffixSkips(full) {
			continue
		}
		files = append(files, full)
	}
	sort.Strings(files)
	return files, nil
}

// platformSuffixSkips implements spec.md §6's platform-suffixed file
// selection. Only suffixes built from the loader's own current
// arch/host/arch-host are recognized as platform suffixes (the spec
// enumerates exactly these three forms); a file whose stem ends in one of
// them is a platform-suffixed file and is always eligible (its suffix
// matches the current target by construction), while a plain file is
// skipped when a more specific suffixed sibling exists alongside it.
func (l *Loader) platformSuffixSkips(path string) bool {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".sunder") {
		return false
	}
	stem := strings.TrimSuffix(base, ".sunder")

	for _, suffix := range l.platformSuffixes() {
		if strings.HasSuffix(stem, "."+suffix) {
			return false // platform-suffixed file naming the current target: never skipped
		}
	}

	// Plain (unsuffixed) file: skipped if a more specific sibling exists.
	for _, suffix := range l.platformSuffixes() {
		sibling := filepath.Join(dir, stem+"."+suffix+".sunder")
		if _, err := os.Stat(sibling); err == nil {
			return true
		}
	}
	return false
}

// platformSuffixes returns the three suffix forms spec.md §6 names, for
// the loader's current target, skipping any that are empty/malformed
// because Arch or Host was not supplied.
func (l *Loader) platformSuffixes() []string {
	var suffixes []string
	if l.Arch != "" && l.Host != "" {
		suffixes = append(suffixes, l.Arch+"-"+l.Host)
	}
	if l.Arch != "" {
		suffixes = append(suffixes, l.Arch)
	}
	if l.Host != "" {
		suffixes = append(suffixes, l.Host)
	}
	return suffixes
}
