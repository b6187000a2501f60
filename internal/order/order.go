// Package order computes a topological ordering of a module's top-level
// declarations, per spec.md §4.5: dependencies follow name references in
// type annotations and constant-initializer expressions, function bodies
// are excluded (they are resolved after every top-level declaration
// head, so mutual recursion between functions never needs ordering), and
// pointer/slice members of struct and union types are size-opaque and so
// do not themselves create an ordering dependency. Any other cycle is a
// fatal diagnostic.
package order

import (
	"fmt"

	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
)

type node struct {
	name string
	decl cst.Decl
	deps map[string]bool
}

// Order returns decls in a topological order consistent with their name
// dependencies, or the first fatal cycle diagnostic.
func Order(decls []cst.Decl, sink *diag.Sink) ([]cst.Decl, error) {
	nodes := make([]*node, len(decls))
	byName := make(map[string]*node, len(decls))
	for i, d := range decls {
		n := &node{name: declName(d, i), decl: d, deps: make(map[string]bool)}
		nodes[i] = n
		byName[n.name] = n
	}
	for _, n := range nodes {
		collectDeclDeps(n.decl, n.deps)
		delete(n.deps, n.name)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	var ordered []cst.Decl

	var visit func(n *node) error
	visit = func(n *node) error {
		color[n.name] = gray
		for dep := range n.deps {
			depNode, ok := byName[dep]
			if !ok {
				continue // reference to an import/builtin, not a local decl
			}
			switch color[depNode.name] {
			case white:
				if err := visit(depNode); err != nil {
					return err
				}
			case gray:
				return sink.Fatalf(n.decl.Loc(), "circular declaration dependency involving %q and %q", n.name, depNode.name)
			}
		}
		color[n.name] = black
		ordered = append(ordered, n.decl)
		return nil
	}

	for _, n := range nodes {
		if color[n.name] == white {
			if err := visit(n); err != nil {
				return nil, err
			}
		}
	}
	return ordered, nil
}

func declName(d cst.Decl, index int) string {
	switch d := d.(type) {
	case *cst.VariableDecl:
		return d.Name
	case *cst.ConstantDecl:
		return d.Name
	case *cst.FunctionDecl:
		return d.Name
	case *cst.StructDecl:
		return d.Name
	case *cst.UnionDecl:
		return d.Name
	case *cst.EnumDecl:
		return d.Name
	case *cst.AliasDecl:
		return d.Name
	case *cst.ExternVariableDecl:
		return d.Name
	case *cst.ExternFunctionDecl:
		return d.Name
	case *cst.ExtendDecl:
		return fmt.Sprintf("extend$%d", index)
	default:
		return fmt.Sprintf("decl$%d", index)
	}
}

func collectDeclDeps(d cst.Decl, deps map[string]bool) {
	switch d := d.(type) {
	case *cst.VariableDecl:
		collectTypeSpecDeps(d.Type, deps, false)
		collectExprDeps(d.Init, deps)
	case *cst.ConstantDecl:
		collectTypeSpecDeps(d.Type, deps, false)
		collectExprDeps(d.Init, deps)
	case *cst.FunctionDecl:
		// Only the signature participates in ordering; the body is
		// resolved after every top-level declaration head, so mutually
		// recursive function bodies never create an ordering edge.
		for _, p := range d.Params {
			collectTypeSpecDeps(p.Type, deps, false)
		}
		collectTypeSpecDeps(d.Return, deps, false)
	case *cst.StructDecl:
		for _, m := range d.Members {
			collectTypeSpecDeps(m.Type, deps, true)
		}
	case *cst.UnionDecl:
		for _, m := range d.Members {
			collectTypeSpecDeps(m.Type, deps, true)
		}
	case *cst.EnumDecl:
		for _, v := range d.Values {
			collectExprDeps(v.Init, deps)
		}
	case *cst.ExtendDecl:
		collectTypeSpecDeps(d.Target, deps, false)
	case *cst.AliasDecl:
		collectTypeSpecDeps(d.Type, deps, false)
	case *cst.ExternVariableDecl:
		collectTypeSpecDeps(d.Type, deps, false)
	case *cst.ExternFunctionDecl:
		for _, p := range d.Params {
			collectTypeSpecDeps(p.Type, deps, false)
		}
		collectTypeSpecDeps(d.Return, deps, false)
	}
}

// collectTypeSpecDeps walks a type specifier collecting the top-level
// names it references. When breakIndirect is true, a pointer or slice
// wrapper stops the walk: its pointee/element is size-opaque at this
// site and so creates no ordering dependency.
func collectTypeSpecDeps(ts cst.TypeSpec, deps map[string]bool, breakIndirect bool) {
	if ts == nil {
		return
	}
	switch ts := ts.(type) {
	case *cst.SymbolTypeSpec:
		if len(ts.Path) == 0 {
			deps[ts.Name] = true
		} else {
			deps[ts.Path[0]] = true
		}
		for _, a := range ts.TypeArgs {
			collectTypeSpecDeps(a, deps, false)
		}
	case *cst.FuncTypeSpec:
		for _, p := range ts.Params {
			collectTypeSpecDeps(p, deps, false)
		}
		collectTypeSpecDeps(ts.Return, deps, false)
	case *cst.PointerTypeSpec:
		if breakIndirect {
			return
		}
		collectTypeSpecDeps(ts.Pointee, deps, breakIndirect)
	case *cst.ArrayTypeSpec:
		collectExprDeps(ts.Count, deps)
		collectTypeSpecDeps(ts.Elem, deps, breakIndirect)
	case *cst.SliceTypeSpec:
		if breakIndirect {
			return
		}
		collectTypeSpecDeps(ts.Elem, deps, breakIndirect)
	case *cst.StructTypeSpec:
		for _, m := range ts.Members {
			collectTypeSpecDeps(m.Type, deps, breakIndirect)
		}
	case *cst.UnionTypeSpec:
		for _, m := range ts.Members {
			collectTypeSpecDeps(m.Type, deps, breakIndirect)
		}
	case *cst.EnumTypeSpec:
		for _, v := range ts.Values {
			collectExprDeps(v.Init, deps)
		}
	case *cst.TypeofTypeSpec:
		collectExprDeps(ts.Expr, deps)
	}
}

// collectExprDeps walks an expression collecting the root name of every
// identifier reference it contains, plus any type specifiers nested
// within it (cast targets, sizeof/alignof operands, initializer types).
func collectExprDeps(e cst.Expr, deps map[string]bool) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *cst.IdentifierExpr:
		root := e
		for root.Qualifier != nil {
			q, ok := root.Qualifier.(*cst.IdentifierExpr)
			if !ok {
				break
			}
			root = q
		}
		deps[root.Name] = true
		for _, a := range e.TypeArgs {
			collectTypeSpecDeps(a, deps, false)
		}
	case *cst.GroupedExpr:
		collectExprDeps(e.X, deps)
	case *cst.ArrayLitExpr:
		collectTypeSpecDeps(e.Type, deps, false)
		for _, el := range e.Elems {
			collectExprDeps(el, deps)
		}
	case *cst.SliceLitExpr:
		collectTypeSpecDeps(e.Type, deps, false)
		for _, el := range e.Elems {
			collectExprDeps(el, deps)
		}
	case *cst.InitExpr:
		collectTypeSpecDeps(e.Type, deps, false)
		for _, m := range e.Members {
			collectExprDeps(m.Expr, deps)
		}
	case *cst.CastExpr:
		collectExprDeps(e.X, deps)
		collectTypeSpecDeps(e.Type, deps, false)
	case *cst.CallExpr:
		collectExprDeps(e.Callee, deps)
		for _, a := range e.Args {
			collectExprDeps(a, deps)
		}
	case *cst.IndexExpr:
		collectExprDeps(e.X, deps)
		collectExprDeps(e.Index, deps)
	case *cst.SliceExpr:
		collectExprDeps(e.X, deps)
		collectExprDeps(e.Begin, deps)
		collectExprDeps(e.End, deps)
	case *cst.MemberExpr:
		collectExprDeps(e.X, deps)
	case *cst.DerefExpr:
		collectExprDeps(e.X, deps)
	case *cst.SizeofExpr:
		collectTypeSpecDeps(e.Type, deps, false)
	case *cst.AlignofExpr:
		collectTypeSpecDeps(e.Type, deps, false)
	case *cst.SyscallExpr:
		for _, a := range e.Args {
			collectExprDeps(a, deps)
		}
	case *cst.UnaryExpr:
		collectExprDeps(e.X, deps)
	case *cst.BinaryExpr:
		collectExprDeps(e.Left, deps)
		collectExprDeps(e.Right, deps)
	}
}
