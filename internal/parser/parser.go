// Package parser implements a recursive-descent parser producing a CST
// with no lowering, per spec.md §4.4. It is grounded on
// lang/yparse/token.go's TokenReader (Peek/Next/Expect helpers) and
// lang/yparse's overall recursive-descent shape, generalized from YAPL's
// C-like grammar to Sunder's (templates, defer/when/for-range/switch,
// the full precedence-climbing expression grammar).
package parser

import (
	"github.com/ashn-dot-dev/sunder-sub000/internal/cst"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/lexer"
	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
	"github.com/ashn-dot-dev/sunder-sub000/internal/token"
)

// Parser consumes a token stream and produces a cst.Module.
type Parser struct {
	path string
	toks []token.Token
	pos  int
	sink *diag.Sink

	// noCompositeLit suppresses the bare `name{...}` init-expression form
	// while parsing a condition, so `if flag { ... }` parses flag as a
	// plain identifier rather than the start of a struct literal.
	noCompositeLit bool

	// noCast stops a postfix `:` from being read as a cast while parsing
	// the begin expression of `x[begin:end]`, where it separates the bounds.
	noCast bool
}

// exprNoCompositeLit parses an expression with struct-literal recognition
// suppressed, for use in if/when/for/switch condition position.
func (p *Parser) exprNoCompositeLit() (cst.Expr, error) {
	save := p.noCompositeLit
	p.noCompositeLit = true
	e, err := p.parseExpr()
	p.noCompositeLit = save
	return e, err
}

// ParseModule lexes and parses the given source into a cst.Module, or
// returns the first fatal diagnostic encountered (lexing and parsing both
// fail fatally on the first error, per spec.md §4.3/§4.4).
func ParseModule(path string, src []byte, sink *diag.Sink) (*cst.Module, error) {
	toks, err := lexer.ScanAll(path, src, sink)
	if err != nil {
		return nil, err
	}
	p := &Parser{path: path, toks: toks, sink: sink}
	return p.parseModule()
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) fatalf(format string, args ...any) error {
	return p.sink.Fatalf(p.cur().Location, format, args...)
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, p.fatalf("expected %s, found %s", k, p.cur())
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (string, source.Location, error) {
	if !p.at(token.Identifier) {
		return "", source.Location{}, p.fatalf("expected identifier, found %s", p.cur())
	}
	t := p.advance()
	return t.Text, t.Location, nil
}

// ---------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------

func (p *Parser) parseModule() (*cst.Module, error) {
	loc := p.cur().Location
	m := &cst.Module{Location: loc}

	if p.at(token.KwNamespace) {
		p.advance()
		ns, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		m.Namespace = ns
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
	}

	for p.at(token.KwImport) {
		importLoc := p.advance().Location
		strTok, err := p.expect(token.StringLiteral)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		m.Imports = append(m.Imports, cst.Import{Path: strTok.Decoded, Location: importLoc})
	}

	for !p.at(token.EOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		m.Decls = append(m.Decls, d)
	}
	return m, nil
}

func (p *Parser) parsePath() ([]string, error) {
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	path := []string{name}
	for p.at(token.DblColon) {
		p.advance()
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		path = append(path, name)
	}
	return path, nil
}

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

func (p *Parser) parseDecl() (cst.Decl, error) {
	switch p.cur().Kind {
	case token.KwVar, token.KwLet:
		return p.parseVariableDecl()
	case token.KwConst:
		return p.parseConstantDecl()
	case token.KwFunc:
		return p.parseFunctionDecl()
	case token.KwStruct:
		return p.parseStructDecl()
	case token.KwUnion:
		return p.parseUnionDecl()
	case token.KwEnum:
		return p.parseEnumDecl()
	case token.KwExtend:
		return p.parseExtendDecl()
	case token.KwAlias:
		return p.parseAliasDecl()
	case token.KwExtern:
		return p.parseExternDecl()
	default:
		return nil, p.fatalf("expected declaration, found %s", p.cur())
	}
}

func (p *Parser) parseVariableDecl() (*cst.VariableDecl, error) {
	loc := p.cur().Location
	isLet := p.at(token.KwLet)
	p.advance()
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var typ cst.TypeSpec
	if p.at(token.Colon) {
		p.advance()
		typ, err = p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
	}
	var init cst.Expr
	if p.at(token.Assign) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &cst.VariableDecl{Base: cst.Base{Location: loc}, Name: name, Type: typ, Init: init, Let: isLet}, nil
}

func (p *Parser) parseConstantDecl() (*cst.ConstantDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var typ cst.TypeSpec
	if p.at(token.Colon) {
		p.advance()
		typ, err = p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &cst.ConstantDecl{Base: cst.Base{Location: loc}, Name: name, Type: typ, Init: init}, nil
}

func (p *Parser) parseTemplateParams() (*cst.TemplateParams, error) {
	if !p.at(token.DblLBracket) {
		return nil, nil
	}
	loc := p.advance().Location
	var names []string
	for {
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if len(names) == 0 {
		return nil, p.fatalf("empty template parameter list")
	}
	if _, err := p.expect(token.DblRBracket); err != nil {
		return nil, err
	}
	return &cst.TemplateParams{Names: names, Location: loc}, nil
}

func (p *Parser) parseParams() ([]cst.Parameter, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []cst.Parameter
	for !p.at(token.RParen) {
		name, loc, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		params = append(params, cst.Parameter{Name: name, Type: typ, Location: loc})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunctionDecl() (*cst.FunctionDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	tmpl, err := p.parseTemplateParams()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	var ret cst.TypeSpec
	if p.at(token.Arrow) {
		p.advance()
		ret, err = p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &cst.FunctionDecl{Base: cst.Base{Location: loc}, Name: name, Template: tmpl, Params: params, Return: ret, Body: body}, nil
}

func (p *Parser) parseMemberVariables() ([]cst.MemberVariable, []cst.Decl, error) {
	var members []cst.MemberVariable
	var methods []cst.Decl
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, nil, err
	}
	for !p.at(token.RBrace) {
		switch p.cur().Kind {
		case token.KwVar:
			loc := p.advance().Location
			name, _, err := p.expectIdent()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(token.Colon); err != nil {
				return nil, nil, err
			}
			typ, err := p.parseTypeSpec()
			if err != nil {
				return nil, nil, err
			}
			if _, err := p.expect(token.Semicolon); err != nil {
				return nil, nil, err
			}
			members = append(members, cst.MemberVariable{Name: name, Type: typ, Location: loc})
		case token.KwFunc:
			fn, err := p.parseFunctionDecl()
			if err != nil {
				return nil, nil, err
			}
			methods = append(methods, fn)
		case token.KwConst:
			c, err := p.parseConstantDecl()
			if err != nil {
				return nil, nil, err
			}
			methods = append(methods, c)
		default:
			return nil, nil, p.fatalf("expected member declaration, found %s", p.cur())
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, nil, err
	}
	return members, methods, nil
}

func (p *Parser) parseStructDecl() (*cst.StructDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	tmpl, err := p.parseTemplateParams()
	if err != nil {
		return nil, err
	}
	members, methods, err := p.parseMemberVariables()
	if err != nil {
		return nil, err
	}
	return &cst.StructDecl{Base: cst.Base{Location: loc}, Name: name, Template: tmpl, Members: members, Methods: methods}, nil
}

func (p *Parser) parseUnionDecl() (*cst.UnionDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	tmpl, err := p.parseTemplateParams()
	if err != nil {
		return nil, err
	}
	members, methods, err := p.parseMemberVariables()
	if err != nil {
		return nil, err
	}
	return &cst.UnionDecl{Base: cst.Base{Location: loc}, Name: name, Template: tmpl, Members: members, Methods: methods}, nil
}

func (p *Parser) parseEnumValues() ([]cst.EnumValue, []cst.Decl, error) {
	var values []cst.EnumValue
	var methods []cst.Decl
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, nil, err
	}
	for !p.at(token.RBrace) {
		if p.at(token.KwFunc) {
			fn, err := p.parseFunctionDecl()
			if err != nil {
				return nil, nil, err
			}
			methods = append(methods, fn)
			continue
		}
		if p.at(token.KwConst) {
			c, err := p.parseConstantDecl()
			if err != nil {
				return nil, nil, err
			}
			methods = append(methods, c)
			continue
		}
		name, loc, err := p.expectIdent()
		if err != nil {
			return nil, nil, err
		}
		var init cst.Expr
		if p.at(token.Assign) {
			p.advance()
			init, err = p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
		}
		values = append(values, cst.EnumValue{Name: name, Init: init, Location: loc})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, nil, err
	}
	return values, methods, nil
}

func (p *Parser) parseEnumDecl() (*cst.EnumDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	values, methods, err := p.parseEnumValues()
	if err != nil {
		return nil, err
	}
	return &cst.EnumDecl{Base: cst.Base{Location: loc}, Name: name, Values: values, Methods: methods}, nil
}

func (p *Parser) parseExtendDecl() (*cst.ExtendDecl, error) {
	loc := p.advance().Location
	target, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	d, err := p.parseDecl()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &cst.ExtendDecl{Base: cst.Base{Location: loc}, Target: target, Decl: d}, nil
}

func (p *Parser) parseAliasDecl() (*cst.AliasDecl, error) {
	loc := p.advance().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &cst.AliasDecl{Base: cst.Base{Location: loc}, Name: name, Type: typ}, nil
}

func (p *Parser) parseExternDecl() (cst.Decl, error) {
	loc := p.advance().Location
	switch p.cur().Kind {
	case token.KwVar:
		p.advance()
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.ExternVariableDecl{Base: cst.Base{Location: loc}, Name: name, Type: typ}, nil
	case token.KwFunc:
		p.advance()
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		var ret cst.TypeSpec
		if p.at(token.Arrow) {
			p.advance()
			ret, err = p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.ExternFunctionDecl{Base: cst.Base{Location: loc}, Name: name, Params: params, Return: ret}, nil
	default:
		return nil, p.fatalf("expected 'var' or 'func' after 'extern', found %s", p.cur())
	}
}

// ---------------------------------------------------------------------
// Type specifiers
// ---------------------------------------------------------------------

func (p *Parser) parseTypeSpec() (cst.TypeSpec, error) {
	loc := p.cur().Location
	switch p.cur().Kind {
	case token.Star:
		p.advance()
		elem, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		return &cst.PointerTypeSpec{Base: cst.Base{Location: loc}, Pointee: elem}, nil
	case token.LBracket:
		p.advance()
		if p.at(token.RBracket) {
			p.advance()
			elem, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			return &cst.SliceTypeSpec{Base: cst.Base{Location: loc}, Elem: elem}, nil
		}
		count, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		elem, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		return &cst.ArrayTypeSpec{Base: cst.Base{Location: loc}, Count: count, Elem: elem}, nil
	case token.KwFunc:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		var params []cst.TypeSpec
		for !p.at(token.RParen) {
			t, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		var ret cst.TypeSpec
		if p.at(token.Arrow) {
			p.advance()
			r, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			ret = r
		}
		return &cst.FuncTypeSpec{Base: cst.Base{Location: loc}, Params: params, Return: ret}, nil
	case token.KwStruct:
		p.advance()
		members, _, err := p.parseMemberVariables()
		if err != nil {
			return nil, err
		}
		return &cst.StructTypeSpec{Base: cst.Base{Location: loc}, Members: members}, nil
	case token.KwUnion:
		p.advance()
		members, _, err := p.parseMemberVariables()
		if err != nil {
			return nil, err
		}
		return &cst.UnionTypeSpec{Base: cst.Base{Location: loc}, Members: members}, nil
	case token.KwEnum:
		p.advance()
		values, _, err := p.parseEnumValues()
		if err != nil {
			return nil, err
		}
		return &cst.EnumTypeSpec{Base: cst.Base{Location: loc}, Values: values}, nil
	case token.KwTypeof:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.TypeofTypeSpec{Base: cst.Base{Location: loc}, Expr: e}, nil
	case token.Identifier:
		return p.parseSymbolTypeSpec()
	default:
		return nil, p.fatalf("expected type specifier, found %s", p.cur())
	}
}

func (p *Parser) parseSymbolTypeSpec() (*cst.SymbolTypeSpec, error) {
	loc := p.cur().Location
	var path []string
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	for p.at(token.DblColon) {
		path = append(path, name)
		p.advance()
		name, _, err = p.expectIdent()
		if err != nil {
			return nil, err
		}
	}
	var args []cst.TypeSpec
	if p.at(token.DblLBracket) {
		p.advance()
		for {
			t, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if len(args) == 0 {
			return nil, p.fatalf("empty template argument list")
		}
		if _, err := p.expect(token.DblRBracket); err != nil {
			return nil, err
		}
	}
	return &cst.SymbolTypeSpec{Base: cst.Base{Location: loc}, Path: path, Name: name, TypeArgs: args}, nil
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) parseBlock() (*cst.Block, error) {
	loc, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	var stmts []cst.Stmt
	for !p.at(token.RBrace) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &cst.Block{Base: cst.Base{Location: loc.Location}, Stmts: stmts}, nil
}

func (p *Parser) parseIfLike(kw token.Kind, elifKw token.Kind) ([]cst.IfClause, error) {
	var clauses []cst.IfClause
	p.advance() // kw
	cond, err := p.exprNoCompositeLit()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	clauses = append(clauses, cst.IfClause{Cond: cond, Body: body})
	for p.at(elifKw) {
		p.advance()
		cond, err := p.exprNoCompositeLit()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, cst.IfClause{Cond: cond, Body: body})
	}
	if p.at(token.KwElse) {
		p.advance()
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, cst.IfClause{Cond: nil, Body: body})
	}
	return clauses, nil
}

func (p *Parser) parseStmt() (cst.Stmt, error) {
	loc := p.cur().Location
	switch p.cur().Kind {
	case token.KwVar, token.KwLet, token.KwConst:
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		return &cst.DeclStmt{Base: cst.Base{Location: loc}, Decl: d}, nil
	case token.KwDefer:
		p.advance()
		if p.at(token.LBrace) {
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			return &cst.DeferStmt{Base: cst.Base{Location: loc}, Body: body}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		sugar := &cst.Block{Base: cst.Base{Location: loc}, Stmts: []cst.Stmt{&cst.ExprStmt{Base: cst.Base{Location: loc}, X: e}}}
		return &cst.DeferStmt{Base: cst.Base{Location: loc}, Body: sugar}, nil
	case token.KwIf:
		clauses, err := p.parseIfLike(token.KwIf, token.KwElif)
		if err != nil {
			return nil, err
		}
		return &cst.IfStmt{Base: cst.Base{Location: loc}, Clauses: clauses}, nil
	case token.KwWhen:
		clauses, err := p.parseIfLike(token.KwWhen, token.KwElwhen)
		if err != nil {
			return nil, err
		}
		return &cst.WhenStmt{Base: cst.Base{Location: loc}, Clauses: clauses}, nil
	case token.KwFor:
		return p.parseForStmt()
	case token.KwBreak:
		p.advance()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.BreakStmt{Base: cst.Base{Location: loc}}, nil
	case token.KwContinue:
		p.advance()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.ContinueStmt{Base: cst.Base{Location: loc}}, nil
	case token.KwSwitch:
		return p.parseSwitchStmt()
	case token.KwReturn:
		p.advance()
		var val cst.Expr
		if !p.at(token.Semicolon) {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = v
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.ReturnStmt{Base: cst.Base{Location: loc}, Value: val}, nil
	case token.KwAssert:
		p.advance()
		start := p.pos
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		text := p.sourceTextSince(start)
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.AssertStmt{Base: cst.Base{Location: loc}, Cond: cond, SourceText: text}, nil
	default:
		return p.parseSimpleStmt()
	}
}

// sourceTextSince reconstructs the raw text of tokens consumed since start,
// for the `assert` diagnostic message spec.md §4.7 requires.
func (p *Parser) sourceTextSince(start int) string {
	var out []byte
	for i := start; i < p.pos; i++ {
		if i > start {
			out = append(out, ' ')
		}
		t := p.toks[i]
		if t.Text != "" {
			out = append(out, t.Text...)
		} else {
			out = append(out, t.Kind.String()...)
		}
	}
	return string(out)
}

func (p *Parser) parseForStmt() (cst.Stmt, error) {
	loc := p.advance().Location
	if p.at(token.Identifier) && p.peekAt(1).Kind == token.KwIn {
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		p.advance() // in
		begin, err := p.exprNoCompositeLit()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.DotDot); err != nil {
			return nil, err
		}
		end, err := p.exprNoCompositeLit()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &cst.ForRangeStmt{Base: cst.Base{Location: loc}, LoopVar: name, Begin: begin, End: end, Body: body}, nil
	}
	cond, err := p.exprNoCompositeLit()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &cst.ForExprStmt{Base: cst.Base{Location: loc}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseSwitchStmt() (cst.Stmt, error) {
	loc := p.advance().Location
	disc, err := p.exprNoCompositeLit()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var cases []cst.SwitchCase
	for !p.at(token.RBrace) {
		var sym string
		if p.at(token.KwElse) {
			p.advance()
		} else {
			name, _, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			sym = name
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		cases = append(cases, cst.SwitchCase{EnumSymbol: sym, Body: body})
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &cst.SwitchStmt{Base: cst.Base{Location: loc}, Discriminant: disc, Cases: cases}, nil
}

func (p *Parser) parseSimpleStmt() (cst.Stmt, error) {
	loc := p.cur().Location
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Assign) {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &cst.AssignStmt{Base: cst.Base{Location: loc}, LHS: e, RHS: rhs}, nil
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &cst.ExprStmt{Base: cst.Base{Location: loc}, X: e}, nil
}

// ---------------------------------------------------------------------
// Expressions: precedence-climbing per spec.md §4.4.
// ---------------------------------------------------------------------

func (p *Parser) parseExpr() (cst.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (cst.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.KwOr) {
		loc := p.advance().Location
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: cst.BinaryOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (cst.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(token.KwAnd) {
		loc := p.advance().Location
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: cst.BinaryAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (cst.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(token.Eq) || p.at(token.Ne) {
		op := cst.BinaryEq
		if p.at(token.Ne) {
			op = cst.BinaryNe
		}
		loc := p.advance().Location
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (cst.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		var op cst.BinaryOp
		switch p.cur().Kind {
		case token.Le:
			op = cst.BinaryLe
		case token.Lt:
			op = cst.BinaryLt
		case token.Ge:
			op = cst.BinaryGe
		case token.Gt:
			op = cst.BinaryGt
		default:
			return left, nil
		}
		loc := p.advance().Location
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseShift() (cst.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.at(token.Shl) || p.at(token.Shr) {
		op := cst.BinaryShl
		if p.at(token.Shr) {
			op = cst.BinaryShr
		}
		loc := p.advance().Location
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitOr() (cst.Expr, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.at(token.Pipe) {
		loc := p.advance().Location
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: cst.BinaryBitOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitXor() (cst.Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.Caret) {
		loc := p.advance().Location
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: cst.BinaryBitXor, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitAnd() (cst.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(token.Amp) {
		loc := p.advance().Location
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: cst.BinaryBitAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (cst.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op cst.BinaryOp
		switch p.cur().Kind {
		case token.Plus:
			op = cst.BinaryAdd
		case token.Minus:
			op = cst.BinarySub
		case token.PlusPercent:
			op = cst.BinaryAddWrap
		case token.MinusPercent:
			op = cst.BinarySubWrap
		default:
			return left, nil
		}
		loc := p.advance().Location
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (cst.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op cst.BinaryOp
		switch p.cur().Kind {
		case token.Star:
			op = cst.BinaryMul
		case token.Slash:
			op = cst.BinaryDiv
		case token.Percent:
			op = cst.BinaryRem
		case token.StarPercent:
			op = cst.BinaryMulWrap
		default:
			return left, nil
		}
		loc := p.advance().Location
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &cst.BinaryExpr{Base: cst.Base{Location: loc}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (cst.Expr, error) {
	loc := p.cur().Location
	var op cst.UnaryOp
	switch p.cur().Kind {
	case token.KwNot:
		op = cst.UnaryNot
	case token.Plus:
		op = cst.UnaryPos
	case token.Minus:
		op = cst.UnaryNeg
	case token.MinusPercent:
		op = cst.UnaryNegWrap
	case token.Tilde:
		op = cst.UnaryBitnot
	case token.Star:
		op = cst.UnaryDeref
	case token.Amp:
		op = cst.UnaryAddr
	case token.KwStartof:
		op = cst.UnaryStartof
	case token.KwCountof:
		op = cst.UnaryCountof
	default:
		return p.parsePostfix()
	}
	p.advance()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &cst.UnaryExpr{Base: cst.Base{Location: loc}, Op: op, X: x}, nil
}

func (p *Parser) parsePostfix() (cst.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		loc := p.cur().Location
		switch p.cur().Kind {
		case token.LParen:
			p.advance()
			var args []cst.Expr
			for !p.at(token.RParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			x = &cst.CallExpr{Base: cst.Base{Location: loc}, Callee: x, Args: args}
		case token.LBracket:
			p.advance()
			var begin cst.Expr
			if !p.at(token.Colon) && !p.at(token.RBracket) {
				save := p.noCast
				p.noCast = true
				begin, err = p.parseExpr()
				p.noCast = save
				if err != nil {
					return nil, err
				}
			}
			if p.at(token.Colon) {
				p.advance()
				var end cst.Expr
				if !p.at(token.RBracket) {
					end, err = p.parseExpr()
					if err != nil {
						return nil, err
					}
				}
				if _, err := p.expect(token.RBracket); err != nil {
					return nil, err
				}
				x = &cst.SliceExpr{Base: cst.Base{Location: loc}, X: x, Begin: begin, End: end}
				continue
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			x = &cst.IndexExpr{Base: cst.Base{Location: loc}, X: x, Index: begin}
		case token.DotStar:
			p.advance()
			x = &cst.DerefExpr{Base: cst.Base{Location: loc}, X: x}
		case token.Dot:
			p.advance()
			name, _, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			x = &cst.MemberExpr{Base: cst.Base{Location: loc}, X: x, Name: name}
		case token.Colon:
			if p.noCast {
				return x, nil
			}
			p.advance()
			typ, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			x = &cst.CastExpr{Base: cst.Base{Location: loc}, X: x, Type: typ}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (cst.Expr, error) {
	loc := p.cur().Location
	switch p.cur().Kind {
	case token.KwTrue:
		p.advance()
		return &cst.BooleanLitExpr{Base: cst.Base{Location: loc}, Value: true}, nil
	case token.KwFalse:
		p.advance()
		return &cst.BooleanLitExpr{Base: cst.Base{Location: loc}, Value: false}, nil
	case token.IntegerLiteral:
		t := p.advance()
		return &cst.IntegerLitExpr{Base: cst.Base{Location: loc}, Text: t.Text, Suffix: string(t.IntSuffix)}, nil
	case token.RealLiteral:
		t := p.advance()
		return &cst.RealLitExpr{Base: cst.Base{Location: loc}, Text: t.Text, Suffix: t.RealSuffix}, nil
	case token.CharLiteral:
		t := p.advance()
		return &cst.CharLitExpr{Base: cst.Base{Location: loc}, Value: t.Decoded[0]}, nil
	case token.StringLiteral:
		t := p.advance()
		return &cst.StringLitExpr{Base: cst.Base{Location: loc}, Value: t.Decoded}, nil
	case token.LParen:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.GroupedExpr{Base: cst.Base{Location: loc}, X: x}, nil
	case token.KwSizeof:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		t, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.SizeofExpr{Base: cst.Base{Location: loc}, Type: t}, nil
	case token.KwAlignof:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		t, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.AlignofExpr{Base: cst.Base{Location: loc}, Type: t}, nil
	case token.KwFileof:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.FileofExpr{Base: cst.Base{Location: loc}}, nil
	case token.KwLineof:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.LineofExpr{Base: cst.Base{Location: loc}}, nil
	case token.KwEmbed:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		s, err := p.expect(token.StringLiteral)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.EmbedExpr{Base: cst.Base{Location: loc}, Path: s.Decoded}, nil
	case token.KwDefined:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.DefinedExpr{Base: cst.Base{Location: loc}, Name: name}, nil
	case token.KwSyscall:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		var args []cst.Expr
		for !p.at(token.RParen) {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &cst.SyscallExpr{Base: cst.Base{Location: loc}, Args: args}, nil
	case token.LBracket, token.KwStruct, token.KwUnion:
		return p.parseTypedLiteral()
	case token.Identifier:
		return p.parseIdentifierExpr()
	default:
		return nil, p.fatalf("expected expression, found %s", p.cur())
	}
}

// parseTypedLiteral parses array/slice literals `[N]T{...}`/`[]T{...}` and
// struct/union initializers introduced by a leading type specifier.
func (p *Parser) parseTypedLiteral() (cst.Expr, error) {
	loc := p.cur().Location
	typ, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	switch t := typ.(type) {
	case *cst.ArrayTypeSpec:
		elems, ellipsis, err := p.parseArrayLitBody()
		if err != nil {
			return nil, err
		}
		return &cst.ArrayLitExpr{Base: cst.Base{Location: loc}, Type: t, Elems: elems, Ellipsis: ellipsis}, nil
	case *cst.SliceTypeSpec:
		elems, _, err := p.parseArrayLitBody()
		if err != nil {
			return nil, err
		}
		return &cst.SliceLitExpr{Base: cst.Base{Location: loc}, Type: t, Elems: elems}, nil
	case *cst.StructTypeSpec, *cst.UnionTypeSpec:
		return p.parseInitBody(loc, typ)
	default:
		return nil, p.fatalf("type specifier cannot begin an expression")
	}
}

func (p *Parser) parseArrayLitBody() ([]cst.Expr, bool, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, false, err
	}
	var elems []cst.Expr
	ellipsis := false
	for !p.at(token.RBrace) {
		if p.at(token.DotDot) {
			p.advance()
			ellipsis = true
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		elems = append(elems, e)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, false, err
	}
	return elems, ellipsis, nil
}

func (p *Parser) parseInitBody(loc source.Location, typ cst.TypeSpec) (cst.Expr, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var members []cst.InitMember
	for !p.at(token.RBrace) {
		if _, err := p.expect(token.Dot); err != nil {
			return nil, err
		}
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Assign); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		members = append(members, cst.InitMember{Name: name, Expr: e})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return &cst.InitExpr{Base: cst.Base{Location: loc}, Type: typ, Members: members}, nil
}

func (p *Parser) parseIdentifierExpr() (cst.Expr, error) {
	loc := p.cur().Location
	name, _, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var expr cst.Expr = &cst.IdentifierExpr{Base: cst.Base{Location: loc}, Name: name}
	for p.at(token.DblColon) {
		colonLoc := p.advance().Location
		name, _, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		expr = &cst.IdentifierExpr{Base: cst.Base{Location: colonLoc}, Qualifier: expr, Name: name}
	}
	if id, ok := expr.(*cst.IdentifierExpr); ok && p.at(token.DblLBracket) {
		// Disambiguated from the array/slice index grammar because `[[`
		// only appears as a template argument list opener here.
		p.advance()
		var args []cst.TypeSpec
		for {
			t, err := p.parseTypeSpec()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.DblRBracket); err != nil {
			return nil, err
		}
		id.TypeArgs = args
	}
	if id, ok := expr.(*cst.IdentifierExpr); ok && !p.noCompositeLit && p.at(token.LBrace) {
		return p.parseInitBody(loc, identifierToSymbolTypeSpec(id))
	}
	return expr, nil
}

// identifierToSymbolTypeSpec reinterprets a parsed qualified identifier
// (e.g. "foo::bar::point[[T]]") as the type specifier naming a struct or
// union being initialized by a following `{...}` literal.
func identifierToSymbolTypeSpec(id *cst.IdentifierExpr) *cst.SymbolTypeSpec {
	var path []string
	for q := id.Qualifier; q != nil; {
		qi, ok := q.(*cst.IdentifierExpr)
		if !ok {
			break
		}
		path = append([]string{qi.Name}, path...)
		q = qi.Qualifier
	}
	return &cst.SymbolTypeSpec{Base: cst.Base{Location: id.Loc()}, Path: path, Name: id.Name, TypeArgs: id.TypeArgs}
}

