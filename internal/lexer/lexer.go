// Package lexer turns Sunder source bytes into a token stream, per
// spec.md §4.3. It is grounded on lang/ylex/lexer.go's byte-oriented scan
// functions (scanNumber, scanCharLiteral, scanEscape, scanString), adapted
// from that package's stdin/stdout pipe-text protocol to a single
// in-process call returning a []token.Token, since spec.md's core is one
// library invoked directly rather than a multi-binary pipeline.
package lexer

import (
	"strings"

	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
	"github.com/ashn-dot-dev/sunder-sub000/internal/token"
)

// multi-character sigils, longest match first.
var sigils = []struct {
	text string
	kind token.Kind
}{
	{"[[", token.DblLBracket},
	{"]]", token.DblRBracket},
	{"::", token.DblColon},
	{"->", token.Arrow},
	{"+%", token.PlusPercent},
	{"-%", token.MinusPercent},
	{"*%", token.StarPercent},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"==", token.Eq},
	{"!=", token.Ne},
	{"<=", token.Le},
	{">=", token.Ge},
	{"..", token.DotDot},
	{".*", token.DotStar},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{":", token.Colon},
	{";", token.Semicolon},
	{".", token.Dot},
	{"=", token.Assign},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"&", token.Amp},
	{"|", token.Pipe},
	{"^", token.Caret},
	{"~", token.Tilde},
	{"<", token.Lt},
	{">", token.Gt},
}

// Lexer scans a byte slice of Sunder source into tokens.
type Lexer struct {
	path string
	src  []byte
	pos  int
	line int
	sink *diag.Sink
}

// New returns a Lexer over src, attributing diagnostics to path.
func New(path string, src []byte, sink *diag.Sink) *Lexer {
	return &Lexer{path: path, src: src, pos: 0, line: 1, sink: sink}
}

// ScanAll lexes the entire source, returning the resulting tokens
// (terminated by a single EOF token) or the first fatal error encountered.
// Per spec.md §4.4, lexing terminates on the first illegal character or
// malformed literal.
func ScanAll(path string, src []byte, sink *diag.Sink) ([]token.Token, error) {
	l := New(path, src, sink)
	var toks []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) loc() source.Location {
	return source.Location{Path: l.path, Line: l.line, Offset: l.pos}
}

func (l *Lexer) fatalf(format string, args ...any) error {
	return l.sink.Fatalf(l.loc(), format, args...)
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
	}
	return c
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.eof() {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		default:
			if c < 0x20 || c > 0x7E {
				return l.fatalf("illegal byte 0x%02x outside string literal", c)
			}
			return nil
		}
	}
	return nil
}

func (l *Lexer) next() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}
	if l.eof() {
		return token.Token{Kind: token.EOF, Location: l.loc()}, nil
	}

	start := l.loc()
	c := l.peek()

	switch {
	case isIdentStart(c):
		return l.scanIdentOrKeyword(start)
	case isDigit(c):
		return l.scanNumber(start)
	case c == '\'':
		return l.scanCharLiteral(start)
	case c == '"':
		return l.scanStringLiteral(start)
	}

	for _, s := range sigils {
		if l.matchesAt(s.text) {
			for range s.text {
				l.advance()
			}
			return token.Token{Kind: s.kind, Location: start, Text: s.text}, nil
		}
	}

	return token.Token{}, l.fatalf("unrecognized character %q", c)
}

func (l *Lexer) matchesAt(s string) bool {
	if l.pos+len(s) > len(l.src) {
		return false
	}
	return string(l.src[l.pos:l.pos+len(s)]) == s
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *Lexer) scanIdentOrKeyword(start source.Location) (token.Token, error) {
	begin := l.pos
	for !l.eof() && isIdentCont(l.peek()) {
		l.advance()
	}
	text := string(l.src[begin:l.pos])
	if kind, ok := token.Lookup(text); ok {
		return token.Token{Kind: kind, Location: start, Text: text}, nil
	}
	return token.Token{Kind: token.Identifier, Location: start, Text: text}, nil
}

var intSuffixes = []string{"usize", "ssize", "u8", "s8", "u16", "s16", "u32", "s32", "u64", "s64", "u", "s", "y"}

func (l *Lexer) scanNumber(start source.Location) (token.Token, error) {
	begin := l.pos

	radix := 10
	if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'o' || l.peekAt(1) == 'x') {
		switch l.peekAt(1) {
		case 'b':
			radix = 2
		case 'o':
			radix = 8
		case 'x':
			radix = 16
		}
		l.advance()
		l.advance()
	}

	digitOK := func(c byte) bool {
		switch radix {
		case 2:
			return c == '0' || c == '1'
		case 8:
			return c >= '0' && c <= '7'
		case 16:
			return isHexDigit(c)
		default:
			return isDigit(c)
		}
	}

	sawDigit := false
	for !l.eof() && (digitOK(l.peek()) || l.peek() == '_') {
		if l.peek() != '_' {
			sawDigit = true
		}
		l.advance()
	}
	if !sawDigit {
		return token.Token{}, l.fatalf("malformed integer literal")
	}

	isReal := false
	if !l.eof() && l.peek() == '.' && isDigit(l.peekAt(1)) && radix == 10 {
		isReal = true
		l.advance()
		for !l.eof() && (isDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
	}
	if !l.eof() && (l.peek() == 'e' || l.peek() == 'E') && radix == 10 {
		save := l.pos
		l.advance()
		if !l.eof() && (l.peek() == '+' || l.peek() == '-') {
			l.advance()
		}
		if l.eof() || !isDigit(l.peek()) {
			l.pos = save
		} else {
			isReal = true
			for !l.eof() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	text := strings.ReplaceAll(string(l.src[begin:l.pos]), "_", "")

	if isReal {
		suffix := ""
		if l.matchesAt("f32") {
			suffix = "f32"
			l.advance()
			l.advance()
			l.advance()
		} else if l.matchesAt("f64") {
			suffix = "f64"
			l.advance()
			l.advance()
			l.advance()
		}
		return token.Token{Kind: token.RealLiteral, Location: start, Text: text, RealSuffix: suffix}, nil
	}

	suffix := ""
	for _, s := range intSuffixes {
		if l.matchesAt(s) && !isIdentCont(l.peekAt(len(s))) {
			suffix = s
			for range s {
				l.advance()
			}
			break
		}
	}
	return token.Token{Kind: token.IntegerLiteral, Location: start, Text: text, IntSuffix: token.IntSuffix(suffix)}, nil
}

func (l *Lexer) scanEscape() (byte, error) {
	c := l.advance()
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case 'x':
		if !isHexDigit(l.peek()) || !isHexDigit(l.peekAt(1)) {
			return 0, l.fatalf("malformed \\x escape sequence")
		}
		hi := hexVal(l.advance())
		lo := hexVal(l.advance())
		return byte(hi*16 + lo), nil
	default:
		return 0, l.fatalf("unrecognized escape sequence \\%c", c)
	}
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func (l *Lexer) scanCharLiteral(start source.Location) (token.Token, error) {
	l.advance() // opening '
	if l.eof() {
		return token.Token{}, l.fatalf("unterminated character literal")
	}
	var value byte
	if l.peek() == '\\' {
		l.advance()
		v, err := l.scanEscape()
		if err != nil {
			return token.Token{}, err
		}
		value = v
	} else if l.peek() == '\'' {
		return token.Token{}, l.fatalf("empty character literal")
	} else {
		value = l.advance()
	}
	if l.eof() || l.peek() != '\'' {
		return token.Token{}, l.fatalf("unterminated character literal")
	}
	l.advance()
	return token.Token{Kind: token.CharLiteral, Location: start, Decoded: string(value)}, nil
}

func (l *Lexer) scanStringLiteral(start source.Location) (token.Token, error) {
	l.advance() // opening "
	var sb strings.Builder
	for {
		if l.eof() {
			return token.Token{}, l.fatalf("unterminated string literal")
		}
		c := l.peek()
		if c == '"' {
			l.advance()
			return token.Token{Kind: token.StringLiteral, Location: start, Decoded: sb.String()}, nil
		}
		if c == '\n' {
			return token.Token{}, l.fatalf("unterminated string literal")
		}
		if c == '\\' {
			l.advance()
			v, err := l.scanEscape()
			if err != nil {
				return token.Token{}, err
			}
			sb.WriteByte(v)
			continue
		}
		sb.WriteByte(l.advance())
	}
}
