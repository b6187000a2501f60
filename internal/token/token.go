// Package token defines the lexical token kinds produced by internal/lexer,
// per spec.md §4.3.
package token

import "github.com/ashn-dot-dev/sunder-sub000/internal/source"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Identifier
	IntegerLiteral
	RealLiteral
	CharLiteral
	StringLiteral

	// Keywords.
	KwNamespace
	KwImport
	KwVar
	KwLet
	KwConst
	KwFunc
	KwStruct
	KwUnion
	KwEnum
	KwExtend
	KwAlias
	KwExtern
	KwReturn
	KwIf
	KwElif
	KwElse
	KwWhen
	KwElwhen
	KwFor
	KwIn
	KwBreak
	KwContinue
	KwSwitch
	KwDefer
	KwAssert
	KwTrue
	KwFalse
	KwNot
	KwOr
	KwAnd
	KwTypeof
	KwSizeof
	KwAlignof
	KwFileof
	KwLineof
	KwEmbed
	KwDefined
	KwStartof
	KwCountof
	KwSyscall

	// Sigils / punctuation.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	DblLBracket // [[
	DblRBracket // ]]
	Comma
	Colon
	DblColon // ::
	Semicolon
	Dot
	DotStar // .*
	DotDot  // ..
	Assign  // =
	Arrow   // ->

	Plus
	Minus
	Star
	Slash
	Percent
	PlusPercent  // +%
	MinusPercent // -%
	StarPercent  // *%

	Amp    // &
	Pipe   // |
	Caret  // ^
	Shl    // <<
	Shr    // >>
	Tilde  // ~
	Eq     // ==
	Ne     // !=
	Lt     // <
	Le     // <=
	Gt     // >
	Ge     // >=
)

var keywords = map[string]Kind{
	"namespace": KwNamespace,
	"import":    KwImport,
	"var":       KwVar,
	"let":       KwLet,
	"const":     KwConst,
	"func":      KwFunc,
	"struct":    KwStruct,
	"union":     KwUnion,
	"enum":      KwEnum,
	"extend":    KwExtend,
	"alias":     KwAlias,
	"extern":    KwExtern,
	"return":    KwReturn,
	"if":        KwIf,
	"elif":      KwElif,
	"else":      KwElse,
	"when":      KwWhen,
	"elwhen":    KwElwhen,
	"for":       KwFor,
	"in":        KwIn,
	"break":     KwBreak,
	"continue":  KwContinue,
	"switch":    KwSwitch,
	"defer":     KwDefer,
	"assert":    KwAssert,
	"true":      KwTrue,
	"false":     KwFalse,
	"not":       KwNot,
	"or":        KwOr,
	"and":       KwAnd,
	"typeof":    KwTypeof,
	"sizeof":    KwSizeof,
	"alignof":   KwAlignof,
	"fileof":    KwFileof,
	"lineof":    KwLineof,
	"embed":     KwEmbed,
	"defined":   KwDefined,
	"startof":   KwStartof,
	"countof":   KwCountof,
	"syscall":   KwSyscall,
}

// Lookup returns the keyword Kind for ident, or (Identifier, false) if
// ident is not a keyword.
func Lookup(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

var kindNames = map[Kind]string{
	Invalid:        "INVALID",
	EOF:            "EOF",
	Identifier:     "IDENTIFIER",
	IntegerLiteral: "INTEGER",
	RealLiteral:    "REAL",
	CharLiteral:    "CHAR",
	StringLiteral:  "STRING",
	LParen:         "(",
	RParen:         ")",
	LBrace:         "{",
	RBrace:         "}",
	LBracket:       "[",
	RBracket:       "]",
	DblLBracket:    "[[",
	DblRBracket:    "]]",
	Comma:          ",",
	Colon:          ":",
	DblColon:       "::",
	Semicolon:      ";",
	Dot:            ".",
	DotStar:        ".*",
	DotDot:         "..",
	Assign:         "=",
	Arrow:          "->",
	Plus:           "+",
	Minus:          "-",
	Star:           "*",
	Slash:          "/",
	Percent:        "%",
	PlusPercent:    "+%",
	MinusPercent:   "-%",
	StarPercent:    "*%",
	Amp:            "&",
	Pipe:           "|",
	Caret:          "^",
	Shl:            "<<",
	Shr:            ">>",
	Tilde:          "~",
	Eq:             "==",
	Ne:             "!=",
	Lt:             "<",
	Le:             "<=",
	Gt:             ">",
	Ge:             ">=",
}

// IntSuffix identifies the optional type suffix on an integer literal
// ("" for none, or one of u8/s8/.../u/s/y where y denotes byte).
type IntSuffix string

// Token is a single lexical token with its source location.
type Token struct {
	Kind     Kind
	Location source.Location
	Text     string // raw source text, for identifiers/sigils/keywords

	// IntegerLiteral payload.
	IntSuffix IntSuffix

	// RealLiteral payload ("" , "f32", or "f64").
	RealSuffix string

	// CharLiteral/StringLiteral decoded payload.
	Decoded string
}

func (t Token) String() string {
	if t.Text != "" {
		return t.Kind.String() + "(" + t.Text + ")"
	}
	return t.Kind.String()
}
