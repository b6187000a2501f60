// Package ctx holds the process-wide compilation context spec.md §4.2
// describes: the interner, the type registry, the global symbol table, the
// module cache, builtin bignum constants, and the one target-shape option
// the core itself owns (word size). A single
// Context is created per compilation run and threaded through the lexer,
// parser, orderer, resolver, and evaluator instead of relying on package
// globals, so tests can run with independent contexts in parallel.
package ctx

import (
	"github.com/ashn-dot-dev/sunder-sub000/internal/bignum"
	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/intern"
	"github.com/ashn-dot-dev/sunder-sub000/internal/symbol"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
)

// Options carries the handful of target-shape parameters the core owns
// directly. Everything else target-specific (archiver, linker, assembler
// paths) belongs to the out-of-scope CLI/backend layer per spec.md §6.
type Options struct {
	// WordSize is the byte width of usize/ssize and pointer values.
	WordSize int
}

// DefaultOptions returns the options for a 64-bit target (8-byte words).
func DefaultOptions() Options {
	return Options{WordSize: 8}
}

// Context is the process-wide singleton threaded through every compiler
// pass for a single compilation run.
type Context struct {
	Options Options

	Interner *intern.Pool
	Types    *types.Registry
	Globals  *symbol.Table
	Sink     *diag.Sink

	// Modules caches loaded modules by canonical path. The module package
	// populates and consults it to detect circular imports and avoid
	// reloading a module reached via multiple import paths.
	Modules map[string]*ModuleEntry

	// IntLimits holds the precomputed minimum and maximum representable
	// value of every sized integer kind, used by the evaluator for cast
	// range checks and by the resolver for literal-fits-in-type checks.
	IntLimits map[types.Kind]IntLimit
}

// ModuleEntry records a module's load state in the Context's cache.
// InProgress distinguishes "currently being loaded" (the circular-import
// marker) from "loaded and done".
type ModuleEntry struct {
	InProgress bool
	Module     any // *module.Module once loaded; untyped to avoid an import cycle with internal/module
}

// IntLimit is the inclusive [Min, Max] range a sized integer kind can hold.
type IntLimit struct {
	Min, Max *bignum.Int
}

// New builds a Context with every builtin type installed into both the
// type registry and the global symbol table, and the builtin bignum
// integer-range constants precomputed, per spec.md §4.2's initialization
// description.
func New(opts Options) *Context {
	c := &Context{
		Options:   opts,
		Interner:  intern.NewPool(),
		Types:     types.NewRegistry(),
		Globals:   symbol.NewTable(nil),
		Sink:      diag.NewSink(),
		Modules:   make(map[string]*ModuleEntry),
		IntLimits: make(map[types.Kind]IntLimit),
	}
	c.installBuiltinTypes()
	c.installIntLimits()
	return c
}

var builtinTypeNames = []string{
	"any", "void", "bool", "byte",
	"u8", "s8", "u16", "s16", "u32", "s32", "u64", "s64", "usize", "ssize",
	"integer",
	"f32", "f64",
	"real",
}

func (c *Context) installBuiltinTypes() {
	for _, name := range builtinTypeNames {
		t, ok := c.Types.Builtin(name)
		if !ok {
			panic("ctx: missing builtin type " + name) // registered by types.NewRegistry; a miss here is a compiler bug
		}
		sym := &symbol.Symbol{Kind: symbol.TYPE, Name: name, Type: t}
		if err := c.Globals.Define(sym); err != nil {
			panic("ctx: " + err.Error())
		}
	}
	byteType, _ := c.Types.Builtin("byte")
	c.Types.Pointer(byteType)
	c.Types.Slice(byteType)
}

// unsignedMax returns 2^bits - 1.
func unsignedMax(bits int) *bignum.Int {
	one := bignum.FromInt64(1)
	one.ShiftLeft(bits)
	return bignum.Sub(one, bignum.FromInt64(1))
}

// signedMax returns 2^(bits-1) - 1.
func signedMax(bits int) *bignum.Int { return unsignedMax(bits - 1) }

// signedMin returns -2^(bits-1).
func signedMin(bits int) *bignum.Int {
	one := bignum.FromInt64(1)
	one.ShiftLeft(bits - 1)
	return bignum.Neg(one)
}

func (c *Context) installIntLimits() {
	unsignedBits := map[types.Kind]int{
		types.U8: 8, types.U16: 16, types.U32: 32, types.U64: 64,
	}
	signedBits := map[types.Kind]int{
		types.S8: 8, types.S16: 16, types.S32: 32, types.S64: 64,
	}
	for k, bits := range unsignedBits {
		c.IntLimits[k] = IntLimit{Min: bignum.Zero(), Max: unsignedMax(bits)}
	}
	for k, bits := range signedBits {
		c.IntLimits[k] = IntLimit{Min: signedMin(bits), Max: signedMax(bits)}
	}
	wordBits := c.Options.WordSize * 8
	c.IntLimits[types.Usize] = IntLimit{Min: bignum.Zero(), Max: unsignedMax(wordBits)}
	c.IntLimits[types.Ssize] = IntLimit{Min: signedMin(wordBits), Max: signedMax(wordBits)}
}

// Intern is a convenience wrapper around the pool interner for compiler
// passes that only have a Context in hand.
func (c *Context) Intern(s string) *intern.String {
	return c.Interner.Intern(s)
}
