// Package diag implements the diagnostic taxonomy of spec.md §7: info,
// warning, error, and fatal severities, uniformly rendered with an optional
// [path:line] prefix and, when source text is available, the offending
// line with a caret underneath.
//
// The accumulate-then-report shape follows
// lang/ysem/analyzer.go's error/errorAt helpers: most passes keep
// collecting into a Sink rather than stopping at the first problem, so
// unused-symbol warnings and the like can still be reported before a fatal
// diagnostic terminates the run. The lexer and parser are the exception
// (spec.md §4.3/§4.4 fail fatally on the first error), which they do by
// calling Sink.Fatalf directly.
package diag

import (
	"fmt"
	"strings"

	"github.com/ashn-dot-dev/sunder-sub000/internal/source"
)

// Severity is one of the four diagnostic tiers.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported message.
type Diagnostic struct {
	Severity Severity
	Location source.Location
	Message  string
}

// String renders the diagnostic as "[path:line] severity: message",
// omitting the location prefix for builtin locations.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if !d.Location.IsBuiltin() {
		fmt.Fprintf(&sb, "[%s:%d] ", d.Location.Path, d.Location.Line)
	}
	fmt.Fprintf(&sb, "%s: %s", d.Severity, d.Message)
	return sb.String()
}

// WithSourceLine renders the diagnostic followed by the offending line of
// src and a caret under the reported byte offset, when src is non-empty and
// the location carries a valid offset into it.
func (d Diagnostic) WithSourceLine(src string) string {
	base := d.String()
	if d.Location.IsBuiltin() || d.Location.Offset < 0 || d.Location.Offset > len(src) {
		return base
	}
	lineStart := strings.LastIndexByte(src[:d.Location.Offset], '\n') + 1
	lineEnd := strings.IndexByte(src[d.Location.Offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += d.Location.Offset
	}
	line := src[lineStart:lineEnd]
	col := d.Location.Offset - lineStart
	caret := strings.Repeat(" ", col) + "^"
	return base + "\n" + line + "\n" + caret
}

// FatalDiagnostic is the error type Sink.Fatalf returns, carrying the
// diagnostic that caused termination so callers can unwind via ordinary
// Go error propagation instead of os.Exit deep in a library call.
type FatalDiagnostic struct {
	Diagnostic Diagnostic
}

func (e *FatalDiagnostic) Error() string { return e.Diagnostic.String() }

// Sink accumulates diagnostics for a compilation.
type Sink struct {
	entries []Diagnostic
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink { return &Sink{} }

func (s *Sink) add(sev Severity, loc source.Location, format string, args []any) Diagnostic {
	d := Diagnostic{Severity: sev, Location: loc, Message: fmt.Sprintf(format, args...)}
	s.entries = append(s.entries, d)
	return d
}

// Infof records an informational note.
func (s *Sink) Infof(loc source.Location, format string, args ...any) {
	s.add(Info, loc, format, args)
}

// Warningf records a warning.
func (s *Sink) Warningf(loc source.Location, format string, args ...any) {
	s.add(Warning, loc, format, args)
}

// Errorf records a recoverable error; processing may continue.
func (s *Sink) Errorf(loc source.Location, format string, args ...any) {
	s.add(Error, loc, format, args)
}

// Fatalf records a fatal diagnostic and returns it as an error for the
// caller to propagate and terminate on.
func (s *Sink) Fatalf(loc source.Location, format string, args ...any) error {
	d := s.add(Fatal, loc, format, args)
	return &FatalDiagnostic{Diagnostic: d}
}

// Entries returns all recorded diagnostics in report order.
func (s *Sink) Entries() []Diagnostic { return s.entries }

// HasErrors reports whether any Error or Fatal diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.entries {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// Count returns how many diagnostics of at least the given severity were
// recorded.
func (s *Sink) Count(min Severity) int {
	n := 0
	for _, d := range s.entries {
		if d.Severity >= min {
			n++
		}
	}
	return n
}
