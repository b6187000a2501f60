package lexer

import (
	"testing"

	"github.com/ashn-dot-dev/sunder-sub000/internal/diag"
	"github.com/ashn-dot-dev/sunder-sub000/internal/token"
)

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	sink := diag.NewSink()
	toks, err := ScanAll("test.sunder", []byte(src), sink)
	if err != nil {
		t.Fatalf("ScanAll(%q) failed: %v", src, err)
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	var ks []token.Kind
	for _, tk := range toks {
		ks = append(ks, tk.Kind)
	}
	return ks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := scan(t, "let x const foo_bar")
	want := []token.Kind{token.KwLet, token.Identifier, token.KwConst, token.Identifier, token.EOF}
	assertKinds(t, toks, want)
	if toks[1].Text != "x" || toks[3].Text != "foo_bar" {
		t.Errorf("identifier text mismatch: %+v", toks)
	}
}

func TestSigilsLongestMatchFirst(t *testing.T) {
	toks := scan(t, "<< >> +% -% *% :: [[ ]] -> == != <= >=")
	want := []token.Kind{
		token.Shl, token.Shr, token.PlusPercent, token.MinusPercent, token.StarPercent,
		token.DblColon, token.DblLBracket, token.DblRBracket, token.Arrow,
		token.Eq, token.Ne, token.Le, token.Ge, token.EOF,
	}
	assertKinds(t, toks, want)
}

func TestIntegerLiteralsAndSuffixes(t *testing.T) {
	toks := scan(t, "0 255u8 0x1F 0b1010 0o17 100_000 42usize")
	if len(toks) != 8 { // 7 literals + EOF
		t.Fatalf("got %d tokens, want 8: %+v", len(toks), toks)
	}
	if toks[1].Text != "255" || toks[1].IntSuffix != "u8" {
		t.Errorf("255u8 -> %+v", toks[1])
	}
	if toks[5].Text != "100000" {
		t.Errorf("digit separators should be stripped, got %q", toks[5].Text)
	}
	if toks[6].IntSuffix != "usize" {
		t.Errorf("42usize suffix = %q", toks[6].IntSuffix)
	}
}

func TestRealLiterals(t *testing.T) {
	toks := scan(t, "3.14 2.5f32 1.0e10 6.02e+23f64")
	if toks[0].Kind != token.RealLiteral || toks[0].Text != "3.14" {
		t.Errorf("3.14 -> %+v", toks[0])
	}
	if toks[1].RealSuffix != "f32" {
		t.Errorf("2.5f32 suffix = %q", toks[1].RealSuffix)
	}
	if toks[3].RealSuffix != "f64" {
		t.Errorf("6.02e+23f64 suffix = %q", toks[3].RealSuffix)
	}
}

func TestCharAndStringLiterals(t *testing.T) {
	toks := scan(t, `'a' '\n' "hello\nworld"`)
	if toks[0].Decoded != "a" {
		t.Errorf("'a' decoded = %q", toks[0].Decoded)
	}
	if toks[1].Decoded != "\n" {
		t.Errorf("'\\n' decoded = %q", toks[1].Decoded)
	}
	if toks[2].Decoded != "hello\nworld" {
		t.Errorf("string decoded = %q", toks[2].Decoded)
	}
}

func TestCommentsAndWhitespaceSkipped(t *testing.T) {
	toks := scan(t, "let x # this is a comment\n= 1;")
	want := []token.Kind{token.KwLet, token.Identifier, token.Assign, token.IntegerLiteral, token.Semicolon, token.EOF}
	assertKinds(t, toks, want)
}

func TestIllegalByteIsFatal(t *testing.T) {
	sink := diag.NewSink()
	_, err := ScanAll("test.sunder", []byte("let x = \x01;"), sink)
	if err == nil {
		t.Fatal("expected a fatal error for an illegal byte")
	}
}

func TestUnterminatedStringIsFatal(t *testing.T) {
	sink := diag.NewSink()
	_, err := ScanAll("test.sunder", []byte(`"unterminated`), sink)
	if err == nil {
		t.Fatal("expected a fatal error for an unterminated string literal")
	}
}

func assertKinds(t *testing.T, toks []token.Token, want []token.Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}
