package bignum

import "testing"

func TestParseTextAndString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"+42", "42"},
		{"-42", "-42"},
		{"0x1F", "31"},
		{"0b1010", "10"},
		{"0o17", "15"},
	}
	for _, tt := range tests {
		z, ok := ParseText(tt.in)
		if !ok {
			t.Fatalf("ParseText(%q) failed", tt.in)
		}
		if got := z.String(); got != tt.want {
			t.Errorf("ParseText(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTextRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "+", "-", "0x", "12a", "0b2"} {
		if _, ok := ParseText(in); ok {
			t.Errorf("ParseText(%q) unexpectedly succeeded", in)
		}
	}
}

func TestAddSubMul(t *testing.T) {
	a, _ := ParseText("123456789012345678901234567890")
	b, _ := ParseText("987654321098765432109876543210")
	sum := Add(a, b)
	if want := "1111111110111111111011111111100"; sum.String() != want {
		t.Errorf("Add = %s, want %s", sum.String(), want)
	}

	diff := Sub(a, b)
	if want := "-864197532086419753208641975320"; diff.String() != want {
		t.Errorf("Sub = %s, want %s", diff.String(), want)
	}

	prod := Mul(FromInt64(123), FromInt64(-456))
	if want := "-56088"; prod.String() != want {
		t.Errorf("Mul = %s, want %s", prod.String(), want)
	}
}

func TestDivModC99Truncation(t *testing.T) {
	tests := []struct {
		a, b, q, r int64
	}{
		{7, 3, 2, 1},
		{7, -3, -2, 1},
		{-7, 3, -2, -1},
		{-7, -3, 2, -1},
	}
	for _, tt := range tests {
		q, r := DivMod(FromInt64(tt.a), FromInt64(tt.b))
		qi, _ := q.ToInt64()
		ri, _ := r.ToInt64()
		if qi != tt.q || ri != tt.r {
			t.Errorf("DivMod(%d,%d) = (%d,%d), want (%d,%d)", tt.a, tt.b, qi, ri, tt.q, tt.r)
		}
		// (a/b)*b + a%b == a
		check := Add(Mul(q, FromInt64(tt.b)), r)
		if ci, _ := check.ToInt64(); ci != tt.a {
			t.Errorf("DivMod(%d,%d): (q*b)+r = %d, want %d", tt.a, tt.b, ci, tt.a)
		}
	}
}

func TestDivModPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on division by zero")
		}
	}()
	DivMod(FromInt64(1), Zero())
}

func TestBitSetGetAndSignPromotion(t *testing.T) {
	z := Zero()
	z.SetBit(3, 1)
	if z.Sign() != 1 {
		t.Fatalf("SetBit on zero should promote sign to +1, got %d", z.Sign())
	}
	if z.BitGet(3) != 1 {
		t.Errorf("BitGet(3) = %d, want 1", z.BitGet(3))
	}
	if z.BitGet(100) != 0 {
		t.Errorf("BitGet(100) out of range should be 0")
	}

	// Out-of-range bit_set(_, 0) is a documented no-op: it must not resize.
	before := len(z.limbs)
	z.SetBit(500, 0)
	if len(z.limbs) != before {
		t.Errorf("SetBit(out-of-range, 0) should not grow storage")
	}
}

func TestMagnitudeShift(t *testing.T) {
	z := FromInt64(1)
	z.ShiftLeft(10)
	if want := int64(1024); func() int64 { v, _ := z.ToInt64(); return v }() != want {
		v, _ := z.ToInt64()
		t.Errorf("ShiftLeft = %d, want %d", v, want)
	}

	z.ShiftRight(5)
	if v, _ := z.ToInt64(); v != 32 {
		t.Errorf("ShiftRight = %d, want 32", v)
	}

	z.ShiftRight(100)
	if !z.IsZero() {
		t.Errorf("ShiftRight past bit count should yield zero")
	}
}

func TestBitArrayRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 42, -42} {
		z := FromInt64(v)
		bits, ok := z.ToBitArray(8)
		if !ok {
			t.Fatalf("ToBitArray(%d, 8) should fit", v)
		}
		back := FromBitArray(bits, true)
		if bi, _ := back.ToInt64(); bi != v {
			t.Errorf("round-trip(%d) = %d", v, bi)
		}
	}
}

func TestFitsSignedUnsigned(t *testing.T) {
	if !FromInt64(127).FitsSigned(8) {
		t.Error("127 should fit in s8")
	}
	if FromInt64(128).FitsSigned(8) {
		t.Error("128 should not fit in s8")
	}
	if !FromInt64(255).FitsUnsigned(8) {
		t.Error("255 should fit in u8")
	}
	if FromInt64(256).FitsUnsigned(8) {
		t.Error("256 should not fit in u8")
	}
	if FromInt64(-1).FitsUnsigned(8) {
		t.Error("-1 should not fit in u8")
	}
}

func TestTextRadixFormatting(t *testing.T) {
	z := FromInt64(255)
	if got := z.Text(16); got != "ff" {
		t.Errorf("Text(16) = %q, want %q", got, "ff")
	}
	if got := z.Text(2); got != "11111111" {
		t.Errorf("Text(2) = %q, want %q", got, "11111111")
	}
}
