package types

import "testing"

func TestBuiltinSizesAndAlign(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name  string
		size  int
		align int
	}{
		{"u8", 1, 1}, {"s8", 1, 1},
		{"u16", 2, 2}, {"s16", 2, 2},
		{"u32", 4, 4}, {"s32", 4, 4},
		{"u64", 8, 8}, {"s64", 8, 8},
		{"usize", 8, 8}, {"ssize", 8, 8},
		{"bool", 1, 1}, {"byte", 1, 1},
		{"f32", 4, 4}, {"f64", 8, 8},
	}
	for _, c := range cases {
		ty, ok := r.Builtin(c.name)
		if !ok {
			t.Fatalf("builtin %s not found", c.name)
		}
		if ty.Size() != c.size {
			t.Errorf("%s.Size() = %d, want %d", c.name, ty.Size(), c.size)
		}
		if ty.Align() != c.align {
			t.Errorf("%s.Align() = %d, want %d", c.name, ty.Align(), c.align)
		}
	}
}

func TestUnsizedTypesReportSentinel(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"integer", "real", "void"} {
		ty, ok := r.Builtin(name)
		if !ok {
			t.Fatalf("builtin %s not found", name)
		}
		if ty.Size() != SizeofUnsized {
			t.Errorf("%s.Size() = %d, want SizeofUnsized", name, ty.Size())
		}
	}
}

func TestPointerSliceFunctionUniquing(t *testing.T) {
	r := NewRegistry()
	s32, _ := r.Builtin("s32")

	p1 := r.Pointer(s32)
	p2 := r.Pointer(s32)
	if p1 != p2 {
		t.Error("expected pointer types to be interned to the same value")
	}
	if p1.Size() != 8 || p1.Align() != 8 {
		t.Errorf("*s32 size/align = %d/%d, want 8/8", p1.Size(), p1.Align())
	}

	sl1 := r.Slice(s32)
	sl2 := r.Slice(s32)
	if sl1 != sl2 {
		t.Error("expected slice types to be interned to the same value")
	}
	if sl1.Size() != 16 || sl1.Align() != 8 {
		t.Errorf("[]s32 size/align = %d/%d, want 16/8", sl1.Size(), sl1.Align())
	}

	fn1 := r.Function([]*Type{s32, s32}, s32)
	fn2 := r.Function([]*Type{s32, s32}, s32)
	if fn1 != fn2 {
		t.Error("expected function types to be interned to the same value")
	}
}

func TestArraySize(t *testing.T) {
	r := NewRegistry()
	s32, _ := r.Builtin("s32")
	arr := r.Array(4, s32)
	if arr.Size() != 16 {
		t.Errorf("[4]s32 size = %d, want 16", arr.Size())
	}
	if arr.Align() != 4 {
		t.Errorf("[4]s32 align = %d, want 4", arr.Align())
	}
}

func TestStructLayoutWithPadding(t *testing.T) {
	r := NewRegistry()
	u8, _ := r.Builtin("u8")
	s32, _ := r.Builtin("s32")

	st := r.DeclareStruct("pair")
	if st.Complete {
		t.Fatal("freshly declared struct should be incomplete")
	}
	err := CompleteStruct(st, []Member{
		{Name: "a", Type: u8},
		{Name: "b", Type: s32},
	})
	if err != nil {
		t.Fatalf("CompleteStruct: %v", err)
	}
	if !st.Complete {
		t.Fatal("struct should be complete after CompleteStruct")
	}
	mb, _ := st.Member("b")
	if mb.Offset != 4 {
		t.Errorf("b.Offset = %d, want 4 (padded past u8 a)", mb.Offset)
	}
	if st.Size() != 8 {
		t.Errorf("struct size = %d, want 8 (4-byte aligned, padded to 8)", st.Size())
	}
	if st.Align() != 4 {
		t.Errorf("struct align = %d, want 4", st.Align())
	}
}

func TestUnionLayoutUsesMaxSizeAndOffsetZero(t *testing.T) {
	r := NewRegistry()
	s32, _ := r.Builtin("s32")
	s64, _ := r.Builtin("s64")

	u := r.DeclareUnion("value")
	if err := CompleteUnion(u, []Member{
		{Name: "i", Type: s32},
		{Name: "l", Type: s64},
	}); err != nil {
		t.Fatalf("CompleteUnion: %v", err)
	}
	mi, _ := u.Member("i")
	ml, _ := u.Member("l")
	if mi.Offset != 0 || ml.Offset != 0 {
		t.Errorf("union members should both be at offset 0, got %d and %d", mi.Offset, ml.Offset)
	}
	if u.Size() != 8 {
		t.Errorf("union size = %d, want 8 (max member size)", u.Size())
	}
}

func TestCompleteIncompleteMemberFails(t *testing.T) {
	r := NewRegistry()
	inner := r.DeclareStruct("inner")
	outer := r.DeclareStruct("outer")
	if err := CompleteStruct(outer, []Member{{Name: "x", Type: inner}}); err == nil {
		t.Error("expected an error completing a struct with an incomplete member")
	}
}

func TestCompleteTwiceFails(t *testing.T) {
	r := NewRegistry()
	u8, _ := r.Builtin("u8")
	st := r.DeclareStruct("s")
	if err := CompleteStruct(st, []Member{{Name: "x", Type: u8}}); err != nil {
		t.Fatalf("first CompleteStruct: %v", err)
	}
	if err := CompleteStruct(st, []Member{{Name: "y", Type: u8}}); err == nil {
		t.Error("expected an error re-completing an already-complete struct")
	}
}

func TestEnumUnderlyingType(t *testing.T) {
	r := NewRegistry()
	s32, _ := r.Builtin("s32")
	e := r.DeclareEnum("color", s32, []EnumConstant{{Name: "RED"}, {Name: "GREEN"}})
	if e.Size() != 4 || e.Align() != 4 {
		t.Errorf("enum size/align = %d/%d, want 4/4 (s32 underlying)", e.Size(), e.Align())
	}
}

func TestPointerToStructBreaksIncompleteCycle(t *testing.T) {
	r := NewRegistry()
	node := r.DeclareStruct("node")
	ptr := r.Pointer(node)
	if ptr.Size() != 8 {
		t.Errorf("*node size = %d, want 8 even though node is still incomplete", ptr.Size())
	}
	if err := CompleteStruct(node, []Member{{Name: "next", Type: ptr}}); err != nil {
		t.Fatalf("CompleteStruct with self-referential pointer member: %v", err)
	}
}
