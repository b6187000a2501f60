// Package eval implements spec.md §4.8's compile-time evaluator: it folds
// a resolved ir.Expr to a value.Value, or reports that the expression is
// not constant. Grounded on lang/ysem/analyzer.go's typeCheckExpr
// switch-over-AST-node dispatch and adaptLiteralToType/valueFitsInType
// range-checking idiom, generalized from YAPL's machine-int64 literals to
// bignum-backed arbitrary-precision integers and from a handful of
// expression kinds to spec.md §3's full expression variant list.
package eval

import (
	"fmt"

	"github.com/ashn-dot-dev/sunder-sub000/internal/bignum"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
	"github.com/ashn-dot-dev/sunder-sub000/internal/ir"
	"github.com/ashn-dot-dev/sunder-sub000/internal/symbol"
	"github.com/ashn-dot-dev/sunder-sub000/internal/types"
	"github.com/ashn-dot-dev/sunder-sub000/internal/value"
)

// NotConstantError is returned for the operations spec.md §4.8 names as
// never constant-foldable: address-of a local, ordering compares on
// pointers, dereference of a non-literal pointer, and calls.
type NotConstantError struct {
	Reason string
}

func (e *NotConstantError) Error() string { return "not a constant expression: " + e.Reason }

// Eval folds e to a compile-time Value using c's integer-range tables for
// cast checking.
func Eval(c *ctx.Context, e ir.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ir.ValueExpr:
		return e.Value, nil
	case *ir.BytesExpr:
		return evalBytesExpr(e)
	case *ir.SymbolExpr:
		return evalSymbolExpr(e)
	case *ir.ArrayListExpr:
		return evalArrayListExpr(c, e)
	case *ir.SliceListExpr:
		return evalSliceListExpr(c, e)
	case *ir.SliceExpr:
		return evalSliceExpr(c, e)
	case *ir.InitExpr:
		return evalInitExpr(c, e)
	case *ir.CastExpr:
		return evalCastExpr(c, e)
	case *ir.CallExpr:
		return value.Value{}, &NotConstantError{Reason: "function call"}
	case *ir.IndexExpr:
		return evalIndexExpr(c, e)
	case *ir.AccessSliceExpr:
		return evalAccessSliceExpr(c, e)
	case *ir.AccessMemberExpr:
		return evalAccessMemberExpr(c, e)
	case *ir.SizeofExpr:
		return evalSizeofExpr(c, e)
	case *ir.AlignofExpr:
		return evalAlignofExpr(c, e)
	case *ir.UnaryExpr:
		return evalUnaryExpr(c, e)
	case *ir.BinaryExpr:
		return evalBinaryExpr(c, e)
	default:
		return value.Value{}, fmt.Errorf("eval: unhandled expression %T", e)
	}
}

func evalBytesExpr(e *ir.BytesExpr) (value.Value, error) {
	if e.Symbol == nil || e.Symbol.Object == nil || e.Symbol.Object.Value == nil {
		return value.Value{}, fmt.Errorf("eval: bytes literal has no constant value")
	}
	return *e.Symbol.Object.Value, nil
}

func evalSymbolExpr(e *ir.SymbolExpr) (value.Value, error) {
	sym := e.Symbol
	switch sym.Kind {
	case symbol.CONSTANT:
		if sym.Object == nil || sym.Object.Value == nil {
			return value.Value{}, fmt.Errorf("eval: constant %q has no folded value", sym.Name)
		}
		return *sym.Object.Value, nil
	case symbol.VARIABLE:
		if sym.Object != nil && sym.Object.Value != nil && !sym.Object.IsExtern {
			return *sym.Object.Value, nil
		}
		return value.Value{}, &NotConstantError{Reason: fmt.Sprintf("reference to runtime variable %q", sym.Name)}
	case symbol.FUNCTION:
		return value.NewPointer(e.Type, value.Address{Kind: value.Static, Name: sym.Name}), nil
	default:
		return value.Value{}, fmt.Errorf("eval: symbol %q of kind %v is not a value reference", sym.Name, sym.Kind)
	}
}

func evalArrayListExpr(c *ctx.Context, e *ir.ArrayListExpr) (value.Value, error) {
	elems := make([]value.Value, 0, len(e.Elems))
	for _, el := range e.Elems {
		v, err := Eval(c, el)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
	}
	if e.Ellipsis && e.Type.Kind == types.Array && int(e.Type.Count) > len(elems) {
		fill := zeroValue(e.Type.Elem)
		for len(elems) < int(e.Type.Count) {
			elems = append(elems, fill)
		}
	}
	return value.NewAggregate(e.Type, elems), nil
}

func evalSliceListExpr(c *ctx.Context, e *ir.SliceListExpr) (value.Value, error) {
	backing, err := evalArrayListExpr(c, e.Backing)
	if err != nil {
		return value.Value{}, err
	}
	// The evaluator has no backend-assigned address to give the backing
	// array at this stage, so a constant-folded slice value carries its
	// elements directly rather than a separate pointer/count pair; the
	// resolver is responsible for promoting the backing array to a static
	// symbol when the slice literal escapes to runtime code.
	return value.NewAggregate(e.Type, backing.Elems), nil
}

func evalSliceExpr(c *ctx.Context, e *ir.SliceExpr) (value.Value, error) {
	return value.Value{}, &NotConstantError{Reason: "pointer/count slice construction requires a runtime address"}
}

func evalInitExpr(c *ctx.Context, e *ir.InitExpr) (value.Value, error) {
	elems := make([]value.Value, len(e.Type.Members))
	set := make([]bool, len(e.Type.Members))
	for _, m := range e.Members {
		idx := -1
		for i, member := range e.Type.Members {
			if member.Name == m.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return value.Value{}, fmt.Errorf("eval: %q has no member %q", e.Type.Name, m.Name)
		}
		v, err := Eval(c, m.X)
		if err != nil {
			return value.Value{}, err
		}
		elems[idx] = v
		set[idx] = true
	}
	if e.Type.Kind == types.Struct {
		for i, member := range e.Type.Members {
			if !set[i] {
				elems[i] = zeroValue(member.Type)
			}
		}
	}
	return value.NewAggregate(e.Type, elems), nil
}

func evalCastExpr(c *ctx.Context, e *ir.CastExpr) (value.Value, error) {
	v, err := Eval(c, e.X)
	if err != nil {
		return value.Value{}, err
	}
	target := e.Type
	switch {
	case target.IsInteger() && v.Type.IsInteger():
		return castInt(c, v, target)
	case target.IsInteger() && v.Type.IsReal():
		return castInt(c, value.NewInt(target, bignum.FromInt64(int64(v.Real))), target)
	case target.IsReal() && v.Type.IsInteger():
		f, _ := v.Int.ToInt64()
		return value.NewReal(target, float64(f)), nil
	case target.Kind == types.Bool && v.Type.Kind == types.Byte:
		return value.NewBool(target, !v.Int.IsZero()), nil
	case target.Kind == types.Byte && v.Type.Kind == types.Bool:
		n := int64(0)
		if v.Bool {
			n = 1
		}
		return value.NewInt(target, bignum.FromInt64(n)), nil
	case target.Kind == types.Usize && v.Type.Kind == types.Pointer:
		return value.NewInt(target, bignum.FromInt64(v.Addr.Offset)), nil
	case target.Kind == types.Pointer && v.Type.Kind == types.Usize:
		n, _ := v.Int.ToInt64()
		return value.NewPointer(target, value.Address{Kind: value.Absolute, Offset: n}), nil
	case target.Kind == types.Pointer && v.Type.Kind == types.Pointer:
		return value.NewPointer(target, v.Addr), nil
	case target.Kind == types.Enum && v.Type.IsInteger():
		return value.NewInt(target, v.Int), nil
	case target.IsInteger() && v.Type.Kind == types.Enum:
		return value.NewInt(target, v.Int), nil
	case target == v.Type:
		return v, nil
	default:
		return value.Value{}, fmt.Errorf("eval: no constant cast from %s to %s", v.Type, target)
	}
}

func castInt(c *ctx.Context, v value.Value, target *types.Type) (value.Value, error) {
	if target.IsUnsized() {
		return value.NewInt(target, v.Int), nil
	}
	lim, ok := c.IntLimits[target.Kind]
	if ok {
		if bignum.Cmp(v.Int, lim.Min) < 0 || bignum.Cmp(v.Int, lim.Max) > 0 {
			return value.Value{}, fmt.Errorf("eval: value %s out of range for %s", v.Int, target)
		}
	}
	return value.NewInt(target, v.Int), nil
}

func evalIndexExpr(c *ctx.Context, e *ir.IndexExpr) (value.Value, error) {
	x, err := Eval(c, e.X)
	if err != nil {
		return value.Value{}, err
	}
	idxVal, err := Eval(c, e.Index)
	if err != nil {
		return value.Value{}, err
	}
	idx, ok := idxVal.Int.ToInt64()
	if !ok || idx < 0 || int(idx) >= len(x.Elems) {
		return value.Value{}, fmt.Errorf("eval: index %s out of bounds", idxVal.Int)
	}
	return x.Elems[idx], nil
}

func evalAccessSliceExpr(c *ctx.Context, e *ir.AccessSliceExpr) (value.Value, error) {
	x, err := Eval(c, e.X)
	if err != nil {
		return value.Value{}, err
	}
	beginVal, err := Eval(c, e.Begin)
	if err != nil {
		return value.Value{}, err
	}
	endVal, err := Eval(c, e.End)
	if err != nil {
		return value.Value{}, err
	}
	begin, _ := beginVal.Int.ToInt64()
	end, _ := endVal.Int.ToInt64()
	if begin < 0 || end > int64(len(x.Elems)) || begin > end {
		return value.Value{}, fmt.Errorf("eval: slice range [%d:%d] out of bounds", begin, end)
	}
	return value.NewAggregate(e.Type, x.Elems[begin:end]), nil
}

func evalAccessMemberExpr(c *ctx.Context, e *ir.AccessMemberExpr) (value.Value, error) {
	x, err := Eval(c, e.X)
	if err != nil {
		return value.Value{}, err
	}
	v, ok := x.Member(e.Name)
	if !ok {
		return value.Value{}, fmt.Errorf("eval: %s has no member %q", x.Type, e.Name)
	}
	return v, nil
}

func evalSizeofExpr(c *ctx.Context, e *ir.SizeofExpr) (value.Value, error) {
	usize, _ := c.Types.Builtin("usize")
	return value.NewInt(usize, bignum.FromInt64(int64(e.Operand.Size()))), nil
}

func evalAlignofExpr(c *ctx.Context, e *ir.AlignofExpr) (value.Value, error) {
	usize, _ := c.Types.Builtin("usize")
	return value.NewInt(usize, bignum.FromInt64(int64(e.Operand.Align()))), nil
}

func evalUnaryExpr(c *ctx.Context, e *ir.UnaryExpr) (value.Value, error) {
	switch e.Op {
	case ir.UnaryAddr:
		return evalAddrOf(c, e)
	case ir.UnaryDeref:
		return evalDeref(c, e)
	case ir.UnaryStartof:
		x, err := Eval(c, e.X)
		if err != nil {
			return value.Value{}, err
		}
		return evalAddrOfValue(e.Type, x)
	case ir.UnaryCountof:
		x, err := Eval(c, e.X)
		if err != nil {
			return value.Value{}, err
		}
		usize, _ := c.Types.Builtin("usize")
		return value.NewInt(usize, bignum.FromInt64(int64(len(x.Elems)))), nil
	}

	x, err := Eval(c, e.X)
	if err != nil {
		return value.Value{}, err
	}
	switch e.Op {
	case ir.UnaryNot:
		return value.NewBool(e.Type, !x.Bool), nil
	case ir.UnaryPos:
		return x, nil
	case ir.UnaryNeg:
		if x.Type.IsUnsignedInteger() {
			return value.Value{}, fmt.Errorf("eval: unary negation is forbidden on unsigned type %s", x.Type)
		}
		return value.NewInt(e.Type, bignum.Neg(x.Int)), nil
	case ir.UnaryNegWrapping:
		return wrapInt(e.Type, bignum.Neg(x.Int)), nil
	case ir.UnaryBitNot:
		width := e.Type.Kind.IntegerBits()
		bits, ok := x.Int.ToBitArray(width)
		if !ok {
			return value.Value{}, fmt.Errorf("eval: %s does not fit in %d bits", x.Int, width)
		}
		for i := range bits {
			bits[i] = !bits[i]
		}
		return value.NewInt(e.Type, bignum.FromBitArray(bits, x.Type.IsSignedInteger())), nil
	default:
		return value.Value{}, fmt.Errorf("eval: unhandled unary operator %v", e.Op)
	}
}

func evalAddrOf(c *ctx.Context, e *ir.UnaryExpr) (value.Value, error) {
	sym, ok := e.X.(*ir.SymbolExpr)
	if !ok {
		return value.Value{}, &NotConstantError{Reason: "address-of a non-symbol expression"}
	}
	if sym.Symbol.Object == nil || sym.Symbol.Object.Address.Kind == value.Local {
		return value.Value{}, &NotConstantError{Reason: "address-of a local variable"}
	}
	return value.NewPointer(e.Type, sym.Symbol.Object.Address), nil
}

func evalAddrOfValue(t *types.Type, v value.Value) (value.Value, error) {
	if v.Type.Kind != types.Pointer {
		return value.Value{}, &NotConstantError{Reason: "startof a non-addressable constant"}
	}
	return v, nil
}

func evalDeref(c *ctx.Context, e *ir.UnaryExpr) (value.Value, error) {
	inner, ok := e.X.(*ir.UnaryExpr)
	if ok && inner.Op == ir.UnaryAddr {
		return Eval(c, inner.X)
	}
	return value.Value{}, &NotConstantError{Reason: "dereference of a non-literal pointer"}
}

func evalBinaryExpr(c *ctx.Context, e *ir.BinaryExpr) (value.Value, error) {
	lhs, err := Eval(c, e.Left)
	if err != nil {
		return value.Value{}, err
	}
	rhs, err := Eval(c, e.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch e.Op {
	case ir.BinaryOr:
		return value.NewBool(e.Type, lhs.Bool || rhs.Bool), nil
	case ir.BinaryAnd:
		return value.NewBool(e.Type, lhs.Bool && rhs.Bool), nil
	}

	if lhs.Type.Kind == types.Pointer || rhs.Type.Kind == types.Pointer {
		return evalPointerCompare(e, lhs, rhs)
	}

	switch e.Op {
	case ir.BinaryEq, ir.BinaryNe:
		return evalEqualityCompare(e, lhs, rhs)
	case ir.BinaryLe, ir.BinaryLt, ir.BinaryGe, ir.BinaryGt:
		return evalOrderingCompare(e, lhs, rhs)
	}

	switch e.Op {
	case ir.BinaryShl, ir.BinaryShr:
		return evalShift(e, lhs, rhs)
	case ir.BinaryBitOr, ir.BinaryBitXor, ir.BinaryBitAnd:
		return evalBitwise(e, lhs, rhs)
	case ir.BinaryAdd:
		return value.NewInt(e.Type, bignum.Add(lhs.Int, rhs.Int)), nil
	case ir.BinarySub:
		return value.NewInt(e.Type, bignum.Sub(lhs.Int, rhs.Int)), nil
	case ir.BinaryMul:
		return value.NewInt(e.Type, bignum.Mul(lhs.Int, rhs.Int)), nil
	case ir.BinaryAddWrapping:
		return wrapInt(e.Type, bignum.Add(lhs.Int, rhs.Int)), nil
	case ir.BinarySubWrapping:
		return wrapInt(e.Type, bignum.Sub(lhs.Int, rhs.Int)), nil
	case ir.BinaryMulWrapping:
		return wrapInt(e.Type, bignum.Mul(lhs.Int, rhs.Int)), nil
	case ir.BinaryDiv:
		if rhs.Int.IsZero() {
			return value.Value{}, fmt.Errorf("eval: division by zero")
		}
		q, _ := bignum.DivMod(lhs.Int, rhs.Int)
		return value.NewInt(e.Type, q), nil
	case ir.BinaryRem:
		if rhs.Int.IsZero() {
			return value.Value{}, fmt.Errorf("eval: division by zero")
		}
		_, r := bignum.DivMod(lhs.Int, rhs.Int)
		return value.NewInt(e.Type, r), nil
	default:
		return value.Value{}, fmt.Errorf("eval: unhandled binary operator %v", e.Op)
	}
}

func evalPointerCompare(e *ir.BinaryExpr, lhs, rhs value.Value) (value.Value, error) {
	switch e.Op {
	case ir.BinaryEq:
		return value.NewBool(e.Type, lhs.Addr == rhs.Addr), nil
	case ir.BinaryNe:
		return value.NewBool(e.Type, lhs.Addr != rhs.Addr), nil
	default:
		return value.Value{}, &NotConstantError{Reason: "ordering compare on pointers"}
	}
}

func evalEqualityCompare(e *ir.BinaryExpr, lhs, rhs value.Value) (value.Value, error) {
	var eq bool
	switch {
	case lhs.Type.Kind == types.Bool:
		eq = lhs.Bool == rhs.Bool
	case lhs.Type.IsInteger() || lhs.Type.Kind == types.Enum:
		eq = bignum.Cmp(lhs.Int, rhs.Int) == 0
	default:
		return value.Value{}, fmt.Errorf("eval: type %s cannot compare equality", lhs.Type)
	}
	if e.Op == ir.BinaryNe {
		eq = !eq
	}
	return value.NewBool(e.Type, eq), nil
}

func evalOrderingCompare(e *ir.BinaryExpr, lhs, rhs value.Value) (value.Value, error) {
	if !lhs.Type.IsInteger() && !lhs.Type.IsReal() {
		return value.Value{}, fmt.Errorf("eval: type %s does not support ordering compare", lhs.Type)
	}
	var cmp int
	if lhs.Type.IsReal() {
		switch {
		case lhs.Real < rhs.Real:
			cmp = -1
		case lhs.Real > rhs.Real:
			cmp = 1
		}
	} else {
		cmp = bignum.Cmp(lhs.Int, rhs.Int)
	}
	var result bool
	switch e.Op {
	case ir.BinaryLe:
		result = cmp <= 0
	case ir.BinaryLt:
		result = cmp < 0
	case ir.BinaryGe:
		result = cmp >= 0
	case ir.BinaryGt:
		result = cmp > 0
	}
	return value.NewBool(e.Type, result), nil
}

func evalShift(e *ir.BinaryExpr, lhs, rhs value.Value) (value.Value, error) {
	width := lhs.Type.Kind.IntegerBits()
	bits, ok := lhs.Int.ToBitArray(width)
	if !ok {
		return value.Value{}, fmt.Errorf("eval: %s does not fit in %d bits", lhs.Int, width)
	}
	n, _ := rhs.Int.ToInt64()
	shifted := make([]bool, width)
	signed := lhs.Type.IsSignedInteger()
	if e.Op == ir.BinaryShl {
		for i := 0; i < width; i++ {
			src := i - int(n)
			if src >= 0 && src < width {
				shifted[i] = bits[src]
			}
		}
	} else {
		fill := signed && bits[width-1]
		for i := 0; i < width; i++ {
			src := i + int(n)
			if src < width {
				shifted[i] = bits[src]
			} else {
				shifted[i] = fill
			}
		}
	}
	return value.NewInt(e.Type, bignum.FromBitArray(shifted, signed)), nil
}

func evalBitwise(e *ir.BinaryExpr, lhs, rhs value.Value) (value.Value, error) {
	width := lhs.Type.Kind.IntegerBits()
	a, ok1 := lhs.Int.ToBitArray(width)
	b, ok2 := rhs.Int.ToBitArray(width)
	if !ok1 || !ok2 {
		return value.Value{}, fmt.Errorf("eval: operand does not fit in %d bits", width)
	}
	out := make([]bool, width)
	for i := 0; i < width; i++ {
		switch e.Op {
		case ir.BinaryBitOr:
			out[i] = a[i] || b[i]
		case ir.BinaryBitXor:
			out[i] = a[i] != b[i]
		case ir.BinaryBitAnd:
			out[i] = a[i] && b[i]
		}
	}
	return value.NewInt(e.Type, bignum.FromBitArray(out, lhs.Type.IsSignedInteger())), nil
}

// wrapInt implements the modulo-2^n semantics of the wrapping arithmetic
// operators: it truncates n to its low `width` bits (two's complement for
// negative n), unconditionally, regardless of whether n already fits in
// that width. This differs from Int.ToBitArray, which reports failure
// instead of truncating — exactly the behavior wrapping arithmetic must
// not have.
func wrapInt(t *types.Type, n *bignum.Int) value.Value {
	width := t.Kind.IntegerBits()
	bits := make([]bool, width)
	if n.Sign() >= 0 {
		for i := 0; i < width; i++ {
			bits[i] = n.BitGet(i) != 0
		}
	} else {
		mag := bignum.Sub(bignum.Abs(n), bignum.FromInt64(1))
		for i := 0; i < width; i++ {
			bits[i] = mag.BitGet(i) == 0
		}
	}
	return value.NewInt(t, bignum.FromBitArray(bits, t.IsSignedInteger()))
}

func zeroValue(t *types.Type) value.Value {
	switch {
	case t.Kind == types.Bool:
		return value.NewBool(t, false)
	case t.IsInteger():
		return value.NewInt(t, bignum.Zero())
	case t.IsReal():
		return value.NewReal(t, 0)
	case t.Kind == types.Pointer:
		return value.NewPointer(t, value.Address{})
	case t.Kind == types.Struct || t.Kind == types.Union || t.Kind == types.Array:
		n := len(t.Members)
		if t.Kind == types.Array {
			n = int(t.Count)
		}
		elems := make([]value.Value, n)
		for i := range elems {
			elemType := t.Elem
			if t.Kind != types.Array {
				elemType = t.Members[i].Type
			}
			elems[i] = zeroValue(elemType)
		}
		return value.NewAggregate(t, elems)
	default:
		return value.Value{Type: t}
	}
}
