package runtime

import (
	"cmp"
	"fmt"
	"math"
	"strings"
)

// MaxRepeatLength bounds the byte length of a string produced by repetition.
const MaxRepeatLength = 1 << 30

// Add implements +. Null is the identity on either side and strings absorb
// anything they are added to. It never fails.
func Add(a, b Value) Value {
	if IsNull(a) {
		if b == nil {
			return Null
		}
		return b
	}
	if IsNull(b) {
		return a
	}
	if l, ok := a.(StringValue); ok {
		return Str(l.Val + b.String())
	}
	if r, ok := b.(StringValue); ok {
		return Str(a.String() + r.Val)
	}
	if l, ok := a.(BoolValue); ok {
		if r, ok := b.(BoolValue); ok {
			return Bool(l.Val || r.Val)
		}
	}
	return arithmetic(a, b,
		func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub implements -.
func Sub(a, b Value) (Value, error) {
	if IsNull(b) {
		if a == nil {
			return Null, nil
		}
		return a, nil
	}
	if isString(a) || isString(b) {
		return nil, incompatible("subtract", a, b)
	}
	if IsNull(a) {
		return Negate(b)
	}
	return arithmetic(a, b,
		func(x, y int64) int64 { return x - y },
		func(x, y float64) float64 { return x - y }), nil
}

// Mul implements *. Null absorbs, booleans combine with AND, and a string
// paired with a number is repeated.
func Mul(a, b Value) (Value, error) {
	if IsNull(a) || IsNull(b) {
		return Null, nil
	}
	ls, lok := a.(StringValue)
	rs, rok := b.(StringValue)
	switch {
	case lok && rok:
		return nil, incompatible("multiply", a, b)
	case lok:
		return repeatBy(ls.Val, b)
	case rok:
		return repeatBy(rs.Val, a)
	}
	if l, ok := a.(BoolValue); ok {
		if r, ok := b.(BoolValue); ok {
			return Bool(l.Val && r.Val), nil
		}
	}
	return arithmetic(a, b,
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y }), nil
}

// Div implements /. A zero divisor is reported before any type mismatch.
func Div(a, b Value) (Value, error) {
	return divide("divide", a, b,
		func(x, y int64) int64 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// Mod implements %, truncating toward zero like Div.
func Mod(a, b Value) (Value, error) {
	return divide("modulo", a, b,
		func(x, y int64) int64 { return x % y },
		math.Mod)
}

func divide(op string, a, b Value, ints func(int64, int64) int64, floats func(float64, float64) float64) (Value, error) {
	if isZero(b) {
		return nil, ErrDivisionByZero
	}
	if IsNull(a) && IsNull(b) {
		return Null, nil
	}
	if IsNull(a) || IsNull(b) || isString(a) || isString(b) {
		return nil, incompatible(op, a, b)
	}
	return arithmetic(a, b, ints, floats), nil
}

// Negate implements unary minus.
func Negate(v Value) (Value, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return Null, nil
	case IntValue:
		return Int(-val.Val), nil
	case FloatValue:
		return Float(-val.Val), nil
	}
	return nil, incompatible("negate", v, nil)
}

// Not implements logical negation; numbers are true when zero.
func Not(v Value) (Value, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return Null, nil
	case IntValue:
		return Bool(val.Val == 0), nil
	case FloatValue:
		return Bool(val.Val == 0), nil
	case BoolValue:
		return Bool(!val.Val), nil
	}
	return nil, incompatible("logically negate", v, nil)
}

// Abs returns the absolute value of a number.
func Abs(v Value) (Value, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return Null, nil
	case IntValue:
		if val.Val < 0 {
			return Int(-val.Val), nil
		}
		return val, nil
	case FloatValue:
		return Float(math.Abs(val.Val)), nil
	}
	return nil, incompatible("compute absolute value of", v, nil)
}

// Compare orders two values. The boolean result is false when the pair is
// incomparable: null against non-null, string against non-string, or NaN.
func Compare(a, b Value) (int, bool) {
	an, bn := IsNull(a), IsNull(b)
	if an || bn {
		return 0, an && bn
	}
	ls, lok := a.(StringValue)
	rs, rok := b.(StringValue)
	if lok || rok {
		if lok && rok {
			return strings.Compare(ls.Val, rs.Val), true
		}
		return 0, false
	}
	if isFloat(a) || isFloat(b) {
		x, y := numericFloat(a), numericFloat(b)
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		return cmp.Compare(x, y), true
	}
	return cmp.Compare(numericInt(a), numericInt(b)), true
}

// Equal reports coercive equality; incomparable values are unequal.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// arithmetic applies a numeric operator to Int, Float and Bool operands,
// promoting to float when either side is a float.
func arithmetic(a, b Value, ints func(int64, int64) int64, floats func(float64, float64) float64) Value {
	if isFloat(a) || isFloat(b) {
		return Float(floats(numericFloat(a), numericFloat(b)))
	}
	return Int(ints(numericInt(a), numericInt(b)))
}

func repeatBy(s string, count Value) (Value, error) {
	var n uint64
	reverse := false
	switch c := count.(type) {
	case BoolValue:
		if !c.Val {
			return Null, nil
		}
		return Str(s), nil
	case IntValue:
		if c.Val < 0 {
			reverse = true
			n = uint64(-(c.Val + 1)) + 1
		} else {
			n = uint64(c.Val)
		}
	case FloatValue:
		reverse = math.Signbit(c.Val)
		f := math.Abs(c.Val)
		switch {
		case math.IsNaN(f):
			n = 0
		case f >= math.MaxUint64:
			n = math.MaxUint64
		default:
			n = uint64(f)
		}
	default:
		return nil, incompatible("multiply", Str(s), count)
	}
	if s == "" || n == 0 {
		return Str(""), nil
	}
	if n > uint64(MaxRepeatLength/len(s)) {
		return nil, fmt.Errorf("string repetition exceeds the %d byte limit", MaxRepeatLength)
	}
	if reverse {
		s = reverseRunes(s)
	}
	return Str(strings.Repeat(s, int(n))), nil
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func isZero(v Value) bool {
	switch val := v.(type) {
	case IntValue:
		return val.Val == 0
	case FloatValue:
		return val.Val == 0
	case BoolValue:
		return !val.Val
	}
	return false
}

func isString(v Value) bool {
	_, ok := v.(StringValue)
	return ok
}

func isFloat(v Value) bool {
	_, ok := v.(FloatValue)
	return ok
}

func numericInt(v Value) int64 {
	n, _ := AsInt(v)
	return n
}

func numericFloat(v Value) float64 {
	f, _ := AsFloat(v)
	return f
}
