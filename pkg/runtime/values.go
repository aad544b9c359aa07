package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// String returns the user-facing type name reported by <type>.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is the closed set of runtime values. Values are immutable; operators
// always return a fresh Value.
type Value interface {
	Kind() Kind
	String() string
}

type NullValue struct{}

func (NullValue) Kind() Kind     { return KindNull }
func (NullValue) String() string { return "null" }

type IntValue struct{ Val int64 }

func (IntValue) Kind() Kind       { return KindInt }
func (v IntValue) String() string { return strconv.FormatInt(v.Val, 10) }

type FloatValue struct{ Val float64 }

func (FloatValue) Kind() Kind       { return KindFloat }
func (v FloatValue) String() string { return FormatFloat(v.Val) }

type BoolValue struct{ Val bool }

func (BoolValue) Kind() Kind { return KindBool }
func (v BoolValue) String() string {
	if v.Val {
		return "true"
	}
	return "false"
}

type StringValue struct{ Val string }

func (StringValue) Kind() Kind       { return KindString }
func (v StringValue) String() string { return v.Val }

// Null is the shared null value.
var Null Value = NullValue{}

func Int(v int64) Value     { return IntValue{Val: v} }
func Float(v float64) Value { return FloatValue{Val: v} }
func Bool(v bool) Value     { return BoolValue{Val: v} }
func Str(v string) Value    { return StringValue{Val: v} }

// IsNull reports whether v is the null value (a nil interface counts as null).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}

// FormatFloat renders floats in shortest round-trip form without an exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TypeName returns the type name of v, treating nil as null.
func TypeName(v Value) string {
	if v == nil {
		return KindNull.String()
	}
	return v.Kind().String()
}

// ToString returns the display form of v, treating nil as null.
func ToString(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// AsInt coerces v to an integer. Strings must hold a plain decimal integer.
func AsInt(v Value) (int64, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return 0, nil
	case IntValue:
		return val.Val, nil
	case FloatValue:
		return truncate(val.Val), nil
	case BoolValue:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	case StringValue:
		n, err := parseInt(val.Val)
		if err != nil {
			return 0, &ConversionError{Value: val.Val, Target: KindInt}
		}
		return n, nil
	}
	return 0, &ConversionError{Value: v.String(), Target: KindInt}
}

// AsFloat coerces v to a float.
func AsFloat(v Value) (float64, error) {
	switch val := v.(type) {
	case nil, NullValue:
		return 0, nil
	case IntValue:
		return float64(val.Val), nil
	case FloatValue:
		return val.Val, nil
	case BoolValue:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	case StringValue:
		f, err := parseFloat(val.Val)
		if err != nil {
			return 0, &ConversionError{Value: val.Val, Target: KindFloat}
		}
		return f, nil
	}
	return 0, &ConversionError{Value: v.String(), Target: KindFloat}
}

// Truthy applies the language's truthiness table. It never fails.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case IntValue:
		return val.Val != 0
	case FloatValue:
		return val.Val != 0
	case BoolValue:
		return val.Val
	case StringValue:
		switch strings.ToLower(val.Val) {
		case "false", "0", "off", "no", "":
			return false
		}
		return true
	}
	return false
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// parseFloat accepts decimal and exponent forms plus inf/infinity/nan; hex
// floats are rejected.
func parseFloat(s string) (float64, error) {
	if strings.Contains(strings.ToLower(s), "0x") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// truncate converts toward zero, saturating at the int64 range; NaN maps to 0.
func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
