package runtime

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned by Div and Mod for a zero divisor.
var ErrDivisionByZero = errors.New("Division by zero is not allowed")

// IncompatibleTypesError reports an operator applied to operands it does not
// support. Right is nil for unary operators.
type IncompatibleTypesError struct {
	Operation string
	Left      Value
	Right     Value
}

func (e *IncompatibleTypesError) Error() string {
	if e.Right == nil {
		return fmt.Sprintf("Can't %s incompatible type: %s", e.Operation, TypeName(e.Left))
	}
	return fmt.Sprintf("Can't %s incompatible types: %s and %s", e.Operation, TypeName(e.Left), TypeName(e.Right))
}

func incompatible(op string, left, right Value) error {
	return &IncompatibleTypesError{Operation: op, Left: left, Right: right}
}

// ConversionError reports a string that cannot be parsed as a number.
type ConversionError struct {
	Value  string
	Target Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s", e.Value, e.Target)
}
