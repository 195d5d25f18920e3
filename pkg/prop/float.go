package prop

import (
	"fmt"
	"math"
)

// FloatConstraint is an interface to represent float value constraint.
type FloatConstraint interface {
	Compare(float32) (float64, bool)
	Value() (float32, bool)
}

// Float specifies ideal float value.
// Any value may be selected, but closest value takes priority.
type Float float32

// Compare implements FloatConstraint.
func (f Float) Compare(a float32) (float64, bool) {
	if float32(f) == a {
		return 0.0, true
	}
	return math.Abs(float64(a-float32(f))) / math.Max(math.Abs(float64(a)), math.Abs(float64(f))), true
}

// Value implements FloatConstraint.
func (f Float) Value() (float32, bool) { return float32(f), true }

// String implements Stringify
func (f Float) String() string {
	return fmt.Sprintf("%.2f (ideal)", f)
}

// FloatExact specifies exact float value.
type FloatExact float32

// Compare implements FloatConstraint.
func (f FloatExact) Compare(a float32) (float64, bool) {
	if float32(f) == a {
		return 0.0, true
	}
	return 1.0, false
}

// Value implements FloatConstraint.
func (f FloatExact) Value() (float32, bool) { return float32(f), true }

// String implements Stringify
func (f FloatExact) String() string {
	return fmt.Sprintf("%.2f (exact)", f)
}
