package bracket

import "math"

// DefaultTolerance absorbs the rounding of rational EV encodings such as
// -7/10 or -13/10.
const DefaultTolerance Tolerance = 1e-4

// Tolerance is the absolute difference below which two exposure values are
// treated as equal.
type Tolerance float64

// Equal reports whether a and b differ by strictly less than t.
func (t Tolerance) Equal(a, b float64) bool {
	return math.Abs(a-b) < float64(t)
}
