package bracket

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOptions marks a classifier configuration that would break the
// matching guarantees. Callers should treat it as fatal.
var ErrInvalidOptions = errors.New("invalid classifier options")

// Options configures a Classifier.
type Options struct {
	// Sizes are the burst lengths to detect. Each must be odd and at least 3,
	// listed in strictly descending order so that a longer bracket is found
	// before any shorter run nested inside it.
	Sizes []int
	// Tolerance bounds exposure-value equality.
	Tolerance Tolerance
	// Kinds are tried independently after every push, in this order.
	Kinds []Kind
	// Accept, when set, must approve a candidate tail before it is tested.
	Accept WindowPredicate
}

// DefaultOptions mirrors the common camera burst lengths of 7, 5 and 3 frames.
func DefaultOptions() Options {
	return Options{
		Sizes:     []int{7, 5, 3},
		Tolerance: DefaultTolerance,
		Kinds:     DefaultKinds(),
	}
}

// Validate reports the first configuration problem, wrapped in ErrInvalidOptions.
func (o Options) Validate() error {
	if len(o.Sizes) == 0 {
		return fmt.Errorf("%w: at least one pattern size is required", ErrInvalidOptions)
	}
	for i, size := range o.Sizes {
		if size < 3 || size%2 == 0 {
			return fmt.Errorf("%w: pattern size %d must be odd and at least 3", ErrInvalidOptions, size)
		}
		if i > 0 && size >= o.Sizes[i-1] {
			return fmt.Errorf("%w: pattern sizes must be strictly descending (%d follows %d)", ErrInvalidOptions, size, o.Sizes[i-1])
		}
	}
	tol := float64(o.Tolerance)
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		return fmt.Errorf("%w: tolerance must be a positive number, got %v", ErrInvalidOptions, o.Tolerance)
	}
	if len(o.Kinds) == 0 {
		return fmt.Errorf("%w: at least one pattern kind is required", ErrInvalidOptions)
	}
	seen := make(map[Kind]struct{}, len(o.Kinds))
	for _, k := range o.Kinds {
		if !k.Valid() {
			return fmt.Errorf("%w: unsupported pattern kind %s", ErrInvalidOptions, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: pattern kind %s listed twice", ErrInvalidOptions, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// MaxSize is the largest configured burst length and therefore the history
// window capacity.
func (o Options) MaxSize() int {
	if len(o.Sizes) == 0 {
		return 0
	}
	return o.Sizes[0]
}

func (o Options) clone() Options {
	out := o
	out.Sizes = append([]int(nil), o.Sizes...)
	out.Kinds = append([]Kind(nil), o.Kinds...)
	return out
}
