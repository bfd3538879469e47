package bracket

import (
	"math"
	"time"
)

// Match is a pattern hit at the tail of the window.
type Match struct {
	Kind    Kind
	Size    int
	Members []Record
}

// Group converts the match into its emitted form.
func (m *Match) Group() Group {
	members := make([]Record, len(m.Members))
	copy(members, m.Members)
	return Group{Kind: m.Kind, Members: members}
}

// WindowPredicate vets a candidate tail before any pattern is tested. The
// slice must not be retained.
type WindowPredicate func(members []Record) bool

// MaxSpan rejects candidates whose first-to-last capture span exceeds limit.
// Cameras finish a burst within a few seconds; frames further apart that
// happen to share exposure offsets are not a bracket.
func MaxSpan(limit time.Duration) WindowPredicate {
	return func(members []Record) bool {
		if len(members) < 2 {
			return true
		}
		span := members[len(members)-1].Timestamp.Sub(members[0].Timestamp)
		return span <= limit
	}
}

// findAtTail tests kind against the window tail for each size, largest
// first, and returns the first hit.
func findAtTail(w *Window, kind Kind, opts *Options) (*Match, bool) {
	for _, size := range opts.Sizes {
		entries, ok := w.tail(size)
		if !ok {
			continue
		}
		if opts.Accept != nil && !opts.Accept(entries) {
			continue
		}
		if !matches(kind, entries, opts.Tolerance) {
			continue
		}
		members := make([]Record, size)
		copy(members, entries)
		return &Match{Kind: kind, Size: size, Members: members}, true
	}
	return nil, false
}

// matches dispatches to the detector for kind. entries has odd length >= 3.
func matches(kind Kind, entries []Record, tol Tolerance) bool {
	switch kind {
	case KindSequential:
		return isSequential(entries, tol)
	case KindPeriodic:
		return isPeriodic(entries, tol)
	case KindOscillating:
		return isOscillating(entries, tol)
	default:
		return false
	}
}

// isSequential accepts a ladder such as -1.4, -0.7, 0, 0.7, 1.4: each
// front/rear pair mirrors around zero and brackets the middle frame.
func isSequential(entries []Record, tol Tolerance) bool {
	size := len(entries)
	middle := (size - 1) / 2
	mid := entries[middle].ExposureValue
	for i := 0; i < middle; i++ {
		front := entries[i].ExposureValue
		rear := entries[size-1-i].ExposureValue
		if front >= rear {
			return false
		}
		if !tol.Equal(front, -rear) {
			return false
		}
		if !(front < mid && mid < rear) {
			return false
		}
	}
	return !hasFlatStep(entries, tol)
}

// isPeriodic accepts 0, -0.7, 0.7, -1.4, 1.4: a base frame followed by
// low/high pairs that are symmetric around it. Rungs may repeat, but no two
// neighbouring frames may share an exposure value.
func isPeriodic(entries []Record, tol Tolerance) bool {
	size := len(entries)
	base := entries[0].ExposureValue
	for i := 1; i+1 < size; i += 2 {
		lo := entries[i].ExposureValue
		hi := entries[i+1].ExposureValue
		if lo >= hi {
			return false
		}
		if !tol.Equal(lo, -hi) {
			return false
		}
		if !tol.Equal(base-lo, hi-base) {
			return false
		}
	}
	return !hasFlatStep(entries, tol)
}

// hasFlatStep reports whether two neighbouring frames share an exposure value.
func hasFlatStep(entries []Record, tol Tolerance) bool {
	for i := 1; i < len(entries); i++ {
		if tol.Equal(entries[i-1].ExposureValue, entries[i].ExposureValue) {
			return true
		}
	}
	return false
}

// isOscillating measures the step between the first two frames and accepts
// the burst if it is either origin, -d, +d, -2d, +2d, ... or a strictly
// increasing ladder at step d centred on the middle frame.
func isOscillating(entries []Record, tol Tolerance) bool {
	size := len(entries)
	delta := math.Abs(entries[0].ExposureValue - entries[1].ExposureValue)
	if tol.Equal(delta, 0) {
		return false
	}
	return fitsAlternating(entries, delta, tol) || fitsLadder(entries, delta, tol, (size-1)/2)
}

func fitsAlternating(entries []Record, delta float64, tol Tolerance) bool {
	origin := entries[0].ExposureValue
	for i := 1; i < len(entries); i++ {
		step := float64((i + 1) / 2)
		want := origin - delta*step
		if i%2 == 0 {
			want = origin + delta*step
		}
		if !tol.Equal(entries[i].ExposureValue, want) {
			return false
		}
	}
	return true
}

func fitsLadder(entries []Record, delta float64, tol Tolerance, middle int) bool {
	start := entries[middle].ExposureValue - delta*float64(middle)
	for i, e := range entries {
		if !tol.Equal(e.ExposureValue, start+delta*float64(i)) {
			return false
		}
	}
	return true
}
