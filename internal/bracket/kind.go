package bracket

import (
	"fmt"
	"strings"
)

// Kind identifies which exposure pattern a bracket follows.
type Kind uint8

const (
	// KindUnknown is the zero value and never matches.
	KindUnknown Kind = iota
	// KindSequential is a monotonic ladder centred on the middle frame,
	// e.g. -1.4, -0.7, 0, +0.7, +1.4.
	KindSequential
	// KindPeriodic alternates symmetric low/high pairs after a base frame,
	// e.g. 0, -0.7, +0.7, -1.4, +1.4.
	KindPeriodic
	// KindOscillating is the older delta-based detector: the spacing between
	// the first two frames fixes a constant step, and the burst must follow
	// either the periodic or the ladder ordering at exactly that step.
	KindOscillating
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindSequential:  "sequential",
	KindPeriodic:    "periodic",
	KindOscillating: "oscillating",
}

// Kinds lists every detectable kind in the order a classifier tries them.
func Kinds() []Kind {
	return []Kind{KindSequential, KindPeriodic, KindOscillating}
}

// DefaultKinds lists the kinds enabled when no explicit selection is made.
func DefaultKinds() []Kind {
	return []Kind{KindSequential, KindPeriodic}
}

// Valid reports whether k names a detectable pattern.
func (k Kind) Valid() bool {
	return k > KindUnknown && int(k) < len(kindNames)
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves an external pattern name such as "periodic".
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if kindNames[k] == normalized {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown bracket pattern %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("marshal bracket kind: invalid value %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
