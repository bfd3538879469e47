package bracket

import (
	"fmt"
	"iter"
)

// Classifier finds bracket groups in a single ordered pass over records.
type Classifier struct {
	opts   Options
	window *Window
	claims *ClaimIndex
	pushed int
}

// New validates opts and returns a classifier ready for one scan.
func New(opts Options) (*Classifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.clone()
	return &Classifier{
		opts:   opts,
		window: NewWindow(opts.MaxSize()),
		claims: NewClaimIndex(),
	}, nil
}

// Push records r and runs every enabled detector against the new tail. The
// returned matches have already been offered to the claim index.
func (c *Classifier) Push(r Record) []*Match {
	c.window.Push(r)
	c.pushed++

	var found []*Match
	for _, kind := range c.opts.Kinds {
		m, ok := findAtTail(c.window, kind, &c.opts)
		if !ok {
			continue
		}
		c.claims.Claim(m)
		found = append(found, m)
	}
	return found
}

// Len returns how many records have been pushed.
func (c *Classifier) Len() int { return c.pushed }

// Window returns a copy of the current history, most recent last.
func (c *Classifier) Window() []Record { return c.window.Entries() }

// Claims exposes the claim index for inspection.
func (c *Classifier) Claims() *ClaimIndex { return c.claims }

// Groups yields each distinct resolved group once. It reflects the claims at
// the time iteration starts and can be abandoned early.
func (c *Classifier) Groups() iter.Seq[Group] {
	return func(yield func(Group) bool) {
		for _, m := range c.claims.Matches() {
			if !yield(m.Group()) {
				return
			}
		}
	}
}

// Classify runs a fresh classifier over records and collects the groups.
func Classify(opts Options, records iter.Seq[Record]) ([]Group, error) {
	c, err := New(opts)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	for r := range records {
		c.Push(r)
	}
	var groups []Group
	for g := range c.Groups() {
		groups = append(groups, g)
	}
	return groups, nil
}
