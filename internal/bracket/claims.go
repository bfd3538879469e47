package bracket

import (
	"slices"
	"strings"
)

// ClaimIndex maps each image identifier to the largest match that has
// claimed it so far. Claims only ever grow: a match replaces an existing
// claim only when it is strictly larger, and each identifier is resolved on
// its own, so members of an older, smaller match that the new match does not
// cover keep pointing at the older one.
type ClaimIndex struct {
	claims map[string]*Match
	// order holds every match that won at least one claim, in the order it
	// first did so. It keeps emission deterministic.
	order []*Match
	known map[*Match]struct{}
}

// NewClaimIndex returns an empty index.
func NewClaimIndex() *ClaimIndex {
	return &ClaimIndex{
		claims: make(map[string]*Match),
		known:  make(map[*Match]struct{}),
	}
}

// Claim offers m to every one of its members and returns how many members
// now resolve to it.
func (c *ClaimIndex) Claim(m *Match) int {
	if m == nil {
		return 0
	}
	won := 0
	for _, member := range m.Members {
		if current, ok := c.claims[member.ID]; ok && current.Size >= m.Size {
			continue
		}
		c.claims[member.ID] = m
		won++
	}
	if won > 0 {
		if _, ok := c.known[m]; !ok {
			c.known[m] = struct{}{}
			c.order = append(c.order, m)
		}
	}
	return won
}

// Lookup returns the match currently claiming id.
func (c *ClaimIndex) Lookup(id string) (*Match, bool) {
	m, ok := c.claims[id]
	return m, ok
}

// Len returns the number of claimed identifiers.
func (c *ClaimIndex) Len() int { return len(c.claims) }

// Matches returns the distinct matches still claiming at least one
// identifier. Matches covering the same set of identifiers collapse to the
// first one claimed.
func (c *ClaimIndex) Matches() []*Match {
	live := make(map[*Match]struct{}, len(c.order))
	for _, m := range c.claims {
		live[m] = struct{}{}
	}
	seen := make(map[string]struct{}, len(live))
	out := make([]*Match, 0, len(live))
	for _, m := range c.order {
		if _, ok := live[m]; !ok {
			continue
		}
		key := memberKey(m.Members)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

// memberKey identifies a member set independent of order.
func memberKey(members []Record) string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	slices.Sort(ids)
	return strings.Join(ids, "\x00")
}
