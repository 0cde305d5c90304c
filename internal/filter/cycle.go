// Package filter selects archived cycles for history listings.
package filter

import (
	"path/filepath"
	"slices"

	"github.com/dyluth/quartet/pkg/lesson"
)

// Criteria defines filtering criteria for cycles.
// All filters are ANDed together - a cycle must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	ContextGlob      string            // Glob pattern for the context name, empty = no filter
	Complexity       lesson.Complexity // Exact complexity, empty = no filter
	Tag              string            // Hashtag present on any stage, empty = no filter
	Regenerated      lesson.Role       // Role whose stage was regenerated, used when HasRegenerated
	HasRegenerated   bool
	FallbackOnly     bool // only cycles with at least one fallback stage
}

// Matches returns true if the cycle matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(cycle *lesson.Cycle) bool {
	if c.SinceTimestampMs > 0 && cycle.Timestamp < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && cycle.Timestamp > c.UntilTimestampMs {
		return false
	}

	if c.ContextGlob != "" {
		matched, err := filepath.Match(c.ContextGlob, cycle.ContextName())
		if err != nil || !matched {
			return false
		}
	}

	if c.Complexity != "" && cycle.Complexity != c.Complexity {
		return false
	}

	if c.Tag != "" && !slices.Contains(cycle.AllHashtags(), c.Tag) {
		return false
	}

	if c.HasRegenerated && !slices.Contains(cycle.Metadata.Regenerated, c.Regenerated.Key()) {
		return false
	}

	if c.FallbackOnly && !hasFallback(cycle) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.ContextGlob != "" ||
		c.Complexity != "" ||
		c.Tag != "" ||
		c.HasRegenerated ||
		c.FallbackOnly
}

func hasFallback(cycle *lesson.Cycle) bool {
	if cycle.Metadata.Fallback {
		return true
	}
	for _, s := range cycle.Stages {
		if s != nil && s.IsFallback() {
			return true
		}
	}
	return false
}
