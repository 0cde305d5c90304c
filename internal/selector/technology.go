package selector

import (
	"sort"
	"strings"

	"github.com/dyluth/quartet/pkg/lesson"
)

// DefaultTechnologyLimit is used when Options.Limit is not positive.
const DefaultTechnologyLimit = 3

// serverSideDomain earns a bonus for operational quality attributes.
const serverSideDomain = "server-side-development"

var operationalBoost = []string{"performance", "observability", "reliability"}

// Catalogue lists the candidate technologies.
type Catalogue interface {
	All() []*lesson.Technology
}

// Options tunes a technology selection.
type Options struct {
	Limit        int
	RequiredTags []string
}

// TechnologySelector ranks technologies by overlap with a domain.
type TechnologySelector struct {
	catalogue Catalogue
}

// NewTechnologySelector returns a selector over catalogue.
func NewTechnologySelector(catalogue Catalogue) *TechnologySelector {
	return &TechnologySelector{catalogue: catalogue}
}

type scored struct {
	tech  *lesson.Technology
	score int
}

// SelectForDomain scores every technology against the domain's name and
// characteristics: 2 points per shared term, plus 1 per operational quality
// attribute for server-side development. Candidates missing a required tag
// are excluded. The result is ordered by score, ties keeping catalogue
// order, and truncated to the limit. A nil domain yields an empty result.
func (s *TechnologySelector) SelectForDomain(domain *lesson.Context, opts Options) []lesson.Technology {
	if domain == nil || s.catalogue == nil {
		return []lesson.Technology{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultTechnologyLimit
	}

	signals := lowerSet(append([]string{domain.Name}, domain.Characteristics...))
	required := make([]string, 0, len(opts.RequiredTags))
	for _, r := range opts.RequiredTags {
		required = append(required, strings.ToLower(strings.TrimSpace(r)))
	}

	var candidates []scored
	for _, t := range s.catalogue.All() {
		terms := lowerSet(t.Tags)
		for k := range lowerSet(t.QualityAttributes) {
			terms[k] = struct{}{}
		}
		terms[strings.ToLower(t.Category)] = struct{}{}

		if !hasAll(terms, required) {
			continue
		}

		score := 0
		for sig := range signals {
			if _, ok := terms[sig]; ok {
				score += 2
			}
		}
		if _, ok := signals[serverSideDomain]; ok {
			for _, b := range operationalBoost {
				if _, ok := terms[b]; ok {
					score++
				}
			}
		}
		candidates = append(candidates, scored{tech: t, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]lesson.Technology, len(candidates))
	for i, c := range candidates {
		out[i] = *c.tech
	}
	return out
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

func hasAll(set map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
