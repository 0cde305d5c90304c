// Package enricher joins a domain with the technologies that ground it.
package enricher

import (
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/selector"
	"github.com/dyluth/quartet/pkg/lesson"
)

// Tag caps for an enrichment.
const (
	domainTagLimit     = 4
	technologyTagLimit = 2
	maxTags            = 8
)

// Domains resolves a domain by name.
type Domains interface {
	Get(name string) (*lesson.Context, bool)
}

// TechnologySelector ranks technologies for a domain.
type TechnologySelector interface {
	SelectForDomain(domain *lesson.Context, opts selector.Options) []lesson.Technology
}

// Hints tunes an enrichment.
type Hints struct {
	Limit            int
	RequiredTechTags []string
}

// Enricher builds enrichments.
type Enricher struct {
	domains  Domains
	selector TechnologySelector
	log      *logger.Logger
}

// New returns an Enricher.
func New(domains Domains, sel TechnologySelector, log *logger.Logger) *Enricher {
	return &Enricher{domains: domains, selector: sel, log: logger.OrNop(log)}
}

// Enrich looks the domain up and selects technologies for it. An unknown
// domain yields an empty enrichment with a nil Domain.
func (e *Enricher) Enrich(domainName string, hints Hints) lesson.Enrichment {
	ctx, ok := e.domains.Get(domainName)
	if !ok || ctx == nil {
		e.log.Debug("no domain to enrich", "domain", domainName)
		return lesson.Enrichment{Technologies: []lesson.Technology{}, Hashtags: []string{}}
	}

	limit := hints.Limit
	if limit <= 0 {
		limit = selector.DefaultTechnologyLimit
	}
	techs := e.selector.SelectForDomain(ctx, selector.Options{Limit: limit, RequiredTags: hints.RequiredTechTags})
	if techs == nil {
		techs = []lesson.Technology{}
	}

	tags := ctx.Tags(domainTagLimit)
	for i := range techs {
		tags = append(tags, techs[i].Hashtags(technologyTagLimit)...)
	}

	enrichment := lesson.Enrichment{
		Domain:       lesson.SummarizeContext(ctx),
		Technologies: techs,
		Hashtags:     lesson.UniqueTags(tags, maxTags),
	}
	e.log.Debug("enriched domain", "domain", domainName, "technologies", enrichment.TechnologyNames())
	return enrichment
}
