// Package engine is the entry point for producing cycles. It wires the
// content repositories, selectors and generators together and guarantees
// that GenerateCycle always returns a usable cycle.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dyluth/quartet/internal/config"
	"github.com/dyluth/quartet/internal/content"
	"github.com/dyluth/quartet/internal/enricher"
	"github.com/dyluth/quartet/internal/generator"
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/internal/selector"
	"github.com/dyluth/quartet/pkg/lesson"
)

// Concepts is the concept repository as the engine sees it.
type Concepts interface {
	generator.Concepts
	Stats() content.Stats
}

// Templates is the lesson format repository as the engine sees it.
type Templates interface {
	generator.Templates
	Stats() content.Stats
}

// Domains is the domain repository as the engine sees it.
type Domains interface {
	generator.Domains
	enricher.Domains
	SetWeights(partial map[string]int)
	Weights() map[string]int
	Names() []string
	ScenarioCount() int
	Stats() content.Stats
}

// Strategies is the oblique strategy repository as the engine sees it.
type Strategies interface {
	generator.Strategies
	Stats() content.Stats
}

// Technologies is the technology catalogue as the engine sees it.
type Technologies interface {
	selector.Catalogue
	Stats() content.Stats
}

// Options tunes generation.
type Options struct {
	Cycle generator.Options
	Stage generator.StageOptions
}

// DefaultOptions returns the standard generation options.
func DefaultOptions() Options {
	return Options{Cycle: generator.DefaultOptions()}
}

// Deps are the collaborators an Engine is built from. Random, Clock and
// Logger are optional.
type Deps struct {
	Concepts     Concepts
	Templates    Templates
	Domains      Domains
	Strategies   Strategies
	Technologies Technologies
	Random       randx.Source
	Clock        generator.Clock
	Logger       *logger.Logger
	Options      Options
}

// Stats counts the loaded content.
type Stats struct {
	Concepts     int `json:"concepts"`
	Templates    int `json:"templates"`
	Domains      int `json:"domains"`
	Scenarios    int `json:"scenarios"`
	Strategies   int `json:"strategies"`
	Technologies int `json:"technologies"`

	// Fallback lists the tables running on their built-in seed set.
	Fallback []string `json:"fallback,omitempty"`
}

// DomainFrequency is one row of a domain sampling run.
type DomainFrequency struct {
	Domain  string  `json:"domain"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Weight  int     `json:"weight"`
}

// Engine produces cycles and single stage regenerations.
type Engine struct {
	deps   Deps
	cycles *generator.CycleGenerator
	clock  generator.Clock
	log    *logger.Logger
}

// New wires an Engine from its dependencies.
func New(deps Deps) (*Engine, error) {
	switch {
	case deps.Concepts == nil:
		return nil, errors.New("engine: concepts repository is required")
	case deps.Templates == nil:
		return nil, errors.New("engine: templates repository is required")
	case deps.Domains == nil:
		return nil, errors.New("engine: domains repository is required")
	case deps.Strategies == nil:
		return nil, errors.New("engine: strategies repository is required")
	case deps.Technologies == nil:
		return nil, errors.New("engine: technologies repository is required")
	}
	if deps.Random == nil {
		deps.Random = randx.NewLocked(randx.New(0))
	}
	if deps.Clock == nil {
		deps.Clock = generator.SystemClock{}
	}
	log := logger.OrNop(deps.Logger)

	stages := generator.NewStageGenerator(deps.Concepts, deps.Templates, deps.Clock, deps.Options.Stage, log)
	cycles := generator.NewCycleGenerator(generator.CycleDeps{
		Stages:     stages,
		Domains:    deps.Domains,
		Complexity: selector.NewComplexitySelector(deps.Random),
		Strategies: deps.Strategies,
		Enricher:   enricher.New(deps.Domains, selector.NewTechnologySelector(deps.Technologies), log),
		Random:     deps.Random,
		Clock:      deps.Clock,
		Logger:     log,
	}, deps.Options.Cycle)

	return &Engine{deps: deps, cycles: cycles, clock: deps.Clock, log: log}, nil
}

// NewDefault is the composition root: it loads content as configured and
// builds an Engine over the concrete repositories.
// cfg is validated first, which fills defaults for unset sections.
func NewDefault(cfg *config.QuartetConfig, log *logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log = logger.OrNop(log)
	rnd := randx.NewLocked(randx.New(cfg.Seed))

	set, err := content.Load(cfg.Content.Dir, rnd, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	set.Domains.SetWeights(cfg.Weights)
	if err := set.Domains.SetScenarioProbability(*cfg.Probabilities.Scenario); err != nil {
		return nil, err
	}
	if err := set.Concepts.SetCountRange(cfg.Concepts.Min, cfg.Concepts.Max); err != nil {
		return nil, err
	}

	return New(Deps{
		Concepts:     set.Concepts,
		Templates:    set.Templates,
		Domains:      set.Domains,
		Strategies:   set.Strategies,
		Technologies: set.Technologies,
		Random:       rnd,
		Logger:       log,
		Options: Options{
			Cycle: generator.Options{
				ObliqueProbability:           *cfg.Probabilities.Oblique,
				RegenerateObliqueProbability: *cfg.Probabilities.RegenerateOblique,
				Enrichment: enricher.Hints{
					Limit:            cfg.Enrichment.Limit,
					RequiredTechTags: cfg.Enrichment.RequiredTechTags,
				},
			},
			Stage: generator.StageOptions{RoleTags: cfg.Tags.RoleTags},
		},
	})
}

// GenerateCycle never fails: a generator error is logged and replaced by
// the fallback cycle.
func (e *Engine) GenerateCycle() *lesson.Cycle {
	cycle, err := e.cycles.Generate()
	if err != nil {
		e.log.Error("cycle generation failed, using fallback cycle", "error", err)
		return FallbackCycle(e.clock.Now().UnixMilli(), err)
	}
	return cycle
}

// RegenerateStage produces a fresh stage for the named role. The role may
// be given as a key ("expertEngineer") or display name ("Expert Engineer").
func (e *Engine) RegenerateStage(role string) (*lesson.Stage, error) {
	r, err := lesson.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return e.cycles.Regenerate(r)
}

// SetDomainWeights merges partial into the current weights.
func (e *Engine) SetDomainWeights(partial map[string]int) {
	e.deps.Domains.SetWeights(partial)
	e.log.Debug("domain weights updated", "domains", len(partial))
}

// DomainWeights returns the effective weight of every known domain.
func (e *Engine) DomainWeights() map[string]int {
	return e.deps.Domains.Weights()
}

// Stats counts what each repository has loaded.
func (e *Engine) Stats() Stats {
	s := Stats{
		Concepts:     e.deps.Concepts.Stats().Total,
		Templates:    e.deps.Templates.Stats().Total,
		Domains:      e.deps.Domains.Stats().Total,
		Scenarios:    e.deps.Domains.ScenarioCount(),
		Strategies:   e.deps.Strategies.Stats().Total,
		Technologies: e.deps.Technologies.Stats().Total,
	}
	for _, t := range []struct {
		name  string
		stats content.Stats
	}{
		{content.ConceptsTable, e.deps.Concepts.Stats()},
		{content.LessonsTable, e.deps.Templates.Stats()},
		{content.DomainsTable, e.deps.Domains.Stats()},
		{content.StrategiesTable, e.deps.Strategies.Stats()},
		{content.TechnologiesTable, e.deps.Technologies.Stats()},
	} {
		if t.stats.Fallback {
			s.Fallback = append(s.Fallback, t.name)
		}
	}
	return s
}

// SampleDomains draws trials contexts and reports how often each domain
// came up, most frequent first. Every known domain is listed.
func (e *Engine) SampleDomains(trials int) []DomainFrequency {
	if trials <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[e.deps.Domains.SelectContext().Name()]++
	}

	weights := e.deps.Domains.Weights()
	names := e.deps.Domains.Names()
	for name := range counts {
		if _, ok := weights[name]; !ok {
			names = append(names, name)
		}
	}

	out := make([]DomainFrequency, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, DomainFrequency{
			Domain:  name,
			Count:   counts[name],
			Percent: 100 * float64(counts[name]) / float64(trials),
			Weight:  weights[name],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Coverage is the fraction of domains drawn at least once in a sample.
func Coverage(sample []DomainFrequency) float64 {
	if len(sample) == 0 {
		return 0
	}
	hit := 0
	for _, f := range sample {
		if f.Count > 0 {
			hit++
		}
	}
	return float64(hit) / float64(len(sample))
}
