package generator

import (
	"fmt"
	"sync"

	"github.com/dyluth/quartet/internal/enricher"
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/pkg/lesson"
)

// GeneratedBy is stamped into every cycle's metadata.
const GeneratedBy = "quartet"

// Oblique strategy draw probabilities.
const (
	DefaultObliqueProbability           = 0.3
	DefaultRegenerateObliqueProbability = 0.4
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// StageSource produces one stage per request.
type StageSource interface {
	Generate(req Request) (*lesson.Stage, error)
}

// Domains draws a context and optional scenario.
type Domains interface {
	SelectContext() lesson.Selection
}

// Complexities draws a complexity level.
type Complexities interface {
	Select() lesson.Complexity
}

// Strategies draws an oblique strategy.
type Strategies interface {
	Select() *lesson.ObliqueStrategy
}

// Enricher attaches technologies to a domain.
type Enricher interface {
	Enrich(domainName string, hints enricher.Hints) lesson.Enrichment
}

// Options tunes cycle generation.
type Options struct {
	ObliqueProbability           float64
	RegenerateObliqueProbability float64
	Enrichment                   enricher.Hints
}

// DefaultOptions returns the standard draw probabilities.
func DefaultOptions() Options {
	return Options{
		ObliqueProbability:           DefaultObliqueProbability,
		RegenerateObliqueProbability: DefaultRegenerateObliqueProbability,
	}
}

// CycleDeps wires a CycleGenerator.
type CycleDeps struct {
	Stages     StageSource
	Domains    Domains
	Complexity Complexities
	Strategies Strategies
	Enricher   Enricher
	Random     randx.Source
	Clock      Clock
	Logger     *logger.Logger
}

// CycleGenerator produces full four-stage cycles.
type CycleGenerator struct {
	deps CycleDeps
	opts Options
	log  *logger.Logger

	mu      sync.Mutex
	lastTS  int64
	counter int
}

// NewCycleGenerator returns a CycleGenerator. Random and Clock default to a
// time-seeded source and the system clock.
func NewCycleGenerator(deps CycleDeps, opts Options) *CycleGenerator {
	if deps.Random == nil {
		deps.Random = randx.New(0)
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	return &CycleGenerator{deps: deps, opts: opts, log: logger.OrNop(deps.Logger)}
}

// Generate draws a selection, complexity and optional strategy, then builds
// a stage for every role. A failing role is replaced by its fallback stage.
// An error is only returned when the cycle as a whole could not be built.
func (g *CycleGenerator) Generate() (cycle *lesson.Cycle, err error) {
	defer func() {
		if r := recover(); r != nil {
			cycle, err = nil, &GenerationError{Op: "generate cycle", Err: panicError(r)}
		}
	}()

	sel := g.deps.Domains.SelectContext()
	complexity := g.deps.Complexity.Select()
	strategy := g.maybeStrategy(g.opts.ObliqueProbability)
	return g.GenerateWith(sel, complexity, strategy)
}

// GenerateWith builds a cycle over fixed draws.
func (g *CycleGenerator) GenerateWith(sel lesson.Selection, complexity lesson.Complexity, strategy *lesson.ObliqueStrategy) (cycle *lesson.Cycle, err error) {
	defer func() {
		if r := recover(); r != nil {
			cycle, err = nil, &GenerationError{Op: "generate cycle", Err: panicError(r)}
		}
	}()

	if sel.Context == nil {
		sel.Context = &lesson.Context{Name: "general"}
	}
	ts := g.nextTimestamp()
	enrichment := g.deps.Enricher.Enrich(sel.Name(), g.opts.Enrichment)

	roles := lesson.Roles()
	stages := make([]*lesson.Stage, 0, len(roles))
	for _, role := range roles {
		req := Request{
			Role:       role,
			Selection:  sel,
			Complexity: complexity,
			Strategy:   strategy,
			Enrichment: &enrichment,
		}
		stage, err := g.stage(req)
		if err != nil {
			g.log.Warn("stage generation failed, using fallback", "role", role.Key(), "error", err)
			stage = FallbackStage(role, sel, complexity, &enrichment, err, ts)
		}
		stages = append(stages, stage)
	}

	cycle = &lesson.Cycle{
		ID:              g.nextID(ts),
		Timestamp:       ts,
		Context:         sel.Context,
		Scenario:        sel.Scenario,
		Complexity:      complexity,
		ObliqueStrategy: strategy,
		Stages:          stages,
		Metadata: lesson.CycleMetadata{
			GeneratedBy: GeneratedBy,
			Enrichment:  &enrichment,
		},
		Audit: audit(sel, complexity, strategy, stages),
	}
	if err := cycle.Validate(); err != nil {
		return nil, &GenerationError{Op: "generate cycle", Err: err}
	}

	g.log.Info("cycle generated",
		"id", cycle.ID,
		"context", sel.Name(),
		"complexity", string(complexity),
		"strategy", strategy != nil,
		"technologies", enrichment.TechnologyNames())
	return cycle, nil
}

// Regenerate builds a single stage over a fresh selection, complexity and
// enrichment. Unlike Generate, a failure is returned rather than replaced.
func (g *CycleGenerator) Regenerate(role lesson.Role) (stage *lesson.Stage, err error) {
	defer func() {
		if r := recover(); r != nil {
			stage, err = nil, &GenerationError{Op: "regenerate stage", Role: role.DisplayName(), Err: panicError(r)}
		}
	}()
	if !role.Valid() {
		return nil, &GenerationError{Op: "regenerate stage", Err: fmt.Errorf("%w: %d", lesson.ErrUnknownRole, int(role))}
	}

	sel := g.deps.Domains.SelectContext()
	complexity := g.deps.Complexity.Select()
	strategy := g.maybeStrategy(g.opts.RegenerateObliqueProbability)
	enrichment := g.deps.Enricher.Enrich(sel.Name(), g.opts.Enrichment)

	stage, err = g.stage(Request{
		Role:       role,
		Selection:  sel,
		Complexity: complexity,
		Strategy:   strategy,
		Enrichment: &enrichment,
	})
	if err != nil {
		return nil, err
	}
	g.log.Info("stage regenerated", "role", role.Key(), "context", sel.Name(), "complexity", string(complexity))
	return stage, nil
}

// stage runs the stage source, turning a panic, a nil stage or an invalid
// stage into a *GenerationError.
func (g *CycleGenerator) stage(req Request) (stage *lesson.Stage, err error) {
	defer func() {
		if r := recover(); r != nil {
			stage, err = nil, &GenerationError{Op: "generate stage", Role: req.Role.DisplayName(), Err: panicError(r)}
		}
	}()

	stage, err = g.deps.Stages.Generate(req)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, &GenerationError{Op: "generate stage", Role: req.Role.DisplayName(), Err: ErrMalformedStage}
	}
	if verr := stage.Validate(); verr != nil {
		return nil, &GenerationError{Op: "generate stage", Role: req.Role.DisplayName(), Err: fmt.Errorf("%w: %v", ErrMalformedStage, verr)}
	}
	if r, _ := stage.Role(); r != req.Role {
		return nil, &GenerationError{Op: "generate stage", Role: req.Role.DisplayName(), Err: fmt.Errorf("%w: got stage '%s'", ErrMalformedStage, stage.Stage)}
	}
	return stage, nil
}

func (g *CycleGenerator) maybeStrategy(p float64) *lesson.ObliqueStrategy {
	if g.deps.Strategies == nil || p <= 0 {
		return nil
	}
	if g.deps.Random.Float64() < p {
		return g.deps.Strategies.Select()
	}
	return nil
}

// nextTimestamp returns the clock in milliseconds, bumped past the previous
// value so timestamps from one generator strictly increase.
func (g *CycleGenerator) nextTimestamp() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.deps.Clock.Now().UnixMilli()
	if now <= g.lastTS {
		now = g.lastTS + 1
	}
	g.lastTS = now
	return now
}

// nextID formats cycle-<ts>-<counter>-<suffix>. The counter makes ids unique
// within a generator; the random suffix separates generators.
func (g *CycleGenerator) nextID(ts int64) string {
	g.mu.Lock()
	g.counter++
	n := g.counter
	g.mu.Unlock()

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = idAlphabet[g.deps.Random.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("cycle-%d-%d-%s", ts, n, suffix)
}

func audit(sel lesson.Selection, complexity lesson.Complexity, strategy *lesson.ObliqueStrategy, stages []*lesson.Stage) *lesson.CycleAudit {
	a := &lesson.CycleAudit{
		Context:    sel.Name(),
		Complexity: complexity,
		Roles:      make([]string, 0, len(stages)),
		Stages:     make([]lesson.StageSummary, 0, len(stages)),
	}
	if sel.Scenario != nil {
		a.Scenario = sel.Scenario.Name
	}
	if strategy != nil {
		a.StrategyID = strategy.ID
	}
	for _, r := range lesson.Roles() {
		a.Roles = append(a.Roles, r.Key())
	}
	for _, s := range stages {
		a.Stages = append(a.Stages, lesson.SummarizeStage(s))
	}
	return a
}
