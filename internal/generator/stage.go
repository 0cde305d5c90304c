// Package generator turns content draws into stages and cycles.
package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/quartet/internal/hashtag"
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/template"
	"github.com/dyluth/quartet/pkg/lesson"
)

// Concepts draws the concepts a stage is built around.
type Concepts interface {
	SelectRelevant(role lesson.Role, complexity lesson.Complexity, count int) []*lesson.Concept
}

// Templates supplies lesson formats and role instructions.
type Templates interface {
	template.Templates
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// StageFallbackTags replace a tag list that came back empty.
func StageFallbackTags() []string {
	return []string{"#software-architecture", "#learning", "#fallback"}
}

// Request is one stage generation.
type Request struct {
	Role       lesson.Role
	Selection  lesson.Selection
	Complexity lesson.Complexity
	Strategy   *lesson.ObliqueStrategy
	Enrichment *lesson.Enrichment
}

// StageOptions tunes stage generation.
type StageOptions struct {
	// ConceptCount fixes the number of concepts drawn; 0 draws a random
	// count from the repository's range.
	ConceptCount int
	// RoleTags appends each role's perspective tags.
	RoleTags bool
}

// StageGenerator renders a single role's stage.
type StageGenerator struct {
	concepts  Concepts
	templates Templates
	engine    *template.Engine
	tags      *hashtag.Generator
	clock     Clock
	opts      StageOptions
	log       *logger.Logger
}

// NewStageGenerator returns a StageGenerator. A nil clock uses SystemClock.
func NewStageGenerator(concepts Concepts, templates Templates, clock Clock, opts StageOptions, log *logger.Logger) *StageGenerator {
	log = logger.OrNop(log)
	if clock == nil {
		clock = SystemClock{}
	}
	return &StageGenerator{
		concepts:  concepts,
		templates: templates,
		engine:    template.NewEngine(templates),
		tags:      hashtag.New(log),
		clock:     clock,
		opts:      opts,
		log:       log,
	}
}

// Generate selects concepts and a lesson format for the request, renders the
// prompt and computes the tags. Failures are returned as *GenerationError.
func (g *StageGenerator) Generate(req Request) (*lesson.Stage, error) {
	fail := func(err error) (*lesson.Stage, error) {
		return nil, &GenerationError{Op: "generate stage", Role: req.Role.DisplayName(), Err: err}
	}
	if !req.Role.Valid() {
		return fail(fmt.Errorf("%w: %d", lesson.ErrUnknownRole, int(req.Role)))
	}
	if !req.Complexity.Valid() {
		return fail(fmt.Errorf("%w: %q", lesson.ErrUnknownComplexity, req.Complexity))
	}

	concepts := g.concepts.SelectRelevant(req.Role, req.Complexity, g.opts.ConceptCount)
	tmpl := g.templates.Select(concepts, req.Complexity)
	if tmpl == nil {
		return fail(errors.New("no lesson template available"))
	}

	prompt := g.engine.BuildPrompt(template.Input{
		Role:        req.Role,
		Selection:   req.Selection,
		Concepts:    concepts,
		Complexity:  req.Complexity,
		Template:    tmpl,
		Instruction: g.templates.RoleInstruction(req.Role),
		Strategy:    req.Strategy,
		Enrichment:  req.Enrichment,
	})

	var tags []string
	if g.opts.RoleTags {
		tags = g.tags.ForRole(concepts, req.Selection, req.Role)
	} else {
		tags = g.tags.Generate(concepts, req.Selection)
	}
	if len(tags) == 0 {
		g.log.Warn("stage produced no hashtags, using fallback tags", "role", req.Role.Key())
		tags = StageFallbackTags()
	}

	stage := &lesson.Stage{
		Stage:            req.Role.DisplayName(),
		Prompt:           prompt,
		Hashtags:         tags,
		Context:          req.Selection.Name(),
		Complexity:       req.Complexity,
		LessonType:       tmpl.Description,
		ConceptsUsed:     conceptNames(concepts),
		TechnologiesUsed: req.Enrichment.TechnologyNames(),
		Enrichment:       req.Enrichment,
		Audit: &lesson.StageAudit{
			TemplateKey: tmpl.Key,
			Fingerprint: lesson.Fingerprint(prompt),
		},
		Timestamp: g.clock.Now().UnixMilli(),
	}
	if stage.LessonType == "" {
		stage.LessonType = "Generated lesson"
	}
	if req.Selection.Scenario != nil {
		stage.Audit.Scenario = req.Selection.Scenario.Name
	}
	if req.Strategy != nil {
		stage.Audit.StrategyID = req.Strategy.ID
	}

	if err := stage.Validate(); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrMalformedStage, err))
	}
	g.log.Debug("stage generated",
		"role", req.Role.Key(),
		"template", tmpl.Key,
		"concepts", stage.ConceptsUsed,
		"hashtags", len(stage.Hashtags),
		"words", stage.WordCount())
	return stage, nil
}

func conceptNames(concepts []*lesson.Concept) []string {
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c != nil && c.Name != "" {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return []string{"architecture"}
	}
	return names
}

// FallbackStage builds the stand-in for a role whose generation failed. It
// carries the cycle's shared context, complexity and enrichment.
func FallbackStage(role lesson.Role, sel lesson.Selection, complexity lesson.Complexity, enrichment *lesson.Enrichment, cause error, timestamp int64) *lesson.Stage {
	if !complexity.Valid() {
		complexity = lesson.ComplexityIntermediate
	}
	prompt := "Fallback prompt due to generation error"
	audit := &lesson.StageAudit{
		TemplateKey: "fallback",
		Fingerprint: lesson.Fingerprint(prompt),
		Fallback:    true,
	}
	if cause != nil {
		audit.Error = cause.Error()
	}
	return &lesson.Stage{
		Stage:            role.DisplayName(),
		Prompt:           prompt,
		Hashtags:         []string{"#software-architecture", "#learning"},
		Context:          sel.Name(),
		Complexity:       complexity,
		LessonType:       "Fallback lesson",
		ConceptsUsed:     []string{"architecture"},
		TechnologiesUsed: enrichment.TechnologyNames(),
		Enrichment:       enrichment,
		Audit:            audit,
		Timestamp:        timestamp,
	}
}
