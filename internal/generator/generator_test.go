package generator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/quartet/internal/content"
	"github.com/dyluth/quartet/internal/enricher"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/internal/selector"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubStages struct {
	fail  map[lesson.Role]error
	panic map[lesson.Role]bool
	empty map[lesson.Role]bool
	next  StageSource
}

func (s *stubStages) Generate(req Request) (*lesson.Stage, error) {
	if s.panic[req.Role] {
		panic("boom")
	}
	if err := s.fail[req.Role]; err != nil {
		return nil, err
	}
	if s.empty[req.Role] {
		return nil, nil
	}
	return s.next.Generate(req)
}

func newSet(t *testing.T, seed int64) *content.Set {
	t.Helper()
	set, err := content.Load("", randx.New(seed), nil)
	require.NoError(t, err)
	return set
}

func newGenerator(t *testing.T, seed int64, wrap func(StageSource) StageSource) *CycleGenerator {
	t.Helper()
	set := newSet(t, seed)
	clock := fixedClock{t: time.UnixMilli(1700000000000)}
	var stages StageSource = NewStageGenerator(set.Concepts, set.Templates, clock, StageOptions{}, nil)
	if wrap != nil {
		stages = wrap(stages)
	}
	return NewCycleGenerator(CycleDeps{
		Stages:     stages,
		Domains:    set.Domains,
		Complexity: selector.NewComplexitySelector(randx.New(seed + 1)),
		Strategies: set.Strategies,
		Enricher:   enricher.New(set.Domains, selector.NewTechnologySelector(set.Technologies), nil),
		Random:     randx.New(seed + 2),
		Clock:      clock,
	}, DefaultOptions())
}

func TestGenerate_FourStagesInRoleOrder(t *testing.T) {
	gen := newGenerator(t, 42, nil)

	cycle, err := gen.Generate()
	require.NoError(t, err)
	require.NoError(t, cycle.Validate())

	assert.Equal(t, []string{"Expert Engineer", "System Designer", "Leader", "Review & Synthesis"}, cycle.StageNames())
	assert.Equal(t, GeneratedBy, cycle.Metadata.GeneratedBy)
	require.NotNil(t, cycle.Metadata.Enrichment)
	require.NotNil(t, cycle.Audit)
	assert.Equal(t, []string{"expertEngineer", "systemDesigner", "leader", "reviewSynthesis"}, cycle.Audit.Roles)
	assert.Len(t, cycle.Audit.Stages, 4)

	for _, s := range cycle.Stages {
		assert.Equal(t, cycle.ContextName(), s.Context)
		assert.Equal(t, cycle.Complexity, s.Complexity)
		assert.NotEmpty(t, s.ConceptsUsed)
		assert.False(t, s.IsFallback())
		assert.Equal(t, cycle.Metadata.Enrichment.TechnologyNames(), s.TechnologiesUsed)
		for _, tag := range s.Hashtags {
			assert.True(t, lesson.ValidTag(tag), "bad tag %q", tag)
		}
		assert.True(t, strings.HasPrefix(s.Prompt, "# Educational Lesson Generation Prompt"))
		assert.Contains(t, s.Prompt, "from the perspective of a **"+s.Stage+"**")
	}
}

func TestGenerate_IDsUniqueAndTimestampsIncrease(t *testing.T) {
	gen := newGenerator(t, 7, nil)

	seen := make(map[string]bool, 1000)
	var last int64
	for i := 0; i < 1000; i++ {
		cycle, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, seen[cycle.ID], "duplicate id %s", cycle.ID)
		seen[cycle.ID] = true
		assert.Greater(t, cycle.Timestamp, last)
		last = cycle.Timestamp
		assert.Regexp(t, `^cycle-\d+-\d+-[0-9a-z]{6}$`, cycle.ID)
	}
}

func TestGenerate_FailingRoleGetsFallbackStage(t *testing.T) {
	cause := errors.New("template exploded")
	gen := newGenerator(t, 3, func(next StageSource) StageSource {
		return &stubStages{
			next:  next,
			fail:  map[lesson.Role]error{lesson.RoleLeader: cause},
			panic: map[lesson.Role]bool{lesson.RoleSystemDesigner: true},
			empty: map[lesson.Role]bool{lesson.RoleReviewSynthesis: true},
		}
	})

	cycle, err := gen.Generate()
	require.NoError(t, err)
	require.NoError(t, cycle.Validate())

	assert.False(t, cycle.Stage(lesson.RoleExpertEngineer).IsFallback())
	for _, r := range []lesson.Role{lesson.RoleSystemDesigner, lesson.RoleLeader, lesson.RoleReviewSynthesis} {
		s := cycle.Stage(r)
		require.NotNil(t, s)
		assert.True(t, s.IsFallback(), r.Key())
		assert.Equal(t, "Fallback prompt due to generation error", s.Prompt)
		assert.Equal(t, []string{"#software-architecture", "#learning"}, s.Hashtags)
		assert.Equal(t, "Fallback lesson", s.LessonType)
		assert.Equal(t, cycle.ContextName(), s.Context)
		assert.Equal(t, cycle.Complexity, s.Complexity)
	}
	assert.Contains(t, cycle.Stage(lesson.RoleLeader).Audit.Error, "template exploded")
	assert.Contains(t, cycle.Stage(lesson.RoleSystemDesigner).Audit.Error, "panic: boom")
	assert.Contains(t, cycle.Stage(lesson.RoleReviewSynthesis).Audit.Error, ErrMalformedStage.Error())
	assert.True(t, cycle.Audit.Stages[2].Fallback)
}

func TestGenerate_CorruptedContentStillYieldsValidCycles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range content.Tables() {
		writeFile(t, dir, name, "::: not yaml")
	}
	set, err := content.Load(dir, randx.New(5), nil)
	require.NoError(t, err)

	clock := fixedClock{t: time.UnixMilli(1)}
	gen := NewCycleGenerator(CycleDeps{
		Stages:     NewStageGenerator(set.Concepts, set.Templates, clock, StageOptions{}, nil),
		Domains:    set.Domains,
		Complexity: selector.NewComplexitySelector(randx.New(5)),
		Strategies: set.Strategies,
		Enricher:   enricher.New(set.Domains, selector.NewTechnologySelector(set.Technologies), nil),
		Random:     randx.New(5),
		Clock:      clock,
	}, DefaultOptions())

	for i := 0; i < 20; i++ {
		cycle, err := gen.Generate()
		require.NoError(t, err)
		require.NoError(t, cycle.Validate())
	}
}

func TestGenerate_StrategyProbability(t *testing.T) {
	gen := newGenerator(t, 11, nil)
	withStrategy := 0
	for i := 0; i < 1000; i++ {
		cycle, err := gen.Generate()
		require.NoError(t, err)
		if cycle.ObliqueStrategy != nil {
			withStrategy++
			assert.Equal(t, cycle.ObliqueStrategy.ID, cycle.Audit.StrategyID)
		}
	}
	assert.InDelta(t, 300, withStrategy, 80)

	never := newGenerator(t, 11, nil)
	never.opts.ObliqueProbability = 0
	for i := 0; i < 50; i++ {
		cycle, err := never.Generate()
		require.NoError(t, err)
		assert.Nil(t, cycle.ObliqueStrategy)
	}
}

func TestGenerateWith_FixedDraws(t *testing.T) {
	set := newSet(t, 9)
	gen := newGenerator(t, 9, nil)
	ctx, ok := set.Domains.Get("payment-systems")
	require.True(t, ok)
	sel := lesson.Selection{Context: ctx, Scenario: &ctx.Scenarios[0]}
	strategy, ok := set.Strategies.Get(1)
	require.True(t, ok)

	cycle, err := gen.GenerateWith(sel, lesson.ComplexityAdvanced, strategy)
	require.NoError(t, err)
	assert.Equal(t, "payment-systems", cycle.ContextName())
	assert.Equal(t, lesson.ComplexityAdvanced, cycle.Complexity)
	assert.Equal(t, ctx.Scenarios[0].Name, cycle.Audit.Scenario)
	for _, s := range cycle.Stages {
		assert.Contains(t, s.Prompt, "## Creative Approach")
		assert.Contains(t, s.Prompt, "**Specific Scenario**")
		assert.Equal(t, ctx.Scenarios[0].Name, s.Audit.Scenario)
	}
}

func TestGenerateWith_NilContextBecomesGeneral(t *testing.T) {
	gen := newGenerator(t, 2, nil)
	cycle, err := gen.GenerateWith(lesson.Selection{}, lesson.ComplexityBeginner, nil)
	require.NoError(t, err)
	assert.Equal(t, "general", cycle.ContextName())
}

func TestGenerateWith_InvalidComplexityFailsCycle(t *testing.T) {
	gen := newGenerator(t, 2, nil)
	_, err := gen.GenerateWith(lesson.Selection{}, lesson.Complexity("expert"), nil)
	require.Error(t, err)
	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.ErrorIs(t, err, lesson.ErrUnknownComplexity)
}

func TestRegenerate(t *testing.T) {
	gen := newGenerator(t, 21, nil)

	stage, err := gen.Regenerate(lesson.RoleLeader)
	require.NoError(t, err)
	assert.Equal(t, "Leader", stage.Stage)
	require.NoError(t, stage.Validate())

	_, err = gen.Regenerate(lesson.Role(99))
	assert.ErrorIs(t, err, lesson.ErrUnknownRole)
}

func TestRegenerate_ReturnsFailure(t *testing.T) {
	gen := newGenerator(t, 21, func(next StageSource) StageSource {
		return &stubStages{next: next, panic: map[lesson.Role]bool{lesson.RoleLeader: true}}
	})
	_, err := gen.Regenerate(lesson.RoleLeader)
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Leader", genErr.Role)
}

func TestStageGenerator_RoleTagsOption(t *testing.T) {
	set := newSet(t, 4)
	gen := NewStageGenerator(set.Concepts, set.Templates, nil, StageOptions{RoleTags: true, ConceptCount: 3}, nil)
	ctx, _ := set.Domains.Get("devops")

	stage, err := gen.Generate(Request{Role: lesson.RoleLeader, Selection: lesson.Selection{Context: ctx}, Complexity: lesson.ComplexityIntermediate})
	require.NoError(t, err)
	assert.Contains(t, stage.Hashtags, "#leadership")
	assert.Len(t, stage.ConceptsUsed, 3)
	assert.Empty(t, stage.TechnologiesUsed)
}

func TestStageGenerator_RejectsInvalidRequest(t *testing.T) {
	set := newSet(t, 4)
	gen := NewStageGenerator(set.Concepts, set.Templates, nil, StageOptions{}, nil)

	_, err := gen.Generate(Request{Role: lesson.Role(-1), Complexity: lesson.ComplexityBeginner})
	assert.ErrorIs(t, err, lesson.ErrUnknownRole)

	_, err = gen.Generate(Request{Role: lesson.RoleLeader, Complexity: "impossible"})
	assert.ErrorIs(t, err, lesson.ErrUnknownComplexity)
}

func TestFallbackStage(t *testing.T) {
	enrichment := &lesson.Enrichment{Technologies: []lesson.Technology{{Name: "Kafka"}}}
	sel := lesson.Selection{Context: &lesson.Context{Name: "fintech"}}

	s := FallbackStage(lesson.RoleSystemDesigner, sel, "", enrichment, errors.New("x"), 10)
	require.NoError(t, s.Validate())
	assert.Equal(t, "System Designer", s.Stage)
	assert.Equal(t, "fintech", s.Context)
	assert.Equal(t, lesson.ComplexityIntermediate, s.Complexity)
	assert.Equal(t, []string{"architecture"}, s.ConceptsUsed)
	assert.Equal(t, []string{"Kafka"}, s.TechnologiesUsed)
	assert.Same(t, enrichment, s.Enrichment)
	assert.Equal(t, "x", s.Audit.Error)
	assert.Equal(t, int64(10), s.Timestamp)
}

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
}
