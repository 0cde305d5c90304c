package lesson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStage(r Role) *Stage {
	return &Stage{
		Stage:        r.DisplayName(),
		Prompt:       "# Educational Lesson Generation Prompt\n\nExplore modularity for " + r.DisplayName(),
		Hashtags:     []string{"#modularity", "#" + strings.ToLower(r.Key())},
		Context:      "devops",
		Complexity:   ComplexityIntermediate,
		LessonType:   "conceptExploration",
		ConceptsUsed: []string{"modularity", "cohesion"},
		Timestamp:    1700000000000,
	}
}

func newTestCycle(id string, ts int64) *Cycle {
	c := &Cycle{
		ID:         id,
		Timestamp:  ts,
		Context:    &Context{Name: "devops"},
		Complexity: ComplexityIntermediate,
		Metadata:   CycleMetadata{GeneratedBy: "test"},
		Audit:      &CycleAudit{Context: "devops", Complexity: ComplexityIntermediate},
	}
	for _, r := range Roles() {
		s := newTestStage(r)
		c.Stages = append(c.Stages, s)
		c.Audit.Roles = append(c.Audit.Roles, r.Key())
		c.Audit.Stages = append(c.Audit.Stages, SummarizeStage(s))
	}
	return c
}

func TestStageValidate(t *testing.T) {
	t.Run("valid stage", func(t *testing.T) {
		assert.NoError(t, newTestStage(RoleLeader).Validate())
	})

	tests := []struct {
		name   string
		mutate func(s *Stage)
		errMsg string
	}{
		{"unknown role", func(s *Stage) { s.Stage = "Architect" }, "unknown role"},
		{"empty prompt", func(s *Stage) { s.Prompt = "  " }, "prompt cannot be empty"},
		{"bad complexity", func(s *Stage) { s.Complexity = "guru" }, "unknown complexity"},
		{"no tags", func(s *Stage) { s.Hashtags = nil }, "no hashtags"},
		{"malformed tag", func(s *Stage) { s.Hashtags = []string{"#ok", "not a tag"} }, "malformed hashtag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStage(RoleExpertEngineer)
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestStageReading(t *testing.T) {
	s := &Stage{Prompt: strings.Repeat("word ", 401)}
	assert.Equal(t, 401, s.WordCount())
	assert.Equal(t, 3, s.ReadingMinutes())
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("abc"), Fingerprint("  abc\n"))
	assert.NotEqual(t, Fingerprint("abc"), Fingerprint("abd"))
	assert.Len(t, Fingerprint("abc"), 64)
}

func TestCycleValidate(t *testing.T) {
	t.Run("valid cycle", func(t *testing.T) {
		assert.NoError(t, newTestCycle("cycle-1", 1).Validate())
	})

	t.Run("missing stage", func(t *testing.T) {
		c := newTestCycle("cycle-1", 1)
		c.Stages = c.Stages[:3]
		assert.ErrorContains(t, c.Validate(), "has 3 stages")
	})

	t.Run("duplicate role", func(t *testing.T) {
		c := newTestCycle("cycle-1", 1)
		c.Stages[3] = newTestStage(RoleLeader)
		assert.ErrorContains(t, c.Validate(), "duplicate stage")
	})

	t.Run("nil stage", func(t *testing.T) {
		c := newTestCycle("cycle-1", 1)
		c.Stages[0] = nil
		assert.ErrorContains(t, c.Validate(), "is nil")
	})

	t.Run("empty id", func(t *testing.T) {
		assert.Error(t, newTestCycle("", 1).Validate())
	})
}

func TestCycleReplaceStage(t *testing.T) {
	c := newTestCycle("cycle-1", 1)
	replacement := newTestStage(RoleSystemDesigner)
	replacement.Prompt = "regenerated"
	replacement.LessonType = "patternStudy"

	require.NoError(t, c.ReplaceStage(replacement))
	assert.Same(t, replacement, c.Stages[1])
	assert.Equal(t, []string{"systemDesigner"}, c.Metadata.Regenerated)
	assert.Equal(t, "patternStudy", c.Audit.Stages[1].LessonType)
	assert.Equal(t, []string{"Expert Engineer", "System Designer", "Leader", "Review & Synthesis"}, c.StageNames())

	assert.Error(t, c.ReplaceStage(nil))
	assert.Error(t, c.ReplaceStage(&Stage{Stage: "Nobody"}))
}

func TestCycleAggregates(t *testing.T) {
	c := newTestCycle("cycle-1", 42)
	assert.Equal(t, []string{"modularity", "cohesion"}, c.AllConcepts())
	assert.Contains(t, c.AllHashtags(), "#modularity")
	assert.Len(t, c.AllHashtags(), 5)
	assert.Same(t, c.Stages[2], c.Stage(RoleLeader))

	summary := c.Summary()
	assert.Equal(t, "cycle-1", summary.ID)
	assert.Equal(t, "devops", summary.Context)
	assert.Equal(t, 4, summary.StageCount)
	assert.Equal(t, 2, summary.UniqueConcepts)
	assert.False(t, summary.HasObliqueStrategy)
	assert.Equal(t, int64(42), summary.Timestamp)
}
