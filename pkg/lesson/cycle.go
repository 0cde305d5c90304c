package lesson

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
)

// WordsPerMinute is the reading speed used by ReadingMinutes.
const WordsPerMinute = 200

// StageAudit records how a stage was produced.
type StageAudit struct {
	TemplateKey string `json:"template_key"`
	Scenario    string `json:"scenario,omitempty"`
	StrategyID  int    `json:"strategy_id,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Fallback    bool   `json:"fallback"`
	Error       string `json:"error,omitempty"`
}

// Stage is one role's rendered prompt within a cycle.
type Stage struct {
	Stage            string      `json:"stage"`
	Prompt           string      `json:"prompt"`
	Hashtags         []string    `json:"hashtags"`
	Context          string      `json:"context"`
	Complexity       Complexity  `json:"complexity"`
	LessonType       string      `json:"lesson_type"`
	ConceptsUsed     []string    `json:"concepts_used"`
	TechnologiesUsed []string    `json:"technologies_used"`
	Enrichment       *Enrichment `json:"enrichment,omitempty"`
	Audit            *StageAudit `json:"audit,omitempty"`
	Timestamp        int64       `json:"timestamp"`
}

// Role resolves the stage name to its Role.
func (s *Stage) Role() (Role, error) {
	return ParseRole(s.Stage)
}

// Validate checks the structural invariants every emitted stage must hold:
// a known role name, a non-empty prompt, a valid complexity and at least one
// well-formed tag.
func (s *Stage) Validate() error {
	if _, err := s.Role(); err != nil {
		return fmt.Errorf("stage name: %w", err)
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return errors.New("stage prompt cannot be empty")
	}
	if !s.Complexity.Valid() {
		return fmt.Errorf("stage '%s': %w: %q", s.Stage, ErrUnknownComplexity, s.Complexity)
	}
	if len(s.Hashtags) == 0 {
		return fmt.Errorf("stage '%s' has no hashtags", s.Stage)
	}
	for _, tag := range s.Hashtags {
		if !ValidTag(tag) {
			return fmt.Errorf("stage '%s' has malformed hashtag %q", s.Stage, tag)
		}
	}
	return nil
}

// WordCount counts whitespace separated words in the prompt.
func (s *Stage) WordCount() int {
	return len(strings.Fields(s.Prompt))
}

// ReadingMinutes estimates reading time at WordsPerMinute, rounded up.
func (s *Stage) ReadingMinutes() int {
	return int(math.Ceil(float64(s.WordCount()) / WordsPerMinute))
}

// IsFallback reports whether the stage was substituted after a failure.
func (s *Stage) IsFallback() bool {
	return s.Audit != nil && s.Audit.Fallback
}

// Fingerprint returns the hex sha256 of a prompt with surrounding whitespace
// trimmed. Identical prompts always share a fingerprint.
func Fingerprint(prompt string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(h[:])
}

// StageSummary is the per-stage line of a cycle audit.
type StageSummary struct {
	Stage        string   `json:"stage"`
	LessonType   string   `json:"lesson_type"`
	ConceptsUsed []string `json:"concepts_used"`
	Hashtags     int      `json:"hashtags"`
	Fallback     bool     `json:"fallback"`
}

// CycleAudit summarises the draws that produced a cycle.
type CycleAudit struct {
	Context    string         `json:"context"`
	Scenario   string         `json:"scenario,omitempty"`
	Complexity Complexity     `json:"complexity"`
	StrategyID int            `json:"strategy_id,omitempty"`
	Roles      []string       `json:"roles"`
	Stages     []StageSummary `json:"stages"`
}

// CycleMetadata carries cycle-level information shared by every stage.
type CycleMetadata struct {
	GeneratedBy string      `json:"generated_by"`
	Session     string      `json:"session,omitempty"`
	Enrichment  *Enrichment `json:"enrichment,omitempty"`
	Regenerated []string    `json:"regenerated,omitempty"`
	Fallback    bool        `json:"fallback,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Cycle is one complete generation: a stage for every role over a shared
// context and complexity.
type Cycle struct {
	ID              string           `json:"id"`
	Timestamp       int64            `json:"timestamp"`
	Context         *Context         `json:"context"`
	Scenario        *Scenario        `json:"scenario,omitempty"`
	Complexity      Complexity       `json:"complexity"`
	ObliqueStrategy *ObliqueStrategy `json:"oblique_strategy,omitempty"`
	Stages          []*Stage         `json:"stages"`
	Metadata        CycleMetadata    `json:"metadata"`
	Audit           *CycleAudit      `json:"audit,omitempty"`
}

// Validate checks that the cycle has an id, a valid complexity and exactly
// one valid stage per role.
func (c *Cycle) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cycle must have an id")
	}
	if !c.Complexity.Valid() {
		return fmt.Errorf("cycle '%s': %w: %q", c.ID, ErrUnknownComplexity, c.Complexity)
	}
	if len(c.Stages) != len(Roles()) {
		return fmt.Errorf("cycle '%s' has %d stages, want %d", c.ID, len(c.Stages), len(Roles()))
	}

	seen := make(map[Role]bool, len(c.Stages))
	for i, s := range c.Stages {
		if s == nil {
			return fmt.Errorf("cycle '%s' stage %d is nil", c.ID, i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("cycle '%s' stage %d: %w", c.ID, i, err)
		}
		r, _ := s.Role()
		if seen[r] {
			return fmt.Errorf("cycle '%s' has duplicate stage '%s'", c.ID, r.DisplayName())
		}
		seen[r] = true
	}
	return nil
}

// ContextName returns the cycle's context name or "".
func (c *Cycle) ContextName() string {
	if c.Context == nil {
		return ""
	}
	return c.Context.Name
}

// Stage returns the stage for a role, or nil.
func (c *Cycle) Stage(r Role) *Stage {
	for _, s := range c.Stages {
		if s == nil {
			continue
		}
		if sr, err := s.Role(); err == nil && sr == r {
			return s
		}
	}
	return nil
}

// StageNames returns stage names in order.
func (c *Cycle) StageNames() []string {
	names := make([]string, 0, len(c.Stages))
	for _, s := range c.Stages {
		if s != nil {
			names = append(names, s.Stage)
		}
	}
	return names
}

// ReplaceStage swaps the stage with the same role in place and records the
// role in Metadata.Regenerated. It returns an error if no such stage exists.
func (c *Cycle) ReplaceStage(stage *Stage) error {
	if stage == nil {
		return errors.New("replacement stage cannot be nil")
	}
	r, err := stage.Role()
	if err != nil {
		return err
	}
	for i, s := range c.Stages {
		if s == nil {
			continue
		}
		if sr, err := s.Role(); err == nil && sr == r {
			c.Stages[i] = stage
			c.Metadata.Regenerated = append(c.Metadata.Regenerated, r.Key())
			if c.Audit != nil && i < len(c.Audit.Stages) {
				c.Audit.Stages[i] = SummarizeStage(stage)
			}
			return nil
		}
	}
	return fmt.Errorf("cycle '%s' has no stage '%s'", c.ID, r.DisplayName())
}

// AllHashtags returns the unique tags across all stages in first-seen order.
func (c *Cycle) AllHashtags() []string {
	var all []string
	for _, s := range c.Stages {
		if s != nil {
			all = append(all, s.Hashtags...)
		}
	}
	return UniqueTags(all, 0)
}

// AllConcepts returns the unique concept names across all stages.
func (c *Cycle) AllConcepts() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range c.Stages {
		if s == nil {
			continue
		}
		for _, name := range s.ConceptsUsed {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// TotalWords sums WordCount across stages.
func (c *Cycle) TotalWords() int {
	total := 0
	for _, s := range c.Stages {
		if s != nil {
			total += s.WordCount()
		}
	}
	return total
}

// CycleSummary is a compact view of a cycle for listings.
type CycleSummary struct {
	ID                 string     `json:"id"`
	Context            string     `json:"context"`
	Complexity         Complexity `json:"complexity"`
	StageCount         int        `json:"stage_count"`
	TotalWords         int        `json:"total_words"`
	ReadingMinutes     int        `json:"reading_minutes"`
	UniqueHashtags     int        `json:"unique_hashtags"`
	UniqueConcepts     int        `json:"unique_concepts"`
	HasObliqueStrategy bool       `json:"has_oblique_strategy"`
	Timestamp          int64      `json:"timestamp"`
}

// Summary builds a CycleSummary.
func (c *Cycle) Summary() CycleSummary {
	minutes := 0
	for _, s := range c.Stages {
		if s != nil {
			minutes += s.ReadingMinutes()
		}
	}
	return CycleSummary{
		ID:                 c.ID,
		Context:            c.ContextName(),
		Complexity:         c.Complexity,
		StageCount:         len(c.Stages),
		TotalWords:         c.TotalWords(),
		ReadingMinutes:     minutes,
		UniqueHashtags:     len(c.AllHashtags()),
		UniqueConcepts:     len(c.AllConcepts()),
		HasObliqueStrategy: c.ObliqueStrategy != nil,
		Timestamp:          c.Timestamp,
	}
}

// SummarizeStage builds the audit line for a stage.
func SummarizeStage(s *Stage) StageSummary {
	return StageSummary{
		Stage:        s.Stage,
		LessonType:   s.LessonType,
		ConceptsUsed: s.ConceptsUsed,
		Hashtags:     len(s.Hashtags),
		Fallback:     s.IsFallback(),
	}
}
