// Package hashtag derives the topical tags attached to a generated stage.
package hashtag

import (
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/pkg/lesson"
)

const (
	componentTagLimit = 2
	contextTagLimit   = 6
	scenarioTagLimit  = 2
)

// Generator builds tag lists from concepts and a context selection.
type Generator struct {
	log *logger.Logger
}

// New returns a Generator.
func New(log *logger.Logger) *Generator {
	return &Generator{log: logger.OrNop(log)}
}

// Generate collects each concept's tag and up to two component tags, the
// context tags and, when a scenario is attached, up to two scenario tags.
// Duplicates are removed keeping first-seen order. An empty result, or a
// panic while collecting, yields lesson.DefaultTags.
func (g *Generator) Generate(concepts []*lesson.Concept, sel lesson.Selection) (tags []string) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("hashtag generation panicked, using defaults", "panic", r)
			tags = lesson.DefaultTags()
		}
	}()

	var out []string
	for _, c := range concepts {
		if c == nil {
			continue
		}
		if tag, ok := c.Tag(); ok {
			out = append(out, tag)
		}
		out = append(out, c.ComponentTags(componentTagLimit)...)
	}
	if sel.Context != nil {
		out = append(out, sel.Context.Tags(contextTagLimit)...)
		out = append(out, sel.ScenarioTags(scenarioTagLimit)...)
	}

	if len(out) == 0 {
		g.log.Warn("no hashtags generated, using defaults", "context", sel.Name())
		return lesson.DefaultTags()
	}
	return lesson.UniqueTags(out, 0)
}

// RoleTags returns the tags that mark a role's perspective.
func RoleTags(r lesson.Role) []string {
	switch r {
	case lesson.RoleExpertEngineer:
		return []string{"#implementation", "#technical-depth"}
	case lesson.RoleSystemDesigner:
		return []string{"#architecture-design", "#system-thinking"}
	case lesson.RoleLeader:
		return []string{"#leadership", "#decision-making"}
	case lesson.RoleReviewSynthesis:
		return []string{"#synthesis", "#reflection"}
	}
	return nil
}

// ForRole generates the base tags and appends the role's own tags.
func (g *Generator) ForRole(concepts []*lesson.Concept, sel lesson.Selection, r lesson.Role) []string {
	tags := append(g.Generate(concepts, sel), RoleTags(r)...)
	return lesson.UniqueTags(tags, 0)
}
