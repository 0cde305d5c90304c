package content

import (
	"strings"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/pkg/lesson"
	"gopkg.in/yaml.v3"
)

// Lesson format keys chosen by Select.
const (
	FormatConceptExploration = "conceptExploration"
	FormatPatternStudy       = "patternStudy"
	FormatTradeoffAnalysis   = "tradeoffAnalysis"
	FormatSkillDevelopment   = "skillDevelopment"
)

type rawTemplate struct {
	Description            string                         `yaml:"description"`
	Structure              []string                       `yaml:"structure"`
	InstructionalGuidance  string                         `yaml:"instructionalGuidance"`
	AdaptationInstructions string                         `yaml:"adaptationInstructions"`
	Deliverables           map[string]map[string][]string `yaml:"deliverables"`
}

// TemplateRepository holds lesson formats and role instructions.
type TemplateRepository struct {
	templates []*lesson.LessonTemplate
	byKey     map[string]*lesson.LessonTemplate
	roles     map[lesson.Role]lesson.RoleInstruction
	loaded    int
	fallback  bool
	source    string
}

// NewTemplateRepository builds a repository from lessons.yaml bytes.
func NewTemplateRepository(data []byte, log *logger.Logger) *TemplateRepository {
	return newTemplateRepository(table{name: LessonsTable, data: data, source: SourceInline}, logger.OrNop(log))
}

func newTemplateRepository(t table, log *logger.Logger) *TemplateRepository {
	r := &TemplateRepository{
		byKey:  make(map[string]*lesson.LessonTemplate),
		roles:  seedRoleInstructions(),
		source: t.source,
	}

	templates, err := parseTemplates(t.data, log)
	if err == nil && len(templates) == 0 {
		err = errEmptyTable
	}
	if err != nil {
		log.Warn("lesson table unusable, installing default template", "source", t.source, "error", err)
		templates = []*lesson.LessonTemplate{DefaultTemplate()}
		r.fallback = true
	}
	for _, tmpl := range templates {
		if _, dup := r.byKey[tmpl.Key]; dup {
			continue
		}
		r.byKey[tmpl.Key] = tmpl
		r.templates = append(r.templates, tmpl)
	}

	if err == nil {
		r.loaded = parseRoleInstructions(t.data, r.roles, log)
	}
	return r
}

func parseTemplates(data []byte, log *logger.Logger) ([]*lesson.LessonTemplate, error) {
	root, err := parseRoot(data, "lessonFormats", yaml.MappingNode)
	if err != nil {
		return nil, err
	}

	var out []*lesson.LessonTemplate
	for _, e := range entries(root) {
		var raw rawTemplate
		if err := e.Value.Decode(&raw); err != nil {
			log.Warn("skipping malformed lesson format", "format", e.Key, "error", err)
			continue
		}
		tmpl := &lesson.LessonTemplate{
			Key:                    e.Key,
			Description:            raw.Description,
			Structure:              raw.Structure,
			InstructionalGuidance:  raw.InstructionalGuidance,
			AdaptationInstructions: raw.AdaptationInstructions,
			Deliverables:           make(map[lesson.Complexity]map[string][]string, len(raw.Deliverables)),
		}
		for level, byRole := range raw.Deliverables {
			c, err := lesson.ParseComplexity(level)
			if err != nil {
				log.Warn("ignoring deliverables for unknown complexity", "format", e.Key, "complexity", level)
				continue
			}
			tmpl.Deliverables[c] = byRole
		}
		if err := tmpl.Validate(); err != nil {
			log.Warn("skipping invalid lesson format", "format", e.Key, "error", err)
			continue
		}
		out = append(out, tmpl)
	}
	return out, nil
}

// parseRoleInstructions overlays the table's role instructions onto dst and
// returns how many were taken from the table.
func parseRoleInstructions(data []byte, dst map[lesson.Role]lesson.RoleInstruction, log *logger.Logger) int {
	root, err := parseRoot(data, "roleInstructions", yaml.MappingNode)
	if err != nil {
		log.Warn("role instructions unavailable, using built-in defaults", "error", err)
		return 0
	}
	n := 0
	for _, e := range entries(root) {
		role, err := lesson.ParseRole(e.Key)
		if err != nil {
			log.Warn("ignoring instructions for unknown role", "role", e.Key)
			continue
		}
		var ri lesson.RoleInstruction
		if err := e.Value.Decode(&ri); err != nil || ri.Focus == "" {
			log.Warn("ignoring malformed role instructions", "role", e.Key, "error", err)
			continue
		}
		dst[role] = ri
		n++
	}
	return n
}

// All returns every template in source order.
func (r *TemplateRepository) All() []*lesson.LessonTemplate {
	out := make([]*lesson.LessonTemplate, len(r.templates))
	copy(out, r.templates)
	return out
}

// Get looks a template up by key.
func (r *TemplateRepository) Get(key string) (*lesson.LessonTemplate, bool) {
	t, ok := r.byKey[key]
	return t, ok
}

// Keys returns the template keys in source order.
func (r *TemplateRepository) Keys() []string {
	keys := make([]string, len(r.templates))
	for i, t := range r.templates {
		keys[i] = t.Key
	}
	return keys
}

// Select picks a lesson format for the concepts and complexity:
//
//   - a concept named after trade-offs or decisions: tradeoffAnalysis
//   - any structural concept: patternStudy
//   - a beginner lesson: conceptExploration
//   - more than one concept: skillDevelopment
//   - otherwise conceptExploration
//
// A chosen format that is not loaded falls back to DefaultTemplate.
func (r *TemplateRepository) Select(concepts []*lesson.Concept, complexity lesson.Complexity) *lesson.LessonTemplate {
	if t, ok := r.byKey[selectFormat(concepts, complexity)]; ok {
		return t
	}
	return DefaultTemplate()
}

func selectFormat(concepts []*lesson.Concept, complexity lesson.Complexity) string {
	for _, c := range concepts {
		if c != nil && (strings.Contains(c.Name, "trade-off") || strings.Contains(c.Name, "decision")) {
			return FormatTradeoffAnalysis
		}
	}
	for _, c := range concepts {
		if c != nil && c.Category == lesson.CategoryStructural {
			return FormatPatternStudy
		}
	}
	switch {
	case complexity == lesson.ComplexityBeginner:
		return FormatConceptExploration
	case len(concepts) > 1:
		return FormatSkillDevelopment
	}
	return FormatConceptExploration
}

// RoleInstruction returns the perspective guidance for a role. Roles the
// table does not cover get a built-in instruction.
func (r *TemplateRepository) RoleInstruction(role lesson.Role) lesson.RoleInstruction {
	return r.roles[role]
}

// Stats reports the format count and how many role instructions came from
// the table.
func (r *TemplateRepository) Stats() Stats {
	s := newStats(len(r.templates), r.fallback, r.source)
	for _, t := range r.templates {
		s.Breakdown[t.Key] = len(t.Structure)
	}
	s.Breakdown["roleInstructions"] = r.loaded
	return s
}
