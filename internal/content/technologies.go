package content

import (
	"strings"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/pkg/lesson"
	"gopkg.in/yaml.v3"
)

// TechnologyRepository holds the technology references.
type TechnologyRepository struct {
	technologies []*lesson.Technology
	byName       map[string]*lesson.Technology
	fallback     bool
	source       string
}

// NewTechnologyRepository builds a repository from technologies.yaml bytes.
func NewTechnologyRepository(data []byte, log *logger.Logger) *TechnologyRepository {
	return newTechnologyRepository(table{name: TechnologiesTable, data: data, source: SourceInline}, logger.OrNop(log))
}

func newTechnologyRepository(t table, log *logger.Logger) *TechnologyRepository {
	r := &TechnologyRepository{
		byName: make(map[string]*lesson.Technology),
		source: t.source,
	}

	technologies, err := parseTechnologies(t.data, log)
	if err == nil && len(technologies) == 0 {
		err = errEmptyTable
	}
	if err != nil {
		log.Warn("technology table unusable, installing seed technologies", "source", t.source, "error", err)
		technologies = seedTechnologies()
		r.fallback = true
	}
	for _, tech := range technologies {
		if _, dup := r.byName[tech.Name]; dup {
			log.Warn("skipping duplicate technology", "technology", tech.Name)
			continue
		}
		r.byName[tech.Name] = tech
		r.technologies = append(r.technologies, tech)
	}
	return r
}

func parseTechnologies(data []byte, log *logger.Logger) ([]*lesson.Technology, error) {
	root, err := parseRoot(data, "technologies", yaml.SequenceNode)
	if err != nil {
		return nil, err
	}

	var out []*lesson.Technology
	for i, node := range root.Content {
		tech := &lesson.Technology{}
		if err := node.Decode(tech); err != nil {
			log.Warn("skipping malformed technology", "index", i, "error", err)
			continue
		}
		tech.Name = strings.TrimSpace(tech.Name)
		if err := tech.Validate(); err != nil {
			log.Warn("skipping invalid technology", "index", i, "error", err)
			continue
		}
		if tech.Category == "" {
			tech.Category = "general"
		}
		out = append(out, tech)
	}
	return out, nil
}

// All returns every technology in source order.
func (r *TechnologyRepository) All() []*lesson.Technology {
	out := make([]*lesson.Technology, len(r.technologies))
	copy(out, r.technologies)
	return out
}

// Get looks a technology up by name.
func (r *TechnologyRepository) Get(name string) (*lesson.Technology, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ByCategory returns the technologies of one category, case-insensitively.
func (r *TechnologyRepository) ByCategory(category string) []*lesson.Technology {
	needle := strings.ToLower(strings.TrimSpace(category))
	var out []*lesson.Technology
	for _, t := range r.technologies {
		if strings.ToLower(t.Category) == needle {
			out = append(out, t)
		}
	}
	return out
}

// ByTag returns the technologies carrying tag as a tag or quality attribute,
// case-insensitively.
func (r *TechnologyRepository) ByTag(tag string) []*lesson.Technology {
	needle := strings.ToLower(strings.TrimSpace(tag))
	var out []*lesson.Technology
	for _, t := range r.technologies {
		if containsFold(t.Tags, needle) || containsFold(t.QualityAttributes, needle) {
			out = append(out, t)
		}
	}
	return out
}

// Stats reports the technology count broken down by lower-cased category.
func (r *TechnologyRepository) Stats() Stats {
	s := newStats(len(r.technologies), r.fallback, r.source)
	for _, t := range r.technologies {
		s.Breakdown[strings.ToLower(t.Category)]++
	}
	return s
}
