package content

import (
	"fmt"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/pkg/lesson"
	"gopkg.in/yaml.v3"
)

// Default bounds for the number of concepts drawn per stage.
const (
	DefaultMinConcepts = 3
	DefaultMaxConcepts = 5
)

type rawConcept struct {
	Definition    string   `yaml:"definition"`
	Complexity    string   `yaml:"complexity"`
	Components    []string `yaml:"components"`
	KeyInsights   []string `yaml:"keyInsights"`
	Relationships []string `yaml:"relationships"`
}

// ConceptRepository holds the concept catalogue in source order.
type ConceptRepository struct {
	concepts   []*lesson.Concept
	byName     map[string]*lesson.Concept
	categories []lesson.ConceptCategory
	rnd        randx.Source
	min, max   int
	fallback   bool
	source     string
}

// NewConceptRepository builds a repository from concepts.yaml bytes.
func NewConceptRepository(data []byte, rnd randx.Source, log *logger.Logger) *ConceptRepository {
	return newConceptRepository(table{name: ConceptsTable, data: data, source: SourceInline}, rnd, logger.OrNop(log))
}

func newConceptRepository(t table, rnd randx.Source, log *logger.Logger) *ConceptRepository {
	r := &ConceptRepository{
		byName: make(map[string]*lesson.Concept),
		rnd:    rnd,
		min:    DefaultMinConcepts,
		max:    DefaultMaxConcepts,
		source: t.source,
	}

	concepts, err := parseConcepts(t.data, log)
	if err == nil && len(concepts) == 0 {
		err = errEmptyTable
	}
	if err != nil {
		log.Warn("concept table unusable, installing seed concepts", "source", t.source, "error", err)
		concepts = seedConcepts()
		r.fallback = true
	}
	for _, c := range concepts {
		r.add(c)
	}
	return r
}

func parseConcepts(data []byte, log *logger.Logger) ([]*lesson.Concept, error) {
	root, err := parseRoot(data, "categories", yaml.MappingNode)
	if err != nil {
		return nil, err
	}

	var out []*lesson.Concept
	for _, cat := range entries(root) {
		category := lesson.ConceptCategory(cat.Key)
		switch category {
		case lesson.CategoryFoundational, lesson.CategoryStructural, lesson.CategoryQualitative, lesson.CategoryGeneral:
		default:
			log.Warn("unknown concept category, treating as general", "category", cat.Key)
			category = lesson.CategoryGeneral
		}

		concepts := field(cat.Value, "concepts")
		if concepts == nil || concepts.Kind != yaml.MappingNode {
			log.Warn("concept category has no concepts mapping, skipping", "category", cat.Key)
			continue
		}
		for _, e := range entries(concepts) {
			var raw rawConcept
			if err := e.Value.Decode(&raw); err != nil {
				log.Warn("skipping malformed concept", "concept", e.Key, "error", err)
				continue
			}
			c, err := lesson.NewConcept(lesson.Concept{
				Name:          e.Key,
				Category:      category,
				Definition:    raw.Definition,
				Complexity:    lesson.Complexity(raw.Complexity),
				Components:    raw.Components,
				KeyInsights:   raw.KeyInsights,
				Relationships: raw.Relationships,
			})
			if err != nil {
				log.Warn("skipping invalid concept", "concept", e.Key, "error", err)
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ConceptRepository) add(c *lesson.Concept) {
	if _, dup := r.byName[c.Name]; dup {
		return
	}
	r.byName[c.Name] = c
	r.concepts = append(r.concepts, c)
	for _, known := range r.categories {
		if known == c.Category {
			return
		}
	}
	r.categories = append(r.categories, c.Category)
}

// SetCountRange changes the bounds used when SelectRelevant is asked for a
// random count.
func (r *ConceptRepository) SetCountRange(min, max int) error {
	if min < 1 || max < min {
		return fmt.Errorf("invalid concept count range [%d, %d]: need 1 <= min <= max", min, max)
	}
	r.min, r.max = min, max
	return nil
}

// All returns every concept in source order.
func (r *ConceptRepository) All() []*lesson.Concept {
	out := make([]*lesson.Concept, len(r.concepts))
	copy(out, r.concepts)
	return out
}

// Get looks a concept up by name.
func (r *ConceptRepository) Get(name string) (*lesson.Concept, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Categories returns the categories present, in source order.
func (r *ConceptRepository) Categories() []lesson.ConceptCategory {
	out := make([]lesson.ConceptCategory, len(r.categories))
	copy(out, r.categories)
	return out
}

// ByCategory returns the concepts of one category.
func (r *ConceptRepository) ByCategory(cat lesson.ConceptCategory) []*lesson.Concept {
	var out []*lesson.Concept
	for _, c := range r.concepts {
		if c.Category == cat {
			out = append(out, c)
		}
	}
	return out
}

// ForRole returns the concepts relevant to role that a lesson of the given
// complexity accepts.
func (r *ConceptRepository) ForRole(role lesson.Role, complexity lesson.Complexity) []*lesson.Concept {
	var out []*lesson.Concept
	for _, c := range r.concepts {
		if c.RelevantTo(role) && complexity.Accepts(c.Complexity) {
			out = append(out, c)
		}
	}
	return out
}

// SelectRelevant draws up to count distinct concepts for role and
// complexity. A count <= 0 draws a random count within the configured range.
// When nothing matches, the first two concepts of the catalogue are returned.
// The result is never empty.
func (r *ConceptRepository) SelectRelevant(role lesson.Role, complexity lesson.Complexity, count int) []*lesson.Concept {
	matches := r.ForRole(role, complexity)
	if len(matches) == 0 {
		n := 2
		if len(r.concepts) < n {
			n = len(r.concepts)
		}
		return r.All()[:n]
	}

	if count <= 0 {
		count = randx.IntBetween(r.rnd, r.min, r.max)
	}
	if count > len(matches) {
		count = len(matches)
	}
	return randx.Shuffle(r.rnd, matches)[:count]
}

// ComplexityDistribution counts concepts per complexity level.
func (r *ConceptRepository) ComplexityDistribution() map[lesson.Complexity]int {
	out := make(map[lesson.Complexity]int, 3)
	for _, c := range r.concepts {
		out[c.Complexity]++
	}
	return out
}

// Stats reports the concept count broken down by category.
func (r *ConceptRepository) Stats() Stats {
	s := newStats(len(r.concepts), r.fallback, r.source)
	for _, c := range r.concepts {
		s.Breakdown[string(c.Category)]++
	}
	return s
}
