package content

import (
	"strings"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/pkg/lesson"
	"gopkg.in/yaml.v3"
)

// StrategyRepository holds the oblique strategies. Ids are positions in the
// table starting at 1.
type StrategyRepository struct {
	strategies []*lesson.ObliqueStrategy
	byID       map[int]*lesson.ObliqueStrategy
	rnd        randx.Source
	fallback   bool
	source     string
}

// NewStrategyRepository builds a repository from strategies.yaml bytes.
func NewStrategyRepository(data []byte, rnd randx.Source, log *logger.Logger) *StrategyRepository {
	return newStrategyRepository(table{name: StrategiesTable, data: data, source: SourceInline}, rnd, logger.OrNop(log))
}

func newStrategyRepository(t table, rnd randx.Source, log *logger.Logger) *StrategyRepository {
	r := &StrategyRepository{
		byID:   make(map[int]*lesson.ObliqueStrategy),
		rnd:    rnd,
		source: t.source,
	}

	strategies, err := parseStrategies(t.data, log)
	if err == nil && len(strategies) == 0 {
		err = errEmptyTable
	}
	if err != nil {
		log.Warn("strategy table unusable, installing seed strategies", "source", t.source, "error", err)
		strategies = seedStrategies()
		r.fallback = true
	}
	for _, s := range strategies {
		r.byID[s.ID] = s
		r.strategies = append(r.strategies, s)
	}
	return r
}

func parseStrategies(data []byte, log *logger.Logger) ([]*lesson.ObliqueStrategy, error) {
	root, err := parseRoot(data, "strategies", yaml.SequenceNode)
	if err != nil {
		return nil, err
	}

	var out []*lesson.ObliqueStrategy
	for i, node := range root.Content {
		s := &lesson.ObliqueStrategy{ID: i + 1}
		if err := node.Decode(s); err != nil {
			log.Warn("skipping malformed strategy", "index", i, "error", err)
			continue
		}
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			log.Warn("skipping strategy without text", "index", i)
			continue
		}
		if s.Category == "" {
			s.Category = "general"
		}
		out = append(out, s)
	}
	return out, nil
}

// All returns every strategy in source order.
func (r *StrategyRepository) All() []*lesson.ObliqueStrategy {
	out := make([]*lesson.ObliqueStrategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Get looks a strategy up by id.
func (r *StrategyRepository) Get(id int) (*lesson.ObliqueStrategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Select draws a strategy uniformly, or returns nil when there are none.
func (r *StrategyRepository) Select() *lesson.ObliqueStrategy {
	s, ok := randx.Pick(r.rnd, r.strategies)
	if !ok {
		return nil
	}
	return s
}

// ByCategory returns the strategies of one category.
func (r *StrategyRepository) ByCategory(category string) []*lesson.ObliqueStrategy {
	var out []*lesson.ObliqueStrategy
	for _, s := range r.strategies {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Stats reports the strategy count broken down by category.
func (r *StrategyRepository) Stats() Stats {
	s := newStats(len(r.strategies), r.fallback, r.source)
	for _, st := range r.strategies {
		s.Breakdown[st.Category]++
	}
	return s
}
