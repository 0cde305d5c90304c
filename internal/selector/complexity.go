// Package selector holds the weighted draws used while composing a cycle:
// the lesson complexity and the technologies that ground a domain.
package selector

import (
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/pkg/lesson"
)

// complexityWeights are scanned in declaration order.
var complexityWeights = []struct {
	level  lesson.Complexity
	weight float64
}{
	{lesson.ComplexityBeginner, 0.3},
	{lesson.ComplexityIntermediate, 0.5},
	{lesson.ComplexityAdvanced, 0.2},
}

// ComplexitySelector draws a lesson complexity, favouring intermediate.
type ComplexitySelector struct {
	rnd randx.Source
}

// NewComplexitySelector returns a selector drawing from rnd.
func NewComplexitySelector(rnd randx.Source) *ComplexitySelector {
	return &ComplexitySelector{rnd: rnd}
}

// Select draws once and returns the first level whose cumulative weight
// reaches the draw. Floating point drift that leaves the scan unresolved
// yields intermediate.
func (s *ComplexitySelector) Select() lesson.Complexity {
	draw := s.rnd.Float64()
	cumulative := 0.0
	for _, w := range complexityWeights {
		cumulative += w.weight
		if draw <= cumulative {
			return w.level
		}
	}
	return lesson.ComplexityIntermediate
}

// SelectWithBias doubles the weight of preferred, renormalises and draws.
// An unresolved scan yields preferred.
func (s *ComplexitySelector) SelectWithBias(preferred lesson.Complexity) lesson.Complexity {
	weights := make([]float64, len(complexityWeights))
	total := 0.0
	for i, w := range complexityWeights {
		weights[i] = w.weight
		if w.level == preferred {
			weights[i] *= 2
		}
		total += weights[i]
	}

	draw := s.rnd.Float64()
	cumulative := 0.0
	for i, w := range complexityWeights {
		cumulative += weights[i] / total
		if draw <= cumulative {
			return w.level
		}
	}
	return preferred
}

// Levels returns the selectable levels in scan order.
func (s *ComplexitySelector) Levels() []lesson.Complexity {
	out := make([]lesson.Complexity, len(complexityWeights))
	for i, w := range complexityWeights {
		out[i] = w.level
	}
	return out
}
