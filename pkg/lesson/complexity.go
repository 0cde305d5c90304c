package lesson

import (
	"errors"
	"fmt"
	"strings"
)

// Complexity is the difficulty level of a concept or a generated lesson.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// ErrUnknownComplexity is returned by ParseComplexity for unrecognised levels.
var ErrUnknownComplexity = errors.New("unknown complexity")

// Complexities returns all levels in declaration order.
func Complexities() []Complexity {
	return []Complexity{ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced}
}

// ParseComplexity converts a case-insensitive level name into a Complexity.
func ParseComplexity(s string) (Complexity, error) {
	c := Complexity(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (must be beginner, intermediate or advanced)", ErrUnknownComplexity, s)
	}
	return c, nil
}

// Valid reports whether c is one of the three known levels.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced:
		return true
	}
	return false
}

// Accepts reports whether a concept rated `concept` may be used in a lesson
// targeting c. Beginner concepts are always accepted, and intermediate
// concepts are accepted by advanced lessons.
func (c Complexity) Accepts(concept Complexity) bool {
	if concept == c {
		return true
	}
	if concept == ComplexityBeginner {
		return true
	}
	return c == ComplexityAdvanced && concept == ComplexityIntermediate
}

func (c Complexity) String() string {
	return string(c)
}
