package template

import (
	"regexp"
	"strings"

	"github.com/dyluth/quartet/pkg/lesson"
)

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

// Variables maps placeholder names to their values.
type Variables map[string]string

// Interpolate replaces every {name} whose variable is present and non-empty.
// Other placeholders are left verbatim.
func Interpolate(template string, vars Variables) string {
	if template == "" {
		return ""
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		if v := vars[match[1:len(match)-1]]; v != "" {
			return v
		}
		return match
	})
}

// Input is everything a prompt is rendered from.
type Input struct {
	Role        lesson.Role
	Selection   lesson.Selection
	Concepts    []*lesson.Concept
	Complexity  lesson.Complexity
	Template    *lesson.LessonTemplate
	Instruction lesson.RoleInstruction
	Strategy    *lesson.ObliqueStrategy
	Enrichment  *lesson.Enrichment
}

func (in Input) context() *lesson.Context {
	if in.Selection.Context == nil {
		return &lesson.Context{}
	}
	return in.Selection.Context
}

// MainConcept returns the first concept's name, or a generic subject.
func (in Input) MainConcept() string {
	if len(in.Concepts) == 0 || in.Concepts[0] == nil {
		return "software architecture fundamentals"
	}
	return in.Concepts[0].Name
}

// BuildVariables derives every placeholder value from the input.
func BuildVariables(in Input) Variables {
	ctx := in.context()
	main := in.MainConcept()
	techs := in.Enrichment.TechnologyNames()

	ctxName := ctx.Name
	vars := Variables{
		"concept":             main,
		"concepts":            orElse(strings.Join(conceptNames(in.Concepts), ", "), "architecture concepts"),
		"context":             orElse(ctxName, "software architecture"),
		"domain":              orElse(in.Enrichment.DomainName(), orElse(ctxName, "general")),
		"domainContext":       orElse(ctx.Description, "software architecture context"),
		"domainScenario":      scenarioLabel(in.Selection, ctxName),
		"decisionType":        decisionType(in.Concepts, ctxName),
		"decisionContext":     main + " in " + orElse(ctxName, "general") + " systems",
		"technicalChallenges": ctx.TechnicalChallenges(),
		"technologies":        orElse(strings.Join(techs, ", "), "n/a"),
		"primaryTechnology":   "n/a",
		"implementationGoal":  implementationGoal(in.Concepts),
		"systemContext":       orElse(ctxName, "distributed system"),
		"stakeholderNeeds":    orElse(strings.Join(ctx.Stakeholders, ", "), "user experience, operational efficiency"),
		"businessContext":     ctx.BusinessContext(),
		"complexity":          string(in.Complexity),
		"role":                in.Role.DisplayName(),
		"qualityAttributes":   orElse(strings.Join(ctx.Characteristics, ", "), "maintainability, scalability"),
		"constraints":         orElse(strings.Join(ctx.Constraints, ", "), "resource limitations"),
		"pattern":             relevantPattern(in.Concepts),
		"approach":            approach(in.Complexity),
		"skill":               skillFocus(in.Role),
		"framework":           framework(in.Concepts, in.Complexity),
		"scenario":            scenarioLabel(in.Selection, ctxName),
		"caseStudy":           ctx.CaseStudy(),
		"useCase":             "applying " + main + " in " + ctxName + " systems",
	}
	if len(techs) > 0 {
		vars["primaryTechnology"] = techs[0]
	}
	return vars
}

func conceptNames(concepts []*lesson.Concept) []string {
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c != nil {
			names = append(names, c.Name)
		}
	}
	return names
}

func anyNameContains(concepts []*lesson.Concept, s string) bool {
	for _, c := range concepts {
		if c != nil && strings.Contains(c.Name, s) {
			return true
		}
	}
	return false
}

func scenarioLabel(sel lesson.Selection, ctxName string) string {
	if sel.Scenario != nil {
		if sel.Scenario.Name != "" {
			return sel.Scenario.Name
		}
		if sel.Scenario.Description != "" {
			return sel.Scenario.Description
		}
	}
	return ctxName + " system development scenario"
}

func decisionType(concepts []*lesson.Concept, ctxName string) string {
	switch {
	case anyNameContains(concepts, "trade-off"):
		return "architectural trade-off decisions"
	case anyNameContains(concepts, "pattern"):
		return "pattern selection decisions"
	case ctxName == "fintech":
		return "security and compliance decisions"
	}
	return "architectural design decisions"
}

func implementationGoal(concepts []*lesson.Concept) string {
	if len(concepts) == 0 || concepts[0] == nil {
		return "architectural excellence"
	}
	name := concepts[0].Name
	switch {
	case strings.Contains(name, "modularity"):
		return "improved system modularity"
	case strings.Contains(name, "performance"):
		return "performance optimization"
	case strings.Contains(name, "security"):
		return "security enhancement"
	case strings.Contains(name, "scalability"):
		return "scalability improvement"
	}
	return "architectural excellence"
}

func relevantPattern(concepts []*lesson.Concept) string {
	if len(concepts) == 0 || concepts[0] == nil {
		return "architectural design patterns"
	}
	c := concepts[0]
	switch {
	case c.Category == lesson.CategoryStructural:
		return "modular architecture patterns"
	case strings.Contains(c.Name, "quantum"):
		return "microservices patterns"
	case strings.Contains(c.Name, "coupling"):
		return "decoupling patterns"
	}
	return "architectural design patterns"
}

func approach(c lesson.Complexity) string {
	switch c {
	case lesson.ComplexityBeginner:
		return "step-by-step guided approach"
	case lesson.ComplexityAdvanced:
		return "comprehensive analysis approach"
	case lesson.ComplexityIntermediate:
	}
	return "practical application approach"
}

func skillFocus(r lesson.Role) string {
	switch r {
	case lesson.RoleExpertEngineer:
		return "technical implementation skills"
	case lesson.RoleSystemDesigner:
		return "architectural design skills"
	case lesson.RoleLeader:
		return "decision-making and communication skills"
	case lesson.RoleReviewSynthesis:
	}
	return "architectural thinking skills"
}

func framework(concepts []*lesson.Concept, c lesson.Complexity) string {
	if anyNameContains(concepts, "decision") {
		return "architectural decision framework"
	}
	if c == lesson.ComplexityAdvanced {
		return "comprehensive analysis framework"
	}
	return "practical learning framework"
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
