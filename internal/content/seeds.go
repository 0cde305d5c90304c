package content

import "github.com/dyluth/quartet/pkg/lesson"

// Built-in seed sets installed when a table cannot be used.

func seedConcepts() []*lesson.Concept {
	return []*lesson.Concept{
		{
			Name:          "modularity",
			Category:      lesson.CategoryFoundational,
			Definition:    "Dividing a system into parts that can be understood, built and changed independently.",
			Complexity:    lesson.ComplexityBeginner,
			Components:    []string{"module boundaries", "information hiding"},
			KeyInsights:   []string{"Boundaries drawn around volatility age better than boundaries drawn around nouns."},
			Relationships: []string{"coupling"},
		},
		{
			Name:          "coupling",
			Category:      lesson.CategoryFoundational,
			Definition:    "The degree of interdependence between modules.",
			Complexity:    lesson.ComplexityBeginner,
			Components:    []string{"afferent coupling", "efferent coupling"},
			KeyInsights:   []string{"Unmanaged coupling across volatile boundaries is what hurts."},
			Relationships: []string{"modularity"},
		},
		{
			Name:          "architectural-trade-offs",
			Category:      lesson.CategoryQualitative,
			Definition:    "Every architectural choice gains some characteristics by giving up others.",
			Complexity:    lesson.ComplexityBeginner,
			Components:    []string{"characteristic prioritisation"},
			KeyInsights:   []string{"There are only trade-offs that fit a context."},
			Relationships: []string{"modularity"},
		},
	}
}

// DefaultTemplate is the eight-section lesson format used whenever the
// selected format is unavailable.
func DefaultTemplate() *lesson.LessonTemplate {
	return &lesson.LessonTemplate{
		Key:         "default",
		Description: "Concept exploration and practical application",
		Structure: []string{
			"## Concept Overview",
			"## Why This Matters",
			"## Core Principles",
			"## Real-World Examples",
			"## Common Pitfalls",
			"## Practical Exercises",
			"## Reflection Questions",
			"## Further Reading",
		},
		InstructionalGuidance: "Create an engaging lesson that helps software engineers understand the concept through concrete examples and hands-on thinking exercises.",
	}
}

func seedRoleInstructions() map[lesson.Role]lesson.RoleInstruction {
	return map[lesson.Role]lesson.RoleInstruction{
		lesson.RoleExpertEngineer:  {Focus: "Concentrate on implementation detail and code level consequences.", Tone: "precise"},
		lesson.RoleSystemDesigner:  {Focus: "Concentrate on component boundaries and quality attributes.", Tone: "analytical"},
		lesson.RoleLeader:          {Focus: "Concentrate on decisions, communication and risk.", Tone: "pragmatic"},
		lesson.RoleReviewSynthesis: {Focus: "Concentrate on connecting perspectives and distilling lessons.", Tone: "reflective"},
	}
}

// GeneralContext is returned by context selection when no domain is loaded.
func GeneralContext() *lesson.Context {
	return &lesson.Context{
		Name:            "general",
		Description:     "General software architecture context",
		Characteristics: []string{"maintainability", "scalability", "reliability"},
		Constraints:     []string{"resource-limitations", "time-constraints"},
		Stakeholders:    []string{"developers", "users", "business-stakeholders"},
		Scenarios:       []lesson.Scenario{},
	}
}

func seedDomains() []*lesson.Context {
	return []*lesson.Context{
		GeneralContext(),
		{
			Name:            "server-side-development",
			Description:     "Backend services and APIs that power applications",
			Characteristics: []string{"performance", "observability", "reliability"},
			Constraints:     []string{"latency budgets"},
			Stakeholders:    []string{"backend engineers", "SRE"},
			Scenarios: []lesson.Scenario{{
				Name:            "api-gateway-rollout",
				Description:     "Introducing a gateway in front of legacy services without downtime",
				Characteristics: []string{"routing", "backward compatibility"},
			}},
		},
	}
}

func seedStrategies() []*lesson.ObliqueStrategy {
	return []*lesson.ObliqueStrategy{
		{ID: 1, Text: "Use an old idea", Category: "perspective"},
		{ID: 2, Text: "Emphasize differences", Category: "contrast"},
		{ID: 3, Text: "Simple subtraction", Category: "constraint"},
	}
}

func seedTechnologies() []*lesson.Technology {
	return []*lesson.Technology{
		{
			Name:              "PostgreSQL",
			Category:          "storage",
			Description:       "Relational database with strong consistency",
			QualityAttributes: []string{"consistency", "reliability"},
			Tags:              []string{"server-side-development"},
		},
		{
			Name:              "Redis",
			Category:          "storage",
			Description:       "In-memory data structure store",
			QualityAttributes: []string{"performance"},
			Tags:              []string{"server-side-development", "caching"},
		},
	}
}
