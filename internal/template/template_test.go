package template

import (
	"strings"
	"testing"

	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     Variables
		want     string
	}{
		{"partial", "Learn {x} in {y}", Variables{"x": "a"}, "Learn a in {y}"},
		{"empty template", "", nil, ""},
		{"empty value kept", "{x}", Variables{"x": ""}, "{x}"},
		{"repeated", "{x}/{x}", Variables{"x": "go"}, "go/go"},
		{"no placeholders", "plain text", Variables{"x": "a"}, "plain text"},
		{"unbalanced", "{x", Variables{"x": "a"}, "{x"},
		{"nil vars", "keep {x}", nil, "keep {x}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.template, tt.vars))
		})
	}
}

func modularity() *lesson.Concept {
	return &lesson.Concept{
		Name:        "modularity",
		Category:    lesson.CategoryFoundational,
		Definition:  "Dividing a system into parts.",
		Complexity:  lesson.ComplexityBeginner,
		KeyInsights: []string{"Boundaries follow volatility."},
	}
}

func goSelection() lesson.Selection {
	return lesson.Selection{
		Context: &lesson.Context{
			Name:            "go",
			Description:     "Cloud-native services",
			Characteristics: []string{"concurrency", "simplicity"},
			Constraints:     []string{"memory footprint"},
			Stakeholders:    []string{"backend engineers", "SRE"},
		},
		Scenario: &lesson.Scenario{Name: "goroutine-leak-hunt", Description: "Tracking a leak"},
	}
}

func TestBuildVariables(t *testing.T) {
	vars := BuildVariables(Input{
		Role:       lesson.RoleExpertEngineer,
		Selection:  goSelection(),
		Concepts:   []*lesson.Concept{modularity(), {Name: "coupling"}},
		Complexity: lesson.ComplexityBeginner,
		Enrichment: &lesson.Enrichment{
			Domain:       &lesson.DomainSummary{Name: "go"},
			Technologies: []lesson.Technology{{Name: "Go"}, {Name: "Redis"}},
		},
	})

	assert.Equal(t, "modularity", vars["concept"])
	assert.Equal(t, "modularity, coupling", vars["concepts"])
	assert.Equal(t, "go", vars["context"])
	assert.Equal(t, "go", vars["domain"])
	assert.Equal(t, "goroutine-leak-hunt", vars["domainScenario"])
	assert.Equal(t, "goroutine-leak-hunt", vars["scenario"])
	assert.Equal(t, "modularity in go systems", vars["decisionContext"])
	assert.Equal(t, "memory footprint", vars["technicalChallenges"])
	assert.Equal(t, "Go, Redis", vars["technologies"])
	assert.Equal(t, "Go", vars["primaryTechnology"])
	assert.Equal(t, "improved system modularity", vars["implementationGoal"])
	assert.Equal(t, "backend engineers, SRE", vars["stakeholderNeeds"])
	assert.Equal(t, "cloud-native services and tooling ecosystem", vars["businessContext"])
	assert.Equal(t, "Expert Engineer", vars["role"])
	assert.Equal(t, "beginner", vars["complexity"])
	assert.Equal(t, "concurrency, simplicity", vars["qualityAttributes"])
	assert.Equal(t, "step-by-step guided approach", vars["approach"])
	assert.Equal(t, "technical implementation skills", vars["skill"])
	assert.Equal(t, "practical learning framework", vars["framework"])
	assert.Equal(t, "architectural design patterns", vars["pattern"])
	assert.Equal(t, "high-throughput message processing service", vars["caseStudy"])
	assert.Equal(t, "applying modularity in go systems", vars["useCase"])
}

func TestBuildVariables_Defaults(t *testing.T) {
	vars := BuildVariables(Input{Role: lesson.RoleReviewSynthesis, Complexity: lesson.ComplexityIntermediate})

	assert.Equal(t, "software architecture fundamentals", vars["concept"])
	assert.Equal(t, "architecture concepts", vars["concepts"])
	assert.Equal(t, "software architecture", vars["context"])
	assert.Equal(t, "general", vars["domain"])
	assert.Equal(t, "software architecture context", vars["domainContext"])
	assert.Equal(t, "n/a", vars["technologies"])
	assert.Equal(t, "n/a", vars["primaryTechnology"])
	assert.Equal(t, "distributed system", vars["systemContext"])
	assert.Equal(t, "user experience, operational efficiency", vars["stakeholderNeeds"])
	assert.Equal(t, "maintainability, scalability", vars["qualityAttributes"])
	assert.Equal(t, "resource limitations", vars["constraints"])
	assert.Equal(t, "practical application approach", vars["approach"])
	assert.Equal(t, "architectural thinking skills", vars["skill"])
	assert.Equal(t, "scalability, maintainability, performance", vars["technicalChallenges"])
}

func TestBuildVariables_Heuristics(t *testing.T) {
	c := func(name string, cat lesson.ConceptCategory) *lesson.Concept {
		return &lesson.Concept{Name: name, Category: cat}
	}
	fintech := lesson.Selection{Context: &lesson.Context{Name: "fintech"}}

	tests := []struct {
		name string
		in   Input
		key  string
		want string
	}{
		{"trade-off decision", Input{Concepts: []*lesson.Concept{c("architectural-trade-offs", "")}}, "decisionType", "architectural trade-off decisions"},
		{"pattern decision", Input{Concepts: []*lesson.Concept{c("pattern-language", "")}}, "decisionType", "pattern selection decisions"},
		{"fintech decision", Input{Selection: fintech}, "decisionType", "security and compliance decisions"},
		{"default decision", Input{}, "decisionType", "architectural design decisions"},
		{"performance goal", Input{Concepts: []*lesson.Concept{c("performance-budgets", "")}}, "implementationGoal", "performance optimization"},
		{"security goal", Input{Concepts: []*lesson.Concept{c("security-by-design", "")}}, "implementationGoal", "security enhancement"},
		{"scalability goal", Input{Concepts: []*lesson.Concept{c("scalability", "")}}, "implementationGoal", "scalability improvement"},
		{"default goal", Input{Concepts: []*lesson.Concept{c("cohesion", "")}}, "implementationGoal", "architectural excellence"},
		{"structural pattern", Input{Concepts: []*lesson.Concept{c("microservices", lesson.CategoryStructural)}}, "pattern", "modular architecture patterns"},
		{"quantum pattern", Input{Concepts: []*lesson.Concept{c("architecture-quantum", lesson.CategoryQualitative)}}, "pattern", "microservices patterns"},
		{"coupling pattern", Input{Concepts: []*lesson.Concept{c("coupling", lesson.CategoryFoundational)}}, "pattern", "decoupling patterns"},
		{"advanced approach", Input{Complexity: lesson.ComplexityAdvanced}, "approach", "comprehensive analysis approach"},
		{"designer skill", Input{Role: lesson.RoleSystemDesigner}, "skill", "architectural design skills"},
		{"leader skill", Input{Role: lesson.RoleLeader}, "skill", "decision-making and communication skills"},
		{"decision framework", Input{Concepts: []*lesson.Concept{c("decision-records", "")}}, "framework", "architectural decision framework"},
		{"advanced framework", Input{Complexity: lesson.ComplexityAdvanced}, "framework", "comprehensive analysis framework"},
		{"scenario description", Input{Selection: lesson.Selection{Context: &lesson.Context{Name: "x"}, Scenario: &lesson.Scenario{Description: "desc"}}}, "scenario", "desc"},
		{"no scenario", Input{Selection: lesson.Selection{Context: &lesson.Context{Name: "x"}}}, "domainScenario", "x system development scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildVariables(tt.in)[tt.key])
		})
	}
}

func testTemplate() *lesson.LessonTemplate {
	return &lesson.LessonTemplate{
		Key:                    "conceptExploration",
		Description:            "Concept exploration and practical application",
		Structure:              []string{"## Concept Overview", "## Why This Matters"},
		InstructionalGuidance:  "Explain {concept} to a {role} using {unknownVariable}.",
		AdaptationInstructions: "Reference {primaryTechnology}.",
		Deliverables: map[lesson.Complexity]map[string][]string{
			lesson.ComplexityBeginner: {"expertEngineer": {"Annotated code walkthrough"}},
		},
	}
}

func TestBuildPrompt_ExpertEngineerModularity(t *testing.T) {
	prompt := NewEngine(nil).BuildPrompt(Input{
		Role:        lesson.RoleExpertEngineer,
		Selection:   goSelection(),
		Concepts:    []*lesson.Concept{modularity()},
		Complexity:  lesson.ComplexityBeginner,
		Template:    testTemplate(),
		Instruction: lesson.RoleInstruction{Focus: "Focus on code."},
		Strategy:    &lesson.ObliqueStrategy{ID: 2, Text: "Use an old idea"},
		Enrichment: &lesson.Enrichment{
			Domain:       &lesson.DomainSummary{Name: "go"},
			Technologies: []lesson.Technology{{Name: "Go"}},
		},
	})

	assert.Contains(t, prompt, "modularity")
	assert.NotContains(t, prompt, "{concept}")
	assert.Contains(t, prompt, "{unknownVariable}")
	assert.True(t, strings.HasPrefix(prompt, "# Educational Lesson Generation Prompt\n\n"))
	assert.Contains(t, prompt, "about **modularity** from the perspective of a **Expert Engineer**.")
	assert.Contains(t, prompt, "Create a lesson using this exact structure:\n\n## Concept Overview\n## Why This Matters\n")
	assert.Contains(t, prompt, "## Content Guidelines\nExplain modularity to a Expert Engineer using {unknownVariable}.\n\n")
	assert.Contains(t, prompt, "## Adaptation Instructions\nReference Go.\n\n")
	assert.Contains(t, prompt, "## Expert Engineer Perspective\nFocus on code.\n\n**Key Deliverables:**\n- Annotated code walkthrough\n\n")
	assert.Contains(t, prompt, "## Domain Context: go\nCloud-native services\n\n")
	assert.Contains(t, prompt, "**Key Stakeholders**: backend engineers, SRE\n\n")
	assert.Contains(t, prompt, "**Specific Scenario**: Tracking a leak\n\n")
	assert.Contains(t, prompt, "## Technology & Domain Enrichment\nDomain Focus: go\nTechnologies to integrate: Go\n")
	assert.Contains(t, prompt, "**modularity** (beginner): Dividing a system into parts.\n- Key insight: Boundaries follow volatility.\n")
	assert.Contains(t, prompt, "## Creative Approach\n**Oblique Strategy**: Use an old idea\n\nConsider this perspective when structuring your lesson.\n\n")
	assert.True(t, strings.HasSuffix(prompt, "apply in their daily work."))

	// Blocks appear in the fixed order.
	order := []string{
		"## Lesson Structure Requirements", "## Content Guidelines", "## Adaptation Instructions",
		"## Expert Engineer Perspective", "## Domain Context", "## Technology & Domain Enrichment",
		"## Concept Focus", "## Creative Approach", "## Formatting Requirements",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(prompt, heading)
		require.Greater(t, idx, last, heading)
		last = idx
	}
}

func TestBuildPrompt_OmitsAbsentBlocks(t *testing.T) {
	tmpl := testTemplate()
	tmpl.AdaptationInstructions = ""

	prompt := NewEngine(nil).BuildPrompt(Input{
		Role:        lesson.RoleLeader,
		Selection:   lesson.Selection{Context: &lesson.Context{Name: "general"}},
		Complexity:  lesson.ComplexityAdvanced,
		Template:    tmpl,
		Instruction: lesson.RoleInstruction{Focus: "Lead."},
	})

	assert.NotContains(t, prompt, "## Adaptation Instructions")
	assert.NotContains(t, prompt, "## Technology & Domain Enrichment")
	assert.NotContains(t, prompt, "## Concept Focus")
	assert.NotContains(t, prompt, "## Creative Approach")
	assert.NotContains(t, prompt, "**Specific Scenario**")
	assert.Contains(t, prompt, "about **software architecture fundamentals**")
	assert.Contains(t, prompt, "- Practical implementation guidance\n- Real-world application examples\n- Common pitfalls and solutions\n")
}

type stubTemplates struct{}

func (stubTemplates) Select([]*lesson.Concept, lesson.Complexity) *lesson.LessonTemplate {
	return testTemplate()
}

func (stubTemplates) RoleInstruction(lesson.Role) lesson.RoleInstruction {
	return lesson.RoleInstruction{Focus: "From the repository."}
}

func TestBuildPrompt_UsesRepositoryWhenInputIsBare(t *testing.T) {
	prompt := NewEngine(stubTemplates{}).BuildPrompt(Input{Role: lesson.RoleSystemDesigner, Concepts: []*lesson.Concept{modularity()}})
	assert.Contains(t, prompt, "## Concept Overview")
	assert.Contains(t, prompt, "## System Designer Perspective\nFrom the repository.")
	assert.NotContains(t, prompt, "## Domain Context")
}
