// Package template renders a stage's prompt text from its selected content.
package template

import (
	"fmt"
	"strings"

	"github.com/dyluth/quartet/pkg/lesson"
)

var defaultDeliverables = []string{
	"Practical implementation guidance",
	"Real-world application examples",
	"Common pitfalls and solutions",
}

var formattingRequirements = []string{
	"Use clear markdown formatting with proper headings",
	"Include bullet points and numbered lists where appropriate",
	"Add code examples in fenced code blocks when relevant",
	"Keep paragraphs concise and scannable",
	"Include practical examples and real-world scenarios",
	"End each section with actionable takeaways",
	"Target 10-15 minutes reading time for busy engineers",
}

// Templates supplies lesson formats and role instructions.
type Templates interface {
	Select(concepts []*lesson.Concept, complexity lesson.Complexity) *lesson.LessonTemplate
	RoleInstruction(role lesson.Role) lesson.RoleInstruction
}

// Engine assembles prompts.
type Engine struct {
	templates Templates
}

// NewEngine returns an Engine. templates fills in Input.Template and
// Input.Instruction when the caller leaves them empty; it may be nil.
func NewEngine(templates Templates) *Engine {
	return &Engine{templates: templates}
}

// BuildPrompt renders the prompt. Blocks are written in a fixed order: title,
// role framing, structure, content guidance, adaptation guidance, role
// perspective, domain context, enrichment, concept focus, creative approach
// and the formatting footer. Blocks without content are omitted.
func (e *Engine) BuildPrompt(in Input) string {
	if in.Template == nil && e.templates != nil {
		in.Template = e.templates.Select(in.Concepts, in.Complexity)
	}
	if in.Instruction.Focus == "" && e.templates != nil {
		in.Instruction = e.templates.RoleInstruction(in.Role)
	}
	vars := BuildVariables(in)
	role := in.Role.DisplayName()

	var b strings.Builder
	b.WriteString("# Educational Lesson Generation Prompt\n\n")
	fmt.Fprintf(&b, "You are an expert software architecture educator. Create a comprehensive, engaging lesson that teaches software engineers about **%s** from the perspective of a **%s**.\n\n", in.MainConcept(), role)

	if t := in.Template; t != nil {
		b.WriteString("## Lesson Structure Requirements\n")
		b.WriteString("Create a lesson using this exact structure:\n\n")
		for _, section := range t.Structure {
			b.WriteString(section + "\n")
		}
		b.WriteString("\n## Content Guidelines\n")
		b.WriteString(Interpolate(t.InstructionalGuidance, vars) + "\n\n")

		if t.AdaptationInstructions != "" {
			b.WriteString("## Adaptation Instructions\n")
			b.WriteString(Interpolate(t.AdaptationInstructions, vars) + "\n\n")
		}
	}

	if in.Instruction.Focus != "" {
		fmt.Fprintf(&b, "## %s Perspective\n", role)
		b.WriteString(in.Instruction.Focus + "\n\n")
		b.WriteString("**Key Deliverables:**\n")
		var deliverables []string
		if in.Template != nil {
			deliverables = in.Template.DeliverablesFor(in.Complexity, in.Role)
		}
		if len(deliverables) == 0 {
			deliverables = defaultDeliverables
		}
		for _, d := range deliverables {
			b.WriteString("- " + d + "\n")
		}
		b.WriteString("\n")
	}

	writeDomainContext(&b, in.Selection)
	writeEnrichment(&b, in.Enrichment)
	writeConceptFocus(&b, in.Concepts)

	if s := in.Strategy; s != nil {
		fmt.Fprintf(&b, "## Creative Approach\n%s\n\n%s\n\n", s.FormattedText(), s.IntegrationGuidance())
	}

	b.WriteString("\n## Formatting Requirements\n")
	for _, r := range formattingRequirements {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\n**Remember**: This lesson should be immediately useful for software engineers to reference and apply in their daily work.")
	return b.String()
}

func writeDomainContext(b *strings.Builder, sel lesson.Selection) {
	ctx := sel.Context
	if ctx == nil {
		return
	}
	fmt.Fprintf(b, "## Domain Context: %s\n", ctx.Name)
	b.WriteString(ctx.Description + "\n\n")
	fmt.Fprintf(b, "**Technical Challenges**: %s\n", ctx.TechnicalChallenges())
	fmt.Fprintf(b, "**Business Context**: %s\n", ctx.BusinessContext())
	fmt.Fprintf(b, "**Key Stakeholders**: %s\n\n", strings.Join(ctx.Stakeholders, ", "))
	if sel.Scenario != nil {
		fmt.Fprintf(b, "**Specific Scenario**: %s\n\n", sel.Scenario.Label())
	}
}

func writeEnrichment(b *strings.Builder, e *lesson.Enrichment) {
	domain := e.DomainName()
	techs := e.TechnologyNames()
	if domain == "" && len(techs) == 0 {
		return
	}
	b.WriteString("## Technology & Domain Enrichment\n")
	if domain != "" {
		fmt.Fprintf(b, "Domain Focus: %s\n", domain)
	}
	if len(techs) > 0 {
		fmt.Fprintf(b, "Technologies to integrate: %s\n", strings.Join(techs, ", "))
		b.WriteString("- Provide examples and trade-offs referencing these technologies where relevant.\n")
	}
	b.WriteString("\n")
}

func writeConceptFocus(b *strings.Builder, concepts []*lesson.Concept) {
	var present []*lesson.Concept
	for _, c := range concepts {
		if c != nil {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return
	}
	b.WriteString("## Concept Focus\n")
	b.WriteString("This lesson should deeply explore these key concepts:\n\n")
	for _, c := range present {
		fmt.Fprintf(b, "**%s** (%s): %s\n", c.Name, c.Complexity, c.Definition)
		if len(c.KeyInsights) > 0 {
			fmt.Fprintf(b, "- Key insight: %s\n", c.KeyInsights[0])
		}
	}
	b.WriteString("\nEnsure the lesson connects these concepts to practical software architecture decisions.\n\n")
}
