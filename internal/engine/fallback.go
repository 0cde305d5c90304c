package engine

import (
	"fmt"

	"github.com/dyluth/quartet/internal/content"
	"github.com/dyluth/quartet/internal/generator"
	"github.com/dyluth/quartet/pkg/lesson"
)

type fallbackStage struct {
	role       lesson.Role
	prompt     string
	hashtags   []string
	lessonType string
	concept    string
}

var fallbackStages = []fallbackStage{
	{
		role:       lesson.RoleExpertEngineer,
		prompt:     "Fallback prompt: Explore software architecture fundamentals and design patterns.",
		hashtags:   []string{"#software-architecture", "#design-patterns", "#engineering"},
		lessonType: "Foundational concepts",
		concept:    "software-architecture",
	},
	{
		role:       lesson.RoleSystemDesigner,
		prompt:     "Fallback prompt: Design scalable systems with proper architectural decisions.",
		hashtags:   []string{"#system-design", "#scalability", "#architecture"},
		lessonType: "System design",
		concept:    "system-design",
	},
	{
		role:       lesson.RoleLeader,
		prompt:     "Fallback prompt: Lead architectural decisions and communicate technical vision.",
		hashtags:   []string{"#leadership", "#technical-vision", "#communication"},
		lessonType: "Leadership skills",
		concept:    "leadership",
	},
	{
		role:       lesson.RoleReviewSynthesis,
		prompt:     "Fallback prompt: Review architectural decisions and synthesize learnings.",
		hashtags:   []string{"#review", "#synthesis", "#reflection"},
		lessonType: "Reflection and synthesis",
		concept:    "reflection",
	},
}

// FallbackCycle is the fixed cycle returned when generation fails outright.
// It always validates.
func FallbackCycle(timestamp int64, cause error) *lesson.Cycle {
	ctx := content.GeneralContext()
	complexity := lesson.ComplexityIntermediate

	stages := make([]*lesson.Stage, 0, len(fallbackStages))
	for _, f := range fallbackStages {
		audit := &lesson.StageAudit{
			TemplateKey: "fallback",
			Fingerprint: lesson.Fingerprint(f.prompt),
			Fallback:    true,
		}
		stages = append(stages, &lesson.Stage{
			Stage:            f.role.DisplayName(),
			Prompt:           f.prompt,
			Hashtags:         append([]string(nil), f.hashtags...),
			Context:          ctx.Name,
			Complexity:       complexity,
			LessonType:       f.lessonType,
			ConceptsUsed:     []string{f.concept},
			TechnologiesUsed: []string{},
			Audit:            audit,
			Timestamp:        timestamp,
		})
	}

	cycle := &lesson.Cycle{
		ID:         fmt.Sprintf("fallback-cycle-%d", timestamp),
		Timestamp:  timestamp,
		Context:    ctx,
		Complexity: complexity,
		Stages:     stages,
		Metadata: lesson.CycleMetadata{
			GeneratedBy: generator.GeneratedBy,
			Fallback:    true,
		},
	}
	if cause != nil {
		cycle.Metadata.Error = cause.Error()
	}
	cycle.Audit = &lesson.CycleAudit{Context: ctx.Name, Complexity: complexity}
	for _, r := range lesson.Roles() {
		cycle.Audit.Roles = append(cycle.Audit.Roles, r.Key())
	}
	for _, s := range stages {
		cycle.Audit.Stages = append(cycle.Audit.Stages, lesson.SummarizeStage(s))
	}
	return cycle
}
