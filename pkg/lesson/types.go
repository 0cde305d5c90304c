package lesson

import (
	"errors"
	"fmt"
	"strings"
)

// ConceptCategory groups concepts for role relevance.
type ConceptCategory string

const (
	CategoryFoundational ConceptCategory = "foundational"
	CategoryStructural   ConceptCategory = "structural"
	CategoryQualitative  ConceptCategory = "qualitative"
	CategoryGeneral      ConceptCategory = "general"
)

// Concept is a unit of subject-matter content. Concepts are immutable once
// constructed by NewConcept.
type Concept struct {
	Name          string          `json:"name" yaml:"name"`
	Category      ConceptCategory `json:"category" yaml:"category"`
	Definition    string          `json:"definition" yaml:"definition"`
	Complexity    Complexity      `json:"complexity" yaml:"complexity"`
	Components    []string        `json:"components" yaml:"components"`
	KeyInsights   []string        `json:"key_insights" yaml:"keyInsights"`
	Relationships []string        `json:"relationships" yaml:"relationships"`
}

// NewConcept validates and builds a Concept. An empty category becomes
// "general" and an empty complexity becomes "intermediate".
func NewConcept(c Concept) (*Concept, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, errors.New("concept must have a name")
	}
	if c.Category == "" {
		c.Category = CategoryGeneral
	}
	if c.Complexity == "" {
		c.Complexity = ComplexityIntermediate
	}
	if !c.Complexity.Valid() {
		return nil, fmt.Errorf("concept '%s': %w: %q", c.Name, ErrUnknownComplexity, c.Complexity)
	}
	c.Components = nonNil(c.Components)
	c.KeyInsights = nonNil(c.KeyInsights)
	c.Relationships = nonNil(c.Relationships)
	return &c, nil
}

// RelevantTo reports whether the concept's category is on the role's allow-list.
func (c *Concept) RelevantTo(r Role) bool {
	for _, cat := range r.Categories() {
		if cat == c.Category {
			return true
		}
	}
	return false
}

// Tag returns the concept's own tag.
func (c *Concept) Tag() (string, bool) {
	return Tag(c.Name)
}

// ComponentTags returns tags for at most max non-blank components.
func (c *Concept) ComponentTags(max int) []string {
	return AppendTags(nil, c.Components, max)
}

// Scenario is a concrete situational example inside a domain.
type Scenario struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Characteristics []string `json:"characteristics" yaml:"characteristics"`
}

// Label returns the description, or the name when there is none.
func (s *Scenario) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}

// Context is a named problem area (a market or technical vertical). Cached
// contexts are shared and must be treated as read-only.
type Context struct {
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description" yaml:"description"`
	Characteristics []string   `json:"characteristics" yaml:"characteristics"`
	Constraints     []string   `json:"constraints" yaml:"constraints"`
	Stakeholders    []string   `json:"stakeholders" yaml:"stakeholders"`
	Workflows       []string   `json:"workflows,omitempty" yaml:"workflows"`
	KPIs            []string   `json:"kpis,omitempty" yaml:"kpis"`
	Scenarios       []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Validate checks the context has a name.
func (c *Context) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("context must have a name")
	}
	return nil
}

// Tags returns the domain tag, up to three characteristic tags and up to two
// constraint tags, deduplicated and capped at max.
func (c *Context) Tags(max int) []string {
	tags := AppendTags(nil, []string{c.Name}, 1)
	tags = AppendTags(tags, c.Characteristics, 3)
	tags = AppendTags(tags, c.Constraints, 2)
	return UniqueTags(tags, max)
}

// Selection is the immutable result of drawing a context: the shared cached
// context plus the scenario attached for this draw, if any.
type Selection struct {
	Context  *Context  `json:"context"`
	Scenario *Scenario `json:"scenario,omitempty"`
}

// Name returns the selected context's name, or "general" when empty.
func (s Selection) Name() string {
	if s.Context == nil || s.Context.Name == "" {
		return "general"
	}
	return s.Context.Name
}

// ScenarioTags returns tags for at most max characteristics of the attached
// scenario.
func (s Selection) ScenarioTags(max int) []string {
	if s.Scenario == nil {
		return nil
	}
	return AppendTags(nil, s.Scenario.Characteristics, max)
}

// Interfaces lists how a technology is connected to its surroundings.
type Interfaces struct {
	Inputs    []string `json:"inputs" yaml:"inputs"`
	Outputs   []string `json:"outputs" yaml:"outputs"`
	Protocols []string `json:"protocols" yaml:"protocols"`
}

// Technology is a concrete tooling reference used to ground prompts.
type Technology struct {
	Name              string     `json:"name" yaml:"name"`
	Category          string     `json:"category" yaml:"category"`
	Description       string     `json:"description" yaml:"description"`
	Interfaces        Interfaces `json:"interfaces" yaml:"interfaces"`
	QualityAttributes []string   `json:"quality_attributes" yaml:"qualityAttributes"`
	Constraints       []string   `json:"constraints" yaml:"constraints"`
	Tags              []string   `json:"tags" yaml:"tags"`
}

// Validate checks the technology has a name.
func (t *Technology) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("technology must have a name")
	}
	return nil
}

// Hashtags returns "#tech-<name>", "#cat-<category>", up to two quality
// attribute tags and up to two custom tags, deduplicated and capped at max.
func (t *Technology) Hashtags(max int) []string {
	var tags []string
	if tag, ok := PrefixedTag("tech", t.Name); ok {
		tags = append(tags, tag)
	}
	if tag, ok := PrefixedTag("cat", t.Category); ok {
		tags = append(tags, tag)
	}
	tags = AppendTags(tags, t.QualityAttributes, 2)
	tags = AppendTags(tags, t.Tags, 2)
	return UniqueTags(tags, max)
}

// LessonTemplate describes the structure and guidance of one lesson format.
type LessonTemplate struct {
	Key                    string                             `json:"key" yaml:"key"`
	Description            string                             `json:"description" yaml:"description"`
	Structure              []string                           `json:"structure" yaml:"structure"`
	InstructionalGuidance  string                             `json:"instructional_guidance" yaml:"instructionalGuidance"`
	AdaptationInstructions string                             `json:"adaptation_instructions,omitempty" yaml:"adaptationInstructions"`
	Deliverables           map[Complexity]map[string][]string `json:"deliverables,omitempty" yaml:"deliverables"`
}

// Validate checks the template has a key and at least one section.
func (t *LessonTemplate) Validate() error {
	if strings.TrimSpace(t.Key) == "" {
		return errors.New("lesson template must have a key")
	}
	if len(t.Structure) == 0 {
		return fmt.Errorf("lesson template '%s' must have a structure", t.Key)
	}
	return nil
}

// DeliverablesFor returns the deliverables listed for a complexity and role.
func (t *LessonTemplate) DeliverablesFor(c Complexity, r Role) []string {
	byRole, ok := t.Deliverables[c]
	if !ok {
		return nil
	}
	return byRole[r.Key()]
}

// RoleInstruction is the perspective guidance for one role.
type RoleInstruction struct {
	Focus string `json:"focus" yaml:"focus"`
	Tone  string `json:"tone" yaml:"tone"`
}

// ObliqueStrategy is an optional creative constraint injected into a cycle.
type ObliqueStrategy struct {
	ID                 int    `json:"id"`
	Text               string `json:"text" yaml:"text"`
	Category           string `json:"category" yaml:"category"`
	IntegrationPattern string `json:"integration_pattern" yaml:"integrationPattern"`
}

// FormattedText returns the strategy text as it appears in a prompt.
func (s *ObliqueStrategy) FormattedText() string {
	return "**Oblique Strategy**: " + s.Text
}

// IntegrationGuidance returns the integration pattern or a generic hint.
func (s *ObliqueStrategy) IntegrationGuidance() string {
	if s.IntegrationPattern != "" {
		return s.IntegrationPattern
	}
	return "Consider this perspective when structuring your lesson."
}

// DomainSummary is the serialisable part of a context carried by an enrichment.
type DomainSummary struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	Constraints     []string `json:"constraints"`
	Stakeholders    []string `json:"stakeholders"`
}

// SummarizeContext copies the serialisable fields of c.
func SummarizeContext(c *Context) *DomainSummary {
	if c == nil {
		return nil
	}
	return &DomainSummary{
		Name:            c.Name,
		Description:     c.Description,
		Characteristics: nonNil(c.Characteristics),
		Constraints:     nonNil(c.Constraints),
		Stakeholders:    nonNil(c.Stakeholders),
	}
}

// Enrichment joins a domain with the technologies selected for it.
type Enrichment struct {
	Domain       *DomainSummary `json:"domain"`
	Technologies []Technology   `json:"technologies"`
	Hashtags     []string       `json:"hashtags"`
}

// TechnologyNames returns the names of the enrichment's technologies.
func (e *Enrichment) TechnologyNames() []string {
	if e == nil {
		return []string{}
	}
	names := make([]string, 0, len(e.Technologies))
	for _, t := range e.Technologies {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

// DomainName returns the enriched domain's name or "".
func (e *Enrichment) DomainName() string {
	if e == nil || e.Domain == nil {
		return ""
	}
	return e.Domain.Name
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
