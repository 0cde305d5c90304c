package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
	"github.com/dyluth/quartet/pkg/lesson"
	"gopkg.in/yaml.v3"
)

// DefaultScenarioProbability is the chance that a drawn context comes with
// one of its scenarios attached.
const DefaultScenarioProbability = 0.6

// DefaultWeights returns the built-in domain weights. Domains not listed
// weigh 1.
func DefaultWeights() map[string]int {
	return map[string]int{
		"entertainment-arts":      4,
		"comics":                  3,
		"graphic-apps":            4,
		"creative-coding":         4,
		"server-side-development": 3,
		"scripting-tooling":       3,
		"analytics-data-viz":      3,
		"computer-graphics":       4,
		"webassembly":             3,
		"tauri":                   3,
		"javascript":              3,
		"typescript":              3,
		"go":                      3,
		"rust":                    3,
		"payment-systems":         4,
		"devops":                  3,
		"software-distribution":   3,
		"generative-ai":           4,
		"app-development":         3,
	}
}

type rawDomain struct {
	Description     string            `yaml:"description"`
	Characteristics []string          `yaml:"characteristics"`
	Constraints     []string          `yaml:"constraints"`
	Stakeholders    []string          `yaml:"stakeholders"`
	Workflows       []string          `yaml:"workflows"`
	KPIs            []string          `yaml:"kpis"`
	Scenarios       []lesson.Scenario `yaml:"scenarios"`
}

// DomainRepository holds domain contexts and the weights used to draw them.
// Contexts are shared by every Selection and are never mutated after load.
type DomainRepository struct {
	domains   []*lesson.Context
	byName    map[string]*lesson.Context
	weights   map[string]int
	scenarioP float64
	rnd       randx.Source
	fallback  bool
	source    string
}

// NewDomainRepository builds a repository from domains.yaml bytes.
func NewDomainRepository(data []byte, rnd randx.Source, log *logger.Logger) *DomainRepository {
	return newDomainRepository(table{name: DomainsTable, data: data, source: SourceInline}, rnd, logger.OrNop(log))
}

func newDomainRepository(t table, rnd randx.Source, log *logger.Logger) *DomainRepository {
	r := &DomainRepository{
		byName:    make(map[string]*lesson.Context),
		weights:   DefaultWeights(),
		scenarioP: DefaultScenarioProbability,
		rnd:       rnd,
		source:    t.source,
	}

	domains, err := parseDomains(t.data, log)
	if err == nil && len(domains) == 0 {
		err = errEmptyTable
	}
	if err != nil {
		log.Warn("domain table unusable, installing seed domains", "source", t.source, "error", err)
		domains = seedDomains()
		r.fallback = true
	}
	for _, d := range domains {
		if _, dup := r.byName[d.Name]; dup {
			log.Warn("skipping duplicate domain", "domain", d.Name)
			continue
		}
		r.byName[d.Name] = d
		r.domains = append(r.domains, d)
	}
	return r
}

func parseDomains(data []byte, log *logger.Logger) ([]*lesson.Context, error) {
	root, err := parseRoot(data, "domains", yaml.MappingNode)
	if err != nil {
		return nil, err
	}

	var out []*lesson.Context
	for _, e := range entries(root) {
		var raw rawDomain
		if err := e.Value.Decode(&raw); err != nil {
			log.Warn("skipping malformed domain", "domain", e.Key, "error", err)
			continue
		}
		ctx := &lesson.Context{
			Name:            strings.TrimSpace(e.Key),
			Description:     raw.Description,
			Characteristics: nonNil(raw.Characteristics),
			Constraints:     nonNil(raw.Constraints),
			Stakeholders:    nonNil(raw.Stakeholders),
			Workflows:       raw.Workflows,
			KPIs:            raw.KPIs,
			Scenarios:       validScenarios(e.Key, raw.Scenarios, log),
		}
		if err := ctx.Validate(); err != nil {
			log.Warn("skipping invalid domain", "domain", e.Key, "error", err)
			continue
		}
		out = append(out, ctx)
	}
	return out, nil
}

func validScenarios(domain string, in []lesson.Scenario, log *logger.Logger) []lesson.Scenario {
	out := make([]lesson.Scenario, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.Description) == "" {
			log.Warn("skipping scenario without name or description", "domain", domain)
			continue
		}
		s.Characteristics = nonNil(s.Characteristics)
		out = append(out, s)
	}
	return out
}

// All returns every context in source order.
func (r *DomainRepository) All() []*lesson.Context {
	out := make([]*lesson.Context, len(r.domains))
	copy(out, r.domains)
	return out
}

// Get looks a context up by domain name.
func (r *DomainRepository) Get(name string) (*lesson.Context, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the domain names in source order.
func (r *DomainRepository) Names() []string {
	names := make([]string, len(r.domains))
	for i, d := range r.domains {
		names[i] = d.Name
	}
	return names
}

// ByTag returns the domains whose characteristics, KPIs or constraints
// match tag, case-insensitively.
func (r *DomainRepository) ByTag(tag string) []*lesson.Context {
	needle := strings.ToLower(strings.TrimSpace(tag))
	var out []*lesson.Context
	for _, d := range r.domains {
		if containsFold(d.Characteristics, needle) || containsFold(d.KPIs, needle) || containsFold(d.Constraints, needle) {
			out = append(out, d)
		}
	}
	return out
}

// SetScenarioProbability changes the chance of attaching a scenario.
func (r *DomainRepository) SetScenarioProbability(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("scenario probability %v out of range [0, 1]", p)
	}
	r.scenarioP = p
	return nil
}

// SetWeights merges partial into the current weights. Weights below 1 are
// raised to 1 when drawing.
func (r *DomainRepository) SetWeights(partial map[string]int) {
	for name, w := range partial {
		r.weights[name] = w
	}
}

// Weight returns the effective weight of a domain.
func (r *DomainRepository) Weight(name string) int {
	w, ok := r.weights[name]
	if !ok || w < 1 {
		return 1
	}
	return w
}

// Weights returns a copy of the effective weight of every loaded domain.
func (r *DomainRepository) Weights() map[string]int {
	out := make(map[string]int, len(r.domains))
	for _, d := range r.domains {
		out[d.Name] = r.Weight(d.Name)
	}
	return out
}

// SelectContext draws a context, each domain occupying as many slots as its
// weight, then attaches a uniformly drawn scenario with the configured
// probability. An empty repository yields the general context.
func (r *DomainRepository) SelectContext() lesson.Selection {
	if len(r.domains) == 0 {
		return lesson.Selection{Context: GeneralContext()}
	}

	slots := make([]*lesson.Context, 0, len(r.domains)*2)
	for _, d := range r.domains {
		for i := 0; i < r.Weight(d.Name); i++ {
			slots = append(slots, d)
		}
	}
	ctx, _ := randx.Pick(r.rnd, slots)

	sel := lesson.Selection{Context: ctx}
	if len(ctx.Scenarios) > 0 && r.rnd.Float64() < r.scenarioP {
		s := ctx.Scenarios[r.rnd.Intn(len(ctx.Scenarios))]
		sel.Scenario = &s
	}
	return sel
}

// ScenarioCount returns the number of scenarios across all domains.
func (r *DomainRepository) ScenarioCount() int {
	n := 0
	for _, d := range r.domains {
		n += len(d.Scenarios)
	}
	return n
}

// Stats reports the domain count and the scenarios per domain.
func (r *DomainRepository) Stats() Stats {
	s := newStats(len(r.domains), r.fallback, r.source)
	for _, d := range r.domains {
		s.Breakdown[d.Name] = len(d.Scenarios)
	}
	return s
}

// SortedWeights returns the weights as name/weight pairs, heaviest first
// and alphabetical within a weight.
func SortedWeights(weights map[string]int) []WeightEntry {
	out := make([]WeightEntry, 0, len(weights))
	for name, w := range weights {
		out = append(out, WeightEntry{Domain: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// WeightEntry is one domain weight.
type WeightEntry struct {
	Domain string `json:"domain"`
	Weight int    `json:"weight"`
}

func containsFold(list []string, needle string) bool {
	for _, s := range list {
		if strings.ToLower(s) == needle {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
