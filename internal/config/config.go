package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dyluth/quartet/internal/instance"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "quartet.yml"

// Defaults applied by Validate when a field is left unset.
const (
	DefaultObliqueProbability           = 0.3
	DefaultRegenerateObliqueProbability = 0.4
	DefaultScenarioProbability          = 0.6
	DefaultEnrichmentLimit              = 3
	DefaultMinConcepts                  = 3
	DefaultMaxConcepts                  = 5
	DefaultHistoryMaxEntries            = 100
	DefaultLogMode                      = "quiet"
)

// QuartetConfig represents the top-level quartet.yml configuration
type QuartetConfig struct {
	Version       string               `yaml:"version"`
	Seed          int64                `yaml:"seed,omitempty"` // 0 = time-seeded
	Content       ContentConfig        `yaml:"content,omitempty"`
	Weights       map[string]int       `yaml:"weights,omitempty"`
	Probabilities *ProbabilitiesConfig `yaml:"probabilities,omitempty"`
	Enrichment    *EnrichmentConfig    `yaml:"enrichment,omitempty"`
	Concepts      *ConceptsConfig      `yaml:"concepts,omitempty"`
	Tags          TagsConfig           `yaml:"tags,omitempty"`
	History       *HistoryConfig       `yaml:"history,omitempty"`
	Log           LogConfig            `yaml:"log,omitempty"`
}

// ContentConfig points at a directory of table overrides
type ContentConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// ProbabilitiesConfig holds the draw probabilities, each in [0,1]
type ProbabilitiesConfig struct {
	Oblique           *float64 `yaml:"oblique,omitempty"`
	RegenerateOblique *float64 `yaml:"regenerate_oblique,omitempty"`
	Scenario          *float64 `yaml:"scenario,omitempty"`
}

// EnrichmentConfig tunes technology selection
type EnrichmentConfig struct {
	Limit            int      `yaml:"limit,omitempty"`
	RequiredTechTags []string `yaml:"required_tech_tags,omitempty"`
}

// ConceptsConfig bounds the number of concepts drawn per stage
type ConceptsConfig struct {
	Min int `yaml:"min,omitempty"`
	Max int `yaml:"max,omitempty"`
}

// TagsConfig tunes tag generation
type TagsConfig struct {
	RoleTags bool `yaml:"role_tags,omitempty"` // append each role's perspective tags
}

// HistoryConfig locates the Redis archive
type HistoryConfig struct {
	RedisURL   string `yaml:"redis_url,omitempty"`
	Instance   string `yaml:"instance,omitempty"`
	MaxEntries *int   `yaml:"max_entries,omitempty"` // 0 = unlimited
}

// LogConfig selects the diagnostic logger
type LogConfig struct {
	Mode string `yaml:"mode,omitempty"` // dev, prod or quiet
}

// Default returns a validated configuration with every default applied.
func Default() *QuartetConfig {
	cfg := &QuartetConfig{Version: "1.0"}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate performs strict validation on the configuration and fills in
// defaults for unset sections.
func (c *QuartetConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	for domain, w := range c.Weights {
		if domain == "" {
			return fmt.Errorf("weights: domain name cannot be empty")
		}
		if w < 1 {
			return fmt.Errorf("weights: domain '%s' must have weight >= 1, got %d", domain, w)
		}
	}

	if err := c.validateProbabilities(); err != nil {
		return err
	}

	if c.Enrichment == nil {
		c.Enrichment = &EnrichmentConfig{}
	}
	if c.Enrichment.Limit == 0 {
		c.Enrichment.Limit = DefaultEnrichmentLimit
	}
	if c.Enrichment.Limit < 1 {
		return fmt.Errorf("enrichment.limit must be >= 1, got %d", c.Enrichment.Limit)
	}

	if c.Concepts == nil {
		c.Concepts = &ConceptsConfig{}
	}
	if c.Concepts.Min == 0 {
		c.Concepts.Min = DefaultMinConcepts
	}
	if c.Concepts.Max == 0 {
		c.Concepts.Max = max(DefaultMaxConcepts, c.Concepts.Min)
	}
	if c.Concepts.Min < 1 || c.Concepts.Min > c.Concepts.Max {
		return fmt.Errorf("concepts: need 1 <= min <= max, got min=%d max=%d", c.Concepts.Min, c.Concepts.Max)
	}

	if c.History == nil {
		c.History = &HistoryConfig{}
	}
	c.History.Instance = instance.NameOrDefault(c.History.Instance)
	if err := instance.ValidateName(c.History.Instance); err != nil {
		return fmt.Errorf("history.instance: %w", err)
	}
	if c.History.MaxEntries == nil {
		maxEntries := DefaultHistoryMaxEntries
		c.History.MaxEntries = &maxEntries
	}
	if *c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must be >= 0 (0 = unlimited), got %d", *c.History.MaxEntries)
	}
	if c.History.RedisURL != "" {
		if _, err := instance.RedisOptions(c.History.RedisURL); err != nil {
			return fmt.Errorf("history.redis_url: %w", err)
		}
	}

	if c.Log.Mode == "" {
		c.Log.Mode = DefaultLogMode
	}
	if c.Log.Mode != "dev" && c.Log.Mode != "prod" && c.Log.Mode != "quiet" {
		return fmt.Errorf("invalid log.mode: %s (must be 'dev', 'prod', or 'quiet')", c.Log.Mode)
	}

	if c.Content.Dir != "" {
		info, err := os.Stat(c.Content.Dir)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("content.dir is not a directory: %s", c.Content.Dir)
		}
	}

	return nil
}

func (c *QuartetConfig) validateProbabilities() error {
	if c.Probabilities == nil {
		c.Probabilities = &ProbabilitiesConfig{}
	}
	p := c.Probabilities
	for _, f := range []struct {
		name  string
		value **float64
		def   float64
	}{
		{"oblique", &p.Oblique, DefaultObliqueProbability},
		{"regenerate_oblique", &p.RegenerateOblique, DefaultRegenerateObliqueProbability},
		{"scenario", &p.Scenario, DefaultScenarioProbability},
	} {
		if *f.value == nil {
			v := f.def
			*f.value = &v
		}
		if v := **f.value; v < 0 || v > 1 {
			return fmt.Errorf("probabilities.%s must be within [0,1], got %g", f.name, v)
		}
	}
	return nil
}

// Load reads and validates quartet.yml from the specified path
func Load(path string) (*QuartetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config QuartetConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. Any other failure is returned.
func LoadOrDefault(path string) (*QuartetConfig, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Marshal renders the configuration as YAML.
func (c *QuartetConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
