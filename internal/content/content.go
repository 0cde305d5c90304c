// Package content loads the YAML tables quartet composes prompts from and
// exposes them through read-only repositories.
//
// Every table is embedded in the binary and can be overridden file by file
// from a directory. A table that is missing, unparsable or empty never fails
// construction: the repository logs a warning and installs a small built-in
// seed set so generation can always proceed.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/internal/randx"
)

//go:embed data/*.yaml
var tablesFS embed.FS

// Table file names.
const (
	ConceptsTable     = "concepts.yaml"
	DomainsTable      = "domains.yaml"
	LessonsTable      = "lessons.yaml"
	StrategiesTable   = "strategies.yaml"
	TechnologiesTable = "technologies.yaml"
)

// SourceEmbedded marks data read from the binary rather than from disk.
const SourceEmbedded = "embedded"

// ErrNotFound is returned when a named table does not exist.
var ErrNotFound = errors.New("content table not found")

// Tables returns the table file names in a fixed order.
func Tables() []string {
	return []string{ConceptsTable, DomainsTable, LessonsTable, StrategiesTable, TechnologiesTable}
}

// DefaultTable returns the embedded bytes of a table.
func DefaultTable(name string) ([]byte, error) {
	data, err := tablesFS.ReadFile("data/" + name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// Stats summarises one repository.
type Stats struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
	Fallback  bool           `json:"fallback"`
	Source    string         `json:"source"`
}

func newStats(total int, fallback bool, source string) Stats {
	return Stats{Total: total, Breakdown: map[string]int{}, Fallback: fallback, Source: source}
}

// Keys returns the breakdown keys sorted alphabetically.
func (s Stats) Keys() []string {
	keys := make([]string, 0, len(s.Breakdown))
	for k := range s.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set bundles the five repositories built from one content directory.
type Set struct {
	Concepts     *ConceptRepository
	Templates    *TemplateRepository
	Domains      *DomainRepository
	Strategies   *StrategyRepository
	Technologies *TechnologyRepository
}

// Load builds every repository. dir may be empty, in which case only the
// embedded tables are used. Files missing from dir fall back to the embedded
// copy. Only I/O failures on a directory that exists are returned as errors.
func Load(dir string, rnd randx.Source, log *logger.Logger) (*Set, error) {
	log = logger.OrNop(log)
	if rnd == nil {
		rnd = randx.New(0)
	}

	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("content directory does not exist, using embedded tables", "dir", dir)
			dir = ""
		case err != nil:
			return nil, fmt.Errorf("failed to stat content directory: %w", err)
		case !info.IsDir():
			return nil, fmt.Errorf("content path '%s' is not a directory", dir)
		}
	}

	tables := make(map[string]table, len(Tables()))
	for _, name := range Tables() {
		t, err := readTable(dir, name)
		if err != nil {
			return nil, err
		}
		log.Debug("content table read", "table", name, "source", t.source, "bytes", len(t.data))
		tables[name] = t
	}

	return &Set{
		Concepts:     newConceptRepository(tables[ConceptsTable], rnd, log),
		Templates:    newTemplateRepository(tables[LessonsTable], log),
		Domains:      newDomainRepository(tables[DomainsTable], rnd, log),
		Strategies:   newStrategyRepository(tables[StrategiesTable], rnd, log),
		Technologies: newTechnologyRepository(tables[TechnologiesTable], log),
	}, nil
}

type table struct {
	name   string
	data   []byte
	source string
}

func readTable(dir, name string) (table, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return table{name: name, data: data, source: path}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return table{}, fmt.Errorf("failed to read content table %s: %w", path, err)
		}
	}
	data, err := DefaultTable(name)
	if err != nil {
		return table{}, err
	}
	return table{name: name, data: data, source: SourceEmbedded}, nil
}
