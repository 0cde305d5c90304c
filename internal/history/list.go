// Package history lists, shows and exports archived cycles.
package history

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/quartet/internal/filter"
	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/pkg/lesson"
)

// OutputFormat specifies how to format the cycle list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with one line per cycle
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete cycles as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat resolves a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault, "table":
		return OutputFormatDefault, nil
	case OutputFormatJSONL:
		return OutputFormatJSONL, nil
	}
	return "", fmt.Errorf("unknown output format: %s (valid: default, jsonl)", s)
}

// Reader is the archive surface history needs. *lesson.Client implements it.
type Reader interface {
	InstanceName() string
	ListCycleIDs(ctx context.Context, limit int) ([]string, error)
	GetCycle(ctx context.Context, cycleID string) (*lesson.Cycle, error)
}

// ListOptions narrows a listing. Limit <= 0 returns every match.
type ListOptions struct {
	Limit  int
	Filter *filter.Criteria
	Logger *logger.Logger
}

// List returns archived cycles newest first. Cycles that disappear between
// the index read and the fetch, or fail to decode, are skipped with a warning.
func List(ctx context.Context, archive Reader, opts ListOptions) ([]*lesson.Cycle, error) {
	log := logger.OrNop(opts.Logger)

	// Only an unfiltered listing can push the limit down to the index.
	indexLimit := 0
	if opts.Filter == nil || !opts.Filter.HasFilters() {
		indexLimit = opts.Limit
	}
	ids, err := archive.ListCycleIDs(ctx, indexLimit)
	if err != nil {
		return nil, err
	}

	var cycles []*lesson.Cycle
	for _, id := range ids {
		cycle, err := archive.GetCycle(ctx, id)
		if err != nil {
			if lesson.IsNotFound(err) {
				log.Debug("cycle trimmed during listing", "id", id)
			} else {
				log.Warn("skipping malformed cycle", "id", id, "error", err)
			}
			continue
		}
		if opts.Filter != nil && !opts.Filter.Matches(cycle) {
			continue
		}
		cycles = append(cycles, cycle)
		if opts.Limit > 0 && len(cycles) >= opts.Limit {
			break
		}
	}
	return cycles, nil
}

// ListCycles lists cycles and writes them to w in the requested format.
func ListCycles(ctx context.Context, archive Reader, format OutputFormat, opts ListOptions, w io.Writer) error {
	cycles, err := List(ctx, archive, opts)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatDefault:
		FormatTable(w, cycles, archive.InstanceName())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, cycles); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
