package history

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/dyluth/quartet/pkg/lesson"
)

// ShowFormat selects how a single cycle is rendered.
type ShowFormat string

const (
	// ShowFormatJSON pretty-prints the full cycle
	ShowFormatJSON ShowFormat = "json"

	// ShowFormatMarkdown exports the prompts as a markdown document
	ShowFormatMarkdown ShowFormat = "markdown"
)

// IDPattern matches generated and fallback cycle ids.
var IDPattern = regexp.MustCompile(`^(cycle-\d+-\d+-[0-9a-z]{6}|fallback-cycle-\d+)$`)

// ShowCycle retrieves a single cycle by ID and writes it to w.
// Returns a *CycleNotFoundError when the cycle is not archived.
func ShowCycle(ctx context.Context, archive Reader, cycleID string, format ShowFormat, w io.Writer) error {
	if !IDPattern.MatchString(cycleID) {
		return fmt.Errorf("invalid cycle ID format: %q (expected cycle-<timestamp>-<n>-<suffix>)", cycleID)
	}

	cycle, err := archive.GetCycle(ctx, cycleID)
	if err != nil {
		if lesson.IsNotFound(err) {
			return &CycleNotFoundError{CycleID: cycleID}
		}
		return fmt.Errorf("failed to fetch cycle: %w", err)
	}

	switch format {
	case ShowFormatJSON, "":
		err = FormatSingleJSON(w, cycle)
	case ShowFormatMarkdown:
		err = FormatMarkdown(w, cycle)
	default:
		return fmt.Errorf("unknown show format: %s (valid: json, markdown)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to format cycle: %w", err)
	}
	return nil
}

// CycleNotFoundError represents a specific "cycle not found" error.
type CycleNotFoundError struct {
	CycleID string
}

func (e *CycleNotFoundError) Error() string {
	return fmt.Sprintf("cycle with ID '%s' not found", e.CycleID)
}

// IsNotFound returns true if the error is a CycleNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*CycleNotFoundError)
	return ok
}
