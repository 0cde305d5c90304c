// Package resolver turns the cycle references users type into archived
// cycle ids.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/quartet/internal/history"
	"github.com/dyluth/quartet/pkg/lesson"
)

// MinShortIDLength is the minimum length of a short reference. It matches
// the random suffix of a generated id.
const MinShortIDLength = 6

// Current refers to the archive's current cycle.
const Current = "current"

// Archive is what resolution reads. *lesson.Client implements it.
type Archive interface {
	ListCycleIDs(ctx context.Context, limit int) ([]string, error)
	GetCurrent(ctx context.Context) (string, error)
}

// ResolveCycleID resolves ref to a full cycle id. ref may be:
//  1. a full id, returned unchanged
//  2. "current", the archive's current cycle
//  3. a prefix or suffix of at least MinShortIDLength characters that
//     matches exactly one archived id
func ResolveCycleID(ctx context.Context, archive Archive, ref string) (string, error) {
	if history.IDPattern.MatchString(ref) {
		return ref, nil
	}

	if ref == Current {
		id, err := archive.GetCurrent(ctx)
		if err != nil {
			if lesson.IsNotFound(err) {
				return "", &NotFoundError{ShortID: ref}
			}
			return "", fmt.Errorf("failed to read current cycle: %w", err)
		}
		return id, nil
	}

	if len(ref) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(ref))
	}

	ids, err := archive.ListCycleIDs(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("failed to search for cycle: %w", err)
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) || strings.HasSuffix(id, ref) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: ref, Matches: matches}
	}
}

// NotFoundError indicates no archived cycle matched the reference.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no cycles found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several archived cycles matched the reference.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d cycles", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Short ID '%s' matches %d cycles:\n", err.ShortID, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix or the full id."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
