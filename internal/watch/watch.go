// Package watch streams archive activity as it happens.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/quartet/pkg/lesson"
)

// OutputFormat selects how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON writes line-delimited JSON events
	OutputFormatJSON OutputFormat = "json"
)

// Source is what StreamCycles reads from. *lesson.Client implements it.
type Source interface {
	SubscribeCycleEvents(ctx context.Context) (*lesson.Subscription, error)
}

// Getter fetches an archived cycle. *lesson.Client implements it.
type Getter interface {
	GetCycle(ctx context.Context, cycleID string) (*lesson.Cycle, error)
}

type formatter interface {
	FormatEvent(event *lesson.CycleEvent) error
}

// now is replaced in tests.
var now = time.Now

type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatEvent(event *lesson.CycleEvent) error {
	ts := now().Format("15:04:05")
	s := event.Summary

	var line string
	switch event.Kind {
	case lesson.EventCycleSaved:
		strategy := ""
		if s.HasObliqueStrategy {
			strategy = ", strategy"
		}
		line = fmt.Sprintf("✨ Cycle generated: id=%s, context=%s, level=%s, words=%d%s",
			event.CycleID, s.Context, s.Complexity, s.TotalWords, strategy)
	case lesson.EventStageReplaced:
		line = fmt.Sprintf("🔄 Stage regenerated: %s in cycle %s (words=%d)",
			event.Stage, event.CycleID, s.TotalWords)
	default:
		line = fmt.Sprintf("❓ %s: cycle %s", event.Kind, event.CycleID)
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, line)
	return err
}

type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatEvent(event *lesson.CycleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func newFormatter(format OutputFormat, w io.Writer) (formatter, error) {
	switch format {
	case OutputFormatDefault, "":
		return &defaultFormatter{writer: w}, nil
	case OutputFormatJSON:
		return &jsonFormatter{writer: w}, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

// StreamCycles writes every cycle event published for the instance until
// ctx is cancelled. Subscription errors are reported to errw and skipped.
// max > 0 stops after that many events.
func StreamCycles(ctx context.Context, src Source, format OutputFormat, max int, w, errw io.Writer) error {
	f, err := newFormatter(format, w)
	if err != nil {
		return err
	}

	sub, err := src.SubscribeCycleEvents(ctx)
	if err != nil {
		// Cancelled before the subscription was confirmed.
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer sub.Close()

	seen := 0
	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(errw, "⚠️  %v\n", err)
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := f.FormatEvent(event); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
			seen++
			if max > 0 && seen >= max {
				return nil
			}
		}
	}
}

// PollForCycle polls the archive every 200ms until the cycle exists or
// timeout elapses.
func PollForCycle(ctx context.Context, archive Getter, cycleID string, timeout time.Duration) (*lesson.Cycle, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for cycle %s after %v", cycleID, timeout)

		case <-ticker.C:
			cycle, err := archive.GetCycle(ctx, cycleID)
			if err != nil {
				if lesson.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query for cycle: %w", err)
			}
			return cycle, nil
		}
	}
}
