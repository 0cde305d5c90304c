package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/quartet/internal/filter"
	"github.com/dyluth/quartet/internal/history"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/internal/resolver"
	"github.com/dyluth/quartet/internal/timespec"
	"github.com/dyluth/quartet/internal/watch"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/spf13/cobra"
)

var (
	historyOutputFormat string
	historyLimit        int
	historySince        string
	historyUntil        string
	historyContext      string
	historyLevel        string
	historyTag          string
	historyRegenerated  string
	historyFallback     bool

	showFormat string
	showWait   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived cycles",
	Long: `Browse cycles archived with 'quartet generate --save'.

Needs history.redis_url in quartet.yml (or --redis-url).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived cycles, newest first",
	Long: `List archived cycles with filtering.

Output Formats:
  default - Human-readable table with ID, context, level, words and flags
  jsonl   - Line-delimited JSON, one cycle per line

Flags column: S = oblique strategy, R<n> = n regenerated stages, F = fallback.

Examples:
  # Everything from the last two hours
  quartet history list --since 2h

  # Advanced fintech cycles as JSONL for jq
  quartet history list --context 'fin*' --level advanced -o jsonl | jq .id

  # Cycles whose Leader stage was regenerated
  quartet history list --regenerated leader`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show CYCLE_REF",
	Short: "Show one archived cycle",
	Long: `Show a single archived cycle as JSON or as a markdown document.

CYCLE_REF is a full cycle id, "current", or at least six characters of an
id's beginning or random suffix.

Examples:
  quartet history show cycle-1730000000000-1-a1b2c3
  quartet history show a1b2c3 --format markdown > lesson.md
  quartet history show current

  # Wait up to 30s for another process to archive the cycle
  quartet history show cycle-1730000000000-1-a1b2c3 --wait 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func init() {
	lf := historyListCmd.Flags()
	lf.StringVarP(&historyOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	lf.IntVar(&historyLimit, "limit", 0, "Maximum number of cycles (0 = all)")
	lf.StringVar(&historySince, "since", "", "Show cycles after time (duration, Nd or RFC3339)")
	lf.StringVar(&historyUntil, "until", "", "Show cycles before time (duration, Nd or RFC3339)")
	lf.StringVar(&historyContext, "context", "", "Filter by domain (glob pattern)")
	lf.StringVar(&historyLevel, "level", "", "Filter by complexity (beginner, intermediate, advanced)")
	lf.StringVar(&historyTag, "tag", "", "Filter by hashtag present on any stage (e.g. #leadership)")
	lf.StringVar(&historyRegenerated, "regenerated", "", "Filter by role whose stage was regenerated")
	lf.BoolVar(&historyFallback, "fallback", false, "Only cycles containing fallback stages")

	historyShowCmd.Flags().StringVarP(&showFormat, "format", "f", "json", "Output format: json or markdown")
	historyShowCmd.Flags().DurationVar(&showWait, "wait", 0, "Wait this long for the cycle to be archived")

	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	outputFormat, err := history.ParseOutputFormat(historyOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
	}
	criteria, err := historyCriteria()
	if err != nil {
		return err
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	archive, err := rt.openArchive(ctx)
	if err != nil {
		return err
	}

	opts := history.ListOptions{Limit: historyLimit, Filter: criteria, Logger: rt.log}
	if err := history.ListCycles(ctx, archive, outputFormat, opts, printer.Stdout()); err != nil {
		return fmt.Errorf("failed to list cycles: %w", err)
	}
	return nil
}

// historyCriteria builds filter criteria from the list flags.
func historyCriteria() (*filter.Criteria, error) {
	sinceMS, untilMS, err := timespec.ParseRange(historySince, historyUntil)
	if err != nil {
		return nil, printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m', days like '7d' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		ContextGlob:      historyContext,
		Tag:              historyTag,
		FallbackOnly:     historyFallback,
	}
	if historyLevel != "" {
		level, err := lesson.ParseComplexity(historyLevel)
		if err != nil {
			return nil, printer.Error("invalid level", err.Error(), []string{"Valid levels: beginner, intermediate, advanced"})
		}
		criteria.Complexity = level
	}
	if historyRegenerated != "" {
		role, err := lesson.ParseRole(historyRegenerated)
		if err != nil {
			return nil, printer.Error("unknown role", err.Error(), []string{"Valid roles: " + roleKeys()})
		}
		criteria.Regenerated = role
		criteria.HasRegenerated = true
	}
	return criteria, nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cycleID := args[0]

	format := history.ShowFormat(showFormat)
	if format != history.ShowFormatJSON && format != history.ShowFormatMarkdown {
		return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", showFormat), []string{"Valid formats: json, markdown"})
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	archive, err := rt.openArchive(ctx)
	if err != nil {
		return err
	}

	if !history.IDPattern.MatchString(cycleID) {
		resolved, err := resolver.ResolveCycleID(ctx, archive, cycleID)
		if err != nil {
			if resolver.IsNotFoundError(err) {
				return printer.Error(
					fmt.Sprintf("cycle with ID '%s' not found", cycleID),
					"No archived cycle matches this reference.",
					[]string{"List archived cycles:\n  quartet history list"},
				)
			}
			var ambig *resolver.AmbiguousError
			if errors.As(err, &ambig) {
				return printer.Error("ambiguous short ID", resolver.FormatAmbiguousError(ambig), nil)
			}
			return printer.Error("invalid cycle reference", err.Error(), nil)
		}
		cycleID = resolved
	}

	if showWait > 0 {
		if _, err := watch.PollForCycle(ctx, archive, cycleID, showWait); err != nil {
			return printer.Error(fmt.Sprintf("cycle with ID '%s' not found", cycleID), err.Error(), nil)
		}
	}

	err = history.ShowCycle(ctx, archive, cycleID, format, printer.Stdout())
	if err != nil {
		if history.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("cycle with ID '%s' not found", cycleID),
				"The specified cycle is not in the archive. It may have been trimmed.",
				[]string{
					"List archived cycles:\n  quartet history list",
					fmt.Sprintf("Verify instance:\n  quartet history list --name %s", archive.InstanceName()),
				},
			)
		}
		return printer.Error("failed to show cycle", err.Error(), nil)
	}
	return nil
}
