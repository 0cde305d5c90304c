package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/quartet/internal/history"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/internal/session"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/spf13/cobra"
)

var (
	generateJSON     bool
	generateMarkdown bool
	generateRole     string
	generateSave     bool
	generateCount    int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a four-perspective lesson cycle",
	Long: `Generate one or more lesson cycles.

A cycle draws a domain, a complexity level and (sometimes) an oblique
strategy, then renders one prompt per perspective. Generation never fails:
if the content cannot be used a fixed fallback cycle is printed instead.

Output Formats:
  default    - Prompts separated by stage headers
  --json     - The full cycle as JSON (JSONL when --count > 1)
  --markdown - A markdown document ready to hand to a writer

Examples:
  # One cycle, printed to the terminal
  quartet generate

  # Only the Leader prompt
  quartet generate --role leader

  # Five reproducible cycles as JSONL
  quartet generate --seed 42 --count 5 --json

  # Archive the cycle so it can be regenerated and browsed later
  quartet generate --save`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the cycle as JSON")
	generateCmd.Flags().BoolVar(&generateMarkdown, "markdown", false, "Print the cycle as markdown")
	generateCmd.Flags().StringVar(&generateRole, "role", "", "Print only this role's stage (key or display name)")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Archive the cycle in Redis (needs history.redis_url)")
	generateCmd.Flags().IntVar(&generateCount, "count", 1, "Number of cycles to generate")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if generateJSON && generateMarkdown {
		return printer.Error("conflicting output flags", "--json and --markdown cannot be combined.", nil)
	}
	if generateCount < 1 {
		return printer.Error("invalid count", fmt.Sprintf("--count must be >= 1, got %d", generateCount), nil)
	}
	var role lesson.Role
	if generateRole != "" {
		r, err := lesson.ParseRole(generateRole)
		if err != nil {
			return printer.Error(
				"unknown role",
				err.Error(),
				[]string{"Valid roles: " + roleKeys()},
			)
		}
		role = r
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	eng, err := rt.engine()
	if err != nil {
		return err
	}

	opts := session.Options{Logger: rt.log, MaxArchived: *rt.cfg.History.MaxEntries}
	if generateSave {
		archive, err := rt.openArchive(ctx)
		if err != nil {
			return err
		}
		opts.Archive = archive
	}
	sess := session.New(eng, opts)

	out := printer.Stdout()
	cycles := make([]*lesson.Cycle, 0, generateCount)
	for i := 0; i < generateCount; i++ {
		cycle, err := sess.Generate(ctx)
		if err != nil {
			if !errors.Is(err, session.ErrArchive) || cycle == nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			printer.Warning("cycle %s was generated but not archived: %v\n", cycle.ID, err)
		}
		if cycle.Metadata.Fallback {
			printer.Warning("content unavailable, using fallback cycle: %s\n", cycle.Metadata.Error)
		}
		cycles = append(cycles, cycle)
	}

	switch {
	case generateRole != "":
		for _, c := range cycles {
			if err := writeStage(out, c.Stage(role), generateJSON); err != nil {
				return err
			}
		}
	case generateJSON && len(cycles) == 1:
		return history.FormatSingleJSON(out, cycles[0])
	case generateJSON:
		return history.FormatJSONL(out, cycles)
	case generateMarkdown:
		for _, c := range cycles {
			if err := history.FormatMarkdown(out, c); err != nil {
				return err
			}
		}
	default:
		for _, c := range cycles {
			writeCycle(out, c)
		}
	}

	if generateSave && !generateJSON {
		printer.Success("Archived %d cycle(s) to instance '%s'\n", len(cycles), rt.cfg.History.Instance)
	}
	return nil
}

// writeCycle prints a cycle for reading in a terminal.
func writeCycle(w io.Writer, c *lesson.Cycle) {
	fmt.Fprintf(w, "Cycle %s\n", c.ID)
	fmt.Fprintf(w, "Context: %s", c.ContextName())
	if c.Scenario != nil {
		fmt.Fprintf(w, " (%s)", c.Scenario.Label())
	}
	fmt.Fprintf(w, "\nComplexity: %s\n", c.Complexity)
	if c.ObliqueStrategy != nil {
		fmt.Fprintf(w, "Strategy: %s\n", c.ObliqueStrategy.Text)
	}
	for _, s := range c.Stages {
		fmt.Fprintf(w, "\n=== %s (%s) ===\n\n", s.Stage, s.LessonType)
		fmt.Fprintln(w, strings.TrimSpace(s.Prompt))
		fmt.Fprintf(w, "\n%s\n", strings.Join(s.Hashtags, " "))
	}
	fmt.Fprintln(w)
}

func writeStage(w io.Writer, s *lesson.Stage, asJSON bool) error {
	if s == nil {
		return errors.New("cycle has no stage for the requested role")
	}
	if asJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "=== %s (%s, %s) ===\n\n", s.Stage, s.Context, s.Complexity)
	fmt.Fprintln(w, strings.TrimSpace(s.Prompt))
	fmt.Fprintf(w, "\n%s\n", strings.Join(s.Hashtags, " "))
	return nil
}

func roleKeys() string {
	keys := make([]string, 0, 4)
	for _, r := range lesson.Roles() {
		keys = append(keys, r.Key())
	}
	return strings.Join(keys, ", ")
}
