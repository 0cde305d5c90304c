package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/internal/session"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/spf13/cobra"
)

var regenerateJSON bool

var regenerateCmd = &cobra.Command{
	Use:   "regenerate ROLE",
	Short: "Regenerate one perspective's stage",
	Long: `Regenerate a single stage.

With an archive configured, the stage of the archived current cycle is
replaced in place and the cycle is saved again. Without an archive a fresh
stand-alone stage is printed.

ROLE is a role key or display name: expertEngineer, systemDesigner, leader,
reviewSynthesis ("Review & Synthesis" also works).

Examples:
  # Replace the Leader stage of the current archived cycle
  quartet regenerate leader

  # Print a new System Designer stage as JSON
  quartet regenerate "System Designer" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().BoolVar(&regenerateJSON, "json", false, "Print the stage as JSON")
	rootCmd.AddCommand(regenerateCmd)
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	role, err := lesson.ParseRole(args[0])
	if err != nil {
		return printer.Error("unknown role", err.Error(), []string{"Valid roles: " + roleKeys()})
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

	if !rt.hasArchive() {
		stage, err := eng.RegenerateStage(role.Key())
		if err != nil {
			return printer.Error(fmt.Sprintf("failed to regenerate %s", role.DisplayName()), err.Error(), nil)
		}
		return writeStage(printer.Stdout(), stage, regenerateJSON)
	}

	archive, err := rt.openArchive(ctx)
	if err != nil {
		return err
	}
	sess := session.New(eng, session.Options{
		Archive:     archive,
		MaxArchived: *rt.cfg.History.MaxEntries,
		Logger:      rt.log,
	})
	if err := sess.Hydrate(ctx); err != nil {
		return fmt.Errorf("failed to load current cycle: %w", err)
	}

	stage, err := sess.Regenerate(ctx, role.Key())
	switch {
	case errors.Is(err, session.ErrNoCurrentCycle):
		return printer.Error(
			"no current cycle",
			fmt.Sprintf("Instance '%s' has no archived current cycle to regenerate.", archive.InstanceName()),
			[]string{"Generate and archive one first:\n  quartet generate --save"},
		)
	case errors.Is(err, session.ErrArchive) && stage != nil:
		printer.Warning("stage regenerated but not archived: %v\n", err)
	case err != nil:
		return printer.Error(fmt.Sprintf("failed to regenerate %s", role.DisplayName()), err.Error(), nil)
	}

	if err := writeStage(printer.Stdout(), stage, regenerateJSON); err != nil {
		return err
	}
	if !regenerateJSON {
		printer.Success("Replaced %s in cycle %s\n", role.DisplayName(), sess.Current().ID)
	}
	return nil
}
