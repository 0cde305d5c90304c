package commands

import (
	"fmt"

	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit   bool
	initContent bool
	initSeed    int64
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new quartet project",
	Long: `Initialize a quartet project in the current directory.

Creates:
  • quartet.yml - Project configuration with every default spelled out
  • content/    - Editable copies of the content tables (with --content)

Use --force to reinitialize an existing project (WARNING: destroys existing configuration).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	// Note: Cannot use -f shorthand because it conflicts with history show --format
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing quartet.yml and content/)")
	initCmd.Flags().BoolVar(&initContent, "content", false, "Export the built-in content tables for editing")
	initCmd.Flags().Int64Var(&initSeed, "with-seed", 0, "Write a fixed seed into quartet.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting("."); err != nil {
			return printer.Error(
				"project already initialized",
				"quartet.yml or content/ already exists in this directory.",
				[]string{"Reinitialize (overwrites existing configuration):\n  quartet init --force"},
			)
		}
	}

	files, err := scaffold.Initialize(".", scaffold.Options{
		Force:       forceInit,
		WithContent: initContent,
		Seed:        initSeed,
	}, printer.Stdout())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(printer.Stdout(), files)
	return nil
}
