package commands

import (
	"fmt"

	"github.com/dyluth/quartet/internal/config"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath   string
	seedOverride int64
	logLevel     string
	redisURLFlag string
	instanceFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quartet",
	Short: "quartet - four-perspective lesson prompt generator",
	Long: `quartet composes synthetic educational writing prompts.

Each generation cycle picks one problem domain and one difficulty level and
renders a prompt for four perspectives on it: Expert Engineer, System
Designer, Leader and Review & Synthesis.

Configuration is read from quartet.yml in the current directory when present.
Set history.redis_url to archive cycles in Redis and browse them with
'quartet history'.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer.Printf("quartet %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil && !printer.IsReported(err) {
		printer.Error("command failed", err.Error(), nil)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to quartet.yml")
	pf.Int64Var(&seedOverride, "seed", 0, "Random seed (overrides config; 0 = use config)")
	pf.StringVar(&logLevel, "log-level", "", "Diagnostic log mode: dev, prod or quiet (overrides config)")
	pf.StringVar(&redisURLFlag, "redis-url", "", "Archive Redis URL (overrides history.redis_url)")
	pf.StringVarP(&instanceFlag, "name", "n", "", "Archive instance name (overrides history.instance)")

	rootCmd.AddCommand(versionCmd)
}
