package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/quartet/internal/printer"
	"github.com/dyluth/quartet/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchCount        int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream archive activity in real time",
	Long: `Stream cycle events as other quartet processes archive cycles or
regenerate stages. Runs until interrupted.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  quartet watch
  quartet watch --output=json > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Exit after this many events (0 = run until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	archive, err := rt.openArchive(ctx)
	if err != nil {
		return err
	}

	if outputFormat == watch.OutputFormatDefault {
		printer.Step("Watching instance '%s' (Ctrl+C to stop)\n", archive.InstanceName())
	}
	return watch.StreamCycles(ctx, archive, outputFormat, watchCount, printer.Stdout(), printer.Stderr())
}
