package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/quartet/internal/engine"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/spf13/cobra"
)

var (
	statsJSON    bool
	sampleTrials int
	sampleJSON   bool
	sampleWeight string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how much content is loaded",
	Long: `Show the size of every content table.

Tables that could not be read are replaced by a small built-in set; they are
listed under "Fallback".`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample domain selection to check weights",
	Long: `Draw many domains and report how often each came up.

Use it to tune weights before writing them with 'quartet weights set'.

Examples:
  quartet sample --trials 5000
  quartet sample --weights rust=300,fintech=2 --json`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print stats as JSON")
	rootCmd.AddCommand(statsCmd)

	sampleCmd.Flags().IntVar(&sampleTrials, "trials", 1000, "Number of draws")
	sampleCmd.Flags().StringVar(&sampleWeight, "weights", "", "Temporary weight overrides (domain=N,...)")
	sampleCmd.Flags().BoolVar(&sampleJSON, "json", false, "Print the sample as JSON")
	rootCmd.AddCommand(sampleCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	eng, err := rt.engine()
	if err != nil {
		return err
	}
	stats := eng.Stats()

	if statsJSON {
		return writeJSON(printer.Stdout(), stats)
	}

	printer.Heading("Content:")
	printer.KeyValues([][2]string{
		{"Concepts", strconv.Itoa(stats.Concepts)},
		{"Lesson formats", strconv.Itoa(stats.Templates)},
		{"Domains", strconv.Itoa(stats.Domains)},
		{"Scenarios", strconv.Itoa(stats.Scenarios)},
		{"Strategies", strconv.Itoa(stats.Strategies)},
		{"Technologies", strconv.Itoa(stats.Technologies)},
	})
	if len(stats.Fallback) > 0 {
		printer.Warning("Fallback: %s\n", strings.Join(stats.Fallback, ", "))
	}
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleTrials < 1 {
		return printer.Error("invalid trials", fmt.Sprintf("--trials must be >= 1, got %d", sampleTrials), nil)
	}
	overrides, err := parseWeights([]string{sampleWeight})
	if err != nil {
		return printer.Error("invalid weight", err.Error(), nil)
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
	if unknown := unknownDomains(overrides, eng.DomainWeights()); len(unknown) > 0 {
		return printer.Error("unknown domain", fmt.Sprintf("Not a known domain: %v", unknown), nil)
	}
	eng.SetDomainWeights(overrides)

	sample := eng.SampleDomains(sampleTrials)
	if sampleJSON {
		return writeJSON(printer.Stdout(), struct {
			Trials   int                      `json:"trials"`
			Coverage float64                  `json:"coverage"`
			Domains  []engine.DomainFrequency `json:"domains"`
		}{sampleTrials, engine.Coverage(sample), sample})
	}

	out := printer.Stdout()
	printer.Heading("Domain frequency over %d draws:", sampleTrials)
	fmt.Fprintf(out, "%-28s %7s %8s %6s\n", "DOMAIN", "COUNT", "PERCENT", "WEIGHT")
	fmt.Fprintf(out, "%-28s %7s %8s %6s\n", strings.Repeat("-", 28), "-------", "--------", "------")
	for _, f := range sample {
		fmt.Fprintf(out, "%-28s %7d %7.1f%% %6d\n", f.Domain, f.Count, f.Percent, f.Weight)
	}
	fmt.Fprintf(out, "\nCoverage: %.0f%% of domains drawn at least once\n", 100*engine.Coverage(sample))
	return nil
}
