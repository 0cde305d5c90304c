package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/dyluth/quartet/internal/config"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/spf13/cobra"
)

var weightsJSON bool

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show or change domain selection weights",
	Long: `Show or change how often each domain is drawn.

A domain with weight 4 is drawn four times as often as one with weight 1.
Overrides are stored under 'weights' in quartet.yml and merged into the
built-in defaults.

Examples:
  quartet weights get
  quartet weights set fintech=5 rust=2
  quartet weights reset fintech`,
	Args: cobra.NoArgs,
	RunE: runWeightsGet,
}

var weightsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show effective domain weights",
	Args:  cobra.NoArgs,
	RunE:  runWeightsGet,
}

var weightsSetCmd = &cobra.Command{
	Use:   "set DOMAIN=N [DOMAIN=N...]",
	Short: "Store weight overrides in quartet.yml",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWeightsSet,
}

var weightsResetCmd = &cobra.Command{
	Use:   "reset [DOMAIN...]",
	Short: "Remove weight overrides (all when no domain is given)",
	RunE:  runWeightsReset,
}

func init() {
	weightsCmd.PersistentFlags().BoolVar(&weightsJSON, "json", false, "Print weights as JSON")
	weightsCmd.AddCommand(weightsGetCmd, weightsSetCmd, weightsResetCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsGet(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	eng, err := rt.engine()
	if err != nil {
		return err
	}
	weights := eng.DomainWeights()

	if weightsJSON {
		return writeJSON(printer.Stdout(), weights)
	}

	names := make([]string, 0, len(weights))
	total := 0
	for name, w := range weights {
		names = append(names, name)
		total += w
	}
	sort.Slice(names, func(i, j int) bool {
		if weights[names[i]] != weights[names[j]] {
			return weights[names[i]] > weights[names[j]]
		}
		return names[i] < names[j]
	})

	printer.Heading("Domain weights (%d domains, total %d):", len(names), total)
	pairs := make([][2]string, 0, len(names))
	for _, name := range names {
		value := strconv.Itoa(weights[name])
		if _, ok := rt.cfg.Weights[name]; ok {
			value += " (override)"
		}
		pairs = append(pairs, [2]string{name, value})
	}
	printer.KeyValues(pairs)
	return nil
}

func runWeightsSet(cmd *cobra.Command, args []string) error {
	updates, err := parseWeights(args)
	if err != nil {
		return printer.Error("invalid weight", err.Error(), []string{"Use DOMAIN=N with N >= 1, e.g.\n  quartet weights set fintech=5"})
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
	if unknown := unknownDomains(updates, eng.DomainWeights()); len(unknown) > 0 {
		return printer.Error(
			"unknown domain",
			fmt.Sprintf("Not a known domain: %v", unknown),
			[]string{"List domains:\n  quartet weights get"},
		)
	}

	if _, err := updateWeights(func(weights map[string]int) int {
		for name, w := range updates {
			weights[name] = w
		}
		return len(updates)
	}); err != nil {
		return err
	}

	printer.Success("Updated %d weight(s) in %s\n", len(updates), configPath)
	return nil
}

func runWeightsReset(cmd *cobra.Command, args []string) error {
	removed, err := updateWeights(func(weights map[string]int) int {
		if len(args) == 0 {
			n := len(weights)
			clear(weights)
			return n
		}
		n := 0
		for _, name := range args {
			if _, ok := weights[name]; ok {
				delete(weights, name)
				n++
			}
		}
		return n
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		printer.Info("No weight overrides to remove\n")
		return nil
	}

	printer.Success("Removed %d weight override(s) from %s\n", removed, configPath)
	return nil
}

// updateWeights applies edit to the weight overrides stored in the config
// file and writes it back when edit reports a change. Global flag overrides
// never reach the file.
func updateWeights(edit func(weights map[string]int) int) (int, error) {
	cfg, _, err := config.LoadOrDefault(configPath)
	if err != nil {
		return 0, printer.Error("invalid configuration", err.Error(), nil)
	}
	if cfg.Weights == nil {
		cfg.Weights = make(map[string]int)
	}

	changed := edit(cfg.Weights)
	if changed == 0 {
		return 0, nil
	}
	if len(cfg.Weights) == 0 {
		cfg.Weights = nil
	}
	if err := cfg.Validate(); err != nil {
		return 0, printer.Error("invalid weights", err.Error(), nil)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	return changed, nil
}
