package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// writeJSON pretty-prints v followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// parseWeights turns "domain=N" pairs (comma separated or one per
// argument) into a weight map.
func parseWeights(items []string) (map[string]int, error) {
	weights := make(map[string]int)
	for _, item := range items {
		for _, pair := range strings.Split(item, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			name, value, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("invalid weight %q (expected domain=N)", pair)
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid weight for %s: %w", name, err)
			}
			if n < 1 {
				return nil, fmt.Errorf("weight for %s must be >= 1, got %d", name, n)
			}
			weights[strings.TrimSpace(name)] = n
		}
	}
	return weights, nil
}

// unknownDomains returns the keys of weights missing from known, sorted.
func unknownDomains(weights map[string]int, known map[string]int) []string {
	var unknown []string
	for name := range weights {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
