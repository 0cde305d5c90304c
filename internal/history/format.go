package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/quartet/pkg/lesson"
)

// now is replaced in tests.
var now = time.Now

// FormatTable writes cycles as a formatted table to the provided writer.
// Returns the number of cycles formatted.
func FormatTable(w io.Writer, cycles []*lesson.Cycle, instanceName string) int {
	if len(cycles) == 0 {
		fmt.Fprintf(w, "No cycles found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Cycles for instance '%s':\n\n", instanceName)

	fmt.Fprintf(w, "%-32s %-24s %-12s %-6s %-5s %-8s %s\n",
		"ID", "CONTEXT", "LEVEL", "WORDS", "TAGS", "AGE", "FLAGS")
	fmt.Fprintf(w, "%-32s %-24s %-12s %-6s %-5s %-8s %s\n",
		strings.Repeat("-", 32), strings.Repeat("-", 24), strings.Repeat("-", 12),
		"------", "-----", "--------", "--------")

	for _, c := range cycles {
		summary := c.Summary()
		fmt.Fprintf(w, "%-32s %-24s %-12s %-6d %-5d %-8s %s\n",
			formatID(c.ID),
			formatContext(summary.Context),
			summary.Complexity,
			summary.TotalWords,
			summary.UniqueHashtags,
			formatTimestamp(c.Timestamp),
			formatFlags(c),
		)
	}

	countMsg := "cycle"
	if len(cycles) != 1 {
		countMsg = "cycles"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(cycles), countMsg)

	return len(cycles)
}

// FormatJSONL writes cycles as line-delimited JSON (JSONL) to the provided writer.
func FormatJSONL(w io.Writer, cycles []*lesson.Cycle) error {
	for _, cycle := range cycles {
		data, err := json.Marshal(cycle)
		if err != nil {
			return fmt.Errorf("failed to marshal cycle to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single cycle as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, cycle *lesson.Cycle) error {
	data, err := json.MarshalIndent(cycle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cycle to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// FormatMarkdown exports a cycle's prompts as one markdown document, one
// section per stage.
func FormatMarkdown(w io.Writer, cycle *lesson.Cycle) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cycle %s\n\n", cycle.ID)
	fmt.Fprintf(&b, "- **Context**: %s\n", cycle.ContextName())
	if cycle.Scenario != nil {
		fmt.Fprintf(&b, "- **Scenario**: %s\n", cycle.Scenario.Label())
	}
	fmt.Fprintf(&b, "- **Complexity**: %s\n", cycle.Complexity)
	if s := cycle.ObliqueStrategy; s != nil {
		fmt.Fprintf(&b, "- **Creative constraint**: %s\n", s.Text)
	}
	if cycle.Timestamp > 0 {
		fmt.Fprintf(&b, "- **Generated**: %s\n", time.UnixMilli(cycle.Timestamp).UTC().Format(time.RFC3339))
	}

	for _, s := range cycle.Stages {
		if s == nil {
			continue
		}
		fmt.Fprintf(&b, "\n---\n\n## %s\n\n", s.Stage)
		fmt.Fprintf(&b, "_%s, about %d min read_\n\n", s.LessonType, s.ReadingMinutes())
		b.WriteString(strings.TrimSpace(s.Prompt))
		b.WriteString("\n\n")
		b.WriteString(strings.Join(s.Hashtags, " "))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown output: %w", err)
	}
	return nil
}

// formatID keeps ids readable in a fixed-width column.
func formatID(id string) string {
	if len(id) > 32 {
		return id[:29] + "..."
	}
	return id
}

func formatContext(name string) string {
	if name == "" {
		return "-"
	}
	if len(name) > 24 {
		return name[:21] + "..."
	}
	return name
}

// formatFlags marks strategy (S), regenerated stages (R) and fallback (F).
func formatFlags(c *lesson.Cycle) string {
	var flags []string
	if c.ObliqueStrategy != nil {
		flags = append(flags, "S")
	}
	if len(c.Metadata.Regenerated) > 0 {
		flags = append(flags, fmt.Sprintf("R%d", len(c.Metadata.Regenerated)))
	}
	fallback := c.Metadata.Fallback
	for _, s := range c.Stages {
		if s != nil && s.IsFallback() {
			fallback = true
		}
	}
	if fallback {
		flags = append(flags, "F")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// formatTimestamp formats Unix timestamp in milliseconds as relative time
// like "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now().Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
}
