package commands

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/quartet/internal/printer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag in the command tree to its default so
// package-level flag variables do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI in a fresh temp directory (unless t already changed
// into one) and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	restore := printer.SetOutput(&out, &errOut)
	defer restore()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), errOut.String(), err
}

// inProject changes into an empty directory for the rest of the test.
func inProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

// withArchive writes a quartet.yml pointing at a fresh miniredis server.
func withArchive(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	inProject(t)
	mr := miniredis.RunT(t)
	yml := fmt.Sprintf("version: \"1.0\"\nseed: 11\nhistory:\n  redis_url: redis://%s\n  instance: cli-test\n  max_entries: 5\n", mr.Addr())
	require.NoError(t, os.WriteFile("quartet.yml", []byte(yml), 0644))
	return mr
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	inProject(t)
	out, _, err := run(t)

	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:", "Help should be displayed")
	assert.Contains(t, out, "quartet", "Help should show command name")
	for _, sub := range []string{"generate", "regenerate", "weights", "stats", "sample", "history", "watch", "init", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	inProject(t)
	_, errOut, err := run(t, "--unknown-flag", "value")

	require.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag")
	assert.Contains(t, errOut, "unknown flag", "unreported errors are still shown")
}

func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	inProject(t)
	_, _, err := run(t, "--role", "leader")

	require.Error(t, err, "Subcommand flag passed to root should cause error")
	assert.Contains(t, err.Error(), "unknown flag: --role")
}

func TestVersionCommand(t *testing.T) {
	inProject(t)
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	defer SetVersionInfo("dev", "none", "unknown")

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "quartet 1.2.3 (commit: abc123, built: 2026-01-01)")
}

func TestInvalidConfig(t *testing.T) {
	inProject(t)
	require.NoError(t, os.WriteFile("quartet.yml", []byte("version: \"2.0\"\n"), 0644))

	_, errOut, err := run(t, "stats")
	require.Error(t, err)
	assert.Equal(t, "invalid configuration", err.Error())
	assert.Contains(t, errOut, "unsupported version")
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		items   []string
		want    map[string]int
		wantErr bool
	}{
		{"empty", []string{""}, map[string]int{}, false},
		{"separate args", []string{"fintech=5", "rust=2"}, map[string]int{"fintech": 5, "rust": 2}, false},
		{"comma separated", []string{"fintech=5, rust=2"}, map[string]int{"fintech": 5, "rust": 2}, false},
		{"missing value", []string{"fintech"}, nil, true},
		{"not a number", []string{"fintech=lots"}, nil, true},
		{"zero weight", []string{"fintech=0"}, nil, true},
		{"empty name", []string{"=3"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeights(tt.items)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
