package printer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	restore := SetOutput(&out, &errOut)
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		restore()
		color.NoColor = noColor
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "This is a test error")
		assert.True(t, IsReported(err))
		assert.True(t, IsReported(fmt.Errorf("wrapped: %w", err)))
		assert.False(t, IsReported(errors.New("Test Error")))
	})

	t.Run("single suggestion printed as is", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	context := map[string]string{
		"Instance": "test-instance",
		"Archive":  "redis://localhost:6379",
	}
	err := ErrorWithContext("Test Error", "Explanation", context, nil)
	require.Equal(t, "Test Error", err.Error())

	output := errOut.String()
	assert.Less(t, strings.Index(output, "Archive:"), strings.Index(output, "Instance:"), "context keys are sorted")
}

func TestOutputHelpers(t *testing.T) {
	out, errOut := capture(t)

	Success("saved %d cycles\n", 2)
	Warning("archive unavailable\n")
	KeyValues([][2]string{{"Concepts", "19"}, {"Technologies", "26"}})

	assert.Contains(t, out.String(), "✓ saved 2 cycles")
	assert.Contains(t, out.String(), "  Concepts:      19\n")
	assert.Contains(t, out.String(), "  Technologies:  26\n")
	assert.Contains(t, errOut.String(), "⚠️  archive unavailable")
	assert.NotContains(t, out.String(), "archive unavailable")
}
