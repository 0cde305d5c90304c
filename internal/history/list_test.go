package history

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dyluth/quartet/internal/filter"
	"github.com/dyluth/quartet/internal/testutil"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArchive(t *testing.T) (*lesson.Client, []*lesson.Cycle) {
	t.Helper()
	archive, _ := testutil.NewArchive(t, "test-instance")
	ctx := context.Background()

	cycles := []*lesson.Cycle{
		testutil.NewCycle(1000, 1, "fintech", lesson.ComplexityBeginner),
		testutil.NewCycle(2000, 2, "healthcare", lesson.ComplexityAdvanced),
		testutil.NewCycle(3000, 3, "fintech", lesson.ComplexityAdvanced),
	}
	cycles[1].Metadata.Regenerated = []string{"leader"}
	cycles[2].Metadata.Fallback = true
	for _, c := range cycles {
		require.NoError(t, archive.SaveCycle(ctx, c))
	}
	return archive, cycles
}

func ids(cycles []*lesson.Cycle) []string {
	out := make([]string, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, c.ID)
	}
	return out
}

func TestList(t *testing.T) {
	archive, seeded := seedArchive(t)
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[2].ID, seeded[1].ID, seeded[0].ID}, ids(cycles))
	})

	t.Run("limit", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[2].ID, seeded[1].ID}, ids(cycles))
	})

	t.Run("limit applies after filtering", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{
			Limit:  1,
			Filter: &filter.Criteria{Complexity: lesson.ComplexityBeginner},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[0].ID}, ids(cycles))
	})

	t.Run("context glob", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{Filter: &filter.Criteria{ContextGlob: "fin*"}})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[2].ID, seeded[0].ID}, ids(cycles))
	})

	t.Run("regenerated role", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{Filter: &filter.Criteria{
			HasRegenerated: true,
			Regenerated:    lesson.RoleLeader,
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[1].ID}, ids(cycles))
	})

	t.Run("fallback only", func(t *testing.T) {
		cycles, err := List(ctx, archive, ListOptions{Filter: &filter.Criteria{FallbackOnly: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[2].ID}, ids(cycles))
	})
}

func TestList_SkipsMalformedCycles(t *testing.T) {
	archive, seeded := seedArchive(t)
	ctx := context.Background()

	key := lesson.CycleKey(archive.InstanceName(), seeded[1].ID)
	require.NoError(t, archive.Redis().HSet(ctx, key, "payload", "{not json").Err())

	cycles, err := List(ctx, archive, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[2].ID, seeded[0].ID}, ids(cycles))
}

func TestListCycles(t *testing.T) {
	ctx := context.Background()

	t.Run("empty archive - default format", func(t *testing.T) {
		archive, _ := testutil.NewArchive(t, "test-instance")

		var buf bytes.Buffer
		require.NoError(t, ListCycles(ctx, archive, OutputFormatDefault, ListOptions{}, &buf))
		assert.Contains(t, buf.String(), "No cycles found for instance 'test-instance'")
	})

	t.Run("empty archive - jsonl format", func(t *testing.T) {
		archive, _ := testutil.NewArchive(t, "test-instance")

		var buf bytes.Buffer
		require.NoError(t, ListCycles(ctx, archive, OutputFormatJSONL, ListOptions{}, &buf))
		assert.Empty(t, buf.String())
	})

	t.Run("default format", func(t *testing.T) {
		archive, seeded := seedArchive(t)

		var buf bytes.Buffer
		require.NoError(t, ListCycles(ctx, archive, OutputFormatDefault, ListOptions{}, &buf))

		output := buf.String()
		assert.Contains(t, output, "Cycles for instance 'test-instance':")
		assert.Contains(t, output, seeded[0].ID)
		assert.Contains(t, output, "healthcare")
		assert.Contains(t, output, "3 cycles found")
	})

	t.Run("jsonl format", func(t *testing.T) {
		archive, seeded := seedArchive(t)

		var buf bytes.Buffer
		require.NoError(t, ListCycles(ctx, archive, OutputFormatJSONL, ListOptions{}, &buf))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		var first lesson.Cycle
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, seeded[2].ID, first.ID)
		assert.Len(t, first.Stages, 4)
	})

	t.Run("unknown format", func(t *testing.T) {
		archive, _ := testutil.NewArchive(t, "test-instance")
		err := ListCycles(ctx, archive, OutputFormat("xml"), ListOptions{}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{
		"":        OutputFormatDefault,
		"default": OutputFormatDefault,
		"table":   OutputFormatDefault,
		"jsonl":   OutputFormatJSONL,
	} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputFormat("json")
	assert.Error(t, err)
}
