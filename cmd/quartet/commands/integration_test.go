//go:build integration

package commands

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/quartet/internal/testutil"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_ArchiveAgainstRealRedis runs the archive workflow against a Redis
// container: generate with --save, browse, regenerate and watch.
func TestE2E_ArchiveAgainstRealRedis(t *testing.T) {
	env := testutil.SetupE2EEnvironment(t, testutil.ArchiveQuartetYML)

	for i := 0; i < 3; i++ {
		_, _, err := run(t, "generate", "--save")
		require.NoError(t, err)
	}
	ids := env.WaitForCycles(3)
	require.Len(t, ids, 3)

	out, _, err := run(t, "history", "list", "-o", "jsonl", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var newest lesson.Cycle
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &newest))
	assert.Equal(t, ids[0], newest.ID)

	current, err := env.Archive.GetCurrent(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[0], current)

	_, _, err = run(t, "regenerate", "reviewSynthesis")
	require.NoError(t, err)
	stored, err := env.Archive.GetCycle(env.Ctx, current)
	require.NoError(t, err)
	assert.Equal(t, []string{"reviewSynthesis"}, stored.Metadata.Regenerated)
}

func TestE2E_WatchSeesArchivedCycles(t *testing.T) {
	env := testutil.SetupE2EEnvironment(t, testutil.ArchiveQuartetYML)

	ctx, cancel := context.WithTimeout(env.Ctx, 20*time.Second)
	defer cancel()
	sub, err := env.Archive.SubscribeCycleEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	_, _, err = run(t, "generate", "--save")
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		require.NotNil(t, event)
		assert.Equal(t, lesson.EventCycleSaved, event.Kind)
		assert.Equal(t, 4, event.Summary.StageCount)
	case <-ctx.Done():
		t.Fatal("no cycle event received")
	}
}
