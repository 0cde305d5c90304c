package lesson

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.Equal(t, "test-instance", client.InstanceName())
		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.ErrorContains(t, err, "instance name cannot be empty")
	})
}

func TestSaveAndGetCycle(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	t.Run("round trips a valid cycle", func(t *testing.T) {
		cycle := newTestCycle("cycle-100-1-abc123", 100)
		cycle.ObliqueStrategy = &ObliqueStrategy{ID: 3, Text: "Use an old idea"}
		cycle.Metadata.Session = uuid.New().String()

		require.NoError(t, client.SaveCycle(ctx, cycle))

		got, err := client.GetCycle(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, cycle.ID, got.ID)
		assert.Equal(t, cycle.StageNames(), got.StageNames())
		assert.Equal(t, cycle.Stages[0].Prompt, got.Stages[0].Prompt)
		assert.Equal(t, "Use an old idea", got.ObliqueStrategy.Text)

		assert.True(t, mr.Exists(CycleKey("test-instance", cycle.ID)))
		assert.Equal(t, "devops", mr.HGet(CycleKey("test-instance", cycle.ID), "context"))

		exists, err := client.CycleExists(ctx, cycle.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		summary, err := client.GetSummary(ctx, cycle.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.StageCount)
		assert.True(t, summary.HasObliqueStrategy)
	})

	t.Run("rejects invalid cycle", func(t *testing.T) {
		cycle := newTestCycle("cycle-bad", 1)
		cycle.Stages = cycle.Stages[:2]
		assert.ErrorContains(t, client.SaveCycle(ctx, cycle), "invalid cycle")
	})

	t.Run("rejects non-uuid session", func(t *testing.T) {
		cycle := newTestCycle("cycle-session", 1)
		cycle.Metadata.Session = "not-a-uuid"
		assert.ErrorContains(t, client.SaveCycle(ctx, cycle), "not a UUID")
	})

	t.Run("missing cycle is not found", func(t *testing.T) {
		_, err := client.GetCycle(ctx, "cycle-missing")
		assert.True(t, IsNotFound(err))

		_, err = client.GetSummary(ctx, "cycle-missing")
		assert.True(t, IsNotFound(err))

		exists, err := client.CycleExists(ctx, "cycle-missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestListAndTrim(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, client.SaveCycle(ctx, newTestCycle(fmt.Sprintf("cycle-%d", i), int64(i*1000))))
	}

	ids, err := client.ListCycleIDs(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"cycle-5", "cycle-4", "cycle-3", "cycle-2", "cycle-1"}, ids)

	ids, err = client.ListCycleIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"cycle-5", "cycle-4"}, ids)

	removed, err := client.Trim(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, mr.Exists(CycleKey("test-instance", "cycle-1")))
	assert.False(t, mr.Exists(CycleKey("test-instance", "cycle-2")))

	n, err := client.CountCycles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	removed, err = client.Trim(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReplaceStageInArchive(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	cycle := newTestCycle("cycle-1", 1)
	require.NoError(t, client.SaveCycle(ctx, cycle))

	replacement := newTestStage(RoleLeader)
	replacement.Prompt = "a fresh leader prompt"
	require.NoError(t, client.ReplaceStage(ctx, cycle.ID, replacement))

	got, err := client.GetCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, "a fresh leader prompt", got.Stage(RoleLeader).Prompt)
	assert.Equal(t, []string{"leader"}, got.Metadata.Regenerated)

	err = client.ReplaceStage(ctx, "cycle-missing", replacement)
	assert.True(t, IsNotFound(err))

	bad := newTestStage(RoleLeader)
	bad.Hashtags = nil
	assert.ErrorContains(t, client.ReplaceStage(ctx, cycle.ID, bad), "invalid stage")
}

func TestCurrentCycle(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	_, err := client.GetCurrent(ctx)
	assert.True(t, IsNotFound(err))

	require.NoError(t, client.SetCurrent(ctx, "cycle-9"))
	id, err := client.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cycle-9", id)
}

func TestSubscribeCycleEvents(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	sub, err := client.SubscribeCycleEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	cycle := newTestCycle("cycle-evt", 7)
	require.NoError(t, client.SaveCycle(ctx, cycle))

	select {
	case event := <-sub.Events():
		require.NotNil(t, event)
		assert.Equal(t, EventCycleSaved, event.Kind)
		assert.Equal(t, "cycle-evt", event.CycleID)
		assert.Equal(t, "devops", event.Summary.Context)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle event")
	}

	mr.Publish(CycleEventsChannel("test-instance"), "{not json")
	select {
	case err := <-sub.Errors():
		assert.ErrorContains(t, err, "failed to unmarshal cycle event")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription error")
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}

func TestSubscriptionStopsOnContextCancel(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := client.SubscribeCycleEvents(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}
