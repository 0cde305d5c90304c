//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// E2EEnvironment is an isolated working directory with a quartet.yml and a
// real Redis archive running in a container.
type E2EEnvironment struct {
	T            *testing.T
	TmpDir       string
	InstanceName string
	RedisURL     string
	Archive      *lesson.Client
	Ctx          context.Context
}

// SetupE2EEnvironment starts redis:7-alpine, writes quartet.yml (built by
// configYML from the archive URL and instance name) into a temp directory
// and changes into it. Everything is undone when the test ends.
func SetupE2EEnvironment(t *testing.T, configYML func(redisURL, instanceName string) string) *E2EEnvironment {
	ctx := context.Background()
	tmpDir := t.TempDir()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)
	redisURL := fmt.Sprintf("redis://%s:%s", host, port.Port())

	instanceName := fmt.Sprintf("test-e2e-%d", time.Now().UnixNano())
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "quartet.yml"), []byte(configYML(redisURL, instanceName)), 0644))

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir), "Failed to change to test directory")
	t.Cleanup(func() { os.Chdir(originalDir) })

	archive, err := lesson.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())}, instanceName)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	return &E2EEnvironment{
		T:            t,
		TmpDir:       tmpDir,
		InstanceName: instanceName,
		RedisURL:     redisURL,
		Archive:      archive,
		Ctx:          ctx,
	}
}

// WaitForCycles polls the archive until it holds at least n cycles (up to
// 30 seconds) and returns their ids, newest first.
func (env *E2EEnvironment) WaitForCycles(n int) []string {
	for i := 0; i < 30; i++ {
		ids, err := env.Archive.ListCycleIDs(env.Ctx, 0)
		if err == nil && len(ids) >= n {
			env.T.Logf("✓ Found %d archived cycles", len(ids))
			return ids
		}
		time.Sleep(1 * time.Second)
	}

	require.Fail(env.T, fmt.Sprintf("archive did not reach %d cycles within 30 seconds", n))
	return nil
}

// VerifyFileExists checks that a file exists in the environment directory.
func (env *E2EEnvironment) VerifyFileExists(filename string) {
	_, err := os.Stat(filepath.Join(env.TmpDir, filename))
	require.NoError(env.T, err, "Expected file %s to exist", filename)
}

// ArchiveQuartetYML returns a quartet.yml pointing at the archive.
func ArchiveQuartetYML(redisURL, instanceName string) string {
	return fmt.Sprintf(`version: "1.0"
seed: 7
history:
  redis_url: %q
  instance: %q
  max_entries: 10
`, redisURL, instanceName)
}
