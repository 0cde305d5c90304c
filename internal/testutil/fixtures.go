// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// CycleID formats a generated-style cycle id.
func CycleID(ts int64, n int) string {
	return fmt.Sprintf("cycle-%d-%d-abc%03d", ts, n, n%1000)
}

// NewCycle builds a valid four-stage cycle over contextName.
func NewCycle(ts int64, n int, contextName string, complexity lesson.Complexity) *lesson.Cycle {
	c := &lesson.Cycle{
		ID:         CycleID(ts, n),
		Timestamp:  ts,
		Context:    &lesson.Context{Name: contextName, Description: contextName + " systems"},
		Complexity: complexity,
		Metadata:   lesson.CycleMetadata{GeneratedBy: "quartet"},
		Audit:      &lesson.CycleAudit{Context: contextName, Complexity: complexity},
	}
	for _, r := range lesson.Roles() {
		s := &lesson.Stage{
			Stage:            r.DisplayName(),
			Prompt:           fmt.Sprintf("# Educational Lesson Generation Prompt\n\nTeach %s from the %s perspective.", contextName, r.DisplayName()),
			Hashtags:         []string{"#" + contextName, "#software-architecture"},
			Context:          contextName,
			Complexity:       complexity,
			LessonType:       "Generated lesson",
			ConceptsUsed:     []string{"modularity"},
			TechnologiesUsed: []string{},
			Audit:            &lesson.StageAudit{TemplateKey: "conceptExploration"},
			Timestamp:        ts,
		}
		c.Stages = append(c.Stages, s)
		c.Audit.Roles = append(c.Audit.Roles, r.Key())
		c.Audit.Stages = append(c.Audit.Stages, lesson.SummarizeStage(s))
	}
	return c
}

// NewArchive starts a miniredis server and returns an archive client on it.
// Both are closed when the test ends.
func NewArchive(t *testing.T, instanceName string) (*lesson.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := lesson.NewClient(&redis.Options{Addr: mr.Addr()}, instanceName)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}
