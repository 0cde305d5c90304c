// Package lesson defines the data model shared by every quartet component and
// the Redis archive that stores generated cycles.
//
// # Overview
//
// A Cycle is one generation run: four Stages, one per Role, rendered over a
// shared Context, Complexity and optional ObliqueStrategy. Stages carry the
// prompt text, the tags that describe it and an audit trail of the draws that
// produced it.
//
// Content types (Concept, Context, Scenario, Technology, LessonTemplate,
// ObliqueStrategy) are loaded once and shared read-only. The per-draw pairing
// of a context with a scenario is a Selection value, so cached contexts are
// never mutated.
//
// # Tags
//
// Every tag emitted by quartet matches TagPattern (^#[A-Za-z0-9_-]+$). Tag
// converts free text into that form and DefaultTags is the set substituted
// whenever a list would otherwise be empty.
//
// # Redis Schema
//
// Archive keys are namespaced by instance name:
//
//	Cycles:        quartet:{instance_name}:cycle:{cycle_id}   (hash)
//	Cycle index:   quartet:{instance_name}:cycles             (zset, score = timestamp ms)
//	Current cycle: quartet:{instance_name}:current            (string)
//	Events:        quartet:{instance_name}:cycle_events       (pub/sub)
//
// # Usage Example
//
//	client, err := lesson.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.SaveCycle(ctx, cycle); err != nil {
//		return err
//	}
//	ids, err := client.ListCycleIDs(ctx, 10) // newest first
package lesson
