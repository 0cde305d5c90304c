package lesson

import "fmt"

// Redis key pattern helpers
//
// All archive keys and Pub/Sub channels are namespaced by instance name so
// several quartet archives can share one Redis server.
//
// Key pattern: quartet:{instance_name}:{entity}[:{id}]
// Channel pattern: quartet:{instance_name}:{event_type}_events

// CycleKey returns the Redis key for an archived cycle hash.
// Pattern: quartet:{instance_name}:cycle:{cycle_id}
func CycleKey(instanceName, cycleID string) string {
	return fmt.Sprintf("quartet:%s:cycle:%s", instanceName, cycleID)
}

// CycleKeyPattern returns the SCAN pattern matching every cycle hash.
func CycleKeyPattern(instanceName string) string {
	return fmt.Sprintf("quartet:%s:cycle:*", instanceName)
}

// CycleIndexKey returns the Redis key for the ZSET ordering cycles by timestamp.
// Pattern: quartet:{instance_name}:cycles
func CycleIndexKey(instanceName string) string {
	return fmt.Sprintf("quartet:%s:cycles", instanceName)
}

// CurrentCycleKey returns the Redis key holding the current cycle id.
// Pattern: quartet:{instance_name}:current
func CurrentCycleKey(instanceName string) string {
	return fmt.Sprintf("quartet:%s:current", instanceName)
}

// CycleEventsChannel returns the Pub/Sub channel name for cycle events.
// Pattern: quartet:{instance_name}:cycle_events
func CycleEventsChannel(instanceName string) string {
	return fmt.Sprintf("quartet:%s:cycle_events", instanceName)
}
