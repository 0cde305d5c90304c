package lesson

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between cycles and Redis hashes
//
// The listing fields (id, timestamp, context, complexity) are stored flat so
// they can be read without decoding the cycle. The full cycle, stages
// included, is JSON-encoded into the "payload" field.

// CycleToHash converts a Cycle to Redis hash format.
func CycleToHash(c *Cycle) (map[string]interface{}, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cycle: %w", err)
	}

	strategyID := 0
	if c.ObliqueStrategy != nil {
		strategyID = c.ObliqueStrategy.ID
	}

	hash := map[string]interface{}{
		"id":          c.ID,
		"timestamp":   c.Timestamp,
		"context":     c.ContextName(),
		"complexity":  string(c.Complexity),
		"stage_count": len(c.Stages),
		"strategy_id": strategyID,
		"session":     c.Metadata.Session,
		"fallback":    c.Metadata.Fallback,
		"payload":     string(payload),
	}
	return hash, nil
}

// HashToCycle converts a Redis hash back to a Cycle. The payload is
// authoritative; the flat fields are cross-checked against it.
func HashToCycle(hash map[string]string) (*Cycle, error) {
	raw := hash["payload"]
	if raw == "" {
		return nil, fmt.Errorf("cycle hash has no payload")
	}

	var c Cycle
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cycle payload: %w", err)
	}

	if id := hash["id"]; id != "" && id != c.ID {
		return nil, fmt.Errorf("cycle hash id %q does not match payload id %q", id, c.ID)
	}
	if c.Timestamp == 0 {
		ts, err := strconv.ParseInt(hash["timestamp"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp field: %w", err)
		}
		c.Timestamp = ts
	}
	if c.Stages == nil {
		c.Stages = []*Stage{}
	}
	return &c, nil
}

// HashToSummary builds a listing row from the flat hash fields only.
func HashToSummary(hash map[string]string) (CycleSummary, error) {
	ts, err := strconv.ParseInt(hash["timestamp"], 10, 64)
	if err != nil {
		return CycleSummary{}, fmt.Errorf("invalid timestamp field: %w", err)
	}
	stages, _ := strconv.Atoi(hash["stage_count"])
	strategyID, _ := strconv.Atoi(hash["strategy_id"])

	return CycleSummary{
		ID:                 hash["id"],
		Context:            hash["context"],
		Complexity:         Complexity(hash["complexity"]),
		StageCount:         stages,
		HasObliqueStrategy: strategyID != 0,
		Timestamp:          ts,
	}, nil
}
