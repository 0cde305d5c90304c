package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventKind names what happened to an archived cycle.
type EventKind string

const (
	EventCycleSaved    EventKind = "cycle_saved"
	EventStageReplaced EventKind = "stage_replaced"
)

// CycleEvent is published on the cycle events channel after every archive write.
type CycleEvent struct {
	Kind    EventKind    `json:"kind"`
	CycleID string       `json:"cycle_id"`
	Stage   string       `json:"stage,omitempty"`
	Summary CycleSummary `json:"summary"`
}

// Client provides instance-scoped Redis operations for the cycle archive.
// All keys and channels are namespaced with the instance name.
// The client is safe for concurrent use.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates an archive client for the specified instance.
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client writes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Redis exposes the underlying go-redis client for read-only listing helpers.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveCycle validates and writes a cycle, indexes it by timestamp and
// publishes an EventCycleSaved event. Saving the same cycle twice is safe.
func (c *Client) SaveCycle(ctx context.Context, cycle *Cycle) error {
	if err := cycle.Validate(); err != nil {
		return fmt.Errorf("invalid cycle: %w", err)
	}
	if s := cycle.Metadata.Session; s != "" {
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid cycle: session id %q is not a UUID: %w", s, err)
		}
	}

	hash, err := CycleToHash(cycle)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CycleKey(c.instanceName, cycle.ID), hash)
		pipe.ZAdd(ctx, CycleIndexKey(c.instanceName), redis.Z{
			Score:  float64(cycle.Timestamp),
			Member: cycle.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cycle to Redis: %w", err)
	}

	return c.publish(ctx, CycleEvent{Kind: EventCycleSaved, CycleID: cycle.ID, Summary: cycle.Summary()})
}

// GetCycle retrieves an archived cycle by id.
// Returns (nil, redis.Nil) if the cycle doesn't exist; use IsNotFound.
func (c *Client) GetCycle(ctx context.Context, cycleID string) (*Cycle, error) {
	hashData, err := c.rdb.HGetAll(ctx, CycleKey(c.instanceName, cycleID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cycle from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	cycle, err := HashToCycle(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize cycle: %w", err)
	}
	return cycle, nil
}

// GetSummary reads the listing fields of a cycle without decoding the payload.
func (c *Client) GetSummary(ctx context.Context, cycleID string) (CycleSummary, error) {
	hashData, err := c.rdb.HMGet(ctx, CycleKey(c.instanceName, cycleID),
		"id", "timestamp", "context", "complexity", "stage_count", "strategy_id").Result()
	if err != nil {
		return CycleSummary{}, fmt.Errorf("failed to read cycle from Redis: %w", err)
	}
	if hashData[0] == nil {
		return CycleSummary{}, redis.Nil
	}

	fields := []string{"id", "timestamp", "context", "complexity", "stage_count", "strategy_id"}
	flat := make(map[string]string, len(fields))
	for i, f := range fields {
		if s, ok := hashData[i].(string); ok {
			flat[f] = s
		}
	}
	return HashToSummary(flat)
}

// CycleExists checks for a cycle without fetching it.
func (c *Client) CycleExists(ctx context.Context, cycleID string) (bool, error) {
	exists, err := c.rdb.Exists(ctx, CycleKey(c.instanceName, cycleID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cycle existence: %w", err)
	}
	return exists > 0, nil
}

// ListCycleIDs returns archived cycle ids, newest first. limit <= 0 returns all.
func (c *Client) ListCycleIDs(ctx context.Context, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := c.rdb.ZRevRange(ctx, CycleIndexKey(c.instanceName), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	return ids, nil
}

// CountCycles returns the number of indexed cycles.
func (c *Client) CountCycles(ctx context.Context) (int64, error) {
	n, err := c.rdb.ZCard(ctx, CycleIndexKey(c.instanceName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count cycles: %w", err)
	}
	return n, nil
}

// ReplaceStage swaps one stage of an archived cycle, rewrites it and
// publishes an EventStageReplaced event.
func (c *Client) ReplaceStage(ctx context.Context, cycleID string, stage *Stage) error {
	if err := stage.Validate(); err != nil {
		return fmt.Errorf("invalid stage: %w", err)
	}

	cycle, err := c.GetCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if err := cycle.ReplaceStage(stage); err != nil {
		return err
	}

	hash, err := CycleToHash(cycle)
	if err != nil {
		return fmt.Errorf("failed to serialize cycle: %w", err)
	}
	if err := c.rdb.HSet(ctx, CycleKey(c.instanceName, cycleID), hash).Err(); err != nil {
		return fmt.Errorf("failed to update cycle in Redis: %w", err)
	}

	return c.publish(ctx, CycleEvent{
		Kind:    EventStageReplaced,
		CycleID: cycleID,
		Stage:   stage.Stage,
		Summary: cycle.Summary(),
	})
}

// SetCurrent records which cycle is current for this instance.
func (c *Client) SetCurrent(ctx context.Context, cycleID string) error {
	if err := c.rdb.Set(ctx, CurrentCycleKey(c.instanceName), cycleID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set current cycle: %w", err)
	}
	return nil
}

// GetCurrent returns the current cycle id, or redis.Nil if none was set.
func (c *Client) GetCurrent(ctx context.Context) (string, error) {
	id, err := c.rdb.Get(ctx, CurrentCycleKey(c.instanceName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to read current cycle: %w", err)
	}
	return id, nil
}

// Trim deletes the oldest cycles so at most max remain. max <= 0 is a no-op.
// Returns the number of cycles removed.
func (c *Client) Trim(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	indexKey := CycleIndexKey(c.instanceName)
	total, err := c.rdb.ZCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count cycles: %w", err)
	}
	excess := total - int64(max)
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := c.rdb.ZRange(ctx, indexKey, 0, excess-1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read oldest cycles: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range oldest {
			pipe.Del(ctx, CycleKey(c.instanceName, id))
			pipe.ZRem(ctx, indexKey, id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to trim cycles: %w", err)
	}
	return len(oldest), nil
}

func (c *Client) publish(ctx context.Context, event CycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle event: %w", err)
	}
	if err := c.rdb.Publish(ctx, CycleEventsChannel(c.instanceName), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish cycle event: %w", err)
	}
	return nil
}

// Subscription is an active Pub/Sub subscription to cycle events.
// Callers must Close it when done.
type Subscription struct {
	events <-chan *CycleEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of cycle events. It is closed when the
// subscription is closed or its context is cancelled.
func (s *Subscription) Events() <-chan *CycleEvent {
	return s.events
}

// Errors returns non-fatal subscription errors; malformed messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeCycleEvents subscribes to cycle events for this instance.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once, so a slow subscriber may miss events.
func (c *Client) SubscribeCycleEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, CycleEventsChannel(c.instanceName))

	// Wait for the subscription to be confirmed so no publish races it.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to cycle events: %w", err)
	}

	eventsChan := make(chan *CycleEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event CycleEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal cycle event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound reports whether err is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
