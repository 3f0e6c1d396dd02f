package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// payloadField is the stream entry field the serialized task lives in.
const payloadField = "task"

// Config holds work-queue settings.
type Config struct {
	Stream            string
	Group             string
	Consumer          string
	VisibilityTimeout time.Duration
	Block             time.Duration
}

// DefaultConfig returns the queue settings the service boots with. Each
// process gets a unique consumer name so pending entries can be traced
// to the worker that held them.
func DefaultConfig() Config {
	return Config{
		Stream:            "tenancy:cleanup",
		Group:             "cleanup-workers",
		Consumer:          "worker-" + uuid.NewString(),
		VisibilityTimeout: 5 * time.Minute,
		Block:             5 * time.Second,
	}
}

// MalformedTaskError reports a stream entry whose payload does not
// decode. The entry is acknowledged before this is returned; a payload
// that never parsed cannot succeed on redelivery.
type MalformedTaskError struct {
	MessageID string
	Err       error
}

func (e *MalformedTaskError) Error() string {
	return fmt.Sprintf("malformed task in entry %s: %v", e.MessageID, e.Err)
}

func (e *MalformedTaskError) Unwrap() error { return e.Err }

// Delivery is one claimed task awaiting acknowledgement.
type Delivery struct {
	MessageID string
	Task      CleanupTask
}

// Queue is the Redis Streams work queue.
type Queue struct {
	client *redis.Client
	config Config
}

// New creates the consumer group if needed and returns the queue.
func New(ctx context.Context, client *redis.Client, config Config) (*Queue, error) {
	err := client.XGroupCreateMkStream(ctx, config.Stream, config.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("creating consumer group %s failed: %w", config.Group, err)
	}
	return &Queue{client: client, config: config}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// Enqueue appends a task to the stream and returns its entry id.
func (q *Queue) Enqueue(ctx context.Context, task CleanupTask) (string, error) {
	if err := task.Validate(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encoding task %s failed: %w", task.ID, err)
	}
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.config.Stream,
		Values: map[string]interface{}{payloadField: string(payload)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueueing task %s failed: %w", task.ID, err)
	}
	return id, nil
}

// Receive blocks until a task is available: stale pending entries past
// the visibility timeout first, then new entries. Returns ctx.Err()
// once the context is done.
func (q *Queue) Receive(ctx context.Context) (*Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		delivery, err := q.claimStale(ctx)
		if err != nil {
			return nil, err
		}
		if delivery != nil {
			return delivery, nil
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{q.config.Stream, ">"},
			Count:    1,
			Block:    q.config.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("reading %s failed: %w", q.config.Stream, err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				return q.decode(ctx, msg)
			}
		}
	}
}

// claimStale transfers one entry that has been pending longer than the
// visibility timeout to this consumer.
func (q *Queue) claimStale(ctx context.Context) (*Delivery, error) {
	messages, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.config.Stream,
		Group:    q.config.Group,
		Consumer: q.config.Consumer,
		MinIdle:  q.config.VisibilityTimeout,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("claiming stale entries failed: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return q.decode(ctx, messages[0])
}

// decode turns a stream entry into a delivery. Entries that cannot
// decode are acknowledged so they stop redelivering, and reported as
// MalformedTaskError.
func (q *Queue) decode(ctx context.Context, msg redis.XMessage) (*Delivery, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		_ = q.Ack(ctx, msg.ID)
		return nil, &MalformedTaskError{MessageID: msg.ID, Err: fmt.Errorf("missing %s field", payloadField)}
	}
	var task CleanupTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		_ = q.Ack(ctx, msg.ID)
		return nil, &MalformedTaskError{MessageID: msg.ID, Err: err}
	}
	return &Delivery{MessageID: msg.ID, Task: task}, nil
}

// Ack marks an entry as done; it will not be redelivered.
func (q *Queue) Ack(ctx context.Context, messageID string) error {
	if err := q.client.XAck(ctx, q.config.Stream, q.config.Group, messageID).Err(); err != nil {
		return fmt.Errorf("acking entry %s failed: %w", messageID, err)
	}
	return nil
}

// Reclaim re-enqueues every entry that has been pending past the
// visibility timeout and acknowledges the original, returning how many
// were recovered. Run by the janitor; the duplicate delivery is safe
// because cleanup runs are idempotent.
func (q *Queue) Reclaim(ctx context.Context) (int64, error) {
	var recovered int64
	start := "0-0"
	for {
		messages, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   q.config.Stream,
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			MinIdle:  q.config.VisibilityTimeout,
			Start:    start,
			Count:    100,
		}).Result()
		if err != nil {
			return recovered, fmt.Errorf("claiming stale entries failed: %w", err)
		}
		for _, msg := range messages {
			raw, ok := msg.Values[payloadField].(string)
			if ok {
				if err := q.client.XAdd(ctx, &redis.XAddArgs{
					Stream: q.config.Stream,
					Values: map[string]interface{}{payloadField: raw},
				}).Err(); err != nil {
					return recovered, fmt.Errorf("re-enqueueing entry %s failed: %w", msg.ID, err)
				}
			}
			if err := q.Ack(ctx, msg.ID); err != nil {
				return recovered, err
			}
			recovered++
		}
		if next == "0-0" || len(messages) == 0 {
			return recovered, nil
		}
		start = next
	}
}

// Pending reports how many delivered entries are not yet acknowledged.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	summary, err := q.client.XPending(ctx, q.config.Stream, q.config.Group).Result()
	if err != nil {
		return 0, fmt.Errorf("reading pending summary failed: %w", err)
	}
	return summary.Count, nil
}

// Len reports the stream length, including acknowledged entries not yet
// trimmed.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, q.config.Stream).Result()
	if err != nil {
		return 0, fmt.Errorf("reading stream length failed: %w", err)
	}
	return n, nil
}

// HealthCheck pings the backing Redis.
func (q *Queue) HealthCheck(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
