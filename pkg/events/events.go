package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// DeletionEvent announces that a batch of documents was removed from a
// collection within a tenancy namespace.
type DeletionEvent struct {
	Namespace  string    `json:"namespace"`
	Collection string    `json:"collection"`
	IDs        []string  `json:"ids"`
	At         time.Time `json:"at"`
}

// Producer publishes tenancy events.
type Producer interface {
	PublishDeletion(ctx context.Context, event DeletionEvent) error
	Close()
}

// Config holds NATS producer settings.
type Config struct {
	URL           string
	SubjectPrefix string
	ReconnectWait time.Duration
	MaxReconnects int
}

// DefaultConfig returns settings for a local NATS server.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "tenancy.events",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSProducer publishes events to a NATS subject per collection.
type NATSProducer struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSProducer connects to NATS and returns a producer.
func NewNATSProducer(config Config, onError func(error)) (*NATSProducer, error) {
	conn, err := nats.Connect(config.URL,
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			if onError != nil {
				onError(err)
			}
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && onError != nil {
				onError(err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s failed: %w", config.URL, err)
	}
	return &NATSProducer{conn: conn, prefix: config.SubjectPrefix}, nil
}

// PublishDeletion emits the event on <prefix>.<collection>.deleted so
// consumers can subscribe per collection instead of filtering payloads.
func (p *NATSProducer) PublishDeletion(ctx context.Context, event DeletionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding deletion event failed: %w", err)
	}
	subject := deletionSubject(p.prefix, event.Collection)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s failed: %w", subject, err)
	}
	return nil
}

func deletionSubject(prefix, collection string) string {
	return fmt.Sprintf("%s.%s.deleted", prefix, collection)
}

// HealthCheck reports whether the connection is up.
func (p *NATSProducer) HealthCheck(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("NATS connection is %s", p.conn.Status())
	}
	return nil
}

// Close drains the connection so queued events flush before shutdown.
func (p *NATSProducer) Close() {
	_ = p.conn.Drain()
}

// MemoryProducer records events in memory. Used by tests.
type MemoryProducer struct {
	mu     sync.Mutex
	events []DeletionEvent
}

// NewMemoryProducer returns an empty recording producer.
func NewMemoryProducer() *MemoryProducer {
	return &MemoryProducer{}
}

// PublishDeletion records the event.
func (p *MemoryProducer) PublishDeletion(ctx context.Context, event DeletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close is a no-op.
func (p *MemoryProducer) Close() {}

// Events returns a copy of everything published so far.
func (p *MemoryProducer) Events() []DeletionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DeletionEvent, len(p.events))
	copy(out, p.events)
	return out
}
