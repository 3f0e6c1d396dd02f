package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Reloadable is a named cache the bus can rebuild.
type Reloadable interface {
	Name() string
	Reload(ctx context.Context) error
}

// DefaultReloadChannel is the pub/sub channel reload notices travel on.
const DefaultReloadChannel = "tenancy:cache:reload"

type reloadNotice struct {
	Instance string `json:"instance"`
	Cache    string `json:"cache"`
}

// ReloadBus reloads local caches and fans the invalidation out to every
// other service instance over Redis pub/sub. Each bus carries a random
// instance id so a publisher does not reload twice from its own notice.
type ReloadBus struct {
	client   *redis.Client
	channel  string
	instance string

	mu     sync.RWMutex
	caches map[string]Reloadable
}

// NewReloadBus returns a bus publishing on channel; an empty channel
// uses DefaultReloadChannel.
func NewReloadBus(client *redis.Client, channel string) *ReloadBus {
	if channel == "" {
		channel = DefaultReloadChannel
	}
	return &ReloadBus{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		caches:   make(map[string]Reloadable),
	}
}

// Register adds a cache to the bus.
func (b *ReloadBus) Register(cache Reloadable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caches[cache.Name()] = cache
}

// Reload rebuilds the named local caches and broadcasts a notice per
// cache so other instances follow.
func (b *ReloadBus) Reload(ctx context.Context, names ...string) error {
	for _, name := range names {
		b.mu.RLock()
		cache, ok := b.caches[name]
		b.mu.RUnlock()
		if !ok {
			return fmt.Errorf("no cache registered as %q", name)
		}
		if err := cache.Reload(ctx); err != nil {
			return fmt.Errorf("reloading %s cache failed: %w", name, err)
		}

		payload, err := json.Marshal(reloadNotice{Instance: b.instance, Cache: name})
		if err != nil {
			return fmt.Errorf("encoding reload notice failed: %w", err)
		}
		if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
			return fmt.Errorf("broadcasting %s reload failed: %w", name, err)
		}
	}
	return nil
}

// Broadcast publishes reload notices without touching local caches.
// Processes that hold no read models (the janitor) use it to make the
// service instances rebuild theirs.
func (b *ReloadBus) Broadcast(ctx context.Context, names ...string) error {
	for _, name := range names {
		payload, err := json.Marshal(reloadNotice{Instance: b.instance, Cache: name})
		if err != nil {
			return fmt.Errorf("encoding reload notice failed: %w", err)
		}
		if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
			return fmt.Errorf("broadcasting %s reload failed: %w", name, err)
		}
	}
	return nil
}

// Listen consumes reload notices until ctx is done, rebuilding the
// named cache for every notice published by another instance. Reload
// failures are reported through onError and do not stop the loop.
func (b *ReloadBus) Listen(ctx context.Context, onError func(error)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// force the subscription before reporting ready
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s failed: %w", b.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var notice reloadNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				if onError != nil {
					onError(fmt.Errorf("decoding reload notice failed: %w", err))
				}
				continue
			}
			if notice.Instance == b.instance {
				continue
			}
			b.mu.RLock()
			cache, ok := b.caches[notice.Cache]
			b.mu.RUnlock()
			if !ok {
				continue
			}
			if err := cache.Reload(ctx); err != nil && onError != nil {
				onError(fmt.Errorf("reloading %s cache failed: %w", notice.Cache, err))
			}
		}
	}
}
