package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// UserCacheName identifies the user cache on the reload bus.
const UserCacheName = "users"

// UserCache is the in-memory read model of the users collection, with a
// secondary index from access role to the users holding it.
type UserCache struct {
	store storage.Store

	mu     sync.RWMutex
	users  map[uuid.UUID]tenant.User
	byRole map[string][]uuid.UUID
}

// NewUserCache returns an empty cache backed by store. Call Reload to
// hydrate it.
func NewUserCache(store storage.Store) *UserCache {
	return &UserCache{
		store:  store,
		users:  make(map[uuid.UUID]tenant.User),
		byRole: make(map[string][]uuid.UUID),
	}
}

// Name implements the reload bus contract.
func (c *UserCache) Name() string { return UserCacheName }

// Reload rebuilds the cache from the users collection. Readers keep
// seeing the previous snapshot until the swap.
func (c *UserCache) Reload(ctx context.Context) error {
	var records []tenant.User
	if err := c.store.Find(ctx, tenant.UsersCollection, storage.Filter{}, &records); err != nil {
		return fmt.Errorf("loading users failed: %w", err)
	}

	users := make(map[uuid.UUID]tenant.User, len(records))
	byRole := make(map[string][]uuid.UUID)
	for _, user := range records {
		users[user.Details.UserID] = user
		if user.Access != "" {
			byRole[user.Access] = append(byRole[user.Access], user.Details.UserID)
		}
	}

	c.mu.Lock()
	c.users = users
	c.byRole = byRole
	c.mu.Unlock()
	return nil
}

// User looks up one user by identity.
func (c *UserCache) User(id uuid.UUID) (tenant.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	user, ok := c.users[id]
	return user, ok
}

// UsersWithAccess returns the identities holding an access role.
func (c *UserCache) UsersWithAccess(role string) []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uuid.UUID, len(c.byRole[role]))
	copy(out, c.byRole[role])
	return out
}

// RemoveAccess drops a role from the index and evicts the cached users
// that held it, returning how many were evicted. Removing an unknown
// role is a no-op, so cleanup retries stay idempotent.
func (c *UserCache) RemoveAccess(role string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	holders := c.byRole[role]
	for _, id := range holders {
		delete(c.users, id)
	}
	delete(c.byRole, role)
	return len(holders)
}

// Len reports how many users are cached.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
