// Package cache holds the in-memory read models the service answers
// authorization lookups from.
//
// UserCache indexes user records by identity and by access role;
// CustomerCache mirrors the hierarchy documents. Both hydrate from the
// document store and are safe for concurrent readers. After a cleanup
// run mutates the underlying collections, ReloadBus broadcasts an
// invalidation over Redis pub/sub so every service instance rebuilds
// its copy, not just the one that ran the cleanup.
package cache
