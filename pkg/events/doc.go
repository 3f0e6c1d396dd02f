// Package events publishes tenancy lifecycle events.
//
// The cleanup engine announces every batch of removed documents so that
// downstream services holding denormalized copies of tenancy data can
// evict them. Events are fire-and-forget notifications over NATS; the
// document store remains the source of truth.
package events
