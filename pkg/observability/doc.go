// Package observability provides structured logging, Prometheus
// metrics, health probes, and graceful shutdown for the tenancy
// service.
//
// Logging is JSON over stdlib slog. Metrics cover the HTTP surface and
// the cleanup pipeline: tasks processed, documents removed, roles
// revoked, cache reloads. Health checks are named dependency probes
// (document store, redis, nats) served on /health endpoints.
package observability
