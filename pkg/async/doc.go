// Package async provides safe goroutine helpers for background tasks.
//
// SafeGo runs a function in a goroutine with panic recovery, a timeout,
// and context cancellation, logging failures through the service
// logger. Use it instead of a bare `go func()` for fire-and-forget work
// such as the cache reload listener or event publishing.
package async
