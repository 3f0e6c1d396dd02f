// Package queue is the durable cleanup work queue on Redis Streams.
//
// Producers append tasks with XADD; workers consume through a consumer
// group (XREADGROUP) and acknowledge only after the cleanup run
// finished (XACK). Entries that stay pending past the visibility
// timeout are claimed back with XAUTOCLAIM, so a crashed worker's task
// is redelivered rather than lost. Delivery is at least once; the
// cleanup engine is idempotent to match.
package queue
