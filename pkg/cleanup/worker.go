package cleanup

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
)

// Source is the queue surface a worker needs. Implemented by
// queue.Queue.
type Source interface {
	Receive(ctx context.Context) (*queue.Delivery, error)
	Ack(ctx context.Context, messageID string) error
}

// receiveBackoff spaces retries after queue errors so a dead Redis does
// not spin the workers.
const receiveBackoff = time.Second

// Run consumes cleanup tasks with workerCount concurrent workers until
// ctx is done. A failed run is logged and left unacknowledged; the
// queue redelivers it after the visibility timeout.
func Run(ctx context.Context, source Source, engine *Engine, workerCount int) error {
	if workerCount < 1 {
		workerCount = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		worker := i
		g.Go(func() error {
			logger := engine.logger.WithField("worker", worker)
			runWorker(ctx, source, engine, logger)
			return nil
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, source Source, engine *Engine, logger *observability.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}

		delivery, err := source.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var malformed *queue.MalformedTaskError
			if errors.As(err, &malformed) {
				logger.WithError(err).Warn("dropped malformed queue entry")
				continue
			}
			logger.WithError(err).Error("receiving from queue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}

		task := delivery.Task
		taskCtx := observability.WithTaskID(ctx, task.ID.String())
		start := time.Now()

		if err := engine.Process(taskCtx, task); err != nil {
			engine.metrics.CleanupTasksTotal.WithLabelValues(string(task.Type), "error").Inc()
			logger.WithError(err).
				WithField("task_id", task.ID.String()).
				WithField("task_type", string(task.Type)).
				Error("cleanup task failed, leaving for redelivery")
			continue
		}

		if err := source.Ack(ctx, delivery.MessageID); err != nil {
			// the run succeeded; redelivery will re-run it harmlessly
			logger.WithError(err).WithField("task_id", task.ID.String()).Warn("acking task failed")
			continue
		}
		engine.metrics.CleanupTasksTotal.WithLabelValues(string(task.Type), "ok").Inc()
		engine.metrics.CleanupTaskDuration.WithLabelValues(string(task.Type)).Observe(time.Since(start).Seconds())
	}
}
