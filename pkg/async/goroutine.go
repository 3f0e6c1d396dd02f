package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// SafeGo executes fn in a goroutine with panic recovery, context
// cancellation, and timeout enforcement. A zero timeout means the task
// runs until parentCtx is done. Errors and panics are logged, never
// raised.
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, logger *observability.Logger, fn func(context.Context) error) {
	go func() {
		ctx := parentCtx
		cancel := context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithField("panic", r).
					WithField("stack", string(debug.Stack())).
					WithField("task", taskName).
					Error("PANIC in background task")
			}
		}()

		if err := fn(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).WithField("task", taskName).Error("background task failed")
		}
	}()
}

// SafeGoNoError is SafeGo for functions that do not return errors.
func SafeGoNoError(parentCtx context.Context, timeout time.Duration, taskName string, logger *observability.Logger, fn func(context.Context)) {
	SafeGo(parentCtx, timeout, taskName, logger, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}
