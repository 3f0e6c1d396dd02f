package async

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

func TestSafeGoRunsTask(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	var ran atomic.Bool
	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "test task", logger, func(ctx context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.True(t, ran.Load())
}

func TestSafeGoRecoversPanic(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "panicky task", logger, func(ctx context.Context) error {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	// reaching here without a crashed test process is the assertion
}

func TestSafeGoTimeout(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	expired := make(chan error, 1)
	SafeGo(context.Background(), 20*time.Millisecond, "slow task", logger, func(ctx context.Context) error {
		<-ctx.Done()
		expired <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-expired:
		require.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(time.Second):
		t.Fatal("task context never expired")
	}
}
