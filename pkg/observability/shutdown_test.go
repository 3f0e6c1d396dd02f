package observability

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsRegisteredFuncs(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	manager := NewShutdownManager(logger, nil, time.Second)

	var ran atomic.Int64
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	require.NoError(t, manager.Shutdown(context.Background()))
	assert.Equal(t, int64(2), ran.Load())
}

func TestShutdownCollectsErrors(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	manager := NewShutdownManager(logger, nil, time.Second)
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		return errors.New("close failed")
	})

	err := manager.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
}

func TestShutdownTimeout(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	manager := NewShutdownManager(logger, nil, time.Second)
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := manager.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
