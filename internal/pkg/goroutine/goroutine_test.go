package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestManager_RunsAndCollectsErrors(t *testing.T) {
	g := NewManager(4)
	errBoom := errors.New("boom")

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.True(t, g.Go(context.Background(), "task", func(context.Context) error {
			ran.Inc()
			return nil
		}))
	}
	require.True(t, g.Go(context.Background(), "failing", func(context.Context) error {
		return errBoom
	}))

	err := g.Wait()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(3), ran.Load())
	assert.Zero(t, g.Dropped())
}

func TestManager_DropsWhenFull(t *testing.T) {
	g := NewManager(1)
	release := make(chan struct{})

	require.True(t, g.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, g.Go(context.Background(), "extra", func(context.Context) error { return nil }))
	assert.Equal(t, int64(1), g.Dropped())

	close(release)
	require.NoError(t, g.Wait())
}

func TestManager_RecoversPanic(t *testing.T) {
	g := NewManager(1)

	require.True(t, g.Go(context.Background(), "panicky", func(context.Context) error {
		panic("kaboom")
	}))

	assert.ErrorIs(t, g.Wait(), ErrPanic)
}

func TestManager_SkipsCanceledContext(t *testing.T) {
	g := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	require.True(t, g.Go(ctx, "late", func(context.Context) error {
		ran.Store(true)
		return nil
	}))

	require.NoError(t, g.Wait())
	assert.False(t, ran.Load())
}

func TestManager_Shutdown(t *testing.T) {
	t.Run("RefusesNewTasks", func(t *testing.T) {
		g := NewManager(2)
		require.NoError(t, g.Shutdown(context.Background()))

		assert.False(t, g.Go(context.Background(), "after", func(context.Context) error { return nil }))
		assert.Equal(t, int64(1), g.Dropped())
	})

	t.Run("HonorsDeadline", func(t *testing.T) {
		g := NewManager(1)
		release := make(chan struct{})
		defer close(release)

		require.True(t, g.Go(context.Background(), "slow", func(context.Context) error {
			<-release
			return nil
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, g.Shutdown(ctx), context.DeadlineExceeded)
	})
}

func TestManager_Nil(t *testing.T) {
	var g *Manager

	assert.False(t, g.Go(context.Background(), "noop", func(context.Context) error { return nil }))
	assert.NoError(t, g.Wait())
	assert.NoError(t, g.Shutdown(context.Background()))
	assert.Zero(t, g.Dropped())
}
