package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsJobsAndReturnsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(2, zerolog.Nop())
	p.Start(ctx)

	var ran atomic.Int32
	require.NoError(t, p.Do(ctx, func() error {
		ran.Add(1)
		return nil
	}))
	assert.Equal(t, int32(1), ran.Load())

	boom := errors.New("boom")
	err := p.Do(ctx, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(2, zerolog.Nop())
	p.Start(ctx)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(ctx, func() error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_CallerContextCancelled(t *testing.T) {
	poolCtx, stop := context.WithCancel(context.Background())
	defer stop()

	p := NewPool(1, zerolog.Nop())
	p.Start(poolCtx)

	release := make(chan struct{})
	go func() {
		_ = p.Do(poolCtx, func() error {
			<-release
			return nil
		})
	}()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_StoppedPoolRejectsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case <-p.stopped:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	err := p.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPool_QueuedJobReleasedOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// the only worker is busy, so this job stays queued
	done := make(chan error, 1)
	go func() {
		done <- p.Do(context.Background(), func() error { return nil })
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("queued job still blocked after the pool stopped")
	}
}
