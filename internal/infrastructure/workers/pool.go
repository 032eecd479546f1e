// Package workers runs CPU-bound jobs (password hashing) on a fixed set of
// goroutines so a burst of sign-ups cannot saturate every core.
package workers

import (
	"context"
	"errors"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
)

const channelBuffer = 256

// ErrStopped is returned for jobs submitted after the pool's context ended.
var ErrStopped = errors.New("worker pool stopped")

type job struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// Pool is a fixed-size worker pool. Jobs are queued on a shared buffered
// channel; Do blocks until its job ran or the caller's context is done.
type Pool struct {
	jobs    chan job
	workers int
	stopped chan struct{}
	log     zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, one worker per CPU is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(p.stopped)
	}()
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.workers }

// Do queues fn and waits for its result.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case <-p.stopped:
		return ErrStopped
	default:
	}

	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case p.jobs <- j:
		metrics.HashQueueDepth.Set(float64(len(p.jobs)))
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Set(float64(len(p.jobs)))
			if err := j.ctx.Err(); err != nil {
				// caller gave up while the job was queued
				j.done <- err
				continue
			}
			err := j.fn()
			if err != nil {
				p.log.Debug().Err(err).Str("worker_id", strconv.Itoa(id)).Msg("job failed")
			}
			j.done <- err
		}
	}
}
