package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"placement-portal/internal/logger"
	"placement-portal/pkg/errors"

	"github.com/rs/zerolog"
)

type WorkerPool struct {
	workerCount int
	jobChan     chan func(context.Context) error
	wg          sync.WaitGroup
	log         zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan func(context.Context) error, workerCount*2),
		log:         logger.Component("worker_pool"),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Info().Int("worker_count", wp.workerCount).Msg("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop rejects further submissions, then waits until every accepted job
// has run. It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.log.Info().Msg("Stopping worker pool")
	wp.closed = true
	close(wp.jobChan)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.log.Info().Msg("Worker pool stopped")
}

// Submit queues job, blocking while the pool is saturated so the consumer
// stops pulling from Redis instead of dropping work. It returns
// ErrPoolClosed once Stop has been called.
func (wp *WorkerPool) Submit(ctx context.Context, job func(context.Context) error) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return errors.ErrPoolClosed
	}

	select {
	case wp.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker runs jobs until Stop closes the queue. Jobs still buffered when
// ctx is cancelled run on a context detached from the cancellation, since
// their messages have already left Redis.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	log := wp.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Worker started")

	for job := range wp.jobChan {
		jobCtx := ctx
		if ctx.Err() != nil {
			jobCtx = context.WithoutCancel(ctx)
		}

		started := time.Now()
		if err := run(jobCtx, job); err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("Job execution failed")
			continue
		}
		log.Debug().Dur("elapsed", time.Since(started)).Msg("Job completed")
	}

	log.Debug().Msg("Worker stopping due to closed job channel")
}

// run converts a panicking job into an error so the worker survives it.
func run(ctx context.Context, job func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}
