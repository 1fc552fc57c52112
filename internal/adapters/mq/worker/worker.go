// Package worker defines workers that turn queued rescore jobs into
// persisted role and rank updates.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/logger"
	"github.com/adrata/crmops/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Scorer recomputes a person's role and global rank from scratch.
type Scorer interface {
	Score(ctx context.Context, p model.Person) (roleLabel string, globalRank int, err error)
}

// Updater persists a recomputed score.
type Updater interface {
	UpdateScore(ctx context.Context, u repository.ScoreUpdate) (bool, error)
}

// Publisher emits a rank-update event after a successful write. Optional.
type Publisher interface {
	PublishRankUpdate(ctx context.Context, personID, roleLabel string, globalRank int) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.RescoreJob
}

// Worker processes rescore jobs until stopped.
type Worker struct {
	queue     Queue
	scorer    Scorer
	updater   Updater
	publisher Publisher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing rescore job",
					logger.String("requestID", job.RequestID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob recomputes and persists one person's classification.
func (w *Worker) processJob(ctx context.Context, job model.RescoreJob) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	roleLabel, globalRank, err := w.scorer.Score(ctx, job.Person)
	metrics.RecordClassifyLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return fmt.Errorf("score person %s: %w", job.Person.ID, err)
	}

	changed, err := w.updater.UpdateScore(ctx, repository.ScoreUpdate{
		PersonID:   job.Person.ID,
		Role:       roleLabel,
		GlobalRank: globalRank,
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("update score for %s: %w", job.Person.ID, err)
	}

	metrics.RecordRescoreProcessed()
	if !changed {
		return nil
	}
	metrics.RecordRankUpdate()

	if w.publisher != nil {
		if err := w.publisher.PublishRankUpdate(ctx, job.Person.ID, roleLabel, globalRank); err != nil {
			// publishing is best-effort; the score is already persisted
			metrics.RecordErrorByComponent("worker", "publish_error")
			w.logger.Warn(ctx, "rank update event not published",
				logger.String("personID", job.Person.ID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 falls back to a
// CPU-derived default.
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*Worker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(queue, scorer, updater,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		_ = w.Shutdown(ctx)
		cancel()
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the queue and drains all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
