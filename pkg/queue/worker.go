package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
)

// finalizeTimeout bounds the storage update that records a job's result.
const finalizeTimeout = 10 * time.Second

// Worker claims due jobs and runs them with bounded concurrency.
type Worker struct {
	repo     WorkerRepository
	handlers map[Kind]Handler
	workerID uuid.UUID
	sem      chan struct{}
	throttle *ratelimit.TokenBucket
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex // guards stopping together with wg.Add

	pullInterval time.Duration
	lockTimeout  time.Duration
	policy       Policy
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewWorker creates a new job worker
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		pullInterval:      time.Second,
		lockTimeout:       5 * time.Minute,
		maxConcurrentJobs: 5,
		policy:            DefaultPolicy(),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		repo:         repo,
		handlers:     make(map[Kind]Handler),
		workerID:     uuid.New(),
		sem:          make(chan struct{}, options.maxConcurrentJobs),
		throttle:     options.throttle,
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		policy:       options.policy,
		logger:       options.logger.With(logger.Component("queue.worker")),
	}, nil
}

// RegisterHandler registers the handler for a job kind
func (w *Worker) RegisterHandler(kind Kind, handler Handler) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, kind)
	}
	if handler == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[kind] = handler
	return nil
}

// Start begins processing jobs in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)
	go w.run()

	w.logger.Info("worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels claiming and waits for in-flight jobs to finish
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker stopping, waiting for active jobs",
		slog.String("worker_id", w.workerID.String()))

	w.wg.Wait()

	w.logger.Info("worker stopped",
		slog.String("worker_id", w.workerID.String()))

	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return w.Stop()
	}
}

// ID returns the identifier this worker locks jobs with.
func (w *Worker) ID() uuid.UUID {
	return w.workerID
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	w.drain()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain claims jobs while slots are free and jobs are due.
func (w *Worker) drain() {
	for {
		select {
		case w.sem <- struct{}{}:
		default:
			w.logger.Debug("all worker slots busy",
				slog.String("worker_id", w.workerID.String()))
			return
		}

		w.stopMu.Lock()
		if w.stopping.Load() {
			w.stopMu.Unlock()
			<-w.sem
			return
		}
		w.wg.Add(1)
		w.stopMu.Unlock()

		job, ok := w.claim()
		if !ok {
			<-w.sem
			w.wg.Done()
			return
		}

		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			if err := w.processJob(job); err != nil {
				w.logger.Error("failed to record job result",
					slog.String("worker_id", w.workerID.String()),
					logger.JobID(job.ID),
					logger.Error(err))
			}
		}()
	}
}

func (w *Worker) claim() (*Job, bool) {
	if w.throttle != nil {
		if err := w.throttle.Wait(w.ctx); err != nil {
			return nil, false
		}
	}

	job, err := w.repo.ClaimJob(w.ctx, w.workerID, w.lockTimeout)
	if err != nil {
		if !errors.Is(err, ErrNoJobToClaim) && w.ctx.Err() == nil {
			w.logger.Error("failed to claim job",
				slog.String("worker_id", w.workerID.String()),
				logger.Error(err))
		}
		return nil, false
	}
	if job == nil {
		return nil, false
	}

	w.logger.Debug("claimed job",
		slog.String("worker_id", w.workerID.String()),
		logger.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		logger.Attempt(job.Attempts))

	return job, true
}

// processJob runs the handler and records the result.
func (w *Worker) processJob(job *Job) error {
	start := time.Now()

	w.mu.RLock()
	handler, ok := w.handlers[job.Kind]
	w.mu.RUnlock()

	if !ok {
		w.logger.Error("no handler registered for job kind",
			logger.JobID(job.ID),
			slog.String("kind", string(job.Kind)))
		return w.deadLetter(job, fmt.Errorf("%w: %s", ErrHandlerNotFound, job.Kind))
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.policy.DeliveryTimeout)
	release := w.holdLock(job)
	err := invoke(ctx, handler, job)
	release()
	cancel()
	duration := time.Since(start)

	switch {
	case err == nil:
		return w.complete(job, OutcomeDelivered, duration)
	case errors.Is(err, ErrSkipped):
		return w.complete(job, OutcomeSkipped, duration)
	default:
		return w.fail(job, err, duration)
	}
}

// holdLock keeps extending the job's lock until the returned func is called,
// so a slow delivery is never reclaimed while it is still running.
func (w *Worker) holdLock(job *Job) func() {
	interval := w.lockTimeout / 3
	if interval <= 0 {
		interval = w.lockTimeout
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				err := w.repo.ExtendLock(ctx, job.ID, w.lockTimeout)
				cancel()
				if err != nil {
					w.logger.Warn("failed to extend job lock",
						slog.String("worker_id", w.workerID.String()),
						logger.JobID(job.ID),
						logger.Error(err))
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

// invoke calls the handler, converting a panic into an error.
func invoke(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return handler.Handle(ctx, job)
}

func (w *Worker) complete(job *Job, outcome Outcome, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if err := w.repo.CompleteJob(ctx, job.ID, outcome); err != nil {
		return fmt.Errorf("failed to mark job %s as completed: %w", job.ID, err)
	}

	w.logger.Info("job completed",
		logger.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		slog.String("outcome", string(outcome)),
		logger.Attempt(job.Attempts),
		logger.Duration(duration))

	return nil
}

func (w *Worker) fail(job *Job, execErr error, duration time.Duration) error {
	w.logger.Warn("job attempt failed",
		logger.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		logger.Attempt(job.Attempts),
		slog.Int("max_attempts", job.MaxAttempts),
		logger.Duration(duration),
		logger.Error(execErr))

	if job.Exhausted() {
		return w.deadLetter(job, execErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	runAt := time.Now().Add(w.policy.Backoff.NextInterval(job.Attempts))
	if err := w.repo.RetryJob(ctx, job.ID, runAt, execErr.Error()); err != nil {
		return fmt.Errorf("failed to schedule retry of job %s: %w", job.ID, err)
	}
	return nil
}

func (w *Worker) deadLetter(job *Job, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if err := w.repo.DeadLetterJob(ctx, job.ID, cause.Error()); err != nil {
		return fmt.Errorf("failed to move job %s to dead letter: %w", job.ID, err)
	}

	w.logger.Warn("job moved to dead letter",
		logger.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		logger.Recipient(job.Recipient),
		logger.Attempt(job.Attempts))

	return nil
}
