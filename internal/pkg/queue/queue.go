package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"golang.org/x/sync/errgroup"
)

// Store persists jobs. Implementations must make Claim safe across
// processes and make Complete/Fail succeed at most once per job.
type Store interface {
	Insert(ctx context.Context, jobs []Job) error

	// Claim leases the next runnable job of the given kinds, or returns nil
	Claim(ctx context.Context, kinds []string, now time.Time, lease time.Duration) (*Job, error)

	// Complete and Fail report false when the job was no longer running
	Complete(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id string, message string) (bool, error)

	Retry(ctx context.Context, id string, runAt time.Time, message string) error
	Ping(ctx context.Context) error
}

// Handler processes one job. Returning an error schedules a retry unless
// the error is Permanent or the job is out of attempts.
type Handler func(ctx context.Context, job Job) error

// FinishHook runs once a job reaches a terminal state, inside the
// transaction that records that state. jobErr is nil on success.
type FinishHook func(ctx context.Context, job Job, jobErr error) error

type Config struct {
	Workers      int
	PollInterval time.Duration
	MaxAttempts  int
	Lease        time.Duration
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Lease <= 0 {
		c.Lease = 2 * time.Minute
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 10 * time.Second
	}
	return c
}

type registration struct {
	handler Handler
	finish  FinishHook
}

// Queue is a durable job queue drained by a fixed-size worker pool.
type Queue struct {
	store  Store
	tx     database.Transactor
	cfg    Config
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]registration

	cancel context.CancelFunc
	group  *errgroup.Group
}

func New(store Store, tx database.Transactor, cfg Config) *Queue {
	return &Queue{
		store:    store,
		tx:       tx,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		logger:   slog.Default().With("component", "queue"),
		handlers: make(map[string]registration),
	}
}

// Register binds a handler and an optional finish hook to a job kind.
func (q *Queue) Register(kind string, handler Handler, finish FinishHook) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = registration{handler: handler, finish: finish}
}

// Ping verifies the job store is reachable.
func (q *Queue) Ping(ctx context.Context) error {
	if err := q.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	return nil
}

// Enqueue stores jobs as pending. It joins the transaction in ctx, if any.
func (q *Queue) Enqueue(ctx context.Context, jobs ...Job) error {
	if len(jobs) == 0 {
		return nil
	}
	now := q.now().UTC()
	for i := range jobs {
		if jobs[i].MaxAttempts <= 0 {
			jobs[i].MaxAttempts = q.cfg.MaxAttempts
		}
		if jobs[i].RunAt.IsZero() {
			jobs[i].RunAt = now
		}
		jobs[i].Status = StatusPending
		jobs[i].CreatedAt = now
		jobs[i].UpdatedAt = now
	}
	if err := q.store.Insert(ctx, jobs); err != nil {
		return fmt.Errorf("enqueue %d jobs: %w", len(jobs), err)
	}
	return nil
}

// Start launches the worker pool. Workers stop when ctx is cancelled or
// Stop is called.
func (q *Queue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		worker := i + 1
		g.Go(func() error {
			q.work(gctx, worker)
			return nil
		})
	}
	q.group = g

	q.logger.Info("Queue workers started", "workers", q.cfg.Workers, "poll_interval", q.cfg.PollInterval)
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	_ = q.group.Wait()
	q.logger.Info("Queue workers stopped")
}

func (q *Queue) work(ctx context.Context, worker int) {
	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain everything runnable before sleeping again
		for {
			processed, err := q.ProcessNext(ctx)
			if err != nil && ctx.Err() == nil {
				q.logger.Error("Queue poll failed", "worker", worker, "error", err)
			}
			if !processed || ctx.Err() != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (q *Queue) kinds() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	kinds := make([]string, 0, len(q.handlers))
	for k := range q.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

func (q *Queue) registration(kind string) (registration, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	r, ok := q.handlers[kind]
	return r, ok
}

// ProcessNext claims and runs a single job. It reports false when nothing
// was runnable.
func (q *Queue) ProcessNext(ctx context.Context) (bool, error) {
	kinds := q.kinds()
	if len(kinds) == 0 {
		return false, nil
	}

	job, err := q.store.Claim(ctx, kinds, q.now().UTC(), q.cfg.Lease)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	reg, ok := q.registration(job.Kind)
	if !ok {
		return true, q.finish(ctx, *job, Permanent(fmt.Errorf("no handler for kind %q", job.Kind)), nil)
	}

	jobErr := q.run(ctx, reg.handler, *job)
	if jobErr == nil {
		return true, q.finish(ctx, *job, nil, reg.finish)
	}

	logger := q.logger.With("job_id", job.ID, "kind", job.Kind, "batch_id", job.BatchID, "attempt", job.Attempts)

	if IsPermanent(jobErr) || job.Attempts >= job.MaxAttempts {
		logger.Error("Job failed", "error", jobErr)
		return true, q.finish(ctx, *job, jobErr, reg.finish)
	}

	runAt := q.now().UTC().Add(time.Duration(job.Attempts) * q.cfg.RetryBackoff)
	logger.Warn("Job failed, retrying", "error", jobErr, "run_at", runAt)
	if err := q.store.Retry(ctx, job.ID, runAt, jobErr.Error()); err != nil {
		return true, fmt.Errorf("reschedule job %s: %w", job.ID, err)
	}
	return true, nil
}

func (q *Queue) run(ctx context.Context, handler Handler, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return handler(ctx, job)
}

// finish records the terminal state and runs the hook in one transaction.
// A job already finished by another delivery is skipped.
func (q *Queue) finish(ctx context.Context, job Job, jobErr error, hook FinishHook) error {
	return q.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var (
			transitioned bool
			err          error
		)
		if jobErr == nil {
			transitioned, err = q.store.Complete(txCtx, job.ID)
		} else {
			transitioned, err = q.store.Fail(txCtx, job.ID, jobErr.Error())
		}
		if err != nil {
			return fmt.Errorf("finish job %s: %w", job.ID, err)
		}
		if !transitioned || hook == nil {
			return nil
		}
		if err := hook(txCtx, job, jobErr); err != nil {
			return fmt.Errorf("finish hook for job %s: %w", job.ID, err)
		}
		return nil
	})
}
