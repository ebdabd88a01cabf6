// Package jobs runs long generation calls off the request goroutine.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("job runner is stopped")
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is the unit of work. Its result is reported back verbatim.
type Task func(ctx context.Context) (interface{}, error)

// Job is a point-in-time view of a submitted task.
type Job struct {
	ID         string           `json:"id"`
	Status     Status           `json:"status"`
	Result     interface{}      `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	History    llm.RetryHistory `json:"history,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

type entry struct {
	mu   sync.Mutex
	job  Job
	task Task
}

func (e *entry) snapshot() Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

// Options configures a Runner.
type Options struct {
	Workers   int
	QueueSize int
	// Retention is how long finished jobs stay queryable.
	Retention time.Duration
	Logger    llm.Logger
}

// Runner is a fixed pool of workers draining a bounded queue.
type Runner struct {
	queue     chan *entry
	jobs      sync.Map
	workers   int
	retention time.Duration
	logger    llm.Logger
	now       func() time.Time

	mu      sync.Mutex
	stopped bool
	group   *errgroup.Group
}

// NewRunner creates a runner. Call Start before submitting work.
func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = llm.NopLogger{}
	}

	return &Runner{
		queue:     make(chan *entry, opts.QueueSize),
		workers:   opts.Workers,
		retention: opts.Retention,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// Start launches the workers. Tasks receive ctx and stop with it.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.group != nil {
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		group.Go(func() error {
			for e := range r.queue {
				r.run(groupCtx, e)
			}
			return nil
		})
	}
	r.group = group
}

// Submit queues a task and returns its job id without blocking.
func (r *Runner) Submit(task Task) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return "", ErrStopped
	}

	r.prune()

	e := &entry{
		job: Job{
			ID:        uuid.NewString(),
			Status:    StatusQueued,
			CreatedAt: r.now(),
		},
		task: task,
	}

	r.jobs.Store(e.job.ID, e)
	select {
	case r.queue <- e:
	default:
		r.jobs.Delete(e.job.ID)
		return "", ErrQueueFull
	}
	return e.job.ID, nil
}

// Get returns the current state of a job.
func (r *Runner) Get(id string) (Job, bool) {
	value, ok := r.jobs.Load(id)
	if !ok {
		return Job{}, false
	}
	return value.(*entry).snapshot(), true
}

// Stop refuses new work and waits for queued jobs to finish.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	group := r.group
	r.mu.Unlock()

	if group == nil {
		return nil
	}
	return group.Wait()
}

func (r *Runner) run(ctx context.Context, e *entry) {
	started := r.now()
	e.mu.Lock()
	e.job.Status = StatusRunning
	e.job.StartedAt = &started
	task := e.task
	e.mu.Unlock()

	result, err := r.safeRun(ctx, task)

	finished := r.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.job.FinishedAt = &finished
	e.task = nil

	if err != nil {
		e.job.Status = StatusFailed
		e.job.Error = err.Error()
		var fatal *llm.FatalError
		if errors.As(err, &fatal) {
			e.job.History = fatal.History
		}
		r.logger.Warn("Job failed", "job_id", e.job.ID, "error", err, "duration", finished.Sub(started))
		return
	}

	e.job.Status = StatusSucceeded
	e.job.Result = result
	r.logger.Info("Job finished", "job_id", e.job.ID, "duration", finished.Sub(started))
}

func (r *Runner) safeRun(ctx context.Context, task Task) (result interface{}, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New("job panicked")
			r.logger.Error("Job panicked", "panic", recovered)
		}
	}()
	return task(ctx)
}

// prune drops finished jobs older than the retention window.
func (r *Runner) prune() {
	cutoff := r.now().Add(-r.retention)
	r.jobs.Range(func(key, value interface{}) bool {
		job := value.(*entry).snapshot()
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			r.jobs.Delete(key)
		}
		return true
	})
}
