package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressEvent is a point-in-time snapshot of a running task, forwarded to
// the task's handle. Producers emit these at a coarse interval.
type ProgressEvent struct {
	TaskID      string
	Iteration   int
	Temperature float64
	CurrentCost float64
	BestCost    float64
	Accepted    int
}

// Task is the unit of background work executed by the Runner. The report
// callback is safe to call from the task goroutine at any frequency; events
// are dropped rather than blocking when the handle's consumer lags.
type Task func(ctx context.Context, report func(ProgressEvent)) error

// RunnerConfig configures worker pool behaviour.
type RunnerConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Handle tracks a single submitted task.
type Handle struct {
	id       string
	cancel   context.CancelFunc
	progress chan ProgressEvent
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the runner-assigned task identifier.
func (h *Handle) ID() string { return h.id }

// Cancel requests cooperative cancellation of the task.
func (h *Handle) Cancel() { h.cancel() }

// Progress returns the event stream for this task. The channel is closed
// when the task finishes.
func (h *Handle) Progress() <-chan ProgressEvent { return h.progress }

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the task's terminal error, if any. Valid after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the task finishes or ctx expires.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.Err()
	}
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.progress)
	close(h.done)
}

func (h *Handle) report(ev ProgressEvent) {
	ev.TaskID = h.id
	select {
	case h.progress <- ev:
	default:
	}
}

type submission struct {
	handle *Handle
	ctx    context.Context
	task   Task
}

// Runner executes submitted tasks on a bounded worker pool.
type Runner struct {
	workers    int
	bufferSize int
	logger     *zap.Logger

	tasks   chan submission
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds a runner with the provided pool configuration.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Runner{
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		tasks:      make(chan submission, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.started = true
	r.logger.Sugar().Infow("runner started", "workers", r.workers)
}

// Stop cancels all running tasks and waits for workers to exit. Submissions
// still queued are finished with the cancellation error so their handles
// never block a waiter.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	for {
		select {
		case sub := <-r.tasks:
			sub.handle.finish(r.ctx.Err())
		default:
			r.logger.Sugar().Infow("runner stopped")
			return
		}
	}
}

// Submit enqueues a task and returns its handle. Blocks while the buffer is
// full; fails if the runner has not been started or has stopped.
func (r *Runner) Submit(task Task) (*Handle, error) {
	r.mu.Lock()
	ctx := r.ctx
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil, fmt.Errorf("runner not started")
	}

	taskCtx, taskCancel := context.WithCancel(ctx)
	h := &Handle{
		id:       uuid.NewString(),
		cancel:   taskCancel,
		progress: make(chan ProgressEvent, 16),
		done:     make(chan struct{}),
	}

	select {
	case <-ctx.Done():
		taskCancel()
		return nil, fmt.Errorf("runner stopped: %w", ctx.Err())
	case r.tasks <- submission{handle: h, ctx: taskCtx, task: task}:
		return h, nil
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		// Shutdown wins over queued work so Stop can drain the queue.
		select {
		case <-r.ctx.Done():
			return
		default:
		}
		select {
		case <-r.ctx.Done():
			return
		case sub := <-r.tasks:
			err := sub.task(sub.ctx, sub.handle.report)
			sub.handle.finish(err)
			if err != nil {
				r.logger.Sugar().Warnw("task failed", "task_id", sub.handle.id, "error", err)
			}
		}
	}
}
