package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer cannot take another task without blocking.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueStopped is returned for submissions after Stop.
	ErrQueueStopped = errors.New("queue stopped")
)

// Task is one unit of fire-and-forget work, such as an audit row write.
type Task struct {
	ID       string
	Kind     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task.
type Handler func(context.Context, Task) error

// Options configures worker pool behaviour.
type Options struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// DrainTimeout bounds how long Stop waits for outstanding tasks, retries
	// included, before abandoning them. Defaults to the full retry budget plus
	// a grace period.
	DrainTimeout time.Duration
	// OnDiscard is called when a task is dropped after exhausting its retries.
	OnDiscard func(Task, error)
	Logger    *zap.Logger
}

// Queue dispatches tasks to a fixed pool of goroutines. Submissions never block
// the request path: a full buffer rejects the task instead.
type Queue struct {
	name    string
	handler Handler
	opts    Options

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	// pending counts tasks accepted by Submit that have not yet succeeded or
	// been discarded. Add only happens under mu while running.
	pending sync.WaitGroup
	mu      sync.RWMutex
	state   int
}

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = opts.Workers * 64
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = time.Duration(opts.MaxRetries+1)*opts.RetryDelay + 5*time.Second
	}

	return &Queue{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task, opts.BufferSize),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.workers.Add(1)
		go q.worker()
	}
	q.state = stateRunning
	q.opts.Logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.opts.Workers)
}

// Stop refuses new submissions and waits for every accepted task to succeed or
// exhaust its retries, bounded by DrainTimeout. Tasks still waiting for a retry
// when the bound is hit are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.state = stateStopped
		q.mu.Unlock()
		return
	}
	q.state = stateStopped
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(drained)
	}()
	timer := time.NewTimer(q.opts.DrainTimeout)
	select {
	case <-drained:
		timer.Stop()
	case <-timer.C:
		q.opts.Logger.Sugar().Warnw("queue drain timed out", "queue", q.name, "timeout", q.opts.DrainTimeout)
	}

	q.cancel()
	<-drained
	close(q.tasks)
	q.workers.Wait()
	q.opts.Logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Submit enqueues a task without blocking.
func (q *Queue) Submit(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrQueueStopped)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	q.pending.Add(1)
	select {
	case q.tasks <- task:
		return nil
	default:
		q.pending.Done()
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Pending reports how many tasks are buffered.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

func (q *Queue) worker() {
	defer q.workers.Done()
	for task := range q.tasks {
		// Buffered tasks still run after cancellation so shutdown does not lose writes.
		if err := q.handler(context.WithoutCancel(q.ctx), task); err != nil {
			q.handleFailure(task, err)
			continue
		}
		q.pending.Done()
	}
}

// handleFailure schedules a retry or discards the task. The task keeps its
// pending slot until it succeeds or is discarded, so the channel stays open
// while a retry is waiting to be re-enqueued.
func (q *Queue) handleFailure(task Task, err error) {
	task.Attempt++
	if task.Attempt > q.opts.MaxRetries {
		q.opts.Logger.Sugar().Errorw("task exceeded retries", "queue", q.name, "task_id", task.ID, "kind", task.Kind, "error", err)
		q.discard(task, err)
		return
	}
	if q.ctx.Err() != nil {
		q.discard(task, err)
		return
	}
	q.opts.Logger.Sugar().Warnw("task failed, retrying", "queue", q.name, "task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "error", err)

	go func(t Task) {
		timer := time.NewTimer(q.opts.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.discard(t, q.ctx.Err())
		case <-timer.C:
			q.tasks <- t
		}
	}(task)
}

func (q *Queue) discard(task Task, err error) {
	if q.opts.OnDiscard != nil {
		q.opts.OnDiscard(task, err)
	}
	q.pending.Done()
}
