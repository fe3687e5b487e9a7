package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Func is executed when a deferred task fires.
type Func func(ctx context.Context)

// Runner schedules named tasks to fire after a delay. A scheduled task can be
// cancelled up to the moment it fires; firing and cancellation are mutually
// exclusive per key.
type Runner struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner builds a deferred task runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger:  logger,
		pending: make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule arranges fn to run after delay under the given key. Returns false
// when a task with the same key is already pending.
func (r *Runner) Schedule(key string, delay time.Duration, fn Func) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[key]; exists {
		return false
	}

	r.wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer r.wg.Done()

		r.mu.Lock()
		_, live := r.pending[key]
		delete(r.pending, key)
		r.mu.Unlock()

		// Cancel won the race: the task must not fire.
		if !live {
			return
		}
		if r.ctx.Err() != nil {
			return
		}
		fn(r.ctx)
	})
	r.pending[key] = timer

	return true
}

// Cancel stops a pending task. Returns false when nothing was pending, or the
// task already fired.
func (r *Runner) Cancel(key string) bool {
	r.mu.Lock()
	timer, exists := r.pending[key]
	if exists {
		delete(r.pending, key)
	}
	r.mu.Unlock()

	if !exists {
		return false
	}
	if timer.Stop() {
		r.wg.Done()
	}
	return true
}

// Pending reports whether a task is scheduled under the key.
func (r *Runner) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.pending[key]
	return exists
}

// Shutdown cancels the runner context and waits for in-flight tasks. Pending
// timers that have not fired are stopped.
func (r *Runner) Shutdown() {
	r.cancel()

	r.mu.Lock()
	for key, timer := range r.pending {
		if timer.Stop() {
			r.wg.Done()
		}
		delete(r.pending, key)
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Debug("deferred runner stopped")
}
