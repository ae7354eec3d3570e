package tasks

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Runner executes tasks in-process on a bounded worker pool. It is the
// default Queue when no broker is configured.
type Runner struct {
	ch      chan Task
	handler Handler
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(handler Handler, workers, buffer int, log *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	r := &Runner{
		ch:      make(chan Task, buffer),
		handler: handler,
		log:     log,
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}
	return r
}

func (r *Runner) work() {
	defer r.wg.Done()
	for t := range r.ch {
		// tasks run detached from the request that produced them
		if err := r.handler(context.Background(), t); err != nil {
			r.log.Warn("background task failed",
				zap.String("kind", t.Kind),
				zap.Error(err))
		}
	}
}

func (r *Runner) Submit(ctx context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("task runner closed")
	}
	select {
	case r.ch <- t:
		return nil
	default:
		return errors.New("task queue full")
	}
}

// Close stops intake and drains queued tasks.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
