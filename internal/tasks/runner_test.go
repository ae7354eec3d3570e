package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	r := NewRunner(func(ctx context.Context, task Task) error {
		mu.Lock()
		seen = append(seen, task.Kind)
		mu.Unlock()
		return nil
	}, 2, 8, zap.NewNop())

	for i := 0; i < 5; i++ {
		task, err := New(KindTouchSession, map[string]string{"session_id": "s"})
		if err != nil {
			t.Fatalf("new task: %v", err)
		}
		if err := r.Submit(context.Background(), task); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 5 {
		t.Fatalf("expected 5 executed tasks, got %d", len(seen))
	}
	for _, k := range seen {
		if k != KindTouchSession {
			t.Fatalf("unexpected kind %q", k)
		}
	}
}

func TestRunnerHandlerFailureIsNotReturned(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner(func(ctx context.Context, task Task) error {
		calls.Add(1)
		return errors.New("boom")
	}, 1, 4, zap.NewNop())

	task, _ := New(KindAppendTurn, map[string]string{"content": "x"})
	if err := r.Submit(context.Background(), task); err != nil {
		t.Fatalf("submit should accept the task, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls.Load())
	}
}

func TestRunnerCloseDrainsBacklog(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var done atomic.Int32

	r := NewRunner(func(ctx context.Context, task Task) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		done.Add(1)
		return nil
	}, 1, 8, zap.NewNop())

	for i := 0; i < 3; i++ {
		task, _ := New(KindTouchSession, map[string]string{"session_id": "s"})
		if err := r.Submit(context.Background(), task); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	<-started
	close(release)

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if done.Load() != 3 {
		t.Fatalf("expected backlog drained before Close returned, got %d", done.Load())
	}
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	r := NewRunner(func(ctx context.Context, task Task) error { return nil }, 1, 4, zap.NewNop())
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	task, _ := New(KindAppendTurn, map[string]string{})
	if err := r.Submit(context.Background(), task); err == nil {
		t.Fatal("expected submit after close to fail")
	}
}

func TestRunnerRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(func(ctx context.Context, task Task) error {
		<-release
		return nil
	}, 1, 1, zap.NewNop())
	defer func() {
		close(release)
		_ = r.Close()
	}()

	// one task occupies the worker, one fills the buffer; submit until
	// the bounded queue pushes back
	var sawFull bool
	for i := 0; i < 4; i++ {
		task, _ := New(KindTouchSession, map[string]string{})
		if err := r.Submit(context.Background(), task); err != nil {
			sawFull = true
			break
		}
	}
	if !sawFull {
		t.Fatal("expected a full queue to reject a submit")
	}
}
