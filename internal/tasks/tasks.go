// Package tasks is the best-effort background work queue. Persistence side
// effects of a chat turn are submitted here so the response path never
// waits on them; failures are logged, never surfaced to callers.
package tasks

import (
	"context"
	"encoding/json"
)

const (
	KindAppendTurn   = "turn.append"
	KindTouchSession = "session.touch"
	KindStoreSummary = "summary.store"
)

type Task struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func New(kind string, payload any) (Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Task{}, err
	}
	return Task{Kind: kind, Payload: b}, nil
}

// Handler executes one task.
type Handler func(ctx context.Context, t Task) error

// Queue accepts tasks for eventual execution. Submit must not block on the
// task's own work.
type Queue interface {
	Submit(ctx context.Context, t Task) error
	Close() error
}
