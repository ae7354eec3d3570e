package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/aironrush/assistant/internal/tasks"
)

// Task payloads. These cross the wire when a broker-backed queue is in
// use, so they are plain JSON structs rather than gorm models.

type AppendTurnTask struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	ModelUsed string `json:"model_used"`
}

type TouchSessionTask struct {
	SessionID string `json:"session_id"`
}

type StoreSummaryTask struct {
	UserID      string        `json:"user_id"`
	FileName    string        `json:"file_name"`
	FileSize    int64         `json:"file_size"`
	ContentType string        `json:"content_type"`
	Summary     SummaryFields `json:"summary"`
}

// NewTaskHandler maps queue tasks onto repo writes. Shared by the
// in-process runner and the broker worker.
func NewTaskHandler(repo *Repo, log *zap.Logger) tasks.Handler {
	return func(ctx context.Context, t tasks.Task) error {
		switch t.Kind {
		case tasks.KindAppendTurn:
			var p AppendTurnTask
			if err := json.Unmarshal(t.Payload, &p); err != nil {
				return fmt.Errorf("decode %s: %w", t.Kind, err)
			}
			return repo.InsertMessage(ctx, &Message{
				SessionID: p.SessionID,
				UserID:    p.UserID,
				Role:      p.Role,
				Content:   p.Content,
				ModelUsed: p.ModelUsed,
			})

		case tasks.KindTouchSession:
			var p TouchSessionTask
			if err := json.Unmarshal(t.Payload, &p); err != nil {
				return fmt.Errorf("decode %s: %w", t.Kind, err)
			}
			return repo.TouchSession(ctx, p.SessionID)

		case tasks.KindStoreSummary:
			var p StoreSummaryTask
			if err := json.Unmarshal(t.Payload, &p); err != nil {
				return fmt.Errorf("decode %s: %w", t.Kind, err)
			}
			return repo.InsertSummary(ctx, &SummaryRecord{
				UserID:        p.UserID,
				FileName:      p.FileName,
				FileSize:      p.FileSize,
				ContentType:   p.ContentType,
				UserName:      p.Summary.UserName,
				InputSummary:  p.Summary.InputSummary,
				ClientName:    p.Summary.ClientName,
				ClientRegion:  p.Summary.ClientRegion,
				Vertical:      p.Summary.Vertical,
				Feedback:      p.Summary.Feedback,
				ProjectStatus: p.Summary.ProjectStatus,
			})

		default:
			log.Warn("unknown task kind", zap.String("kind", t.Kind))
			return nil
		}
	}
}
