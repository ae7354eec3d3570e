package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessionsByUser returns a user's sessions, most recently updated first.
func (r *Repo) ListSessionsByUser(ctx context.Context, userID string) ([]Session, error) {
	var sessions []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// TouchSession bumps last_updated to now.
func (r *Repo) TouchSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("last_updated", time.Now().UTC()).Error
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListRecentMessagesDesc returns the most recent messages newest first.
// Callers reverse the slice when they need chronological order.
func (r *Repo) ListRecentMessagesDesc(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListMessagesAsc returns every message of a session in chronological order.
func (r *Repo) ListMessagesAsc(ctx context.Context, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *Repo) InsertSummary(ctx context.Context, s *SummaryRecord) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListSummariesByUser returns a user's file summaries, newest first.
func (r *Repo) ListSummariesByUser(ctx context.Context, userID string) ([]SummaryRecord, error) {
	var out []SummaryRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
