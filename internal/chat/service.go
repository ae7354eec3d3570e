package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aironrush/assistant/internal/ai"
	"github.com/aironrush/assistant/internal/common"
	"github.com/aironrush/assistant/internal/domain"
	"github.com/aironrush/assistant/internal/extract"
	"github.com/aironrush/assistant/internal/tasks"
)

const (
	chatSystemMessage = "You are a helpful AI assistant."

	chatTemperature = 0.7
	chatMaxTokens   = 1500

	defaultSessionTitle = "New Chat Session"
)

// Service orchestrates one chat request end to end: intake, extraction,
// context assembly, classification, history fetch, prompt build,
// completion, and fire-and-forget persistence.
type Service struct {
	repo          *Repo
	registry      *ai.Registry
	providerName  string
	queue         tasks.Queue
	historyWindow int
	log           *zap.Logger
}

func NewService(repo *Repo, registry *ai.Registry, providerName string, queue tasks.Queue, historyWindow int, log *zap.Logger) *Service {
	if historyWindow <= 0 || historyWindow > 100 {
		historyWindow = 5
	}
	return &Service{
		repo:          repo,
		registry:      registry,
		providerName:  providerName,
		queue:         queue,
		historyWindow: historyWindow,
		log:           log,
	}
}

// FileUpload is an uploaded file already read into memory.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Request carries one chat invocation. Message and File are individually
// optional but at least one must be present.
type Request struct {
	SessionID     string
	UserID        string
	Message       string
	Task          string // optional caller-supplied task label
	Model         string
	SummarizeFile bool
	File          *FileUpload
}

// Result is the response envelope of a blocking chat call.
type Result struct {
	Response    string
	Task        TaskKind
	ModelUsed   string
	SessionID   string
	FileSummary *SummaryFields
}

// Stream is a prepared streaming chat call. Chunks delivers text deltas as
// they arrive; Errs delivers at most one final error instead of a panic so
// consumers can render partial output plus an error notice.
type Stream struct {
	Task        TaskKind
	ModelUsed   string
	SessionID   string
	FileSummary *SummaryFields

	Chunks <-chan string
	Errs   <-chan error
}

func (s *Service) CreateSession(ctx context.Context, userID, title string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrInvalidRequest)
	}
	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = defaultSessionTitle
	}
	sess := &Session{
		SessionID:   sid,
		UserID:      userID,
		Title:       title,
		ModelUsed:   DefaultModel,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return sess, nil
}

// Sessions lists a user's sessions, most recently updated first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]Session, error) {
	sessions, err := s.repo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return sessions, nil
}

// History returns up to limit most recent turns in chronological order.
// Store failures degrade to an empty result so history serving never hard
// fails.
func (s *Service) History(ctx context.Context, sessionID string, limit int) []Message {
	msgs, err := s.repo.ListRecentMessagesDesc(ctx, sessionID, limit)
	if err != nil {
		s.log.Warn("history fetch failed, serving empty",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return []Message{}
	}
	reverse(msgs)
	return msgs
}

func reverse(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// prepared is the per-request state after every step before the
// completion call.
type prepared struct {
	provider ai.Provider
	prompt   string
	message  string // user message, possibly synthesized from the filename
	task     TaskKind
	model    string
	summary  *SummaryFields
}

func (s *Service) prepare(ctx context.Context, req *Request) (*prepared, error) {
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("session_id and user_id are required: %w", domain.ErrInvalidRequest)
	}
	if req.Message == "" && req.File == nil {
		return nil, fmt.Errorf("either a message or a file must be provided: %w", domain.ErrInvalidRequest)
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	provider, err := s.registry.Get(ctx, s.providerName, model)
	if err != nil {
		return nil, err
	}

	var (
		documentText string
		summary      *SummaryFields
	)
	if req.File != nil {
		documentText, err = extract.Text(req.File.Data, req.File.ContentType)
		if err != nil {
			return nil, err
		}
		if req.Message == "" && documentText == "" {
			return nil, fmt.Errorf("the uploaded file contains no extractable text: %w", domain.ErrInvalidRequest)
		}

		if req.SummarizeFile {
			// document analysis is pinned to the default model regardless
			// of the model driving the chat turn
			res := s.generateFileSummary(ctx, provider, DefaultModel, documentText)
			if res.Fallback {
				s.log.Warn("file summary fell back to defaults",
					zap.String("file", req.File.Name),
					zap.String("reason", res.Reason))
			}
			summary = &res.Fields
			s.submit(tasks.KindStoreSummary, StoreSummaryTask{
				UserID:      req.UserID,
				FileName:    req.File.Name,
				FileSize:    req.File.Size,
				ContentType: req.File.ContentType,
				Summary:     res.Fields,
			})
		}
	}

	message := req.Message
	if message == "" && documentText != "" {
		message = fmt.Sprintf("Please analyze this document: %s", req.File.Name)
	}

	input := message
	if documentText != "" {
		input = fmt.Sprintf("Document content:\n%s\n\nUser question: %s", documentText, message)
	}

	task, ok := ParseTaskKind(req.Task)
	if !ok {
		task = ClassifyTask(message)
	}

	history := s.History(ctx, req.SessionID, s.historyWindow)

	return &prepared{
		provider: provider,
		prompt:   BuildPrompt(task, input, history),
		message:  message,
		task:     task,
		model:    model,
		summary:  summary,
	}, nil
}

// Chat runs one blocking request. Persistence of both turns and the
// session timestamp is submitted to the background queue, never awaited.
func (s *Service) Chat(ctx context.Context, req *Request) (*Result, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	reply, err := p.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: chatSystemMessage},
		{Role: "user", Content: p.prompt},
	}, ai.Options{Model: p.model, Temperature: chatTemperature, MaxTokens: chatMaxTokens})
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)

	s.persistTurn(req.SessionID, req.UserID, p.message, reply, p.model)

	return &Result{
		Response:    reply,
		Task:        p.task,
		ModelUsed:   p.model,
		SessionID:   req.SessionID,
		FileSummary: p.summary,
	}, nil
}

// ChatStream runs every step up to the completion synchronously, then
// streams deltas. The concatenated reply is persisted once the upstream
// stream ends cleanly; a cancelled consumer stops the upstream read and
// nothing is persisted.
func (s *Service) ChatStream(ctx context.Context, req *Request) (*Stream, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	sp, ok := p.provider.(ai.StreamProvider)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support streaming: %w", s.providerName, domain.ErrUpstream)
	}

	upstream, upstreamErrs := sp.StreamChat(ctx, []ai.Message{
		{Role: "system", Content: chatSystemMessage},
		{Role: "user", Content: p.prompt},
	}, ai.Options{Model: p.model, Temperature: chatTemperature, MaxTokens: chatMaxTokens})

	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		var full strings.Builder
		for delta := range upstream {
			full.WriteString(delta)
			select {
			case chunks <- delta:
			case <-ctx.Done():
				return
			}
		}

		select {
		case err := <-upstreamErrs:
			if err != nil {
				errs <- err
				return
			}
		default:
		}

		if ctx.Err() != nil {
			return
		}

		s.persistTurn(req.SessionID, req.UserID, p.message, full.String(), p.model)
	}()

	return &Stream{
		Task:        p.task,
		ModelUsed:   p.model,
		SessionID:   req.SessionID,
		FileSummary: p.summary,
		Chunks:      chunks,
		Errs:        errs,
	}, nil
}

// SummarizeFile analyzes one upload outside of a chat turn. The record is
// persisted best-effort; the summary itself is returned synchronously.
func (s *Service) SummarizeFile(ctx context.Context, userID string, file *FileUpload) (SummaryResult, error) {
	if strings.TrimSpace(userID) == "" || file == nil {
		return SummaryResult{}, fmt.Errorf("user_id and file are required: %w", domain.ErrInvalidRequest)
	}

	documentText, err := extract.Text(file.Data, file.ContentType)
	if err != nil {
		return SummaryResult{}, err
	}

	provider, err := s.registry.Get(ctx, s.providerName, DefaultModel)
	if err != nil {
		return SummaryResult{}, err
	}

	res := s.generateFileSummary(ctx, provider, DefaultModel, documentText)
	if res.Fallback {
		s.log.Warn("file summary fell back to defaults",
			zap.String("file", file.Name),
			zap.String("reason", res.Reason))
	}

	s.submit(tasks.KindStoreSummary, StoreSummaryTask{
		UserID:      userID,
		FileName:    file.Name,
		FileSize:    file.Size,
		ContentType: file.ContentType,
		Summary:     res.Fields,
	})
	return res, nil
}

// Summaries lists a user's stored file summaries, newest first.
func (s *Service) Summaries(ctx context.Context, userID string) ([]SummaryRecord, error) {
	out, err := s.repo.ListSummariesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return out, nil
}

// persistTurn queues the user turn, the assistant turn, and the session
// timestamp bump.
func (s *Service) persistTurn(sessionID, userID, userMsg, reply, model string) {
	s.submit(tasks.KindAppendTurn, AppendTurnTask{
		SessionID: sessionID,
		UserID:    userID,
		Role:      RoleUser,
		Content:   userMsg,
		ModelUsed: model,
	})
	s.submit(tasks.KindAppendTurn, AppendTurnTask{
		SessionID: sessionID,
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   reply,
		ModelUsed: model,
	})
	s.submit(tasks.KindTouchSession, TouchSessionTask{SessionID: sessionID})
}

func (s *Service) submit(kind string, payload any) {
	t, err := tasks.New(kind, payload)
	if err != nil {
		s.log.Warn("encode background task failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	// detached from the request context: the reply must not depend on it
	if err := s.queue.Submit(context.Background(), t); err != nil {
		s.log.Warn("submit background task failed", zap.String("kind", kind), zap.Error(err))
	}
}
