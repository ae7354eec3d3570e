package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aironrush/assistant/internal/ai"
	"github.com/aironrush/assistant/internal/domain"
	"github.com/aironrush/assistant/internal/tasks"
)

type recordingProvider struct {
	reply   string
	calls   int
	last    []ai.Message
	optsLog []ai.Options
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message, opts ai.Options) (string, error) {
	_ = ctx
	p.calls++
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	p.optsLog = append(p.optsLog, opts)
	if p.reply == "" {
		return "ok", nil
	}
	return p.reply, nil
}

type streamingProvider struct {
	recordingProvider
	deltas []string
}

func (p *streamingProvider) StreamChat(ctx context.Context, messages []ai.Message, opts ai.Options) (<-chan string, <-chan error) {
	p.calls++
	p.last = append([]ai.Message(nil), messages...)
	chunks := make(chan string, len(p.deltas))
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for _, d := range p.deltas {
			chunks <- d
		}
	}()
	return chunks, errs
}

// inlineQueue executes tasks synchronously so tests can assert on
// persistence right after a call returns.
type inlineQueue struct {
	h tasks.Handler
}

func (q inlineQueue) Submit(ctx context.Context, t tasks.Task) error { return q.h(ctx, t) }
func (q inlineQueue) Close() error                                   { return nil }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Session{}, &Message{}, &SummaryRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, prov ai.Provider) (*Service, *Repo) {
	t.Helper()
	db := openTestDB(t)
	repo := NewRepo(db)

	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})

	log := zap.NewNop()
	queue := inlineQueue{h: NewTaskHandler(repo, log)}
	return NewService(repo, reg, "fake", queue, 5, log), repo
}

func mustCreateSession(t *testing.T, svc *Service, userID string) *Session {
	t.Helper()
	sess, err := svc.CreateSession(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func TestChatWritesUserAndAssistantTurns(t *testing.T) {
	prov := &recordingProvider{reply: "model output"}
	svc, repo := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	res, err := svc.Chat(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u1",
		Message:   "Write a user story for login",
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Task != TaskBusinessAnalyst {
		t.Fatalf("expected Business Analyst task, got %q", res.Task)
	}
	if res.Response != "model output" {
		t.Fatalf("unexpected response: %q", res.Response)
	}

	msgs, err := repo.ListMessagesAsc(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Write a user story for login" {
		t.Fatalf("unexpected user turn: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "model output" {
		t.Fatalf("unexpected assistant turn: %+v", msgs[1])
	}
}

func TestChatBumpsSessionTimestamp(t *testing.T) {
	prov := &recordingProvider{}
	svc, repo := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	if _, err := svc.Chat(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u1",
		Message:   "hello",
	}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	after, err := repo.GetSessionBySessionID(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	msgs, err := repo.ListMessagesAsc(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	last := msgs[len(msgs)-1]
	if after.LastUpdated.Before(last.CreatedAt.Add(-1)) {
		t.Fatalf("last_updated %v older than newest turn %v", after.LastUpdated, last.CreatedAt)
	}
}

func TestChatRejectsEmptyRequestWithoutModelCall(t *testing.T) {
	prov := &recordingProvider{}
	svc, _ := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	_, err := svc.Chat(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u1",
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if prov.calls != 0 {
		t.Fatalf("completion client invoked %d times on invalid request", prov.calls)
	}
}

func TestChatRejectsEmptyFileWithoutMessage(t *testing.T) {
	prov := &recordingProvider{}
	svc, _ := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	_, err := svc.Chat(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u1",
		File: &FileUpload{
			Name:        "empty.txt",
			Size:        0,
			ContentType: "text/plain",
			Data:        []byte(""),
		},
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for an empty document without a message, got %v", err)
	}
	if prov.calls != 0 {
		t.Fatalf("completion client invoked %d times for empty input", prov.calls)
	}
}

func TestChatFileSummaryPinnedToDefaultModel(t *testing.T) {
	prov := &recordingProvider{reply: "reply"}
	svc, _ := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	_, err := svc.Chat(context.Background(), &Request{
		SessionID:     sess.SessionID,
		UserID:        "u1",
		Model:         "gpt-4",
		SummarizeFile: true,
		File: &FileUpload{
			Name:        "notes.txt",
			Size:        8,
			ContentType: "text/plain",
			Data:        []byte("doc body"),
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if len(prov.optsLog) != 2 {
		t.Fatalf("expected summary call then chat call, got %d calls", len(prov.optsLog))
	}
	if prov.optsLog[0].Model != DefaultModel {
		t.Fatalf("summary call used model %q, want %q", prov.optsLog[0].Model, DefaultModel)
	}
	if prov.optsLog[1].Model != "gpt-4" {
		t.Fatalf("chat call used model %q, want the requested one", prov.optsLog[1].Model)
	}
}

func TestChatFileOnlySynthesizesMessage(t *testing.T) {
	prov := &recordingProvider{reply: "analysis"}
	svc, repo := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u1")

	res, err := svc.Chat(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u1",
		File: &FileUpload{
			Name:        "notes.txt",
			Size:        8,
			ContentType: "text/plain",
			Data:        []byte("doc body"),
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	_ = res

	msgs, err := repo.ListMessagesAsc(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "notes.txt") {
		t.Fatalf("synthesized message should reference the filename: %q", msgs[0].Content)
	}

	// combined input passed to the model carries the document text verbatim
	if len(prov.last) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(prov.last))
	}
	if !strings.Contains(prov.last[1].Content, "doc body") {
		t.Fatalf("document text missing from prompt: %q", prov.last[1].Content)
	}
}

func TestHistoryWindow(t *testing.T) {
	prov := &recordingProvider{}
	svc, repo := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u2")

	for i := 1; i <= 10; i++ {
		role := RoleUser
		if i%2 == 0 {
			role = RoleAssistant
		}
		if err := repo.InsertMessage(context.Background(), &Message{
			SessionID: sess.SessionID,
			UserID:    "u2",
			Role:      role,
			Content:   fmt.Sprintf("t%d", i),
			ModelUsed: DefaultModel,
		}); err != nil {
			t.Fatalf("seed msg %d: %v", i, err)
		}
	}

	got := svc.History(context.Background(), sess.SessionID, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(got))
	}
	for i, m := range got {
		want := fmt.Sprintf("t%d", i+6)
		if m.Content != want {
			t.Fatalf("turn %d: got %q, want %q", i, m.Content, want)
		}
	}
}

func TestHistoryDegradesToEmptyOnStoreFailure(t *testing.T) {
	svc, repo := newTestService(t, &recordingProvider{})

	// force query failures by dropping the table out from under the repo
	if err := repo.db.Migrator().DropTable(&Message{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	got := svc.History(context.Background(), "missing", 5)
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(got))
	}
}

func TestChatStreamForwardsDeltasThenPersists(t *testing.T) {
	prov := &streamingProvider{deltas: []string{"Hel", "lo"}}
	svc, repo := newTestService(t, prov)

	sess := mustCreateSession(t, svc, "u3")

	stream, err := svc.ChatStream(context.Background(), &Request{
		SessionID: sess.SessionID,
		UserID:    "u3",
		Message:   "say hello",
	})
	if err != nil {
		t.Fatalf("chat stream: %v", err)
	}

	var got []string
	for d := range stream.Chunks {
		got = append(got, d)
	}
	if err, ok := <-stream.Errs; ok && err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}

	if len(got) != 2 || got[0] != "Hel" || got[1] != "lo" {
		t.Fatalf("unexpected deltas: %v", got)
	}

	msgs, err := repo.ListMessagesAsc(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(msgs))
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "Hello" {
		t.Fatalf("expected concatenated reply persisted, got %+v", msgs[1])
	}
}

func TestSummarizeFileStoresRecord(t *testing.T) {
	prov := &recordingProvider{
		reply: `{"user_name":"Jane","input_summary":"report","client_name":"Acme","client_region":"NA","vertical":"Retail","feedback":"Positive","project_status":"completed"}`,
	}
	svc, repo := newTestService(t, prov)

	res, err := svc.SummarizeFile(context.Background(), "u4", &FileUpload{
		Name:        "report.txt",
		Size:        6,
		ContentType: "text/plain",
		Data:        []byte("body"),
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	if res.Fields.ClientName != "Acme" {
		t.Fatalf("unexpected fields: %+v", res.Fields)
	}

	stored, err := repo.ListSummariesByUser(context.Background(), "u4")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored summary, got %d", len(stored))
	}
	if stored[0].FileName != "report.txt" || stored[0].Feedback != "Positive" {
		t.Fatalf("unexpected stored record: %+v", stored[0])
	}
}

func TestSessionsOrderedByRecency(t *testing.T) {
	svc, repo := newTestService(t, &recordingProvider{})

	first := mustCreateSession(t, svc, "u5")
	second := mustCreateSession(t, svc, "u5")

	if err := repo.TouchSession(context.Background(), first.SessionID); err != nil {
		t.Fatalf("touch: %v", err)
	}

	sessions, err := svc.Sessions(context.Background(), "u5")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != first.SessionID {
		t.Fatalf("expected most recently touched session first, got %s", sessions[0].SessionID)
	}
	_ = second
}
