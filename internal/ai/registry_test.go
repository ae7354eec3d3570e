package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/aironrush/assistant/internal/domain"
)

type staticProvider struct{ reply string }

func (p *staticProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return p.reply, nil
}

func TestRegistryGetUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(context.Background(), "nope", "")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestRegistryNameIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	want := &staticProvider{reply: "hi"}
	r.Register("OpenAI", func(ctx context.Context, model string) (Provider, error) {
		return want, nil
	})

	got, err := r.Get(context.Background(), "  openai ", "gpt-3.5-turbo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("factory not routed: got %T", got)
	}
}

func TestRegistryFactoryReceivesModel(t *testing.T) {
	r := NewRegistry()
	var seen string
	r.Register("fake", func(ctx context.Context, model string) (Provider, error) {
		seen = model
		return &staticProvider{}, nil
	})

	if _, err := r.Get(context.Background(), "fake", "llama3:latest"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if seen != "llama3:latest" {
		t.Fatalf("factory saw model %q", seen)
	}
}
