package ai

import "context"

type Message struct {
	Role    string
	Content string
}

// Options tune a single completion call. Zero MaxTokens lets the
// provider decide; Temperature is always sent.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}

// StreamProvider is an optional interface. Providers may implement streaming chat.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error)
}
