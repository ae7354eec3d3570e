package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aironrush/assistant/internal/domain"
)

// OllamaProvider targets a local Ollama daemon, mainly for development
// without an API credential.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatReq struct {
	Model    string        `json:"model"`
	Messages []ollamaMsg   `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResp struct {
	Message ollamaMsg `json:"message"`
	Error   string    `json:"error,omitempty"`
}

type ollamaStreamResp struct {
	Message ollamaMsg `json:"message"`
	Done    bool      `json:"done"`
	Error   string    `json:"error,omitempty"`
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OllamaProvider) buildRequest(opts Options, messages []Message, stream bool) ollamaChatReq {
	model := opts.Model
	if model == "" {
		model = p.Model
	}
	out := make([]ollamaMsg, 0, len(messages))
	for _, m := range messages {
		out = append(out, ollamaMsg{Role: m.Role, Content: m.Content})
	}
	return ollamaChatReq{
		Model:    model,
		Messages: out,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	}
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if p.Client == nil {
		return "", fmt.Errorf("ollama: http client is nil: %w", domain.ErrUpstream)
	}

	b, err := json.Marshal(p.buildRequest(opts, messages, false))
	if err != nil {
		return "", fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
	}

	url := fmt.Sprintf("%s/api/chat", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}

	var decoded ollamaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama: %s: %w", decoded.Error, domain.ErrUpstream)
	}
	return decoded.Message.Content, nil
}

// StreamChat streams assistant content chunks.
// It returns immediately with two channels; both will be closed when streaming ends.
func (p *OllamaProvider) StreamChat(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if p.Client == nil {
			errs <- fmt.Errorf("ollama: http client is nil: %w", domain.ErrUpstream)
			return
		}

		b, err := json.Marshal(p.buildRequest(opts, messages, true))
		if err != nil {
			errs <- fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
			return
		}

		url := fmt.Sprintf("%s/api/chat", p.BaseURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			errs <- fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		// no global timeout on streams; ctx controls the lifetime
		client := &http.Client{Transport: p.Client.Transport}

		resp, err := client.Do(req)
		if err != nil {
			errs <- fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errs <- fmt.Errorf("ollama: status %d: %w", resp.StatusCode, domain.ErrUpstream)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		// Increase scanner buffer for long JSON lines.
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}

			var decoded ollamaStreamResp
			if err := json.Unmarshal(line, &decoded); err != nil {
				errs <- fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
				return
			}
			if decoded.Error != "" {
				errs <- fmt.Errorf("ollama: %s: %w", decoded.Error, domain.ErrUpstream)
				return
			}

			if decoded.Message.Content != "" {
				select {
				case chunks <- decoded.Message.Content:
				case <-ctx.Done():
					return
				}
			}

			if decoded.Done {
				return
			}
		}

		if err := sc.Err(); err != nil {
			errs <- fmt.Errorf("ollama: %v: %w", err, domain.ErrUpstream)
			return
		}
	}()

	return chunks, errs
}
