package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aironrush/assistant/internal/domain"
)

// OpenAIProvider speaks the chat-completions protocol (OpenAI and
// API-compatible gateways).
type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model       string      `json:"model"`
	Messages    []openAIMsg `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Stream      bool        `json:"stream"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIStreamResp struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenAIProvider) buildRequest(opts Options, messages []Message, stream bool) openAIChatReq {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = p.Model
	}
	out := make([]openAIMsg, 0, len(messages))
	for _, m := range messages {
		out = append(out, openAIMsg{Role: m.Role, Content: m.Content})
	}
	return openAIChatReq{
		Model:       model,
		Messages:    out,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

func (p *OpenAIProvider) check() error {
	if p.Client == nil {
		return fmt.Errorf("openai: http client is nil: %w", domain.ErrUpstream)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("openai: api key is not configured: %w", domain.ErrUpstreamUnavailable)
	}
	return nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := p.check(); err != nil {
		return "", err
	}

	b, err := json.Marshal(p.buildRequest(opts, messages, false))
	if err != nil {
		return "", fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("openai: %s: %w", msg, domain.ErrUpstream)
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("openai: %s: %w", decoded.Error.Message, domain.ErrUpstream)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response: %w", domain.ErrUpstream)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// StreamChat streams assistant content chunks via SSE.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.check(); err != nil {
			errs <- err
			return
		}

		b, err := json.Marshal(p.buildRequest(opts, messages, true))
		if err != nil {
			errs <- fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
			return
		}

		url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			errs <- fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)

		// a request-scoped client without the blanket timeout; streams can
		// legitimately outlive it, cancellation comes from ctx
		client := &http.Client{Transport: p.Client.Transport}

		resp, err := client.Do(req)
		if err != nil {
			errs <- fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
			msg := strings.TrimSpace(string(body))
			if msg == "" {
				msg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			errs <- fmt.Errorf("openai: %s: %w", msg, domain.ErrUpstream)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var decoded openAIStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- fmt.Errorf("openai: %s: %w", decoded.Error.Message, domain.ErrUpstream)
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}
			delta := decoded.Choices[0].Delta.Content
			if delta != "" {
				select {
				case chunks <- delta:
				case <-ctx.Done():
					return
				}
			}
		}

		if err := sc.Err(); err != nil {
			errs <- fmt.Errorf("openai: %v: %w", err, domain.ErrUpstream)
			return
		}
	}()

	return chunks, errs
}
