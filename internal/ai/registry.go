package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aironrush/assistant/internal/domain"
)

// ProviderFactory builds a provider for one request. The model is the
// caller's choice and may be empty, in which case the factory applies its
// configured default.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry routes a configured provider name to its factory. Names are
// case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds a provider for the named backend. A name without a
// registered factory means the service is misconfigured, not that the
// caller erred, so the miss carries domain.ErrUpstreamUnavailable.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q: %w", name, domain.ErrUpstreamUnavailable)
	}
	return f(ctx, model)
}
