package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nikhilbhutani/llmservice/internal/config"
)

var ErrNotLoaded = errors.New("text model not loaded")

type gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	fallbackProvider string
	defaultModel     string
	maxRetries       int
	backoff          time.Duration

	// names of providers whose warmup succeeded
	loaded atomic.Pointer[map[string]bool]
}

func NewGateway(cfg config.LLMConfig) Gateway {
	providers := make(map[string]Provider)

	if cfg.OllamaURL != "" {
		providers["ollama"] = NewOllamaProvider(cfg.OllamaURL)
	}
	if cfg.HuggingFaceToken != "" || cfg.DefaultProvider == "huggingface" || cfg.FallbackProvider == "huggingface" {
		providers["huggingface"] = NewHuggingFaceProvider(cfg.HuggingFaceURL, cfg.HuggingFaceToken)
	}
	if cfg.OpenAIKey != "" {
		providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}

	return newGateway(providers, cfg)
}

func newGateway(providers map[string]Provider, cfg config.LLMConfig) *gateway {
	g := &gateway{
		providers:        providers,
		defaultProvider:  cfg.DefaultProvider,
		fallbackProvider: cfg.FallbackProvider,
		defaultModel:     cfg.DefaultModel,
		maxRetries:       cfg.MaxRetries,
		backoff:          500 * time.Millisecond,
	}
	g.loaded.Store(&map[string]bool{})
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

// Load warms up the default provider and, if configured, the fallback. The
// gateway is ready once at least one of them succeeds.
func (g *gateway) Load(ctx context.Context) error {
	loaded := map[string]bool{}
	var errs []error

	for _, name := range g.chain(g.defaultProvider) {
		p, err := g.Provider(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		model := g.modelFor(p, "")
		slog.Info("loading text model", "provider", name, "model", model)
		if err := p.Warmup(ctx, model); err != nil {
			errs = append(errs, fmt.Errorf("warmup %s: %w", name, err))
			continue
		}
		loaded[name] = true
		slog.Info("text model loaded", "provider", name, "model", model)
	}

	g.loaded.Store(&loaded)
	if len(loaded) == 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (g *gateway) Ready() bool {
	return len(*g.loaded.Load()) > 0
}

func (g *gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	loaded := *g.loaded.Load()
	var lastErr error = ErrNotLoaded
	for i, name := range g.chain(providerName) {
		if !loaded[name] {
			continue
		}
		if i > 0 && !errors.Is(lastErr, ErrNotLoaded) {
			slog.Warn("primary provider failed, trying fallback",
				"primary", providerName,
				"fallback", name,
				"error", lastErr,
			)
		}
		resp, err := g.completeWithRetry(ctx, name, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (g *gateway) completeWithRetry(ctx context.Context, providerName string, req CompletionRequest) (*CompletionResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}
	req.Model = g.modelFor(p, req.Model)

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * g.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying completion", "provider", providerName, "attempt", attempt)
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if g.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}

func (g *gateway) chain(primary string) []string {
	names := []string{primary}
	if g.fallbackProvider != "" && g.fallbackProvider != primary {
		names = append(names, g.fallbackProvider)
	}
	return names
}

func (g *gateway) modelFor(p Provider, requested string) string {
	if requested != "" {
		return requested
	}
	// LLM_MODEL applies to the default provider only; a fallback uses its own default.
	if g.defaultModel != "" && p.Name() == g.defaultProvider {
		return g.defaultModel
	}
	return p.DefaultModel()
}
