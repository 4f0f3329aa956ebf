package llm

import (
	"context"
)

// Provider abstracts a text-completion backend (Ollama, Hugging Face, OpenAI, Anthropic).
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Warmup loads or verifies the model so the first Complete call can succeed.
	Warmup(ctx context.Context, model string) error
	Name() string
	DefaultModel() string
}

// Gateway routes completions to the configured provider with fallback and retry,
// and tracks whether a model has finished loading.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Load(ctx context.Context) error
	Ready() bool
	Provider(name string) (Provider, error)
}

// CompletionRequest is a raw prompt continuation request.
type CompletionRequest struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	N           int     `json:"n"`
	Temperature float64 `json:"temperature"`
	Sample      bool    `json:"sample"`
}

// CompletionResponse carries the decoded output. Text may start with the echoed
// prompt when the backend returns the full sequence.
type CompletionResponse struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Text         string  `json:"text"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// ReplyConfig is the fixed generation configuration used for chat replies.
func ReplyConfig(prompt string) CompletionRequest {
	return CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   100,
		N:           1,
		Temperature: 0.7,
		Sample:      true,
	}
}
