package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikhilbhutani/llmservice/pkg/tokenizer"
)

type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) DefaultModel() string { return "llama3" }

type ollamaGenerateReq struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt,omitempty"`
	Raw     bool           `json:"raw,omitempty"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResp struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Complete runs /api/generate in raw mode so the prompt is continued rather
// than wrapped in a chat template.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	oReq := ollamaGenerateReq{
		Model:  req.Model,
		Prompt: req.Prompt,
		Raw:    true,
		Stream: false,
		Options: &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if !req.Sample {
		oReq.Options.Temperature = 0
	}

	oResp, err := p.generate(ctx, oReq)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	inputTokens := oResp.PromptEvalCount
	if inputTokens == 0 {
		inputTokens = tokenizer.CountTokens(req.Prompt)
	}

	return &CompletionResponse{
		Provider:     "ollama",
		Model:        req.Model,
		Text:         oResp.Response,
		InputTokens:  inputTokens,
		OutputTokens: oResp.EvalCount,
		CostUSD:      0, // local models are free
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// Warmup sends an empty generate request, which makes Ollama load the model
// into memory without producing output.
func (p *OllamaProvider) Warmup(ctx context.Context, model string) error {
	_, err := p.generate(ctx, ollamaGenerateReq{Model: model})
	if err != nil {
		return fmt.Errorf("ollama load %s: %w", model, err)
	}
	return nil
}

func (p *OllamaProvider) generate(ctx context.Context, oReq ollamaGenerateReq) (*ollamaGenerateResp, error) {
	body, err := json.Marshal(oReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var oResp ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if oResp.Error != "" {
		return nil, fmt.Errorf("%s", oResp.Error)
	}
	return &oResp, nil
}
