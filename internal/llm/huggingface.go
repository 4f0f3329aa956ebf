package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/llmservice/pkg/tokenizer"
)

// HuggingFaceProvider calls the Hugging Face Inference API text-generation task.
// With return_full_text the output is the prompt followed by the continuation,
// the same shape a causal model pipeline decodes locally.
type HuggingFaceProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHuggingFaceProvider(baseURL, token string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

func (p *HuggingFaceProvider) DefaultModel() string { return "gpt2" }

type hfGenerateReq struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens       int     `json:"max_new_tokens,omitempty"`
	Temperature        float64 `json:"temperature,omitempty"`
	DoSample           bool    `json:"do_sample"`
	NumReturnSequences int     `json:"num_return_sequences,omitempty"`
	ReturnFullText     bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (p *HuggingFaceProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	n := req.N
	if n <= 0 {
		n = 1
	}
	hReq := hfGenerateReq{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			MaxNewTokens:       req.MaxTokens,
			DoSample:           req.Sample,
			NumReturnSequences: n,
			ReturnFullText:     true,
		},
		Options: hfOptions{WaitForModel: true},
	}
	if req.Sample {
		hReq.Parameters.Temperature = req.Temperature
	}

	gens, err := p.generate(ctx, req.Model, hReq)
	if err != nil {
		return nil, fmt.Errorf("huggingface generate: %w", err)
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("huggingface generate: empty response")
	}

	text := gens[0].GeneratedText
	inputTokens := tokenizer.CountTokens(req.Prompt)
	outputTokens := tokenizer.CountTokens(strings.TrimPrefix(text, req.Prompt))

	return &CompletionResponse{
		Provider:     "huggingface",
		Model:        req.Model,
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// Warmup asks for a single token, blocking until the hosted model is loaded.
func (p *HuggingFaceProvider) Warmup(ctx context.Context, model string) error {
	_, err := p.generate(ctx, model, hfGenerateReq{
		Inputs:     "Hello",
		Parameters: hfParameters{MaxNewTokens: 1},
		Options:    hfOptions{WaitForModel: true},
	})
	if err != nil {
		return fmt.Errorf("huggingface load %s: %w", model, err)
	}
	return nil
}

func (p *HuggingFaceProvider) generate(ctx context.Context, model string, hReq hfGenerateReq) ([]hfGeneration, error) {
	body, err := json.Marshal(hReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var hErr hfError
		if json.Unmarshal(data, &hErr) == nil && hErr.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, hErr.Error)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var gens []hfGeneration
	if err := json.Unmarshal(data, &gens); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return gens, nil
}
