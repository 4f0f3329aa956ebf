package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompleteEchoesPrompt(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models/gpt-3.5-turbo-instruct":
			_, _ = w.Write([]byte(`{"id":"gpt-3.5-turbo-instruct","object":"model"}`))
		case "/v1/completions":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","model":"gpt-3.5-turbo-instruct",
				"choices":[{"text":"hello world, how can I help?","index":0,"finish_reason":"stop"}],
				"usage":{"prompt_tokens":1,"completion_tokens":6,"total_tokens":7}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	p := NewOpenAIProviderWithConfig(cfg)

	require.NoError(t, p.Warmup(context.Background(), p.DefaultModel()))

	req := ReplyConfig("hello")
	req.Model = p.DefaultModel()
	resp, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "hello world, how can I help?", resp.Text)
	require.Equal(t, 6, resp.OutputTokens)
	require.Equal(t, true, got["echo"])
	require.EqualValues(t, 100, got["max_tokens"])
}

func TestOpenAIWarmupFailsForUnknownModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	require.Error(t, NewOpenAIProviderWithConfig(cfg).Warmup(context.Background(), "nope"))
}

func TestAnthropicComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-20241022",
			"content":[{"type":"text","text":"Hi! How can I help?"}],
			"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":6}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, p.Warmup(context.Background(), p.DefaultModel()))

	req := ReplyConfig("hello")
	req.Model = p.DefaultModel()
	resp, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Hi! How can I help?", resp.Text)
	require.Equal(t, 4, resp.InputTokens)
	require.Greater(t, resp.CostUSD, 0.0)
	require.EqualValues(t, 100, got["max_tokens"])
	require.InDelta(t, 0.7, got["temperature"], 1e-9)
}

func TestAnthropicWarmupNeedsKey(t *testing.T) {
	require.ErrorContains(t, NewAnthropicProvider("").Warmup(context.Background(), ""), "ANTHROPIC_API_KEY")
}
