package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/llmservice/internal/audio"
	"github.com/nikhilbhutani/llmservice/internal/cache"
	"github.com/nikhilbhutani/llmservice/internal/config"
	"github.com/nikhilbhutani/llmservice/internal/history"
	"github.com/nikhilbhutani/llmservice/internal/inference"
	"github.com/nikhilbhutani/llmservice/internal/llm"
	"github.com/nikhilbhutani/llmservice/internal/metrics"
	"github.com/nikhilbhutani/llmservice/internal/storage"
	"github.com/nikhilbhutani/llmservice/internal/tts"
)

type fakeText struct {
	ready atomic.Bool
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeText) Ready() bool { return f.ready.Load() }

func (f *fakeText) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Provider: "fake", Text: f.text, InputTokens: 1, OutputTokens: 3}, nil
}

type fakeSpeech struct {
	calls atomic.Int32
}

func (f *fakeSpeech) Ready() bool { return true }

func (f *fakeSpeech) Synthesize(context.Context, tts.SynthesisRequest) (*audio.Waveform, error) {
	f.calls.Add(1)
	return &audio.Waveform{Samples: make([]float32, 1600), SampleRate: audio.SampleRate}, nil
}

type brokenStore struct{}

func (brokenStore) Upload(context.Context, string, io.Reader, string) error {
	return errors.New("disk full")
}

func (brokenStore) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("input/output error")
}

type testServer struct {
	srv    *httptest.Server
	text   *fakeText
	speech *fakeSpeech
}

func readyText(text string) *fakeText {
	f := &fakeText{text: text}
	f.ready.Store(true)
	return f
}

func newTestServer(t *testing.T, text *fakeText) *testServer {
	t.Helper()
	return newTestServerWithStore(t, text, storage.NewLocalStore(t.TempDir()))
}

func newTestServerWithStore(t *testing.T, text *fakeText, store storage.Store) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	hist := history.NewStore(cache.NewCache(rdb), config.HistoryConfig{MaxMessages: 100, TTL: time.Hour})

	speech := &fakeSpeech{}
	reg := metrics.New()
	svc := inference.NewService(text, speech, store, hist, reg, inference.Config{MaxConcurrent: 1})

	rt := NewRouter(config.ServerConfig{AllowedOrigins: []string{"*"}}, svc, hist, reg)
	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(func() {
		srv.Close()
		rt.Close()
	})
	return &testServer{srv: srv, text: text, speech: speech}
}

func (ts *testServer) post(t *testing.T, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.srv.URL+"/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestGenerateStripsPrompt(t *testing.T) {
	ts := newTestServer(t, readyText("hello world, how can I help?"))

	status, out := ts.post(t, `{"message": "hello", "generate_audio": false}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])
	require.Equal(t, "world, how can I help?", out["text"])
	require.Contains(t, out, "audio_filename")
	require.Nil(t, out["audio_filename"])
	require.Equal(t, "anonymous", out["user_id"])
	require.IsType(t, float64(0), out["processing_time"])
	require.Zero(t, ts.speech.calls.Load())
}

func TestGenerateMissingMessage(t *testing.T) {
	ts := newTestServer(t, readyText("x"))

	for _, body := range []string{`{}`, `{"user_id": "u"}`, `{"message": ""}`, ``} {
		status, out := ts.post(t, body)
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, "No message provided", out["error"])
		require.Equal(t, false, out["success"])
	}
	require.Zero(t, ts.text.calls.Load())
	require.Zero(t, ts.speech.calls.Load())
}

func TestGenerateInvalidJSON(t *testing.T) {
	ts := newTestServer(t, readyText(""))
	status, out := ts.post(t, `{"message": 42}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Invalid request body", out["error"])
	require.Zero(t, ts.text.calls.Load())
}

func TestGenerateModelNotLoaded(t *testing.T) {
	ts := newTestServer(t, &fakeText{})
	status, out := ts.post(t, `{"message": "hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "Text model not loaded", out["error"])
}

func TestGenerateProviderFailure(t *testing.T) {
	text := readyText("")
	text.err = errors.New("device lost")
	ts := newTestServer(t, text)
	status, out := ts.post(t, `{"message": "hello"}`)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, false, out["success"])
	require.NotEmpty(t, out["error"])
	require.NotContains(t, out["error"], "device lost")

	fallback, _ := out["fallback_text"].(string)
	require.NotEmpty(t, fallback)
	require.Contains(t, fallback, "hello")
}

func TestAudioRoundTrip(t *testing.T) {
	ts := newTestServer(t, readyText("hi there"))

	status, out := ts.post(t, `{"message": "hi", "user_id": "dave", "generate_audio": true}`)
	require.Equal(t, http.StatusOK, status)
	name, ok := out["audio_filename"].(string)
	require.True(t, ok)
	require.True(t, storage.ValidName(name))
	require.EqualValues(t, 1, ts.speech.calls.Load())

	resp1, body1 := ts.get(t, "/audio/"+name)
	require.Equal(t, http.StatusOK, resp1.StatusCode)
	require.Equal(t, "audio/wav", resp1.Header.Get("Content-Type"))
	require.True(t, bytes.HasPrefix(body1, []byte("RIFF")))

	_, body2 := ts.get(t, "/audio/"+name)
	require.Equal(t, body1, body2)
}

func TestAudioNotFound(t *testing.T) {
	ts := newTestServer(t, readyText(""))

	for _, path := range []string{
		"/audio/" + storage.NewName(),
		"/audio/..%2F..%2Fetc%2Fpasswd",
		"/audio/notes.txt",
	} {
		resp, body := ts.get(t, path)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		var out map[string]any
		require.NoError(t, json.Unmarshal(body, &out))
		require.Equal(t, "Audio file not found", out["error"])
	}
}

func TestAudioReadFailure(t *testing.T) {
	ts := newTestServerWithStore(t, readyText(""), brokenStore{})

	resp, body := ts.get(t, "/audio/"+storage.NewName())
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"success":false,"error":"Failed to read audio file"}`, string(body))
}

func TestGenerateUploadFailureKeepsReply(t *testing.T) {
	ts := newTestServerWithStore(t, readyText("hi there"), brokenStore{})

	status, out := ts.post(t, `{"message": "hi", "generate_audio": true}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "there", out["text"])
	require.Nil(t, out["audio_filename"])
}

func TestGenerateMessageTooLong(t *testing.T) {
	ts := newTestServer(t, readyText("x"))

	body, err := json.Marshal(map[string]string{"message": strings.Repeat("a", inference.MaxMessageRunes+1)})
	require.NoError(t, err)
	status, out := ts.post(t, string(body))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Message must be at most 1000 characters", out["error"])
	require.Zero(t, ts.text.calls.Load())
}

func TestHealth(t *testing.T) {
	text := &fakeText{}
	ts := newTestServer(t, text)

	resp, body := ts.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok","service":"llm-api","models_loaded":false,"speech_loaded":true}`, string(body))

	text.ready.Store(true)
	_, body = ts.get(t, "/health")
	require.Contains(t, string(body), `"models_loaded":true`)
}

func TestHistoryRecordsExchanges(t *testing.T) {
	ts := newTestServer(t, readyText("hi back"))

	ts.post(t, `{"message": "hi", "user_id": "erin"}`)
	ts.post(t, `{"message": "hi", "user_id": "erin"}`)

	resp, body := ts.get(t, "/history/erin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			UserID        string          `json:"user_id"`
			History       []history.Entry `json:"history"`
			TotalMessages int             `json:"total_messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.True(t, out.Success)
	require.Equal(t, "erin", out.Data.UserID)
	require.Equal(t, 2, out.Data.TotalMessages)
	require.Equal(t, "back", out.Data.History[0].AIResponse)

	_, body = ts.get(t, "/history/nobody")
	require.Contains(t, string(body), `"total_messages":0`)
	require.Contains(t, string(body), `"history":[]`)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, readyText("x"))
	ts.post(t, `{"message": "q"}`)

	resp, body := ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `llmservice_generate_requests_total{outcome="ok"} 1`)
	require.Contains(t, string(body), `route="/generate"`)
	require.Contains(t, string(body), `llmservice_tokens_total{direction="output",provider="fake"} 3`)
}
