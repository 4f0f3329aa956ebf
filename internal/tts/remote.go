package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/llmservice/internal/audio"
)

// RemoteTTS calls a synthesis sidecar (e.g. a SpeechT5 or Piper server) that
// accepts {text, speaker_embedding} on POST /synthesize and answers with WAV.
type RemoteTTS struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteTTS(baseURL string) *RemoteTTS {
	return &RemoteTTS{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

func (r *RemoteTTS) Name() string { return "remote-tts" }

func (r *RemoteTTS) Warmup(ctx context.Context) error {
	if r.baseURL == "" {
		return fmt.Errorf("remote tts url is required (set TTS_REMOTE_URL)")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("remote tts health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote tts health: status %d", resp.StatusCode)
	}
	return nil
}

func (r *RemoteTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Waveform, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/synthesize", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/wav")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	wf, err := audio.DecodeWAV(body)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}
