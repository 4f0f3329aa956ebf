// Package inference implements the chat generation flow: completion, reply
// cleanup, optional speech synthesis and artifact storage.
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/nikhilbhutani/llmservice/internal/audio"
	"github.com/nikhilbhutani/llmservice/internal/llm"
	"github.com/nikhilbhutani/llmservice/internal/storage"
	"github.com/nikhilbhutani/llmservice/internal/tts"
	"github.com/nikhilbhutani/llmservice/pkg/chunker"
)

const (
	ServiceName   = "llm-api"
	AnonymousUser = "anonymous"
	// MaxMessageRunes caps the length of an incoming chat message.
	MaxMessageRunes = 1000
)

type TextModel interface {
	Ready() bool
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type SpeechModel interface {
	Ready() bool
	Synthesize(ctx context.Context, req tts.SynthesisRequest) (*audio.Waveform, error)
}

type HistoryRecorder interface {
	Append(ctx context.Context, userID, message, reply string) error
}

type MetricsRecorder interface {
	ObserveGenerate(outcome string, d time.Duration)
	ObserveCompletion(provider string, inputTokens, outputTokens int, costUSD float64)
	SynthesisFailed()
}

type GenerateRequest struct {
	Message       string `json:"message"`
	UserID        string `json:"user_id,omitempty"`
	GenerateAudio bool   `json:"generate_audio,omitempty"`
}

type GenerateResponse struct {
	Success        bool    `json:"success"`
	Text           string  `json:"text"`
	AudioFilename  *string `json:"audio_filename"`
	UserID         string  `json:"user_id"`
	ProcessingTime float64 `json:"processing_time"`
}

type HealthStatus struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	ModelsLoaded bool   `json:"models_loaded"`
	SpeechLoaded bool   `json:"speech_loaded"`
}

type Config struct {
	MaxConcurrent int
	// Timeout bounds a single generation, including the wait for a slot. Zero means none.
	Timeout    time.Duration
	ChunkChars int
}

type Service struct {
	text    TextModel
	speech  SpeechModel
	store   storage.Store
	history HistoryRecorder
	metrics MetricsRecorder

	sem        *semaphore.Weighted
	timeout    time.Duration
	chunkChars int
}

// NewService wires the generation flow. speech, history and metrics may be nil.
func NewService(text TextModel, speech SpeechModel, store storage.Store, history HistoryRecorder, metrics MetricsRecorder, cfg Config) *Service {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Service{
		text:       text,
		speech:     speech,
		store:      store,
		history:    history,
		metrics:    metrics,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout:    cfg.Timeout,
		chunkChars: cfg.ChunkChars,
	}
}

func (s *Service) Health() HealthStatus {
	return HealthStatus{
		Status:       "ok",
		Service:      ServiceName,
		ModelsLoaded: s.text.Ready(),
		SpeechLoaded: s.speechReady(),
	}
}

func (s *Service) speechReady() bool {
	return s.speech != nil && s.speech.Ready()
}

// Generate answers one chat message. Every returned error is an *Error.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (resp *GenerateResponse, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("generate panicked", "panic", r)
			resp, err = nil, internalError(req.Message, fmt.Errorf("panic: %v", r))
		}
		s.observe(err, time.Since(start))
	}()

	if strings.TrimSpace(req.Message) == "" {
		return nil, validationError("No message provided")
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageRunes {
		return nil, validationError(fmt.Sprintf("Message must be at most %d characters", MaxMessageRunes))
	}
	if !s.text.Ready() {
		return nil, &Error{Kind: KindUnavailable, Message: "Text model not loaded"}
	}

	userID := req.UserID
	if userID == "" {
		userID = AnonymousUser
	}
	slog.Info("generating reply", "user_id", userID, "message", preview(req.Message, 50))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, internalError(req.Message, fmt.Errorf("wait for model: %w", err))
	}
	defer s.sem.Release(1)

	out, err := s.text.Complete(ctx, llm.ReplyConfig(req.Message))
	if err != nil {
		slog.Error("text generation failed", "user_id", userID, "error", err)
		return nil, internalError(req.Message, err)
	}
	text := CleanReply(out.Text, req.Message)
	slog.Info("reply generated",
		"user_id", userID,
		"reply", preview(text, 100),
		"provider", out.Provider,
		"model", out.Model,
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"cost_usd", out.CostUSD,
		"latency_ms", out.LatencyMs,
	)
	if s.metrics != nil {
		s.metrics.ObserveCompletion(out.Provider, out.InputTokens, out.OutputTokens, out.CostUSD)
	}

	var audioName *string
	if req.GenerateAudio && s.speechReady() {
		name, err := s.synthesize(ctx, text)
		if err != nil {
			slog.Warn("audio generation failed", "user_id", userID, "error", err)
			if s.metrics != nil {
				s.metrics.SynthesisFailed()
			}
		} else {
			audioName = &name
			slog.Info("audio saved", "user_id", userID, "audio_filename", name)
		}
	}

	if s.history != nil {
		if err := s.history.Append(ctx, userID, req.Message, text); err != nil {
			slog.Warn("failed to record history", "user_id", userID, "error", err)
		}
	}

	return &GenerateResponse{
		Success:        true,
		Text:           text,
		AudioFilename:  audioName,
		UserID:         userID,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// synthesize speaks text chunk by chunk and stores the joined waveform. The
// name is only returned once the artifact is fully written. A panic anywhere
// in the audio path is reported as a synthesis error.
func (s *Service) synthesize(ctx context.Context, text string) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("speech synthesis panicked", "panic", r)
			name, err = "", &Error{Kind: KindSynthesis, Message: "speech synthesis failed", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	chunks := chunker.Sentences(text, s.chunkChars)
	parts := make([]audio.Waveform, 0, len(chunks))
	for _, chunk := range chunks {
		wf, err := s.speech.Synthesize(ctx, tts.SynthesisRequest{
			Text:             chunk,
			SpeakerEmbedding: tts.NeutralEmbedding(),
		})
		if err != nil {
			return "", &Error{Kind: KindSynthesis, Message: "speech synthesis failed", Err: err}
		}
		if wf == nil {
			return "", &Error{Kind: KindSynthesis, Message: "speech synthesis failed", Err: audio.ErrEmptyWaveform}
		}
		parts = append(parts, *wf)
	}

	joined := audio.Concat(audio.SampleRate, parts...)
	data, err := audio.EncodeWAV(joined)
	if err != nil {
		return "", &Error{Kind: KindSynthesis, Message: "encode audio", Err: err}
	}

	name = storage.NewName()
	if err := s.store.Upload(ctx, name, bytes.NewReader(data), storage.ContentTypeWAV); err != nil {
		return "", &Error{Kind: KindSynthesis, Message: "save audio", Err: err}
	}
	slog.Debug("audio synthesized", "chunks", len(chunks), "duration_s", joined.Duration())
	return name, nil
}

// Audio returns the bytes of a stored artifact.
func (s *Service) Audio(ctx context.Context, name string) ([]byte, error) {
	if !storage.ValidName(name) {
		return nil, &Error{Kind: KindNotFound, Message: "Audio file not found"}
	}
	rc, err := s.store.Download(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &Error{Kind: KindNotFound, Message: "Audio file not found", Err: err}
	}
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Failed to read audio file", Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Failed to read audio file", Err: err}
	}
	return data, nil
}

func (s *Service) observe(err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	s.metrics.ObserveGenerate(outcome, d)
}
