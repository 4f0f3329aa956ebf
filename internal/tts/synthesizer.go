package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nikhilbhutani/llmservice/internal/audio"
)

var ErrNotLoaded = errors.New("speech model not loaded")

// Synthesizer wraps a provider and reports whether it finished loading.
type Synthesizer struct {
	provider TTSProvider
	ready    atomic.Bool
}

func NewSynthesizer(p TTSProvider) *Synthesizer {
	return &Synthesizer{provider: p}
}

func (s *Synthesizer) Load(ctx context.Context) error {
	slog.Info("loading speech model", "provider", s.provider.Name())
	if err := s.provider.Warmup(ctx); err != nil {
		return fmt.Errorf("warmup %s: %w", s.provider.Name(), err)
	}
	s.ready.Store(true)
	slog.Info("speech model loaded", "provider", s.provider.Name())
	return nil
}

func (s *Synthesizer) Ready() bool {
	return s != nil && s.ready.Load()
}

func (s *Synthesizer) Name() string { return s.provider.Name() }

func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Waveform, error) {
	if !s.Ready() {
		return nil, ErrNotLoaded
	}
	wf, err := s.provider.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	if wf == nil || len(wf.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", s.provider.Name(), audio.ErrEmptyWaveform)
	}
	return wf, nil
}
