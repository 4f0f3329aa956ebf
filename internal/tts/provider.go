package tts

import (
	"context"
	"fmt"

	"github.com/nikhilbhutani/llmservice/internal/audio"
	"github.com/nikhilbhutani/llmservice/internal/config"
)

// EmbeddingDim is the speaker embedding size of x-vector conditioned models.
const EmbeddingDim = 512

// SynthesisRequest holds the parameters for text-to-speech generation.
type SynthesisRequest struct {
	Text             string    `json:"text"`
	SpeakerEmbedding []float32 `json:"speaker_embedding,omitempty"`
}

// TTSProvider is the interface for text-to-speech backends.
type TTSProvider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Waveform, error)
	// Warmup verifies the backend can synthesize (binary present, credentials set).
	Warmup(ctx context.Context) error
	Name() string
}

// NeutralEmbedding is the default voice: all zeros. Custom voices are not supported.
func NeutralEmbedding() []float32 {
	return make([]float32, EmbeddingDim)
}

// New builds the backend selected by TTS_BACKEND.
func New(cfg config.TTSConfig) (TTSProvider, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalTTS(LocalTTSConfig{
			PiperBinPath: cfg.LocalBinPath,
			ModelPath:    cfg.LocalModel,
			SampleRate:   cfg.LocalSampleRate,
		}), nil
	case "openai":
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Voice:   cfg.OpenAIVoice,
		}), nil
	case "google":
		return NewGoogleTTS(GoogleTTSConfig{
			Language: cfg.GoogleLanguage,
			Voice:    cfg.GoogleVoice,
		}), nil
	case "remote":
		return NewRemoteTTS(cfg.RemoteURL), nil
	default:
		return nil, fmt.Errorf("unknown TTS_BACKEND %q", cfg.Backend)
	}
}
