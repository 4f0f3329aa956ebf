package tts

import (
	"context"
	"fmt"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/nikhilbhutani/llmservice/internal/audio"
)

// GoogleTTSConfig holds configuration for Google Cloud Text-to-Speech.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS.
type GoogleTTSConfig struct {
	Language string // default: "en-US"
	Voice    string // optional voice name, e.g. "en-US-Standard-C"
}

// GoogleTTS requests LINEAR16 audio at the artifact rate, so the response WAV
// needs no resampling.
type GoogleTTS struct {
	cfg    GoogleTTSConfig
	client *gctts.Client
}

func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	return &GoogleTTS{cfg: cfg}
}

func (g *GoogleTTS) Name() string { return "google-tts" }

// Warmup creates the SDK client, which resolves credentials.
func (g *GoogleTTS) Warmup(ctx context.Context) error {
	if g.client != nil {
		return nil
	}
	client, err := gctts.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("google tts client: %w", err)
	}
	g.client = client
	return nil
}

func (g *GoogleTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Waveform, error) {
	if g.client == nil {
		return nil, ErrNotLoaded
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: g.cfg.Language,
			Name:         g.cfg.Voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding:   ttspb.AudioEncoding_LINEAR16,
			SampleRateHertz: audio.SampleRate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}

	wf, err := audio.DecodeWAV(resp.GetAudioContent())
	if err != nil {
		return nil, fmt.Errorf("google tts: %w", err)
	}
	return &wf, nil
}

func (g *GoogleTTS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
