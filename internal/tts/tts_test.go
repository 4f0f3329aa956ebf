package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/llmservice/internal/audio"
	"github.com/nikhilbhutani/llmservice/internal/config"
)

type fakeProvider struct {
	warmErr error
	wf      *audio.Waveform
	err     error
}

func (f *fakeProvider) Name() string                 { return "fake" }
func (f *fakeProvider) Warmup(context.Context) error { return f.warmErr }
func (f *fakeProvider) Synthesize(context.Context, SynthesisRequest) (*audio.Waveform, error) {
	return f.wf, f.err
}

func TestNeutralEmbedding(t *testing.T) {
	emb := NeutralEmbedding()
	require.Len(t, emb, EmbeddingDim)
	for _, v := range emb {
		require.Zero(t, v)
	}
}

func TestSynthesizerReadiness(t *testing.T) {
	var nilSynth *Synthesizer
	require.False(t, nilSynth.Ready())

	s := NewSynthesizer(&fakeProvider{wf: &audio.Waveform{Samples: []float32{0.1}, SampleRate: 16000}})
	require.False(t, s.Ready())
	_, err := s.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
	require.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, s.Load(context.Background()))
	require.True(t, s.Ready())
	wf, err := s.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
	require.NoError(t, err)
	require.Len(t, wf.Samples, 1)
}

func TestSynthesizerLoadFailure(t *testing.T) {
	s := NewSynthesizer(&fakeProvider{warmErr: errors.New("no binary")})
	require.ErrorContains(t, s.Load(context.Background()), "no binary")
	require.False(t, s.Ready())
}

func TestSynthesizerRejectsEmptyWaveform(t *testing.T) {
	s := NewSynthesizer(&fakeProvider{wf: &audio.Waveform{SampleRate: 16000}})
	require.NoError(t, s.Load(context.Background()))
	_, err := s.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
	require.ErrorIs(t, err, audio.ErrEmptyWaveform)
}

func TestNewSelectsBackend(t *testing.T) {
	cases := map[string]string{
		"local":  "local-piper",
		"openai": "openai-tts",
		"google": "google-tts",
		"remote": "remote-tts",
	}
	for backend, name := range cases {
		p, err := New(config.TTSConfig{Backend: backend})
		require.NoError(t, err, backend)
		require.Equal(t, name, p.Name())
	}

	_, err := New(config.TTSConfig{Backend: "festival"})
	require.ErrorContains(t, err, "festival")
}

func TestLocalTTSWarmupRequiresModel(t *testing.T) {
	require.ErrorContains(t, NewLocalTTS(LocalTTSConfig{}).Warmup(context.Background()), "TTS_LOCAL_PIPER_MODEL")
}

func TestRemoteTTSSendsEmbeddingAndDecodesWAV(t *testing.T) {
	wav, err := audio.EncodeWAV(audio.Waveform{Samples: []float32{0, 0.5, -0.5}, SampleRate: audio.SampleRate})
	require.NoError(t, err)

	var got SynthesisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/synthesize":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(wav)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewRemoteTTS(srv.URL + "/")
	require.NoError(t, r.Warmup(context.Background()))

	wf, err := r.Synthesize(context.Background(), SynthesisRequest{Text: "hello", SpeakerEmbedding: NeutralEmbedding()})
	require.NoError(t, err)
	require.Equal(t, audio.SampleRate, wf.SampleRate)
	require.Len(t, wf.Samples, 3)
	require.Equal(t, "hello", got.Text)
	require.Len(t, got.SpeakerEmbedding, EmbeddingDim)
}

func TestRemoteTTSStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "vocoder crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemoteTTS(srv.URL).Synthesize(context.Background(), SynthesisRequest{Text: "hello"})
	require.ErrorContains(t, err, "status 500")
	require.ErrorContains(t, err, "vocoder crashed")
}
