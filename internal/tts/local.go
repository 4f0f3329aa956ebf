package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nikhilbhutani/llmservice/internal/audio"
)

// LocalTTSConfig holds configuration for the local Piper TTS backend.
type LocalTTSConfig struct {
	PiperBinPath string // default: "piper"
	ModelPath    string // required: path to the .onnx voice model
	SampleRate   int    // rate of the voice model, from its .onnx.json; default 22050
}

// LocalTTS synthesizes speech using the Piper binary via subprocess.
// Voice selection is controlled by the model file, so the speaker embedding is ignored.
type LocalTTS struct {
	cfg LocalTTSConfig
}

// NewLocalTTS creates a LocalTTS backed by a local Piper binary.
func NewLocalTTS(cfg LocalTTSConfig) *LocalTTS {
	if cfg.PiperBinPath == "" {
		cfg.PiperBinPath = "piper"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	return &LocalTTS{cfg: cfg}
}

func (l *LocalTTS) Name() string { return "local-piper" }

func (l *LocalTTS) Warmup(_ context.Context) error {
	if l.cfg.ModelPath == "" {
		return fmt.Errorf("piper model path is required (set TTS_LOCAL_PIPER_MODEL)")
	}
	if _, err := os.Stat(l.cfg.ModelPath); err != nil {
		return fmt.Errorf("piper model: %w", err)
	}
	if _, err := exec.LookPath(l.cfg.PiperBinPath); err != nil {
		return fmt.Errorf("piper binary: %w", err)
	}
	return nil
}

// Synthesize pipes text into Piper via stdin and decodes the raw 16-bit PCM from stdout.
func (l *LocalTTS) Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Waveform, error) {
	if l.cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper model path is required (set TTS_LOCAL_PIPER_MODEL)")
	}

	cmd := exec.CommandContext(ctx, l.cfg.PiperBinPath, "--model", l.cfg.ModelPath, "--output-raw")

	cmd.Stdin = strings.NewReader(req.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}

	wf := audio.FromPCM16LE(stdout.Bytes(), l.cfg.SampleRate)
	return &wf, nil
}
