package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/llmservice/internal/config"
)

// ContentTypeWAV is the media type of every stored artifact.
const ContentTypeWAV = "audio/wav"

var ErrNotFound = errors.New("artifact not found")

var namePattern = regexp.MustCompile(`^[0-9a-f]{32}\.wav$`)

// Store holds audio artifacts in one flat namespace. Artifacts are written
// once and never updated or removed.
type Store interface {
	Upload(ctx context.Context, name string, data io.Reader, contentType string) error
	Download(ctx context.Context, name string) (io.ReadCloser, error)
}

// NewName returns a fresh artifact name: a random UUID in lowercase hex
// without dashes, plus ".wav".
func NewName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ".wav"
}

// ValidName reports whether name could have come from NewName.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// New builds the store selected by AUDIO_STORAGE.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.AudioDir), nil
	case "supabase":
		return NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown AUDIO_STORAGE %q", cfg.Backend)
	}
}
