// Package history keeps a capped, expiring log of exchanges per user.
package history

import (
	"context"
	"time"

	"github.com/nikhilbhutani/llmservice/internal/cache"
	"github.com/nikhilbhutani/llmservice/internal/config"
)

const keyPrefix = "chat_history_"

type Entry struct {
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store is safe to use as a nil pointer: a nil Store records nothing and
// lists nothing, which is how the service runs without Redis.
type Store struct {
	cache *cache.Cache
	max   int
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(c *cache.Cache, cfg config.HistoryConfig) *Store {
	return &Store{cache: c, max: cfg.MaxMessages, ttl: cfg.TTL, now: time.Now}
}

func (s *Store) Append(ctx context.Context, userID, message, reply string) error {
	if s == nil {
		return nil
	}
	return s.cache.PushCapped(ctx, keyPrefix+userID, Entry{
		UserMessage: message,
		AIResponse:  reply,
		Timestamp:   s.now().UTC(),
	}, s.max, s.ttl)
}

// List returns the user's entries, oldest first.
func (s *Store) List(ctx context.Context, userID string) ([]Entry, error) {
	if s == nil {
		return []Entry{}, nil
	}
	return cache.List[Entry](ctx, s.cache, keyPrefix+userID)
}
