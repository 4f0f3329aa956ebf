package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	LLM       LLMConfig
	TTS       TTSConfig
	Storage   StorageConfig
	History   HistoryConfig
	Inference InferenceConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	DefaultProvider  string
	FallbackProvider string
	DefaultModel     string
	MaxRetries       int
	OllamaURL        string
	OpenAIKey        string
	AnthropicKey     string
	HuggingFaceToken string
	HuggingFaceURL   string
}

type TTSConfig struct {
	Enabled         bool
	Backend         string // "local", "openai", "google" or "remote"
	LocalBinPath    string // default: "piper"
	LocalModel      string // required when backend=local
	LocalSampleRate int
	OpenAIKey       string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIVoice     string
	GoogleLanguage  string
	GoogleVoice     string
	RemoteURL       string
	ChunkChars      int
}

type StorageConfig struct {
	Backend     string // "local" or "supabase"
	AudioDir    string
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type HistoryConfig struct {
	MaxMessages int
	TTL         time.Duration
}

type InferenceConfig struct {
	MaxConcurrent int
	Timeout       time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := getEnvInt("SERVER_PORT", 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	ttsEnabled, err := getEnvBool("TTS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_ENABLED: %w", err)
	}

	sampleRate, err := getEnvInt("TTS_LOCAL_SAMPLE_RATE", 22050)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_LOCAL_SAMPLE_RATE: %w", err)
	}

	chunkChars, err := getEnvInt("TTS_CHUNK_CHARS", 400)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_CHUNK_CHARS: %w", err)
	}

	historyMax, err := getEnvInt("HISTORY_MAX_MESSAGES", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_MAX_MESSAGES: %w", err)
	}

	historyTTL, err := getEnvDuration("HISTORY_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_TTL: %w", err)
	}

	maxConcurrent, err := getEnvInt("INFERENCE_MAX_CONCURRENT", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid INFERENCE_MAX_CONCURRENT: %w", err)
	}

	timeout, err := getEnvDuration("INFERENCE_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid INFERENCE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		LLM: LLMConfig{
			DefaultProvider:  getEnv("LLM_PROVIDER", "ollama"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			DefaultModel:     getEnv("LLM_MODEL", ""),
			MaxRetries:       maxRetries,
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			HuggingFaceToken: getEnv("HUGGINGFACE_HUB_TOKEN", ""),
			HuggingFaceURL:   getEnv("HUGGINGFACE_URL", "https://api-inference.huggingface.co"),
		},
		TTS: TTSConfig{
			Enabled:         ttsEnabled,
			Backend:         getEnv("TTS_BACKEND", "local"),
			LocalBinPath:    getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
			LocalModel:      getEnv("TTS_LOCAL_PIPER_MODEL", ""),
			LocalSampleRate: sampleRate,
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:     getEnv("TTS_OPENAI_MODEL", ""),
			OpenAIVoice:     getEnv("TTS_OPENAI_VOICE", ""),
			GoogleLanguage:  getEnv("TTS_GOOGLE_LANGUAGE", "en-US"),
			GoogleVoice:     getEnv("TTS_GOOGLE_VOICE", ""),
			RemoteURL:       getEnv("TTS_REMOTE_URL", ""),
			ChunkChars:      chunkChars,
		},
		Storage: StorageConfig{
			Backend:     getEnv("AUDIO_STORAGE", "local"),
			AudioDir:    getEnv("AUDIO_DIR", "audio"),
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "audio"),
		},
		History: HistoryConfig{
			MaxMessages: historyMax,
			TTL:         historyTTL,
		},
		Inference: InferenceConfig{
			MaxConcurrent: maxConcurrent,
			Timeout:       timeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Inference.MaxConcurrent < 1 {
		problems = append(problems, "INFERENCE_MAX_CONCURRENT must be at least 1")
	}
	switch c.Storage.Backend {
	case "local":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_URL and SUPABASE_SERVICE_KEY are required for AUDIO_STORAGE=supabase")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown AUDIO_STORAGE %q", c.Storage.Backend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
