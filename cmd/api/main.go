package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/llmservice/internal/api"
	"github.com/nikhilbhutani/llmservice/internal/cache"
	"github.com/nikhilbhutani/llmservice/internal/config"
	"github.com/nikhilbhutani/llmservice/internal/history"
	"github.com/nikhilbhutani/llmservice/internal/inference"
	"github.com/nikhilbhutani/llmservice/internal/llm"
	"github.com/nikhilbhutani/llmservice/internal/metrics"
	"github.com/nikhilbhutani/llmservice/internal/storage"
	"github.com/nikhilbhutani/llmservice/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := llm.NewGateway(cfg.LLM)

	var synth *tts.Synthesizer
	var ttsBackend tts.TTSProvider
	if cfg.TTS.Enabled {
		ttsBackend, err = tts.New(cfg.TTS)
		if err != nil {
			slog.Error("invalid tts config", "error", err)
			os.Exit(1)
		}
		synth = tts.NewSynthesizer(ttsBackend)
		slog.Info("speech synthesis enabled", "provider", synth.Name())
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("invalid storage config", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it history is not recorded.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var hist *history.Store
	c := cache.NewCache(rdb)
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := c.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, running without history", "error", err)
	} else {
		hist = history.NewStore(c, cfg.History)
	}
	pingCancel()

	reg := metrics.New()

	svc := inference.NewService(gateway, synth, store, hist, reg, inference.Config{
		MaxConcurrent: cfg.Inference.MaxConcurrent,
		Timeout:       cfg.Inference.Timeout,
		ChunkChars:    cfg.TTS.ChunkChars,
	})

	// Models load in the background; /generate answers 503 until the text model is ready.
	go func() {
		if err := gateway.Load(ctx); err != nil {
			slog.Error("failed to load text model", "error", err)
		}
	}()
	if synth != nil {
		go func() {
			if err := synth.Load(ctx); err != nil {
				slog.Error("failed to load speech model", "error", err)
			}
		}()
	}

	router := api.NewRouter(cfg.Server, svc, hist, reg)
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	if closer, ok := ttsBackend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close tts backend", "error", err)
		}
	}
	slog.Info("server stopped")
}
