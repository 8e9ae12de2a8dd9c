package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/camlens/internal/api"
	"github.com/kdimtricp/camlens/internal/app"
	"github.com/kdimtricp/camlens/internal/config"
	"github.com/kdimtricp/camlens/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "console").Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer rt.Close()

	if cfg.Vision.Provider == "anthropic" && cfg.Vision.AnthropicAPIKey == "" ||
		cfg.Vision.Provider == "openai" && cfg.Vision.OpenAIAPIKey == "" {
		logger.Warn().Str("provider", cfg.Vision.Provider).Msg("vision API key not set, analysis requests will fail")
	}

	router := api.NewRouter(&api.App{
		Analysis:      rt.Analysis,
		Catalog:       rt.Catalog,
		Locator:       rt.Locator,
		Storage:       rt.Storage,
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logEvent := logger.Info().
		Str("port", cfg.Port).
		Str("db_type", cfg.DB.Type).
		Str("extractor", cfg.ExtractorBackend).
		Str("vision", cfg.Vision.Provider).
		Str("frames_dir", cfg.FramesDir).
		Str("analysis_dir", cfg.AnalysisDir).
		Strs("video_dirs", cfg.VideoDirs).
		Int64("max_upload_size", cfg.MaxUploadSize)
	if cfg.DB.Type == "postgres" {
		logEvent = logEvent.Str("db", cfg.DB.User+"@"+cfg.DB.Host+"/"+cfg.DB.Name)
	} else {
		logEvent = logEvent.Str("db", cfg.DB.SQLitePath)
	}
	logEvent.Msg("server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
