// Package app wires the analysis pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/kdimtricp/camlens/internal/ai"
	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/config"
	"github.com/kdimtricp/camlens/internal/database"
	"github.com/kdimtricp/camlens/internal/frame"
	"github.com/kdimtricp/camlens/internal/frame/opencv"
	"github.com/kdimtricp/camlens/internal/storage"
	"github.com/kdimtricp/camlens/internal/video"
	"github.com/rs/zerolog"
)

type Runtime struct {
	DB       *database.DB
	History  *database.HistoryRepo
	Prompts  *database.PromptRepo
	Storage  *storage.LocalStorage
	Catalog  *video.Catalog
	Locator  *video.Locator
	Analysis *analysis.Service
}

// Build opens the database, applies migrations, seeds the prompt slot and
// assembles the analysis service.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Runtime, error) {
	db, err := database.NewDB(ctx, DBConfig(cfg.DB))
	if err != nil {
		return nil, err
	}

	rt, err := build(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return rt, nil
}

func build(ctx context.Context, cfg *config.Config, db *database.DB, logger zerolog.Logger) (*Runtime, error) {
	if _, err := database.NewMigrator(db, logger).Run(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	prompts := database.NewPromptRepo(db)
	if err := prompts.Seed(ctx, database.DefaultPrompt); err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStorage(cfg.FramesDir, cfg.AnalysisDir)
	if err != nil {
		return nil, err
	}

	opener, err := NewOpener(cfg.ExtractorBackend, logger)
	if err != nil {
		return nil, err
	}

	vision, err := ai.NewVisionClient(cfg.Vision, logger)
	if err != nil {
		return nil, err
	}

	catalog := video.DefaultCatalog()
	locator := video.NewLocator(cfg.VideoDirs...)
	history := database.NewHistoryRepo(db)

	svc := analysis.NewService(
		catalog,
		locator,
		frame.NewExtractor(opener, cfg.JPEGQuality, logger),
		vision,
		store,
		history,
		prompts,
		analysis.Config{},
		logger,
	)

	return &Runtime{
		DB:       db,
		History:  history,
		Prompts:  prompts,
		Storage:  store,
		Catalog:  catalog,
		Locator:  locator,
		Analysis: svc,
	}, nil
}

func (rt *Runtime) Close() error {
	return rt.DB.Close()
}

// NewOpener returns the video decoding backend named by backend.
func NewOpener(backend string, logger zerolog.Logger) (frame.Opener, error) {
	switch backend {
	case "", "ffmpeg":
		opener, err := frame.NewFFmpegOpener(logger)
		if err != nil {
			return nil, err
		}
		return opener, nil
	case "opencv":
		return opencv.NewOpener(), nil
	default:
		return nil, fmt.Errorf("unsupported extractor backend: %s", backend)
	}
}

func DBConfig(c config.DBConfig) database.Config {
	return database.Config{
		Type:       c.Type,
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Name:       c.Name,
		SQLitePath: c.SQLitePath,
	}
}
