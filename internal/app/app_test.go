package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kdimtricp/camlens/internal/config"
	"github.com/kdimtricp/camlens/internal/database"
	"github.com/rs/zerolog"
)

func TestBuildSeedsPrompt(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DB:               config.DBConfig{Type: "sqlite", SQLitePath: filepath.Join(dir, "h.db")},
		FramesDir:        filepath.Join(dir, "frames"),
		AnalysisDir:      filepath.Join(dir, "analysis"),
		VideoDirs:        []string{dir},
		ExtractorBackend: "opencv",
		JPEGQuality:      85,
		Vision:           config.VisionConfig{Provider: "anthropic"},
	}

	rt, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer rt.Close()

	prompt, err := rt.Analysis.Prompt(context.Background())
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if prompt != database.DefaultPrompt {
		t.Errorf("expected seeded default prompt, got %q", prompt)
	}
}

func TestNewOpenerUnknownBackend(t *testing.T) {
	if _, err := NewOpener("vlc", zerolog.Nop()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestDBConfig(t *testing.T) {
	got := DBConfig(config.DBConfig{Type: "postgres", Host: "db", Port: 5433, User: "u", Name: "n"})
	if got.Type != "postgres" || got.Host != "db" || got.Port != 5433 || got.User != "u" || got.Name != "n" {
		t.Errorf("unexpected mapping %+v", got)
	}
}
