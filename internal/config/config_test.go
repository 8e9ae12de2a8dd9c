package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_TYPE", "VISION_TIMEOUT", "JPEG_QUALITY", "VIDEO_DIRS", "EXTRACTOR_BACKEND", "VISION_PROVIDER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DB.Type != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DB.Type)
	}
	if cfg.Vision.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %s", cfg.Vision.Timeout)
	}
	if cfg.JPEGQuality != 85 {
		t.Errorf("expected quality 85, got %d", cfg.JPEGQuality)
	}
	if len(cfg.VideoDirs) != 3 {
		t.Errorf("expected 3 video dirs, got %v", cfg.VideoDirs)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("VISION_MAX_TOKENS", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("VISION_MAX_TOKENS")
	os.Unsetenv("ANTHROPIC_API_KEY")

	envPath := filepath.Join(t.TempDir(), "test.env")
	content := "ANTHROPIC_API_KEY=from-file\nVISION_MAX_TOKENS=256\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Vision.AnthropicAPIKey != "from-file" {
		t.Errorf("expected key from file, got %q", cfg.Vision.AnthropicAPIKey)
	}
	if cfg.Vision.MaxTokens != 256 {
		t.Errorf("expected 256 max tokens, got %d", cfg.Vision.MaxTokens)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "VISION_TIMEOUT", "soon"},
		{"bad upload size", "MAX_UPLOAD_SIZE", "lots"},
		{"quality out of range", "JPEG_QUALITY", "101"},
		{"unknown db", "DB_TYPE", "oracle"},
		{"unknown backend", "EXTRACTOR_BACKEND", "vlc"},
		{"unknown provider", "VISION_PROVIDER", "nobody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestCameraConfigured(t *testing.T) {
	c := CameraConfig{Email: "a@b.c", Password: "p", KeyID: "k"}
	if c.Configured() {
		t.Error("expected incomplete credentials to report unconfigured")
	}
	c.APIKey = "key"
	if !c.Configured() {
		t.Error("expected complete credentials to report configured")
	}
}
