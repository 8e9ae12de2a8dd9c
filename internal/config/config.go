package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the binaries read from the environment.
type Config struct {
	Port          string
	MaxUploadSize int64

	LogLevel  string
	LogFormat string

	DB DBConfig

	FramesDir   string
	AnalysisDir string
	VideoDirs   []string

	ExtractorBackend string
	JPEGQuality      int

	Vision VisionConfig

	Camera CameraConfig
}

type DBConfig struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

type VisionConfig struct {
	Provider  string
	MaxTokens int
	Timeout   time.Duration

	AnthropicAPIKey  string
	AnthropicURL     string
	AnthropicModel   string
	AnthropicVersion string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// CameraConfig carries the camera-service credentials used by the live
// capture tooling. The analysis pipeline never reads them.
type CameraConfig struct {
	Email    string
	Password string
	KeyID    string
	APIKey   string
}

func (c CameraConfig) Configured() bool {
	return c.Email != "" && c.Password != "" && c.KeyID != "" && c.APIKey != ""
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("loading %s: %w", f, err)
			}
		}
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		FramesDir:        getEnv("FRAMES_DIR", "./output/frames"),
		AnalysisDir:      getEnv("ANALYSIS_DIR", "./output/analysis"),
		VideoDirs:        splitList(getEnv("VIDEO_DIRS", ".,./frontend/public,./frontend/src/assets")),
		ExtractorBackend: strings.ToLower(getEnv("EXTRACTOR_BACKEND", "ffmpeg")),
		DB: DBConfig{
			Type:       strings.ToLower(getEnv("DB_TYPE", "sqlite")),
			Host:       getEnv("DB_HOST", "localhost"),
			User:       getEnv("DB_USER", "camlens"),
			Password:   getEnv("DB_PASSWORD", "camlens_dev"),
			Name:       getEnv("DB_NAME", "camlens"),
			SQLitePath: getEnv("DB_PATH", "./analysis_history.db"),
		},
		Vision: VisionConfig{
			Provider:         strings.ToLower(getEnv("VISION_PROVIDER", "anthropic")),
			AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicURL:     getEnv("ANTHROPIC_API_URL", "https://api.anthropic.com/v1/messages"),
			AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-opus-20240229"),
			AnthropicVersion: getEnv("ANTHROPIC_VERSION", "2023-06-01"),
			OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
			OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Camera: CameraConfig{
			Email:    os.Getenv("EMAIL"),
			Password: os.Getenv("PASSWORD"),
			KeyID:    os.Getenv("KEYID"),
			APIKey:   os.Getenv("APIKEY"),
		},
	}

	var err error
	if cfg.MaxUploadSize, err = getEnvInt64("MAX_UPLOAD_SIZE", 10<<20); err != nil {
		return nil, err
	}
	if cfg.DB.Port, err = getEnvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getEnvInt("JPEG_QUALITY", 85); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("invalid JPEG_QUALITY: %d", cfg.JPEGQuality)
	}
	if cfg.Vision.MaxTokens, err = getEnvInt("VISION_MAX_TOKENS", 1000); err != nil {
		return nil, err
	}
	if cfg.Vision.Timeout, err = getEnvDuration("VISION_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	switch cfg.DB.Type {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DB.Type)
	}
	switch cfg.ExtractorBackend {
	case "ffmpeg", "opencv":
	default:
		return nil, fmt.Errorf("unsupported EXTRACTOR_BACKEND: %s", cfg.ExtractorBackend)
	}
	switch cfg.Vision.Provider {
	case "anthropic", "openai":
	default:
		return nil, fmt.Errorf("unsupported VISION_PROVIDER: %s", cfg.Vision.Provider)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
