package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/camlens/internal/config"
	"github.com/rs/zerolog"
)

// ErrConfig is returned before any network call when credentials are missing.
var ErrConfig = errors.New("vision API key not configured")

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 500

type VisionClient interface {
	// Analyze sends one JPEG (base64) and a prompt, returning the model's text.
	Analyze(ctx context.Context, imageBase64, prompt string) (string, error)
}

// VisionError is a failed or unusable remote call. StatusCode is zero for
// transport faults.
type VisionError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *VisionError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned error: %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("error calling %s API: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API call failed", e.Provider)
	}
}

func (e *VisionError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewVisionClient picks the provider named in cfg.
func NewVisionClient(cfg config.VisionConfig, logger zerolog.Logger) (VisionClient, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			URL:       cfg.AnthropicURL,
			Model:     cfg.AnthropicModel,
			Version:   cfg.AnthropicVersion,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}, logger), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", cfg.Provider)
	}
}
