package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicModel   = "claude-3-opus-20240229"
	anthropicVersion = "2023-06-01"
)

type AnthropicConfig struct {
	APIKey    string
	URL       string
	Model     string
	Version   string
	MaxTokens int
	Timeout   time.Duration
}

type AnthropicClient struct {
	apiKey     string
	url        string
	model      string
	version    string
	maxTokens  int
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewAnthropicClient(cfg AnthropicConfig, logger zerolog.Logger) *AnthropicClient {
	if cfg.URL == "" {
		cfg.URL = anthropicAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = anthropicModel
	}
	if cfg.Version == "" {
		cfg.Version = anthropicVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &AnthropicClient{
		apiKey:    cfg.APIKey,
		url:       cfg.URL,
		model:     cfg.Model,
		version:   cfg.Version,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "anthropic").Logger(),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicContentPart `json:"content"`
}

type anthropicContentPart struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *AnthropicClient) Analyze(ctx context.Context, imageBase64, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrConfig
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContentPart{
					{
						Type: "text",
						Text: prompt,
					},
					{
						Type: "image",
						Source: &anthropicSource{
							Type:      "base64",
							MediaType: "image/jpeg",
							Data:      imageBase64,
						},
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	req.Header.Set("content-type", "application/json")

	c.logger.Debug().
		Str("model", c.model).
		Int("image_b64_len", len(imageBase64)).
		Int("prompt_len", len(prompt)).
		Msg("sending request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &VisionError{Provider: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &VisionError{Provider: "anthropic", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("response received")

	if resp.StatusCode != http.StatusOK {
		verr := &VisionError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("body", truncate(verr.Body, 100)).Msg("request failed")
		return "", verr
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &VisionError{Provider: "anthropic", Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	for _, block := range parsed.Content {
		if block.Type == "text" || (block.Type == "" && block.Text != "") {
			return block.Text, nil
		}
	}

	return "", &VisionError{Provider: "anthropic", Err: fmt.Errorf("no text content in response")}
}
