package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const openAIModel = "gpt-4o"

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey    string
	model     string
	maxTokens int
	client    *openai.Client
	logger    zerolog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    openai.NewClientWithConfig(clientCfg),
		logger:    logger.With().Str("component", "openai").Logger(),
	}
}

func (c *OpenAIClient) Analyze(ctx context.Context, imageBase64, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrConfig
	}

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:image/jpeg;base64,%s", imageBase64),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	c.logger.Debug().Str("model", c.model).Int("image_b64_len", len(imageBase64)).Msg("sending request")

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", toVisionError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &VisionError{Provider: "openai", Err: fmt.Errorf("no response from OpenAI")}
	}

	return resp.Choices[0].Message.Content, nil
}

func toVisionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &VisionError{
			Provider:   "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       truncate(apiErr.Message, maxErrorBody),
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &VisionError{
			Provider:   "openai",
			StatusCode: reqErr.HTTPStatusCode,
			Body:       truncate(string(reqErr.Body), maxErrorBody),
			Err:        err,
		}
	}

	return &VisionError{Provider: "openai", Err: err}
}
