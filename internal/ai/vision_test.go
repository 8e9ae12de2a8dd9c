package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kdimtricp/camlens/internal/config"
	"github.com/rs/zerolog"
)

func newTestAnthropic(url, key string) *AnthropicClient {
	return NewAnthropicClient(AnthropicConfig{
		APIKey:  key,
		URL:     url,
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestAnthropicAnalyzeSuccess(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("unexpected version header %q", r.Header.Get("anthropic-version"))
		}
		if r.Header.Get("content-type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("content-type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"A person near the gate."}]}`))
	}))
	defer server.Close()

	text, err := newTestAnthropic(server.URL, "test-key").Analyze(context.Background(), "aGVsbG8=", "Describe the scene")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if text != "A person near the gate." {
		t.Errorf("unexpected text %q", text)
	}

	if got.Model != "claude-3-opus-20240229" || got.MaxTokens != 1000 {
		t.Errorf("unexpected model/max_tokens: %s/%d", got.Model, got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("expected one user message, got %+v", got.Messages)
	}
	parts := got.Messages[0].Content
	if len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "Describe the scene" {
		t.Errorf("unexpected text part %+v", parts[0])
	}
	if parts[1].Type != "image" || parts[1].Source == nil {
		t.Fatalf("unexpected image part %+v", parts[1])
	}
	if parts[1].Source.Type != "base64" || parts[1].Source.MediaType != "image/jpeg" || parts[1].Source.Data != "aGVsbG8=" {
		t.Errorf("unexpected image source %+v", parts[1].Source)
	}
}

func TestAnthropicAnalyzeServerError(t *testing.T) {
	long := strings.Repeat("x", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, long)
	}))
	defer server.Close()

	_, err := newTestAnthropic(server.URL, "test-key").Analyze(context.Background(), "aGVsbG8=", "p")
	var verr *VisionError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VisionError, got %v", err)
	}
	if verr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", verr.StatusCode)
	}
	if len(verr.Body) != maxErrorBody {
		t.Errorf("expected body truncated to %d, got %d", maxErrorBody, len(verr.Body))
	}
}

func TestAnthropicAnalyzeMissingKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestAnthropic(server.URL, "").Analyze(context.Background(), "aGVsbG8=", "p")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if called {
		t.Error("no request should be sent without a key")
	}
}

func TestAnthropicAnalyzeUnusableResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"content":`},
		{"no text block", `{"content":[{"type":"tool_use"}]}`},
		{"empty content", `{"content":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestAnthropic(server.URL, "k").Analyze(context.Background(), "aGVsbG8=", "p")
			var verr *VisionError
			if !errors.As(err, &verr) {
				t.Fatalf("expected VisionError, got %v", err)
			}
			if verr.StatusCode != 0 {
				t.Errorf("expected no status on a parse failure, got %d", verr.StatusCode)
			}
		})
	}
}

func TestAnthropicAnalyzeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestAnthropic(url, "k").Analyze(context.Background(), "aGVsbG8=", "p")
	var verr *VisionError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VisionError, got %v", err)
	}
	if verr.Err == nil {
		t.Error("transport failure should carry the cause")
	}
}

func TestOpenAIAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer oa-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/jpeg;base64,aGVsbG8=") {
			t.Errorf("image data URL missing from request: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Empty parking lot."},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "oa-key", BaseURL: server.URL + "/v1"}, zerolog.Nop())
	text, err := c.Analyze(context.Background(), "aGVsbG8=", "What do you see?")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if text != "Empty parking lot." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestOpenAIAnalyzeErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		c := NewOpenAIClient(OpenAIConfig{BaseURL: "http://127.0.0.1:1/v1"}, zerolog.Nop())
		if _, err := c.Analyze(context.Background(), "aGVsbG8=", "p"); !errors.Is(err, ErrConfig) {
			t.Fatalf("expected ErrConfig, got %v", err)
		}
	})

	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
		}))
		defer server.Close()

		c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"}, zerolog.Nop())
		_, err := c.Analyze(context.Background(), "aGVsbG8=", "p")
		var verr *VisionError
		if !errors.As(err, &verr) {
			t.Fatalf("expected VisionError, got %v", err)
		}
		if verr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", verr.StatusCode)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"id":"1","choices":[]}`)
		}))
		defer server.Close()

		c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"}, zerolog.Nop())
		_, err := c.Analyze(context.Background(), "aGVsbG8=", "p")
		var verr *VisionError
		if !errors.As(err, &verr) {
			t.Fatalf("expected VisionError, got %v", err)
		}
	})
}

func TestNewVisionClient(t *testing.T) {
	c, err := NewVisionClient(config.VisionConfig{Provider: "anthropic", AnthropicAPIKey: "k"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if _, ok := c.(*AnthropicClient); !ok {
		t.Errorf("expected *AnthropicClient, got %T", c)
	}

	c, err = NewVisionClient(config.VisionConfig{Provider: "openai", OpenAIAPIKey: "k"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Errorf("expected *OpenAIClient, got %T", c)
	}

	if _, err := NewVisionClient(config.VisionConfig{Provider: "gemini"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestVisionErrorMessage(t *testing.T) {
	err := &VisionError{Provider: "anthropic", StatusCode: 500, Body: "boom"}
	if err.Error() != "anthropic API returned error: 500" {
		t.Errorf("unexpected message %q", err.Error())
	}
	cause := errors.New("dial tcp: refused")
	wrapped := &VisionError{Provider: "anthropic", Err: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("VisionError should unwrap to its cause")
	}
}
