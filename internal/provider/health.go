package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewHealthChecker returns a HealthChecker for backends that expose a cheap
// liveness call, or nil for backends that do not.
func NewHealthChecker(cfg *Config) HealthChecker {
	switch cfg.Backend {
	case BackendOllama:
		base, err := url.Parse(cfg.Ollama.Host)
		if err != nil {
			return nil
		}
		return &ollamaHealth{client: ollamaapi.NewClient(base, &http.Client{Timeout: 5 * time.Second})}
	case BackendOpenAI:
		opts := []option.RequestOption{
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithMaxRetries(0),
		}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		return &openAIHealth{client: openai.NewClient(opts...)}
	default:
		return nil
	}
}

// ollamaHealth pings the Ollama server root.
type ollamaHealth struct {
	client *ollamaapi.Client
}

func (h *ollamaHealth) Ping(ctx context.Context) error {
	if err := h.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("provider: ollama heartbeat: %w", err)
	}
	return nil
}

// openAIHealth lists models, which is free and proves the key is accepted.
type openAIHealth struct {
	client openai.Client
}

func (h *openAIHealth) Ping(ctx context.Context) error {
	if _, err := h.client.Models.List(ctx); err != nil {
		return fmt.Errorf("provider: openai models list: %w", err)
	}
	return nil
}
