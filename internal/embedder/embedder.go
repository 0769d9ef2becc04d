// Package embedder provides implementations of the rag.Embedder interface for
// converting text into dense vector embeddings. Each implementation talks to a
// different backend through its official SDK: OpenAI and Azure OpenAI through
// openai-go, Ollama through the Ollama API client, and Gemini through genai.
package embedder

import (
	"context"
	"fmt"

	"github.com/54b3r/docrag/internal/config"
	"github.com/54b3r/docrag/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultGeminiModel = "text-embedding-004"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ; override with embedding.dimensions.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
	// defaultGeminiDimensions is the output dimension of text-embedding-004.
	defaultGeminiDimensions = 768
)

// DefaultDimensions returns the embedding vector size for cfg. An explicit
// cfg.Dimensions always wins. Callers that need to pre-configure a vector
// store (e.g. Qdrant collection creation) should use this rather than
// hardcoding a value.
func DefaultDimensions(cfg config.EmbeddingConfig) int {
	if cfg.Dimensions > 0 {
		return cfg.Dimensions
	}
	switch cfg.Provider {
	case "ollama":
		return defaultOllamaDimensions
	case "gemini":
		return defaultGeminiDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// New constructs a rag.Embedder for the resolved embedding provider.
// Credentials are expected to have been inherited from the chat provider by
// config.Load already.
func New(ctx context.Context, cfg config.EmbeddingConfig) (rag.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  orDefault(cfg.Endpoint, "http://localhost:11434"),
			Model: orDefault(cfg.Model, defaultOllamaModel),
		})

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			Dimensions: cfg.Dimensions,
		}), nil

	case "azure":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			Dimensions: cfg.Dimensions,
			Azure:      true,
			APIVersion: orDefault(cfg.APIVersion, "2024-10-21"),
		}), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}
		return NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultGeminiModel),
			Dimensions: cfg.Dimensions,
		})

	case "ark":
		return nil, fmt.Errorf("embedder: ark embedding support is not implemented; set EMBEDDING_PROVIDER to ollama, openai, azure, or gemini")

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q (valid values: ollama, openai, azure, gemini)", cfg.Provider)
	}
}

// orDefault returns v, or fallback if v is empty.
func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
