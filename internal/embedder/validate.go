package embedder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/54b3r/docrag/internal/config"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding. If the embedding model matches
// any of these, Validate emits a warning.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Validate checks that the embedding configuration is usable before any
// store is opened. It returns an error if the configuration is clearly broken
// (e.g. azure embedder with no API key), and logs a warning if the model name
// looks like a chat model rather than an embedding model.
//
// This is a pre-flight check so operators get a clear error at startup rather
// than a cryptic failure during the first embed call.
func Validate(log *slog.Logger, cfg config.EmbeddingConfig) error {
	switch cfg.Provider {
	case "ollama":
	case "openai":
		if cfg.APIKey == "" {
			return fmt.Errorf("embedder: no OpenAI API key found; set OPENAI_API_KEY or EMBEDDING_API_KEY")
		}

	case "azure":
		if cfg.APIKey == "" {
			return fmt.Errorf("embedder: no Azure API key found; set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if cfg.Endpoint == "" {
			return fmt.Errorf("embedder: no Azure endpoint found; set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}

	case "gemini":
		if cfg.APIKey == "" {
			return fmt.Errorf("embedder: no Google API key found; set GOOGLE_API_KEY or EMBEDDING_API_KEY")
		}

	case "ark":
		return fmt.Errorf("embedder: ark embedding is not implemented; set EMBEDDING_PROVIDER to ollama, openai, azure, or gemini")

	default:
		return fmt.Errorf("embedder: unknown backend %q (valid values: ollama, openai, azure, gemini)", cfg.Provider)
	}

	if cfg.Model != "" && looksLikeChatModel(cfg.Model) {
		log.Warn("embedder: embedding model looks like a chat model, not an embedding model; "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", cfg.Model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}

	return nil
}
