// Package audit provides a structured audit logger for CLI command invocations.
// It logs the command name, the config file in use, and the resolved
// configuration so operators can trace what happened without exposing
// secret values.
//
// Secrets are logged as set/unset only.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/docrag/internal/config"
)

// LogCommandStart emits a structured audit log entry when a CLI command begins.
func LogCommandStart(ctx context.Context, log *slog.Logger, command string, cfg *config.Config) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(cfg.Path)),
	}
	for _, e := range entries(cfg) {
		if e.secret {
			attrs = append(attrs, slog.String(e.key, presence(e.value)))
		} else {
			attrs = append(attrs, slog.String(e.key, valOrUnset(e.value)))
		}
	}

	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// auditEntry is one field included in the audit log.
type auditEntry struct {
	key    string
	value  string
	secret bool
}

// entries lists the audited config fields in a stable order.
func entries(cfg *config.Config) []auditEntry {
	return []auditEntry{
		{key: "backend", value: cfg.Backend},
		{key: "model_provider", value: cfg.Model.Provider},
		{key: "ollama_host", value: cfg.Model.Ollama.Host},
		{key: "ollama_model", value: cfg.Model.Ollama.Model},
		{key: "openai_api_key", value: cfg.Model.OpenAI.APIKey, secret: true},
		{key: "openai_model", value: cfg.Model.OpenAI.Model},
		{key: "azure_openai_api_key", value: cfg.Model.Azure.APIKey, secret: true},
		{key: "azure_openai_endpoint", value: cfg.Model.Azure.Endpoint},
		{key: "azure_openai_deployment", value: cfg.Model.Azure.Deployment},
		{key: "ark_api_key", value: cfg.Model.Ark.APIKey, secret: true},
		{key: "ark_model", value: cfg.Model.Ark.Model},
		{key: "google_api_key", value: cfg.Model.Gemini.APIKey, secret: true},
		{key: "gemini_model", value: cfg.Model.Gemini.Model},
		{key: "embedding_provider", value: cfg.Embedding.Provider},
		{key: "embedding_model", value: cfg.Embedding.Model},
		{key: "embedding_api_key", value: cfg.Embedding.APIKey, secret: true},
		{key: "local_dir", value: cfg.Local.Dir},
		{key: "weaviate_url", value: cfg.Weaviate.URL},
		{key: "weaviate_class", value: cfg.Weaviate.Class},
		{key: "weaviate_search", value: cfg.Weaviate.Search},
		{key: "weaviate_api_key", value: cfg.Weaviate.APIKey, secret: true},
		{key: "qdrant_host", value: cfg.Qdrant.Host},
		{key: "qdrant_port", value: strconv.Itoa(cfg.Qdrant.Port)},
		{key: "qdrant_collection", value: cfg.Qdrant.Collection},
		{key: "qdrant_api_key", value: cfg.Qdrant.APIKey, secret: true},
		{key: "answer_mode", value: cfg.Answer.Mode},
		{key: "docrag_api_key", value: cfg.Server.APIKey, secret: true},
		{key: "log_level", value: cfg.Logging.Level},
		{key: "log_format", value: cfg.Logging.Format},
		{key: "langfuse_public_key", value: cfg.Tracing.PublicKey, secret: true},
		{key: "langfuse_secret_key", value: cfg.Tracing.SecretKey, secret: true},
	}
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory for privacy in logs.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
