// Package tracing wires optional Langfuse tracing into eino callbacks.
package tracing

import (
	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/docrag/internal/config"
)

// DefaultHost is used when the config leaves the Langfuse host empty.
const DefaultHost = "http://localhost:3000"

// Setup builds the Langfuse callback handler when both keys are configured.
// The returned flush function must be called before process exit so buffered
// traces are sent. When tracing is not configured it returns nil, nil, false.
func Setup(cfg config.TracingConfig) (callbacks.Handler, func(), bool) {
	if cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil, nil, false
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: cfg.PublicKey,
		SecretKey: cfg.SecretKey,
	})

	return handler, flusher, true
}
