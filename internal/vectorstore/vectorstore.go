// Package vectorstore provides the rag.VectorStore backends: an embedded
// SQLite store for local use, Weaviate, and Qdrant.
package vectorstore

import (
	"fmt"

	"github.com/54b3r/docrag/internal/config"
	"github.com/54b3r/docrag/internal/embedder"
	"github.com/54b3r/docrag/internal/rag"
)

// NeedsEmbedder reports whether the configured backend computes embeddings
// client-side. Weaviate in near_text mode vectorizes on the server.
func NeedsEmbedder(cfg *config.Config) bool {
	return !(cfg.Backend == config.BackendWeaviate && cfg.Weaviate.Search == SearchNearText)
}

// New constructs the store selected by cfg.Backend. emb may be nil only when
// NeedsEmbedder(cfg) is false. The returned store still needs EnsureSchema.
func New(cfg *config.Config, emb rag.Embedder) (rag.VectorStore, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return NewLocalStore(cfg.Local.Dir, emb)

	case config.BackendWeaviate:
		host, scheme, err := cfg.Weaviate.HostScheme()
		if err != nil {
			return nil, err
		}
		return NewWeaviateStore(&WeaviateConfig{
			Host:       host,
			Scheme:     scheme,
			APIKey:     cfg.Weaviate.APIKey,
			Class:      cfg.Weaviate.Class,
			Search:     cfg.Weaviate.Search,
			Vectorizer: cfg.Weaviate.Vectorizer,
			BatchSize:  cfg.Weaviate.BatchSize,
		}, emb)

	case config.BackendQdrant:
		return NewQdrantStore(&QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
			VectorSize: uint64(embedder.DefaultDimensions(cfg.Embedding)),
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.TLS,
		}, emb)

	default:
		return nil, fmt.Errorf("vectorstore: unknown backend %q (valid values: local, weaviate, qdrant)", cfg.Backend)
	}
}
