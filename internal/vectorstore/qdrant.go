package vectorstore

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/docrag/internal/rag"
)

// payloadContent is the payload key holding an item's text.
const payloadContent = "content"

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements rag.VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// embedder embeds search queries.
	embedder rag.Embedder

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig

	// ready is set once EnsureSchema has succeeded.
	ready atomic.Bool
}

// NewQdrantStore creates a QdrantStore. The collection is not touched until
// EnsureSchema.
func NewQdrantStore(cfg *QdrantConfig, embedder rag.Embedder) (*QdrantStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("qdrant: store requires an embedder")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantStore{client: client, embedder: embedder, cfg: cfg}, nil
}

// Name returns "qdrant".
func (s *QdrantStore) Name() string { return "qdrant" }

// EnsureSchema creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.cfg.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
		}
	}
	s.ready.Store(true)
	return nil
}

// Upsert stores a batch of items with their embeddings and waits for the
// write to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, items []rag.StoredItem) error {
	if !s.ready.Load() {
		return rag.ErrStoreNotReady
	}
	if len(items) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(items))
	for _, it := range items {
		if len(it.Embedding) == 0 {
			return fmt.Errorf("qdrant: %w: %s", ErrMissingEmbedding, it.ID)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(it.ID),
			Vectors: qdrant.NewVectors(it.Embedding...),
			Payload: qdrant.NewValueMap(itemPayload(it)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// SimilaritySearch embeds query and performs a cosine similarity search.
func (s *QdrantStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.StoredItem, error) {
	if !s.ready.Load() {
		return nil, rag.ErrStoreNotReady
	}
	if k <= 0 {
		k = rag.DefaultTopK
	}

	qvec, err := rag.EmbedText(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}

	limit := uint64(k)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(qvec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	items := make([]rag.StoredItem, 0, len(results))
	for _, r := range results {
		it := rag.StoredItem{
			ID:       r.Id.GetUuid(),
			Score:    r.Score,
			Metadata: make(map[string]string),
		}
		for key, v := range r.Payload {
			if key == payloadContent {
				it.Content = v.GetStringValue()
				continue
			}
			it.Metadata[key] = v.GetStringValue()
		}
		items = append(items, it)
	}

	return items, nil
}

// Ping calls the Qdrant health check endpoint.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// itemPayload flattens an item into a Qdrant payload. Metadata keys never
// overwrite the content key.
func itemPayload(it rag.StoredItem) map[string]any {
	payload := make(map[string]any, len(it.Metadata)+1)
	for k, v := range it.Metadata {
		payload[k] = v
	}
	payload[payloadContent] = it.Content
	return payload
}
