package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/54b3r/docrag/internal/rag"
)

// Weaviate search strategies.
const (
	SearchNearText   = "near_text"
	SearchNearVector = "near_vector"
)

// Weaviate property names.
const (
	propContent  = "content"
	propMetadata = "metadata"
)

// Vectorizer modules chosen when the configuration leaves it empty.
const (
	defaultTextVectorizer = "text2vec-openai"
	vectorizerNone        = "none"
)

// WeaviateConfig holds connection parameters for a Weaviate instance.
type WeaviateConfig struct {
	// Host is the server host and port (e.g. "localhost:8080").
	Host string
	// Scheme is "http" or "https".
	Scheme string
	// APIKey is the optional API key for authenticated clusters.
	APIKey string
	// Class is the class that holds documents (default: Document_index).
	Class string
	// Search is SearchNearText (server-side vectorization) or SearchNearVector.
	Search string
	// Vectorizer is the vectorizer module set on a newly created class
	// (default: text2vec-openai for near_text, none for near_vector).
	Vectorizer string
	// BatchSize is the number of objects per batch request (default: 100).
	BatchSize int
}

// WeaviateStore implements rag.VectorStore backed by a Weaviate instance.
// In near_text mode Weaviate vectorizes content itself and no embedder is
// needed; in near_vector mode vectors are computed client-side.
type WeaviateStore struct {
	client   *weaviate.Client
	embedder rag.Embedder
	cfg      *WeaviateConfig
	ready    atomic.Bool
}

// NewWeaviateStore creates a WeaviateStore. embedder may be nil in near_text mode.
func NewWeaviateStore(cfg *WeaviateConfig, embedder rag.Embedder) (*WeaviateStore, error) {
	if cfg.Class == "" {
		cfg.Class = "Document_index"
	}
	if cfg.Search == "" {
		cfg.Search = SearchNearText
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Vectorizer == "" {
		cfg.Vectorizer = defaultTextVectorizer
		if cfg.Search == SearchNearVector {
			cfg.Vectorizer = vectorizerNone
		}
	}
	if cfg.Search == SearchNearVector && embedder == nil {
		return nil, fmt.Errorf("weaviate: near_vector search requires an embedder")
	}

	wcfg := weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate: failed to create client: %w", err)
	}

	return &WeaviateStore{client: client, embedder: embedder, cfg: cfg}, nil
}

// Name returns "weaviate".
func (s *WeaviateStore) Name() string { return "weaviate" }

// VectorizesServerSide reports whether Weaviate computes vectors itself.
func (s *WeaviateStore) VectorizesServerSide() bool {
	return s.cfg.Search == SearchNearText
}

// EnsureSchema creates the document class if it does not already exist.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(s.cfg.Class).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: failed to check class existence: %w", err)
	}
	if !exists {
		if err := s.client.Schema().ClassCreator().WithClass(s.classDefinition()).Do(ctx); err != nil {
			return fmt.Errorf("weaviate: failed to create class %q: %w", s.cfg.Class, err)
		}
	}
	s.ready.Store(true)
	return nil
}

// classDefinition returns the class created by EnsureSchema. Metadata is a
// JSON string excluded from server-side vectorization.
func (s *WeaviateStore) classDefinition() *models.Class {
	meta := &models.Property{Name: propMetadata, DataType: []string{"text"}}
	if s.cfg.Vectorizer != vectorizerNone {
		meta.ModuleConfig = map[string]any{
			s.cfg.Vectorizer: map[string]any{"skip": true},
		}
	}
	return &models.Class{
		Class:      s.cfg.Class,
		Vectorizer: s.cfg.Vectorizer,
		Properties: []*models.Property{
			{Name: propContent, DataType: []string{"text"}},
			meta,
		},
	}
}

// Upsert writes items in batches of BatchSize. A batch is accepted as a
// whole; per-object failures reported by the server are joined into the
// returned error.
func (s *WeaviateStore) Upsert(ctx context.Context, items []rag.StoredItem) error {
	if !s.ready.Load() {
		return rag.ErrStoreNotReady
	}

	for start := 0; start < len(items); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(items))
		objs := make([]*models.Object, 0, end-start)
		for _, it := range items[start:end] {
			obj, err := s.object(it)
			if err != nil {
				return err
			}
			objs = append(objs, obj)
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			return fmt.Errorf("weaviate: batch upsert failed: %w", err)
		}
		if err := batchErrors(resp); err != nil {
			return fmt.Errorf("weaviate: batch upsert: %w", err)
		}
	}
	return nil
}

func (s *WeaviateStore) object(it rag.StoredItem) (*models.Object, error) {
	meta := it.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("weaviate: marshal metadata: %w", err)
	}

	obj := &models.Object{
		Class: s.cfg.Class,
		ID:    strfmt.UUID(it.ID),
		Properties: map[string]any{
			propContent:  it.Content,
			propMetadata: string(metaJSON),
		},
	}
	if !s.VectorizesServerSide() {
		if len(it.Embedding) == 0 {
			return nil, fmt.Errorf("weaviate: %w: %s", ErrMissingEmbedding, it.ID)
		}
		obj.Vector = it.Embedding
	}
	return obj, nil
}

// batchErrors collects the per-object errors of a batch response.
func batchErrors(resp []models.ObjectsGetResponse) error {
	var errs []error
	for _, r := range resp {
		if r.Result == nil || r.Result.Errors == nil {
			continue
		}
		for _, e := range r.Result.Errors.Error {
			errs = append(errs, fmt.Errorf("object %s: %s", r.ID, e.Message))
		}
	}
	return errors.Join(errs...)
}

// SimilaritySearch runs a GraphQL Get query with nearText or nearVector and
// returns up to k items ordered by distance.
func (s *WeaviateStore) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.StoredItem, error) {
	if !s.ready.Load() {
		return nil, rag.ErrStoreNotReady
	}
	if k <= 0 {
		k = rag.DefaultTopK
	}

	gql := s.client.GraphQL()
	get := gql.Get().
		WithClassName(s.cfg.Class).
		WithFields(
			graphql.Field{Name: propContent},
			graphql.Field{Name: propMetadata},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
		).
		WithLimit(k)

	if s.VectorizesServerSide() {
		get = get.WithNearText(gql.NearTextArgBuilder().WithConcepts([]string{query}))
	} else {
		qvec, err := rag.EmbedText(ctx, s.embedder, query)
		if err != nil {
			return nil, fmt.Errorf("weaviate: embed query: %w", err)
		}
		get = get.WithNearVector(gql.NearVectorArgBuilder().WithVector(qvec))
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: search failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("weaviate: search failed: %s", strings.Join(msgs, "; "))
	}

	return parseGetResponse(resp.Data, s.cfg.Class)
}

// parseGetResponse extracts items from data["Get"][class].
func parseGetResponse(data map[string]models.JSONObject, class string) ([]rag.StoredItem, error) {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weaviate: unexpected response: missing Get")
	}
	rows, ok := get[class].([]any)
	if !ok {
		return nil, nil
	}

	items := make([]rag.StoredItem, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		it := rag.StoredItem{Metadata: map[string]string{}}
		it.Content, _ = obj[propContent].(string)
		if raw, _ := obj[propMetadata].(string); raw != "" {
			if err := json.Unmarshal([]byte(raw), &it.Metadata); err != nil {
				return nil, fmt.Errorf("weaviate: decode metadata: %w", err)
			}
		}
		if add, ok := obj["_additional"].(map[string]any); ok {
			it.ID, _ = add["id"].(string)
			if d, ok := add["distance"].(float64); ok {
				it.Score = float32(1 - d)
			}
		}
		items = append(items, it)
	}
	return items, nil
}

// Ping calls the Weaviate liveness endpoint.
func (s *WeaviateStore) Ping(ctx context.Context) error {
	live, err := s.client.Misc().LiveChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: live check: %w", err)
	}
	if !live {
		return fmt.Errorf("weaviate: server reports not live")
	}
	return nil
}

// Close is a no-op; the Weaviate client holds no persistent connection.
func (s *WeaviateStore) Close() error { return nil }
