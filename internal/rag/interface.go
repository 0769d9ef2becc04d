// Package rag defines the data model and interfaces shared by the ingestion
// and query pipeline: document records, chunks, stored items, answers, the
// embedding contract, and the vector store contract.
// Concrete implementations (SQLite, Weaviate, Qdrant, OpenAI, Ollama) satisfy
// these interfaces so the pipeline never depends on a specific backend.
package rag

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Metadata keys written by the loader, splitter, and feedback writer.
const (
	MetaSource     = "source"
	MetaFileName   = "file_name"
	MetaMIMEType   = "mime_type"
	MetaPage       = "page"
	MetaRow        = "row"
	MetaSheet      = "sheet"
	MetaSeqNum     = "seq_num"
	MetaChunkIndex = "chunk_index"
	MetaStartIndex = "start_index"
	MetaQuestion   = "question"
)

// SourceLLMResponse is the source value attached to answers written back
// into the store.
const SourceLLMResponse = "llm_response"

// DefaultTopK is the number of items returned by a similarity search when the
// caller does not ask for a specific count.
const DefaultTopK = 4

// ErrStoreNotReady is returned by Upsert and SimilaritySearch when called
// before EnsureSchema has succeeded.
var ErrStoreNotReady = errors.New("rag: store not ready: EnsureSchema has not completed")

// Record is one logical unit of source text produced by a loader: a PDF page,
// a CSV row, or a JSON element. Records are not modified after loading.
type Record struct {
	// Content is the extracted text.
	Content string

	// Metadata holds at least MetaSource plus format-specific keys.
	Metadata map[string]string
}

// Chunk is a bounded slice of a Record's text. Its metadata is a copy of the
// parent record's metadata plus MetaChunkIndex and MetaStartIndex.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// StoredItem is a unit persisted in a vector store.
type StoredItem struct {
	// ID is assigned at write time and is unique per write.
	ID string

	// Content is the raw text.
	Content string

	// Embedding is the dense vector for Content. It may be nil for stores
	// that vectorize server-side.
	Embedding []float32

	// Metadata holds arbitrary key-value pairs copied from the chunk.
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval.
	// Zero means the score was not computed.
	Score float32
}

// Answer is the typed result of answering a question.
type Answer struct {
	// Question is the question that was asked.
	Question string

	// Text is the model's answer.
	Text string

	// Mode is the answering strategy that produced Text.
	Mode string

	// Sources are the items used as context. Empty for direct answers.
	Sources []StoredItem
}

// NewItem builds a StoredItem with a fresh ID and a private copy of metadata.
func NewItem(content string, metadata map[string]string, embedding []float32) StoredItem {
	return StoredItem{
		ID:        uuid.NewString(),
		Content:   content,
		Embedding: embedding,
		Metadata:  maps.Clone(metadata),
	}
}

// VectorStore is the capability set every storage backend provides.
// A store starts uninitialized; EnsureSchema moves it to ready, after which
// Upsert and SimilaritySearch may be called. Implementations must be safe to
// call from multiple goroutines.
type VectorStore interface {
	// Name returns a short backend label (e.g. "local", "weaviate").
	Name() string

	// EnsureSchema creates the backing collection if absent. Idempotent.
	EnsureSchema(ctx context.Context) error

	// Upsert appends a batch of items. Items carry their own IDs; writing the
	// same content twice yields two items.
	Upsert(ctx context.Context, items []StoredItem) error

	// SimilaritySearch returns up to k items most similar to query.
	// k <= 0 means DefaultTopK.
	SimilaritySearch(ctx context.Context, query string, k int) ([]StoredItem, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// ServerVectorizer is implemented by stores that compute embeddings
// themselves. Callers skip client-side embedding when VectorizesServerSide
// reports true.
type ServerVectorizer interface {
	VectorizesServerSide() bool
}

// NeedsEmbeddings reports whether items written to s must carry embeddings.
func NeedsEmbeddings(s VectorStore) bool {
	if sv, ok := s.(ServerVectorizer); ok {
		return !sv.VectorizesServerSide()
	}
	return true
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedText embeds a single text.
func EmbedText(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("rag: embedder returned %d vectors for 1 text", len(vecs))
	}
	return vecs[0], nil
}
