// Package feedback writes answers back into the vector store and verifies
// they can be found again.
package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/rag"
)

// Result reports a write-back and its verification search.
type Result struct {
	// Stored is the item written to the store.
	Stored rag.StoredItem
	// Retrieved holds the items returned by the verification search.
	Retrieved []rag.StoredItem
	// Verified is true when a retrieved item is an LLM response or carries
	// the stored answer's text.
	Verified bool
}

// Writer stores answers in a vector store.
type Writer struct {
	store    rag.VectorStore
	embedder rag.Embedder
	topK     int
}

// New returns a Writer. embedder may be nil when the store vectorizes
// server-side. topK <= 0 means rag.DefaultTopK.
func New(store rag.VectorStore, embedder rag.Embedder, topK int) (*Writer, error) {
	if store == nil {
		return nil, fmt.Errorf("feedback: store must not be nil")
	}
	if embedder == nil && rag.NeedsEmbeddings(store) {
		return nil, fmt.Errorf("feedback: store %s needs an embedder", store.Name())
	}
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Writer{store: store, embedder: embedder, topK: topK}, nil
}

// Write stores ans with metadata {source: llm_response, question: ...} and
// runs a similarity search for "llm_response" to confirm it landed.
func (w *Writer) Write(ctx context.Context, ans rag.Answer) (Result, error) {
	meta := map[string]string{rag.MetaSource: rag.SourceLLMResponse}
	if ans.Question != "" {
		meta[rag.MetaQuestion] = ans.Question
	}

	var vec []float32
	if rag.NeedsEmbeddings(w.store) {
		var err error
		vec, err = rag.EmbedText(ctx, w.embedder, ans.Text)
		if err != nil {
			return Result{}, fmt.Errorf("feedback: embed answer: %w", err)
		}
	}

	item := rag.NewItem(ans.Text, meta, vec)
	if err := w.store.Upsert(ctx, []rag.StoredItem{item}); err != nil {
		return Result{}, fmt.Errorf("feedback: store answer: %w", err)
	}

	retrieved, err := w.store.SimilaritySearch(ctx, rag.SourceLLMResponse, w.topK)
	if err != nil {
		return Result{Stored: item}, fmt.Errorf("feedback: verify: %w", err)
	}

	res := Result{Stored: item, Retrieved: retrieved, Verified: verified(retrieved, ans.Text)}
	logging.FromContext(ctx).Debug("feedback: answer stored",
		slog.String("id", item.ID),
		slog.String("store", w.store.Name()),
		slog.Int("retrieved", len(retrieved)),
		slog.Bool("verified", res.Verified),
	)
	return res, nil
}

func verified(items []rag.StoredItem, text string) bool {
	for _, it := range items {
		if it.Metadata[rag.MetaSource] == rag.SourceLLMResponse || it.Content == text {
			return true
		}
	}
	return false
}
