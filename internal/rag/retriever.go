package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// StoreRetriever adapts a VectorStore to the eino retriever.Retriever
// interface so it can be composed into eino chains.
type StoreRetriever struct {
	// store performs the similarity search.
	store VectorStore

	// defaultTopK is the number of results returned when no TopK option is passed.
	defaultTopK int
}

var _ retriever.Retriever = (*StoreRetriever)(nil)

// NewRetriever constructs a StoreRetriever over store.
// defaultTopK sets the fallback result count; zero means DefaultTopK.
func NewRetriever(store VectorStore, defaultTopK int) (*StoreRetriever, error) {
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &StoreRetriever{store: store, defaultTopK: defaultTopK}, nil
}

// Retrieve returns the most relevant documents for query. The result count
// honours retriever.WithTopK.
func (r *StoreRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.defaultTopK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}

	items, err := r.store.SimilaritySearch(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("rag: similarity search failed: %w", err)
	}

	docs := make([]*schema.Document, 0, len(items))
	for _, it := range items {
		docs = append(docs, ToDocument(it))
	}
	return docs, nil
}

// ToDocument converts a StoredItem into an eino document.
func ToDocument(it StoredItem) *schema.Document {
	meta := make(map[string]any, len(it.Metadata))
	for k, v := range it.Metadata {
		meta[k] = v
	}
	doc := &schema.Document{ID: it.ID, Content: it.Content, MetaData: meta}
	return doc.WithScore(float64(it.Score))
}

// FromDocument converts an eino document back into a StoredItem.
// Non-string metadata values are formatted; the score is carried over and
// eino's reserved underscore keys are dropped.
func FromDocument(doc *schema.Document) StoredItem {
	meta := make(map[string]string, len(doc.MetaData))
	for k, v := range doc.MetaData {
		if strings.HasPrefix(k, "_") {
			continue
		}
		switch tv := v.(type) {
		case string:
			meta[k] = tv
		case float64:
			meta[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		default:
			meta[k] = fmt.Sprint(tv)
		}
	}
	return StoredItem{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: meta,
		Score:    float32(doc.Score()),
	}
}
