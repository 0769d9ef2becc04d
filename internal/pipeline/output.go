package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/54b3r/docrag/internal/rag"
)

// WriteItems prints each item as a Metadata/Content block followed by a
// blank line.
func WriteItems(w io.Writer, items []rag.StoredItem) {
	for _, it := range items {
		fmt.Fprintf(w, "Metadata: %s\nContent: %s\n\n", formatMetadata(it.Metadata), it.Content)
	}
}

// formatMetadata renders metadata as {key: value, ...} with sorted keys.
func formatMetadata(meta map[string]string) string {
	keys := slices.Sorted(maps.Keys(meta))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + meta[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// preview returns the first n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
