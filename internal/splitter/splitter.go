// Package splitter cuts loaded records into bounded, overlapping chunks for
// embedding. Lengths and offsets are counted in runes.
package splitter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"unicode"

	"github.com/54b3r/docrag/internal/rag"
)

// Defaults used when the configuration leaves chunking unset.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in order; the first one found inside the window wins.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune(" "),
}

// Splitter is a greedy recursive character splitter. It is immutable and
// safe for concurrent use.
type Splitter struct {
	maxLen  int
	overlap int
}

// New returns a Splitter producing chunks of at most maxLen runes where
// consecutive chunks of the same record share exactly overlap runes. A
// whitespace run that fills a whole window is dropped; the chunk after it
// starts at the next non-space rune and shares nothing with its predecessor.
func New(maxLen, overlap int) (*Splitter, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("splitter: chunk size must be positive, got %d", maxLen)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("splitter: chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxLen {
		return nil, errors.New("splitter: chunk overlap must be smaller than chunk size")
	}
	return &Splitter{maxLen: maxLen, overlap: overlap}, nil
}

// Split chunks every record in order. Each chunk's metadata is a copy of its
// record's metadata plus rag.MetaChunkIndex (position within the record) and
// rag.MetaStartIndex (rune offset within the record's content).
func (s *Splitter) Split(records []rag.Record) []rag.Chunk {
	var chunks []rag.Chunk
	for _, r := range records {
		for i, sp := range s.spans([]rune(r.Content)) {
			meta := maps.Clone(r.Metadata)
			if meta == nil {
				meta = make(map[string]string, 2)
			}
			meta[rag.MetaChunkIndex] = strconv.Itoa(i)
			meta[rag.MetaStartIndex] = strconv.Itoa(sp.start)
			chunks = append(chunks, rag.Chunk{Content: sp.text, Metadata: meta})
		}
	}
	return chunks
}

// SplitText chunks a bare string.
func (s *Splitter) SplitText(text string) []string {
	var out []string
	for _, sp := range s.spans([]rune(text)) {
		out = append(out, sp.text)
	}
	return out
}

type span struct {
	start int
	text  string
}

// spans windows runes from left to right. No returned span is blank.
func (s *Splitter) spans(runes []rune) []span {
	var out []span
	start := 0
	for start < len(runes) {
		hi := min(start+s.maxLen, len(runes))
		if blank(runes[start:hi]) {
			start = nextContent(runes, hi)
			continue
		}
		if hi == len(runes) {
			return append(out, span{start: start, text: string(runes[start:])})
		}
		end := s.cut(runes, start)
		out = append(out, span{start: start, text: string(runes[start:end])})
		start = end - s.overlap
	}
	return out
}

func blank(runes []rune) bool {
	return nextContent(runes, 0) == len(runes)
}

// nextContent returns the index of the first non-space rune at or after from,
// or len(runes).
func nextContent(runes []rune, from int) int {
	for from < len(runes) && unicode.IsSpace(runes[from]) {
		from++
	}
	return from
}

// cut returns the end of the window beginning at start. The end includes the
// separator it breaks on and lies in [lo, start+maxLen], where lo keeps at
// least half a window of content and always moves past the overlap.
func (s *Splitter) cut(runes []rune, start int) int {
	hi := start + s.maxLen
	lo := max(start+s.maxLen/2, start+s.overlap+1)
	window := runes[start:hi]
	for _, sep := range separators {
		for end := hi; end >= lo; end-- {
			i := end - start - len(sep)
			if i < 0 {
				break
			}
			if slices.Equal(window[i:i+len(sep)], sep) {
				return end
			}
		}
	}
	return hi
}
