package loader

import (
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"

	"github.com/54b3r/docrag/internal/rag"
)

// loadPDF extracts the plain text of every page as one record. Page numbers
// in metadata are 0-based. Pages without extractable text are skipped.
func (l *Loader) loadPDF(path string) (records []rag.Record, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = parseErr(path, fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, parseErr(path, err)
	}
	defer f.Close()

	n := r.NumPage()
	records = make([]rag.Record, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, parseErr(path, fmt.Errorf("page %d: %w", i, err))
		}
		records = append(records, rag.Record{
			Content:  text,
			Metadata: map[string]string{rag.MetaPage: strconv.Itoa(i - 1)},
		})
	}
	return records, nil
}
