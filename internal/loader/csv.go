package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/docrag/internal/rag"
)

// loadCSV reads a CSV file with a header row and emits one record per data
// row. Each record's content is one "header: value" line per column. Row
// numbers in metadata are 0-based and exclude the header.
func (l *Loader) loadCSV(path string) ([]rag.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioErr(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, parseErr(path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []rag.Record
	for row := 0; ; row++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErr(path, err)
		}
		records = append(records, rag.Record{
			Content:  rowContent(header, fields),
			Metadata: map[string]string{rag.MetaRow: strconv.Itoa(row)},
		})
	}
	return records, nil
}

// rowContent renders a row as "header: value" lines. Missing trailing values
// render empty; extra values beyond the header are keyed by column index.
func rowContent(header, fields []string) string {
	n := max(len(header), len(fields))
	lines := make([]string, 0, n)
	for i := range n {
		key := strconv.Itoa(i)
		if i < len(header) && header[i] != "" {
			key = header[i]
		}
		val := ""
		if i < len(fields) {
			val = strings.TrimSpace(fields[i])
		}
		lines = append(lines, key+": "+val)
	}
	return strings.Join(lines, "\n")
}
