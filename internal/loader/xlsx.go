package loader

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/54b3r/docrag/internal/rag"
)

// loadXLSX emits one record per data row of every sheet, rendered like a CSV
// row. The first row of each sheet is its header. Metadata carries the sheet
// name and the 0-based data row.
func (l *Loader) loadXLSX(path string) ([]rag.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, parseErr(path, err)
	}
	defer f.Close()

	var records []rag.Record
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, parseErr(path, fmt.Errorf("sheet %q: %w", sheet, err))
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		for i, row := range rows[1:] {
			records = append(records, rag.Record{
				Content: rowContent(header, row),
				Metadata: map[string]string{
					rag.MetaSheet: sheet,
					rag.MetaRow:   strconv.Itoa(i),
				},
			})
		}
	}
	return records, nil
}
