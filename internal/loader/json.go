package loader

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/54b3r/docrag/internal/rag"
)

// loadJSON selects a value with the configured gjson path (the root when
// empty) and emits records from it:
//
//   - an array yields one record per element
//   - a string yields its text
//   - any other value yields its raw JSON
//
// seq_num in metadata is 1-based.
func (l *Loader) loadJSON(path string) ([]rag.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioErr(path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, parseErr(path, errors.New("invalid json"))
	}

	var res gjson.Result
	if l.jsonPath == "" {
		res = gjson.ParseBytes(data)
	} else {
		res = gjson.GetBytes(data, l.jsonPath)
		if !res.Exists() {
			return nil, parseErr(path, fmt.Errorf("path %q matched nothing", l.jsonPath))
		}
	}

	values := []gjson.Result{res}
	if res.IsArray() {
		values = res.Array()
	}

	records := make([]rag.Record, 0, len(values))
	for i, v := range values {
		records = append(records, rag.Record{
			Content:  jsonText(v),
			Metadata: map[string]string{rag.MetaSeqNum: strconv.Itoa(i + 1)},
		})
	}
	return records, nil
}

// jsonText returns the text of a string value or the raw JSON of anything else.
func jsonText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
