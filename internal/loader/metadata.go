package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileMetadata holds what can be learned about a file before parsing it.
type FileMetadata struct {
	// FileName is the base name of the file.
	FileName string
	// Format is the lower-cased extension without the leading dot.
	Format string
	// MIMEType is the type sniffed from the file's leading bytes.
	MIMEType string
}

// contentSignatures lists, per extension, the sniffed MIME types accepted for
// that extension. Extensions not listed are accepted regardless of content
// because their sniffers are unreliable (CSV and JSON are often plain text).
var contentSignatures = map[string][]string{
	".pdf":  {"application/pdf"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
}

// InferMetadata inspects the file at path and returns best-effort metadata.
func InferMetadata(path string) (FileMetadata, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return FileMetadata{}, ioErr(path, err)
	}
	return FileMetadata{
		FileName: filepath.Base(path),
		Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		MIMEType: mtype.String(),
	}, nil
}

// checkContent rejects files whose bytes contradict their extension, so a
// renamed text file fails fast with ErrParse instead of inside a parser.
func (m FileMetadata) checkContent(ext string) error {
	accepted, ok := contentSignatures[ext]
	if !ok {
		return nil
	}
	for _, want := range accepted {
		if mimeIs(m.MIMEType, want) {
			return nil
		}
	}
	return fmt.Errorf("loader: %w: %s: content is %s, not %s", ErrParse, m.FileName, m.MIMEType, accepted[0])
}

// mimeIs compares a sniffed type (which may carry parameters such as
// "; charset=utf-8") against a bare MIME type.
func mimeIs(sniffed, want string) bool {
	base, _, _ := strings.Cut(sniffed, ";")
	return strings.EqualFold(strings.TrimSpace(base), want)
}
