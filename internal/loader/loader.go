// Package loader turns files on disk into rag.Records. The parser is chosen
// by file extension: PDF (one record per page), CSV (one record per row),
// JSON (one record per element of the selected value), and XLSX (one record
// per row per sheet). Any other extension fails with *UnsupportedFormatError.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/rag"
)

// Sentinel errors. Use errors.Is to classify a Load failure.
var (
	// ErrUnsupportedFormat matches *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrIO is wrapped when the file is missing or unreadable.
	ErrIO = errors.New("io error")
	// ErrParse is wrapped when the file content is malformed or empty.
	ErrParse = errors.New("parse error")
)

// UnsupportedFormatError is returned for files whose extension has no parser.
type UnsupportedFormatError struct {
	// Ext is the lower-cased extension without the leading dot.
	Ext  string
	// Name is the base name of the rejected file.
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("loader: %s: %s has no extension", ErrUnsupportedFormat, e.Name)
	}
	return fmt.Sprintf("loader: %s: %s", ErrUnsupportedFormat, e.Ext)
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Options configures a Loader.
type Options struct {
	// JSONPath is a gjson path selecting the content of JSON documents.
	// Empty selects the document root.
	JSONPath string
}

// Loader parses documents into records. It is safe for concurrent use.
type Loader struct {
	// jsonPath is the gjson path applied to JSON documents.
	jsonPath string
}

// New constructs a Loader.
func New(opts Options) *Loader {
	return &Loader{jsonPath: opts.JSONPath}
}

// parseFunc extracts records from a file that is known to exist.
type parseFunc func(l *Loader, path string) ([]rag.Record, error)

// parsers maps lower-cased extensions to their parse functions.
var parsers = map[string]parseFunc{
	".pdf":  (*Loader).loadPDF,
	".csv":  (*Loader).loadCSV,
	".json": (*Loader).loadJSON,
	".xlsx": (*Loader).loadXLSX,
}

// Supported reports whether path has an extension Load can parse.
func Supported(path string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load parses the file at path into a non-empty ordered slice of records.
// Every record carries the source path, file name, and sniffed MIME type in
// its metadata.
func (l *Loader) Load(ctx context.Context, path string) ([]rag.Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[ext]
	if !ok {
		return nil, &UnsupportedFormatError{Ext: strings.TrimPrefix(ext, "."), Name: filepath.Base(path)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %w", ErrIO, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("loader: %w: %s is a directory", ErrIO, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fm, err := InferMetadata(path)
	if err != nil {
		return nil, err
	}
	if err := fm.checkContent(ext); err != nil {
		return nil, err
	}

	records, err := parse(l, path)
	if err != nil {
		return nil, err
	}

	out := records[:0]
	for _, r := range records {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string]string)
		}
		r.Metadata[rag.MetaSource] = path
		r.Metadata[rag.MetaFileName] = fm.FileName
		r.Metadata[rag.MetaMIMEType] = fm.MIMEType
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("loader: %w: %s: no content", ErrParse, path)
	}

	logging.FromContext(ctx).Debug("loader: parsed document",
		slog.String("path", path),
		slog.String("mime_type", fm.MIMEType),
		slog.Int("records", len(out)),
	)
	return out, nil
}

// parseErr wraps a parser failure with ErrParse.
func parseErr(path string, err error) error {
	return fmt.Errorf("loader: %w: %s: %w", ErrParse, path, err)
}

// ioErr wraps a read failure with ErrIO.
func ioErr(path string, err error) error {
	return fmt.Errorf("loader: %w: %s: %w", ErrIO, path, err)
}
