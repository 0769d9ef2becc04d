package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Walk returns the supported files under dir in lexical order. When pattern
// is non-empty only files whose slash-separated path relative to dir matches
// the glob are returned; "**" crosses directory boundaries. Hidden files and
// directories are skipped.
func Walk(ctx context.Context, dir, pattern string) ([]string, error) {
	var g glob.Glob
	if pattern != "" {
		var err error
		g, err = glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("loader: invalid match pattern %q: %w", pattern, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		if g != nil {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			if !g.Match(filepath.ToSlash(rel)) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: %w: walk %s: %w", ErrIO, dir, err)
	}
	slices.Sort(files)
	return files, nil
}
