package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// errOutsideRoot is returned for ingest paths that escape the ingest root.
var errOutsideRoot = errors.New("path is outside the ingest root")

// resolveRoot returns the absolute, symlink-resolved ingest root. An empty
// root means the working directory.
func resolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("server: resolve ingest root: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("server: resolve ingest root %q: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("server: ingest root %q: %w", root, err)
	}
	return resolved, nil
}

// confineToDir resolves target against root and returns it only if it stays
// inside root. Relative targets are joined onto root. An existing target is
// resolved through symlinks first, so a link inside root pointing elsewhere
// is rejected too.
func confineToDir(root, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}
	if !within(root, target) {
		return "", errOutsideRoot
	}
	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
