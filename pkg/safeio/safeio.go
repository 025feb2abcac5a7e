// Package safeio guards file access on user-supplied paths. Snippet and
// schema locations come from config files and command arguments, so they are
// cleaned before any read or write.
package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal rejects paths that climb out of the project tree.
var ErrTraversal = errors.New("path traversal detected")

// CleanUserPath normalizes a user-supplied path and rejects traversal
// attempts. The result uses forward slashes on every platform.
func CleanUserPath(p string) (string, error) {
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") {
		return "", ErrTraversal
	}
	return filepath.ToSlash(clean), nil
}

// WriteFilePreservePerms rewrites path keeping its current file mode, so a
// fixed snippet keeps whatever permissions its author gave it. New files get
// 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		if m := st.Mode() & 0o777; m != 0 {
			mode = m
		}
	}
	return os.WriteFile(path, data, mode)
}
