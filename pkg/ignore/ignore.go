// Package ignore filters the files a snippet walk should skip, layering
// gitignore semantics with snipmark-specific overrides.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher answers ignore queries for paths under one project root.
//
// Patterns layer in priority order:
//
//	built-ins (.git, node_modules)
//	.gitignore files and .git/info/exclude, via go-git
//	.snipmarkignore at the project root
//	~/.snipmark/.snipmarkignore
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher builds a matcher for the given project root.
func NewMatcher(projectRoot string) (*Matcher, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	patterns := []gitignore.Pattern{
		gitignore.ParsePattern(".git/**", nil),
		gitignore.ParsePattern("node_modules/**", nil),
	}

	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
		patterns = append(patterns, gitPatterns...)
	}
	patterns = append(patterns, filePatterns(filepath.Join(root, ".snipmarkignore"))...)
	if home, err := os.UserHomeDir(); err == nil {
		patterns = append(patterns, filePatterns(filepath.Join(home, ".snipmark", ".snipmarkignore"))...)
	}

	return &Matcher{root: root, matcher: gitignore.NewMatcher(patterns)}, nil
}

// filePatterns parses one .snipmarkignore file. Any other file name is
// refused so nothing can point the reader at arbitrary files.
func filePatterns(path string) []gitignore.Pattern {
	cleaned := filepath.Clean(path)
	if filepath.Base(cleaned) != ".snipmarkignore" {
		return nil
	}
	content, err := os.ReadFile(cleaned) // #nosec G304 -- base name pinned above
	if err != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// IsIgnored reports whether a file should be skipped. The path may be
// absolute or relative to the project root.
func (m *Matcher) IsIgnored(path string) bool { return m.match(path, false) }

// IsIgnoredDir is IsIgnored for directories, letting walks prune whole
// subtrees early.
func (m *Matcher) IsIgnoredDir(path string) bool { return m.match(path, true) }

func (m *Matcher) match(path string, isDir bool) bool {
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(m.root, path); err == nil {
			path = r
		}
	}
	parts := components(filepath.ToSlash(path))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// components splits a slash path into the segments go-git matches on.
func components(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
