// Package scan discovers snippet files in a repository: the full walk used
// by default runs, and a changed-since mode for pre-commit hooks that only
// surfaces files differing from a given ref.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/fulmenhq/snipmark/pkg/ignore"
)

// mdPattern matches snippet files at any depth under a snippet directory.
const mdPattern = "**/*.md"

// Scanner walks the configured snippet directories of one repository.
// Scans are read-only and repeatable; results are sorted, slash-separated
// paths relative to the scanner root.
type Scanner struct {
	root    string
	dirs    []string
	matcher *ignore.Matcher
}

// New builds a scanner rooted at the repository root for the given snippet
// directories (repo-relative).
func New(root string, dirs []string) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	matcher, err := ignore.NewMatcher(abs)
	if err != nil {
		return nil, fmt.Errorf("build ignore matcher: %w", err)
	}
	return &Scanner{root: abs, dirs: dirs, matcher: matcher}, nil
}

// All walks every snippet directory and returns the matching files. A
// configured directory missing from disk yields no files rather than an
// error, so fresh repositories validate cleanly.
func (s *Scanner) All() ([]string, error) {
	var out []string
	for _, dir := range s.dirs {
		base := filepath.Join(s.root, dir)
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == base {
					return filepath.SkipAll
				}
				return err
			}
			rel, relErr := filepath.Rel(s.root, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != base && s.matcher.IsIgnoredDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.keep(rel) {
				out = append(out, rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ChangedSince returns the snippet files that differ from ref: the tree diff
// between the ref's commit and HEAD, plus staged, modified, and untracked
// files from the working tree. Deleted files are excluded since there is
// nothing left to validate.
func (s *Scanner) ChangedSince(ref string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(s.root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository worktree: %w", err)
	}
	// Scan root may sit below the worktree root; git paths need re-anchoring.
	prefix, err := filepath.Rel(wt.Filesystem.Root(), s.root)
	if err != nil {
		return nil, fmt.Errorf("relate scan root to worktree: %w", err)
	}
	prefix = filepath.ToSlash(prefix)

	changed := make(map[string]bool)

	refHash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", ref, err)
	}
	refCommit, err := repo.CommitObject(*refHash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", refHash, err)
	}
	refTree, err := refCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree for %s: %w", refHash, err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("load HEAD commit: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load HEAD tree: %w", err)
	}

	diffs, err := refTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..HEAD: %w", ref, err)
	}
	for _, change := range diffs {
		// To.Name is empty for deletions; those have nothing to validate.
		if name := change.To.Name; name != "" {
			changed[name] = true
		}
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	for path, st := range status {
		if st.Staging != git.Unmodified || st.Worktree != git.Unmodified {
			changed[filepath.ToSlash(path)] = true
		}
	}

	var out []string
	for path := range changed {
		rel, ok := s.reanchor(path, prefix)
		if !ok || !s.keep(rel) {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil {
			continue
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out, nil
}

// reanchor converts a worktree-relative git path to a scan-root-relative one.
func (s *Scanner) reanchor(path, prefix string) (string, bool) {
	if prefix == "." || prefix == "" {
		return path, true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return strings.TrimPrefix(path, prefix+"/"), true
	}
	return "", false
}

// keep applies the snippet-dir, pattern, and ignore filters to a root-relative
// slash path.
func (s *Scanner) keep(rel string) bool {
	if !s.underSnippetDirs(rel) {
		return false
	}
	if ok, err := doublestar.Match(mdPattern, rel); err != nil || !ok {
		return false
	}
	return !s.matcher.IsIgnored(rel)
}

func (s *Scanner) underSnippetDirs(rel string) bool {
	for _, dir := range s.dirs {
		d := filepath.ToSlash(filepath.Clean(dir))
		if d == "." {
			return true
		}
		if strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}
