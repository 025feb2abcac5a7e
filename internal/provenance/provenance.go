// Package provenance derives per-file authorship facts from git history.
//
// Records feed the field deriver: first commit author and time become
// created_by/created_at, last commit author and time become
// updated_by/updated_at. Files without history (untracked or never
// committed) report Tracked=false and the caller substitutes the current
// identity and run time.
package provenance

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Record carries the git-derived facts for one file.
type Record struct {
	FirstAuthor string
	FirstTime   time.Time
	LastAuthor  string
	LastTime    time.Time
	Tracked     bool
}

// Source yields per-file provenance and the current committer identity.
// The engine depends on this interface so tests can substitute fixed
// histories without a repository.
type Source interface {
	FileRecord(relPath string) (*Record, error)
	Identity() (string, error)
}

// GitSource reads provenance from a real repository via go-git.
type GitSource struct {
	repo *git.Repository
	root string
}

// Open locates the repository containing path (walking up to find .git, the
// way git itself does) and returns a source bound to it.
func Open(path string) (*GitSource, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository worktree: %w", err)
	}
	return &GitSource{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the repository worktree.
func (g *GitSource) Root() string { return g.root }

// FileRecord walks the commit log restricted to relPath (slash-separated,
// relative to the worktree root). A file with no commits yet comes back
// with Tracked=false rather than an error, since brand-new snippets are the
// common case on pre-commit runs.
func (g *GitSource) FileRecord(relPath string) (*Record, error) {
	name := filepath.ToSlash(relPath)
	iter, err := g.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		// No HEAD yet (fresh repository): everything is untracked.
		return &Record{}, nil
	}
	defer iter.Close()

	rec := &Record{}
	err = iter.ForEach(func(c *object.Commit) error {
		who := identityString(c.Author)
		when := c.Author.When
		if !rec.Tracked {
			// Log walks newest first, so the first commit seen is the latest.
			rec.Tracked = true
			rec.LastAuthor = who
			rec.LastTime = when
		}
		rec.FirstAuthor = who
		rec.FirstTime = when
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history of %s: %w", name, err)
	}
	return rec, nil
}

// Identity returns the committer identity git would use right now, merged
// across local, global, and system config.
func (g *GitSource) Identity() (string, error) {
	cfg, err := g.repo.ConfigScoped(gitconfig.SystemScope)
	if err != nil {
		return "", fmt.Errorf("read git config: %w", err)
	}
	id := formatIdentity(cfg.User.Name, cfg.User.Email)
	if id == "" {
		return "", fmt.Errorf("git user identity not configured (set user.name and user.email)")
	}
	return id, nil
}

func identityString(sig object.Signature) string {
	return formatIdentity(sig.Name, sig.Email)
}

// formatIdentity renders "Name <email>" with either part optional.
func formatIdentity(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	case email != "":
		return "<" + email + ">"
	default:
		return ""
	}
}
