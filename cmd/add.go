/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/snipmark/internal/derive"
	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/internal/provenance"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/fulmenhq/snipmark/pkg/document"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/spf13/cobra"
)

var addTitle string

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Create a new snippet with derived front matter",
	Long: `Add creates a snippet file with a fresh ULID and derived front matter.
The body comes from the argument, a stdin pipe, or $EDITOR, in that order.
The file is named according to the project's filename_policy.

Examples:
  snipmark add "Remember to rotate the staging certs"
  pbpaste | snipmark add
  snipmark add --title "Release Checklist"   # opens $EDITOR for the body`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupSnippets, ops.CategoryAuthoring)
	if err := ops.RegisterCommandWithTaxonomy("add", ops.GroupSnippets, ops.CategoryAuthoring, caps, addCmd, "Create a new snippet with derived front matter"); err != nil {
		panic(fmt.Sprintf("Failed to register add command: %v", err))
	}

	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Title for the new snippet")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return setupExit(err)
	}
	fields, err := derive.ParseFields(cfg.Project.AutoUpdateProperties)
	if err != nil {
		return setupExit(err)
	}

	body, err := snippetBody(args)
	if err != nil {
		return err
	}
	body = strings.TrimRight(body, "\n") + "\n"
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("refusing to create an empty snippet")
	}

	deriver := derive.New(time.Now().UTC(), gitIdentity("."))
	id, err := deriver.NewID()
	if err != nil {
		return err
	}

	// Seed the document with its id so derivation sees the same shape the
	// fixer would.
	doc, err := document.Decode([]byte("---\nid: " + id + "\n---\n\n" + body))
	if err != nil {
		return fmt.Errorf("failed to assemble snippet: %w", err)
	}
	if addTitle != "" {
		if err := doc.FrontMatter.Set("title", addTitle); err != nil {
			return err
		}
	}
	proposals := deriver.Proposals(doc, &provenance.Record{}, fields)
	for _, f := range fields {
		if v, ok := proposals[f]; ok {
			if err := doc.FrontMatter.Set(string(f), v); err != nil {
				return err
			}
		}
	}

	name := snippetFilename(cfg, doc, id)
	if len(cfg.Project.SnippetDirs) == 0 {
		return fmt.Errorf("no snippet directories configured")
	}
	path := filepath.Join(cfg.Project.SnippetDirs[0], name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snippet directory: %w", err)
	}

	out, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil { // #nosec G306 -- snippets are shared content, not secrets
		return fmt.Errorf("failed to write snippet: %w", err)
	}

	fmt.Printf("✅ Created %s\n", path)
	return nil
}

// snippetFilename picks the file stem the project's filename_policy expects,
// falling back to the id when no slug was derived.
func snippetFilename(cfg *config.Config, doc *document.Document, id string) string {
	slugVal, _ := doc.FrontMatter.GetString("slug")
	switch cfg.Project.FilenamePolicy {
	case config.FilenameSlug:
		if slugVal != "" {
			return slugVal + ".md"
		}
		logger.Warn("no slug derived, naming file by id despite filename_policy")
		return id + ".md"
	case config.FilenameNone:
		if slugVal != "" {
			return slugVal + ".md"
		}
		return id + ".md"
	default:
		return id + ".md"
	}
}

// snippetBody resolves the body from the argument, a stdin pipe, or $EDITOR.
func snippetBody(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	return bodyFromEditor()
}

// bodyFromEditor opens $EDITOR on a temp file and returns what was written.
func bodyFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmp, err := os.CreateTemp("", "snipmark-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			logger.Debug("failed to remove temp file", logger.Err(err))
		}
	}()

	ecmd := exec.Command(editor, tmpPath) // #nosec G204 -- operator's own $EDITOR
	ecmd.Stdin = os.Stdin
	ecmd.Stdout = os.Stdout
	ecmd.Stderr = os.Stderr
	if err := ecmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(tmpPath) // #nosec G304 -- path comes from os.CreateTemp
	if err != nil {
		return "", fmt.Errorf("failed to read editor output: %w", err)
	}
	return string(data), nil
}

// gitIdentity reports the configured committer identity, or a placeholder
// when the directory is not a repository or has no identity configured.
func gitIdentity(root string) string {
	src, err := provenance.Open(root)
	if err != nil {
		logger.Warn("not a git repository, using placeholder author", logger.Err(err))
		return "unknown"
	}
	identity, err := src.Identity()
	if err != nil {
		logger.Warn("git identity unavailable, using placeholder author", logger.Err(err))
		return "unknown"
	}
	return identity
}
