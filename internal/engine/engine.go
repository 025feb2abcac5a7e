/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package engine runs the snippet pipeline: scan the working set, decode
// each document, derive and merge auto-maintained fields, validate against
// the compiled schema, and report per-file findings. The pipeline is
// sequential; one broken file never stops the rest.
package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/snipmark/internal/derive"
	"github.com/fulmenhq/snipmark/internal/provenance"
	"github.com/fulmenhq/snipmark/internal/scan"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/fulmenhq/snipmark/pkg/document"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/fulmenhq/snipmark/pkg/safeio"
	"github.com/fulmenhq/snipmark/pkg/schema"
)

// Options selects the working set and write behavior of a run.
type Options struct {
	// Ref switches the scanner to changed-since mode when non-empty.
	Ref string
	// DryRun reports the fields a fix would change without writing.
	DryRun bool
}

// Engine ties the scanner, deriver, and compiled schema together for one
// project. The compiled schema is built once and shared by every document.
type Engine struct {
	root     string
	cfg      *config.Config
	compiled *schema.CompiledSchema
	scanner  *scan.Scanner
	fields   []derive.Field

	// prov and identity are resolved lazily on the first fix run; tests
	// preset them to pin history and authorship.
	prov     provenance.Source
	identity string
	now      time.Time
}

// New builds an engine for the project rooted at root. The schema compiles
// exactly once here; a contract violation surfaces before any document is
// touched.
func New(root string, cfg *config.Config) (*Engine, error) {
	compiled, err := schema.CompileFile(cfg.SchemaFile(root))
	if err != nil {
		return nil, err
	}
	scanner, err := scan.New(root, cfg.Project.SnippetDirs)
	if err != nil {
		return nil, err
	}
	fields, err := derive.ParseFields(cfg.Project.AutoUpdateProperties)
	if err != nil {
		return nil, err
	}
	return &Engine{
		root:     root,
		cfg:      cfg,
		compiled: compiled,
		scanner:  scanner,
		fields:   fields,
		now:      time.Now().UTC(),
	}, nil
}

// Validate checks every file in the working set and reports findings
// without touching anything on disk.
func (e *Engine) Validate(opts Options) (*Report, error) {
	paths, err := e.collect(opts)
	if err != nil {
		return nil, err
	}
	report := newReport("validate", opts.Ref, e.now)
	ids := make(map[string][]string)
	for _, rel := range paths {
		report.Files = append(report.Files, *e.validateFile(rel, ids))
	}
	markDuplicateIDs(report.Files, ids)
	report.finalize()
	return report, nil
}

// Fix derives the auto-maintained fields for every file in the working set
// and rewrites the files whose bytes changed. Findings that remain after
// merging are residual: outside the auto-updatable set, or underivable.
func (e *Engine) Fix(opts Options) (*Report, error) {
	paths, err := e.collect(opts)
	if err != nil {
		return nil, err
	}
	src, err := e.provenanceSource()
	if err != nil {
		return nil, err
	}
	deriver := e.deriver(src)
	report := newReport("fix", opts.Ref, e.now)
	ids := make(map[string][]string)
	for _, rel := range paths {
		report.Files = append(report.Files, *e.fixFile(deriver, src, rel, ids, opts.DryRun))
	}
	markDuplicateIDs(report.Files, ids)
	report.finalize()
	return report, nil
}

func (e *Engine) collect(opts Options) ([]string, error) {
	if opts.Ref != "" {
		return e.scanner.ChangedSince(opts.Ref)
	}
	return e.scanner.All()
}

func (e *Engine) provenanceSource() (provenance.Source, error) {
	if e.prov != nil {
		return e.prov, nil
	}
	src, err := provenance.Open(e.root)
	if err != nil {
		return nil, fmt.Errorf("fix requires a git repository at %s: %w", e.root, err)
	}
	e.prov = src
	return src, nil
}

func (e *Engine) deriver(src provenance.Source) *derive.Deriver {
	identity := e.identity
	if identity == "" {
		var err error
		identity, err = src.Identity()
		if err != nil {
			logger.Warn("git identity unavailable, falling back to placeholder author", logger.Err(err))
			identity = "unknown"
		}
	}
	return derive.New(e.now, identity)
}

func (e *Engine) validateFile(rel string, ids map[string][]string) *FileReport {
	fr := &FileReport{Path: rel}
	raw, err := os.ReadFile(filepath.Join(e.root, rel)) // #nosec G304 -- rel comes from the scanner walk, not user input
	if err != nil {
		fr.Err = err.Error()
		return fr
	}
	doc, err := document.Decode(raw)
	if err != nil {
		fr.Findings = append(fr.Findings, Finding{Pointer: "/", Message: err.Error()})
		return fr
	}
	e.check(doc, fr, true)
	e.recordID(doc, rel, ids)
	return fr
}

func (e *Engine) fixFile(d *derive.Deriver, src provenance.Source, rel string, ids map[string][]string, dryRun bool) *FileReport {
	fr := &FileReport{Path: rel}
	abs := filepath.Join(e.root, rel)
	raw, err := os.ReadFile(abs) // #nosec G304 -- rel comes from the scanner walk, not user input
	if err != nil {
		fr.Err = err.Error()
		return fr
	}
	doc, err := document.Decode(raw)
	if err != nil {
		// Unparseable documents cannot be fixed; surface and move on.
		fr.Findings = append(fr.Findings, Finding{Pointer: "/", Message: err.Error()})
		return fr
	}

	rec, err := src.FileRecord(rel)
	if err != nil {
		// Downgraded per the error model: treat as a new file.
		logger.Debug("provenance lookup failed, treating file as untracked",
			logger.String("path", rel), logger.Err(err))
		rec = &provenance.Record{}
	}

	_, generated, err := d.EnsureID(doc.FrontMatter)
	if err != nil {
		fr.Err = err.Error()
		return fr
	}
	if generated {
		fr.Changed = append(fr.Changed, "id")
	}

	proposals := d.Proposals(doc, rec, e.fields)
	for _, field := range e.fields {
		want, ok := proposals[field]
		if !ok {
			continue
		}
		name := string(field)
		if cur, ok := doc.FrontMatter.GetString(name); ok && cur == want {
			continue
		}
		if err := doc.FrontMatter.Set(name, want); err != nil {
			fr.Err = err.Error()
			return fr
		}
		fr.Changed = append(fr.Changed, name)
	}

	e.check(doc, fr, false)
	e.recordID(doc, rel, ids)

	if len(fr.Changed) == 0 || dryRun {
		return fr
	}
	out, err := doc.Encode()
	if err != nil {
		fr.Err = err.Error()
		return fr
	}
	if bytes.Equal(out, raw) {
		return fr
	}
	if err := safeio.WriteFilePreservePerms(abs, out); err != nil {
		fr.Err = err.Error()
		return fr
	}
	fr.Written = true
	return fr
}

// check validates the document's front matter and appends schema and
// filename-policy findings. predict enables the auto-fixable estimate;
// residual findings after a fix never claim fixability.
func (e *Engine) check(doc *document.Document, fr *FileReport, predict bool) {
	fm, err := doc.FrontMatter.Map()
	if err != nil {
		fr.Findings = append(fr.Findings, Finding{Pointer: "/", Message: err.Error()})
		return
	}
	res, err := e.compiled.Validate(fm)
	if err != nil {
		fr.Err = err.Error()
		return
	}
	for _, v := range res.Errors {
		f := Finding{Pointer: v.Path, Message: v.Message}
		if predict {
			f.AutoFixable = e.fixable(doc, v.Path, v.Message)
		}
		fr.Findings = append(fr.Findings, f)
	}
	if pf := e.filenameFinding(fr.Path, doc); pf != nil {
		fr.Findings = append(fr.Findings, *pf)
	}
}

// fixable estimates whether a fix run would resolve the violation. An
// existing id is never rewritten, and an existing title always wins over
// the body heading, so violations on their current values stay manual.
func (e *Engine) fixable(doc *document.Document, pointer, message string) bool {
	if pointer == "/" {
		name, ok := strings.CutSuffix(message, " is required")
		if !ok {
			return false
		}
		switch name {
		case "id":
			return true
		case "title":
			return e.autoManaged(name) && document.FirstHeading(doc.Body) != ""
		default:
			return e.autoManaged(name)
		}
	}
	field := strings.TrimPrefix(pointer, "/")
	if strings.Contains(field, "/") {
		return false
	}
	if field == "id" || field == "title" {
		return false
	}
	return e.autoManaged(field)
}

func (e *Engine) autoManaged(name string) bool {
	for _, f := range e.fields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// filenameFinding enforces the filename_policy rule. The fixer never
// renames files, so these findings are always residual.
func (e *Engine) filenameFinding(rel string, doc *document.Document) *Finding {
	var key string
	switch e.cfg.Project.FilenamePolicy {
	case config.FilenameID:
		key = "id"
	case config.FilenameSlug:
		key = "slug"
	default:
		return nil
	}
	want, ok := doc.FrontMatter.GetString(key)
	if !ok || want == "" {
		return nil
	}
	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	if stem == want {
		return nil
	}
	return &Finding{
		Pointer: "/" + key,
		Message: fmt.Sprintf("filename stem %q does not match %s %q (filename_policy %q)",
			stem, key, want, e.cfg.Project.FilenamePolicy),
	}
}

func (e *Engine) recordID(doc *document.Document, rel string, ids map[string][]string) {
	if id, ok := doc.FrontMatter.GetString("id"); ok && id != "" {
		ids[id] = append(ids[id], rel)
	}
}

// markDuplicateIDs appends a finding to every file sharing an id with
// another file. Snippet ids must be unique across the whole working set.
func markDuplicateIDs(files []FileReport, ids map[string][]string) {
	byPath := make(map[string]*FileReport, len(files))
	for i := range files {
		byPath[files[i].Path] = &files[i]
	}

	dup := make([]string, 0)
	for id, paths := range ids {
		if len(paths) > 1 {
			dup = append(dup, id)
		}
	}
	sort.Strings(dup)

	for _, id := range dup {
		paths := append([]string(nil), ids[id]...)
		sort.Strings(paths)
		for _, p := range paths {
			fr := byPath[p]
			if fr == nil {
				continue
			}
			others := make([]string, 0, len(paths)-1)
			for _, o := range paths {
				if o != p {
					others = append(others, o)
				}
			}
			fr.Findings = append(fr.Findings, Finding{
				Pointer: "/id",
				Message: fmt.Sprintf("id %s is also used by %s", id, strings.Join(others, ", ")),
			})
		}
	}
}
