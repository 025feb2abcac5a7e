/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"time"

	"github.com/fulmenhq/snipmark/pkg/exitcode"
)

// Finding is one violation recorded against a document: a JSON pointer into
// the front matter ("/" for document-level problems) and a human message.
// AutoFixable marks findings a fix run is expected to resolve; it is a
// prediction made during validate and always false on residual findings.
type Finding struct {
	Pointer     string `json:"pointer"`
	Message     string `json:"message"`
	AutoFixable bool   `json:"auto_fixable"`
}

// FileReport collects what happened to one file during a run.
type FileReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings,omitempty"`
	Changed  []string  `json:"changed,omitempty"`
	Written  bool      `json:"written,omitempty"`
	Err      string    `json:"error,omitempty"`
}

// Summary aggregates a run for the report footer and exit code decision.
type Summary struct {
	TotalFiles        int  `json:"total_files"`
	FilesWithFindings int  `json:"files_with_findings"`
	FindingCount      int  `json:"finding_count"`
	FixedFiles        int  `json:"fixed_files"`
	WrittenFiles      int  `json:"written_files"`
	Errors            int  `json:"errors"`
	OK                bool `json:"ok"`
}

// Report is the outcome of one validate or fix run over the working set.
type Report struct {
	Mode        string       `json:"mode"`
	Ref         string       `json:"ref,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Files       []FileReport `json:"files"`
	Summary     Summary      `json:"summary"`
}

func newReport(mode, ref string, now time.Time) *Report {
	return &Report{Mode: mode, Ref: ref, GeneratedAt: now, Files: []FileReport{}}
}

func (r *Report) finalize() {
	s := Summary{TotalFiles: len(r.Files)}
	for i := range r.Files {
		f := &r.Files[i]
		if len(f.Findings) > 0 {
			s.FilesWithFindings++
			s.FindingCount += len(f.Findings)
		}
		if len(f.Changed) > 0 {
			s.FixedFiles++
		}
		if f.Written {
			s.WrittenFiles++
		}
		if f.Err != "" {
			s.Errors++
		}
	}
	s.OK = s.FindingCount == 0 && s.Errors == 0
	r.Summary = s
}

// ExitCode maps the report to the process exit contract: file system
// failures outrank findings, findings outrank success. A failure on one
// file never aborts the others, so the worst outcome decides.
func (r *Report) ExitCode() int {
	if r.Summary.Errors > 0 {
		return exitcode.FileSystemError
	}
	if r.Summary.FindingCount > 0 {
		return exitcode.ValidationError
	}
	return exitcode.Success
}
