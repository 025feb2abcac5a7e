/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleValidateReport() *Report {
	r := newReport("validate", "", runClock)
	r.Files = []FileReport{
		{Path: "snippets/good.md"},
		{Path: "snippets/bad.md", Findings: []Finding{
			{Pointer: "/id", Message: "id is required", AutoFixable: true},
			{Pointer: "/", Message: "Additional property owner is not allowed"},
		}},
	}
	r.finalize()
	return r
}

func sampleFixReport() *Report {
	r := newReport("fix", "", runClock)
	r.Files = []FileReport{
		{Path: "snippets/new.md", Changed: []string{"id", "slug"}, Written: true},
		{Path: "snippets/stuck.md", Findings: []Finding{
			{Pointer: "/", Message: "Additional property owner is not allowed"},
		}},
	}
	r.finalize()
	return r
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "concise", want: FormatConcise},
		{input: "markdown", want: FormatMarkdown},
		{input: "json", want: FormatJSON},
		{input: "html", want: FormatHTML},
		{input: " Markdown ", want: FormatMarkdown},
		{input: "JSON", want: FormatJSON},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatConcise(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	f := NewFormatter(FormatConcise)

	out, err := f.FormatReport(sampleValidateReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{
		"Snippets validate | files: 2 | findings: 2",
		"snippets/bad.md: 2 finding(s)",
		"/id",
		"id is required",
		"(auto-fixable)",
		"⚠️ Findings detected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("concise output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NO_COLOR output must not contain escape codes")
	}
}

func TestFormatConciseClean(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	r := newReport("validate", "", runClock)
	r.Files = []FileReport{{Path: "snippets/good.md"}}
	r.finalize()

	out, err := NewFormatter(FormatConcise).FormatReport(r)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(out, "✅ All snippets valid") {
		t.Errorf("clean report missing success footer:\n%s", out)
	}
}

func TestFormatConciseFixMode(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	out, err := NewFormatter(FormatConcise).FormatReport(sampleFixReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{
		"snippets/new.md: fixed (id, slug)",
		"updated 1 file(s), wrote 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("fix output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatConciseChangedSince(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	r := newReport("validate", "main", runClock)
	r.finalize()

	out, err := NewFormatter(FormatConcise).FormatReport(r)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(out, "validate (changed since main)") {
		t.Errorf("ref missing from header:\n%s", out)
	}
}

func TestFormatMarkdown(t *testing.T) {
	f := NewFormatter(FormatMarkdown)
	f.SetTargetPath("/work/notes")

	out, err := f.FormatReport(sampleValidateReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{
		"# Snippet Validation Report",
		"**Target:** /work/notes",
		"## Summary",
		"- **Files Checked:** 2",
		"- **Result:** ⚠️ findings remain",
		"### ⚠️ snippets/bad.md",
		"| Pointer | Message | Auto-fixable |",
		"| `/id` | id is required | ✅ |",
		"| `/` | Additional property owner is not allowed | ❌ |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "snippets/good.md") {
		t.Error("clean files do not belong in the findings section")
	}
}

func TestFormatMarkdownFixMode(t *testing.T) {
	out, err := NewFormatter(FormatMarkdown).FormatReport(sampleFixReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{
		"# Snippet Fix Report",
		"- **Files Fixed:** 1",
		"## Applied Fixes",
		"- `snippets/new.md`: id, slug",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown fix output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := NewFormatter(FormatJSON).FormatReport(sampleValidateReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Mode != "validate" {
		t.Errorf("mode = %q, want validate", decoded.Mode)
	}
	if decoded.Summary.FindingCount != 2 {
		t.Errorf("finding count = %d, want 2", decoded.Summary.FindingCount)
	}
	if !strings.Contains(out, `"auto_fixable": true`) {
		t.Errorf("fixability flag missing from JSON:\n%s", out)
	}
}

func TestFormatHTML(t *testing.T) {
	target := t.TempDir()
	f := NewFormatter(FormatHTML)
	f.SetTargetPath(target)

	out, err := f.FormatReport(sampleValidateReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"snippets/bad.md",
		"id is required",
		filepath.Base(target),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}

func TestFormatHTMLTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "custom.hbs")
	if err := os.WriteFile(tpl, []byte("custom report: {{summary.findingCount}} findings"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SNIPMARK_TEMPLATE_PATH", tpl)

	out, err := NewFormatter(FormatHTML).FormatReport(sampleValidateReport())
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if out != "custom report: 2 findings" {
		t.Errorf("override not honored, got %q", out)
	}
}

func TestWriteReport(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	if err := NewFormatter(FormatConcise).WriteReport(&buf, sampleValidateReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), "⚠️ Findings detected") {
		t.Errorf("written output incomplete:\n%s", buf.String())
	}
}
