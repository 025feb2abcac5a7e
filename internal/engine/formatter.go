/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"

	"github.com/fulmenhq/snipmark/internal/assets"
	"github.com/fulmenhq/snipmark/pkg/buildinfo"
)

// OutputFormat represents the format for report output
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatHTML     OutputFormat = "html"
	// Concise is a short, colorized summary ideal for hook logs
	FormatConcise OutputFormat = "concise"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatConcise:
		return FormatConcise, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (concise|markdown|json|html)", s)
	}
}

// Formatter renders run reports
type Formatter struct {
	format     OutputFormat
	targetPath string
}

// NewFormatter creates a new report formatter
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// SetTargetPath sets the target path for project information extraction
func (f *Formatter) SetTargetPath(targetPath string) {
	f.targetPath = targetPath
}

// FormatReport formats a run report according to the configured format
func (f *Formatter) FormatReport(report *Report) (string, error) {
	switch f.format {
	case FormatConcise:
		return f.formatConcise(report), nil
	case FormatMarkdown:
		return f.formatMarkdown(report), nil
	case FormatJSON:
		return f.formatJSON(report)
	case FormatHTML:
		return f.formatHTML(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

// WriteReport writes a formatted report to the given writer
func (f *Formatter) WriteReport(w io.Writer, report *Report) error {
	output, err := f.FormatReport(report)
	if err != nil {
		return err
	}

	_, err = w.Write([]byte(output))
	return err
}

// formatConcise prints a short, colorized summary suitable for hook logs
func (f *Formatter) formatConcise(report *Report) string {
	color := func(code string, s string) string {
		if os.Getenv("NO_COLOR") != "" {
			return s
		}
		return "\x1b[" + code + "m" + s + "\x1b[0m"
	}
	bold := func(s string) string { return color("1", s) }
	green := func(s string) string { return color("32", s) }
	yellow := func(s string) string { return color("33", s) }
	red := func(s string) string { return color("31", s) }

	var sb strings.Builder

	mode := report.Mode
	if report.Ref != "" {
		mode = fmt.Sprintf("%s (changed since %s)", mode, report.Ref)
	}
	fmt.Fprintf(&sb, "%s %s | files: %d | findings: %d\n",
		bold("Snippets"), mode, report.Summary.TotalFiles, report.Summary.FindingCount)

	for _, fr := range report.Files {
		switch {
		case fr.Err != "":
			fmt.Fprintf(&sb, " - %s: %s\n", fr.Path, red("error"))
			fmt.Fprintf(&sb, "   %s %s\n", red("!"), fr.Err)
		case len(fr.Findings) > 0:
			fmt.Fprintf(&sb, " - %s: %s\n", fr.Path, yellow(fmt.Sprintf("%d finding(s)", len(fr.Findings))))
			width := 0
			for _, fi := range fr.Findings {
				if w := runewidth.StringWidth(fi.Pointer); w > width {
					width = w
				}
			}
			for _, fi := range fr.Findings {
				pad := strings.Repeat(" ", width-runewidth.StringWidth(fi.Pointer))
				note := ""
				if fi.AutoFixable {
					note = " (auto-fixable)"
				}
				fmt.Fprintf(&sb, "   %s%s  %s%s\n", fi.Pointer, pad, fi.Message, note)
			}
		case len(fr.Changed) > 0:
			fmt.Fprintf(&sb, " - %s: %s (%s)\n", fr.Path, green("fixed"), strings.Join(fr.Changed, ", "))
		}
	}

	if report.Mode == "fix" && report.Summary.FixedFiles > 0 {
		fmt.Fprintf(&sb, " - updated %d file(s), wrote %d\n", report.Summary.FixedFiles, report.Summary.WrittenFiles)
	}

	if report.Summary.OK {
		sb.WriteString(green("✅ All snippets valid"))
	} else {
		sb.WriteString(yellow("⚠️ Findings detected - see details above or run snipmark fix"))
	}

	return sb.String()
}

// formatMarkdown creates a markdown-formatted run report
func (f *Formatter) formatMarkdown(report *Report) string {
	var sb strings.Builder

	if report.Mode == "fix" {
		sb.WriteString("# Snippet Fix Report\n\n")
	} else {
		sb.WriteString("# Snippet Validation Report\n\n")
	}
	fmt.Fprintf(&sb, "**Generated:** %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Tool:** snipmark %s\n", buildinfo.BinaryVersion)
	if f.targetPath != "" {
		fmt.Fprintf(&sb, "**Target:** %s\n", f.targetPath)
	}
	if report.Ref != "" {
		fmt.Fprintf(&sb, "**Changed Since:** %s\n", report.Ref)
	}
	sb.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&sb, "- **Files Checked:** %d\n", report.Summary.TotalFiles)
	fmt.Fprintf(&sb, "- **Files With Findings:** %d\n", report.Summary.FilesWithFindings)
	fmt.Fprintf(&sb, "- **Findings:** %d\n", report.Summary.FindingCount)
	if report.Mode == "fix" {
		fmt.Fprintf(&sb, "- **Files Fixed:** %d\n", report.Summary.FixedFiles)
		fmt.Fprintf(&sb, "- **Files Written:** %d\n", report.Summary.WrittenFiles)
	}
	if report.Summary.OK {
		sb.WriteString("- **Result:** ✅ pass\n\n")
	} else {
		sb.WriteString("- **Result:** ⚠️ findings remain\n\n")
	}

	if report.Summary.FilesWithFindings > 0 || report.Summary.Errors > 0 {
		sb.WriteString("## Findings\n\n")
		for _, fr := range report.Files {
			if len(fr.Findings) == 0 && fr.Err == "" {
				continue
			}
			fmt.Fprintf(&sb, "### ⚠️ %s\n\n", fr.Path)
			if fr.Err != "" {
				fmt.Fprintf(&sb, "**Error:** %s\n\n", fr.Err)
				continue
			}
			sb.WriteString("| Pointer | Message | Auto-fixable |\n")
			sb.WriteString("|---------|---------|--------------|\n")
			for _, fi := range fr.Findings {
				fixable := "❌"
				if fi.AutoFixable {
					fixable = "✅"
				}
				fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", fi.Pointer, fi.Message, fixable)
			}
			sb.WriteString("\n")
		}
	}

	if report.Mode == "fix" && report.Summary.FixedFiles > 0 {
		sb.WriteString("## Applied Fixes\n\n")
		for _, fr := range report.Files {
			if len(fr.Changed) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "- `%s`: %s\n", fr.Path, strings.Join(fr.Changed, ", "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatJSON creates a JSON-formatted run report
func (f *Formatter) formatJSON(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return string(data), nil
}

// formatHTML renders the handlebars report template
func (f *Formatter) formatHTML(report *Report) (string, error) {
	data := f.templateData(report)

	// Allow explicit override via environment variable
	if envPath := strings.TrimSpace(os.Getenv("SNIPMARK_TEMPLATE_PATH")); envPath != "" {
		envPath = filepath.Clean(envPath)
		if content, err := os.ReadFile(envPath); err == nil { // #nosec G304 -- operator-supplied override, cleaned above
			return renderHandlebars(string(content), data)
		}
	}

	tpl, ok := assets.ReportTemplate()
	if !ok {
		return "", fmt.Errorf("embedded report template missing")
	}
	return renderHandlebars(string(tpl), data)
}

func (f *Formatter) templateData(report *Report) map[string]interface{} {
	files := make([]map[string]interface{}, 0, len(report.Files))
	for _, fr := range report.Files {
		findings := make([]map[string]interface{}, 0, len(fr.Findings))
		for _, fi := range fr.Findings {
			findings = append(findings, map[string]interface{}{
				"pointer": fi.Pointer,
				"message": fi.Message,
				"fixable": fi.AutoFixable,
			})
		}
		files = append(files, map[string]interface{}{
			"path":         fr.Path,
			"findings":     findings,
			"findingCount": len(fr.Findings),
			"changed":      strings.Join(fr.Changed, ", "),
			"error":        fr.Err,
		})
	}

	name, displayPath := f.projectInfo()
	return map[string]interface{}{
		"project": map[string]interface{}{
			"name": name,
			"path": displayPath,
		},
		"meta": map[string]interface{}{
			"mode":        report.Mode,
			"generatedAt": report.GeneratedAt.Format(time.RFC3339),
			"version":     buildinfo.BinaryVersion,
		},
		"summary": map[string]interface{}{
			"totalFiles":        report.Summary.TotalFiles,
			"filesWithFindings": report.Summary.FilesWithFindings,
			"findingCount":      report.Summary.FindingCount,
			"fixedFiles":        report.Summary.FixedFiles,
		},
		"files": files,
	}
}

// projectInfo extracts project name and a user-friendly display path
func (f *Formatter) projectInfo() (name, displayPath string) {
	target := f.targetPath
	if target == "" {
		target = "."
	}
	absPath, err := filepath.Abs(target)
	if err != nil {
		absPath = target
	}

	displayPath = absPath
	if homeDir, err := os.UserHomeDir(); err == nil && strings.HasPrefix(absPath, homeDir) {
		displayPath = "~" + strings.TrimPrefix(absPath, homeDir)
	}

	name = filepath.Base(absPath)
	return name, displayPath
}

var helpersOnce sync.Once

// renderHandlebars renders a Handlebars template string with helpers registered
func renderHandlebars(tpl string, data interface{}) (string, error) {
	// raymond panics on duplicate helper registration
	helpersOnce.Do(func() {
		raymond.RegisterHelper("gt", func(a, b interface{}) bool {
			aVal, _ := strconv.Atoi(fmt.Sprintf("%v", a))
			bVal, _ := strconv.Atoi(fmt.Sprintf("%v", b))
			return aVal > bVal
		})
	})
	out, err := raymond.Render(tpl, data)
	if err != nil {
		return "", fmt.Errorf("error rendering report template: %w", err)
	}
	return out, nil
}
