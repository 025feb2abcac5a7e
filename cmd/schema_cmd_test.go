package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fulmenhq/snipmark/internal/assets"
)

// resetSchemaLintFlags restores lint flag state between tests. Cobra keeps
// flag values across Execute calls on the shared root command.
func resetSchemaLintFlags() {
	schemaLintFormat = "text"
	schemaLintWorkers = 0
	schemaLintTimeout = 30 * time.Second
}

func writeSchemaFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema fixture: %v", err)
	}
	return path
}

func TestSchemaLint_GoodSchema(t *testing.T) {
	t.Setenv("SNIPMARK_OFFLINE_SCHEMA_VALIDATION", "true")
	resetSchemaLintFlags()

	data, ok := assets.DefaultSnippetSchema()
	if !ok {
		t.Fatal("default snippet schema missing from build")
	}
	path := writeSchemaFixture(t, "good.json", string(data))

	out, err := execRoot(t, []string{"schema", "lint", path})
	if err != nil {
		t.Fatalf("schema lint (good) failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✅ "+path) {
		t.Fatalf("expected success marker in output, got: %s", out)
	}
}

func TestSchemaLint_ContractViolation(t *testing.T) {
	t.Setenv("SNIPMARK_OFFLINE_SCHEMA_VALIDATION", "true")
	resetSchemaLintFlags()

	// Structurally valid JSON Schema that never declares additionalProperties
	path := writeSchemaFixture(t, "open.json", `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://example.com/open.json",
  "type": "object",
  "properties": {
    "id": {"type": "string", "pattern": "^[0-9A-HJKMNP-TV-Z]{26}$"}
  },
  "required": ["id"]
}`)

	out, err := execRoot(t, []string{"schema", "lint", path})
	if err == nil {
		t.Fatalf("expected schema lint to fail for open schema\n%s", out)
	}
	if !strings.Contains(err.Error(), "failed the snippet contract") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "❌ "+path) {
		t.Fatalf("expected failure marker in output, got: %s", out)
	}
	if !strings.Contains(out, "additionalProperties") {
		t.Fatalf("expected contract detail in output, got: %s", out)
	}
}

func TestSchemaLint_JSONOutput(t *testing.T) {
	t.Setenv("SNIPMARK_OFFLINE_SCHEMA_VALIDATION", "true")
	resetSchemaLintFlags()

	data, ok := assets.DefaultSnippetSchema()
	if !ok {
		t.Fatal("default snippet schema missing from build")
	}
	path := writeSchemaFixture(t, "good.json", string(data))

	out, err := execRoot(t, []string{"schema", "lint", "--format", "json", path})
	if err != nil {
		t.Fatalf("schema lint (JSON output) failed: %v\n%s", err, out)
	}
	var results []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if valid, ok := results[0]["valid"].(bool); !ok || !valid {
		t.Fatalf("expected valid=true in JSON output, got: %s", out)
	}
}

func TestSchemaLint_UnsupportedFormat(t *testing.T) {
	resetSchemaLintFlags()

	out, err := execRoot(t, []string{"schema", "lint", "--format", "xml", "whatever.json"})
	if err == nil {
		t.Fatalf("expected unsupported format error\n%s", out)
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchemaList(t *testing.T) {
	out, err := execRoot(t, []string{"schema", "list"})
	if err != nil {
		t.Fatalf("schema list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "snippets-v1.0.0") {
		t.Fatalf("expected bundled schema name in output, got: %s", out)
	}
	if !strings.Contains(out, "Draft-2020-12") {
		t.Fatalf("expected detected draft in output, got: %s", out)
	}
}
