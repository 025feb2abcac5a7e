package assets

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fulmenhq/snipmark/pkg/schema"
)

func TestReportTemplate(t *testing.T) {
	data, ok := ReportTemplate()
	if !ok {
		t.Fatal("ReportTemplate not found")
	}
	if !bytes.Contains(data, []byte("<!DOCTYPE html>")) {
		t.Error("report template should be an HTML document")
	}
	if !bytes.Contains(data, []byte("{{#each files}}")) {
		t.Error("report template should iterate over files")
	}
}

func TestGetSchemaMissing(t *testing.T) {
	if _, ok := GetSchema("schemas/snippets/v9.9.9/missing.json"); ok {
		t.Error("expected miss for unknown schema path")
	}
}

// The starter schema must satisfy the same meta-contract the engine enforces
// on user-supplied schemas, or init would scaffold a broken project.
func TestDefaultSnippetSchemaCompiles(t *testing.T) {
	data, ok := DefaultSnippetSchema()
	if !ok {
		t.Fatal("DefaultSnippetSchema not found")
	}

	t.Setenv("SNIPMARK_OFFLINE_SCHEMA_VALIDATION", "true")
	compiled, err := schema.Compile(data)
	if err != nil {
		t.Fatalf("starter schema failed to compile: %v", err)
	}

	result, err := compiled.Validate(map[string]interface{}{
		"id":    "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"slug":  "hello-world",
		"title": "Hello World",
	})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid front matter, got violations: %v", result.Errors)
	}
}

// Pin the shape init ships: closed object, id required, x- escape hatch.
func TestDefaultSnippetSchemaShape(t *testing.T) {
	data, ok := DefaultSnippetSchema()
	if !ok {
		t.Fatal("DefaultSnippetSchema not found")
	}

	var doc struct {
		AdditionalProperties bool                       `json:"additionalProperties"`
		Required             []string                   `json:"required"`
		PatternProperties    map[string]json.RawMessage `json:"patternProperties"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("starter schema is not valid JSON: %v", err)
	}
	if doc.AdditionalProperties {
		t.Error("starter schema must close the front matter object")
	}
	if len(doc.Required) != 1 || doc.Required[0] != "id" {
		t.Errorf("required = %v, want [id]", doc.Required)
	}
	if _, ok := doc.PatternProperties["^x[_-].*$"]; !ok {
		t.Errorf("patternProperties missing the x- escape hatch: %v", doc.PatternProperties)
	}
}

func TestGetSchemaNames(t *testing.T) {
	infos := GetSchemaNames()
	if len(infos) == 0 {
		t.Fatal("expected at least one embedded schema")
	}

	found := false
	for _, info := range infos {
		if info.Name == "snippets-v1.0.0" {
			found = true
			if info.Draft != "Draft-2020-12" {
				t.Errorf("draft = %q, want Draft-2020-12", info.Draft)
			}
			if info.Path != DefaultSchemaAsset {
				t.Errorf("path = %q, want %q", info.Path, DefaultSchemaAsset)
			}
		}
	}
	if !found {
		t.Error("expected snippets-v1.0.0 in schema names")
	}
}
