package schema

import (
	"strings"
	"testing"
)

const testULID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

// compileTestSchema builds a representative snippet schema with the usual
// derived fields and extension keys allowed.
func compileTestSchema(t *testing.T) *CompiledSchema {
	t.Helper()
	schemaJSON := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"$id": "https://example.com/schemas/snippet.json",
		"type": "object",
		"additionalProperties": false,
		"patternProperties": {
			"^x[_-].*$": {}
		},
		"properties": {
			"id": {"type": "string", "pattern": "^[0-9A-HJKMNP-TV-Z]{26}$"},
			"slug": {"type": "string", "pattern": "^[a-z0-9][a-z0-9-]{2,63}$"},
			"title": {"type": "string", "minLength": 1},
			"created_at": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["id", "slug", "title"]
	}`
	compiled, err := Compile([]byte(schemaJSON))
	if err != nil {
		t.Fatalf("compile test schema: %v", err)
	}
	return compiled
}

func TestValidateAcceptsCompleteFrontMatter(t *testing.T) {
	compiled := compileTestSchema(t)

	res, err := compiled.Validate(map[string]interface{}{
		"id":       testULID,
		"slug":     "hello-world",
		"title":    "Hello World",
		"tags":     []interface{}{"go", "testing"},
		"x-source": "imported",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid, got %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %d", len(res.Errors))
	}
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	compiled := compileTestSchema(t)

	// Bad id, missing slug and title, and an unknown key: four violations
	// in one document, all of which must be reported.
	res, err := compiled.Validate(map[string]interface{}{
		"id":     "not-a-ulid",
		"author": "anonymous",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Errors) < 4 {
		t.Fatalf("expected at least 4 errors, got %d: %v", len(res.Errors), res.Errors)
	}

	var sawIDPattern, sawUnknownKey bool
	for _, e := range res.Errors {
		if e.Path == "/id" && strings.Contains(e.Message, "pattern") {
			sawIDPattern = true
		}
		if strings.Contains(e.Message, "author") {
			sawUnknownKey = true
		}
	}
	if !sawIDPattern {
		t.Errorf("missing /id pattern violation in %v", res.Errors)
	}
	if !sawUnknownKey {
		t.Errorf("missing unknown-key violation for author in %v", res.Errors)
	}

	// Errors come back sorted so reports are stable across runs.
	for i := 1; i < len(res.Errors); i++ {
		prev, cur := res.Errors[i-1], res.Errors[i]
		if prev.Path > cur.Path || (prev.Path == cur.Path && prev.Message > cur.Message) {
			t.Errorf("errors not sorted: %v before %v", prev, cur)
		}
	}
}

func TestValidateExtensionKeys(t *testing.T) {
	compiled := compileTestSchema(t)

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"id":    testULID,
			"slug":  "hello-world",
			"title": "Hello World",
		}
	}

	// x- and x_ prefixes pass through the patternProperties gate.
	for _, key := range []string{"x-origin", "x_origin"} {
		doc := base()
		doc[key] = "manual"
		res, err := compiled.Validate(doc)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Valid {
			t.Errorf("expected %q to be accepted, got %v", key, res.Errors)
		}
	}

	// Anything else is an unknown key.
	doc := base()
	doc["y-origin"] = "manual"
	res, err := compiled.Validate(doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected y-origin to be rejected")
	}
}

func TestValidateBytes(t *testing.T) {
	compiled := compileTestSchema(t)

	// Valid YAML front matter bytes
	res, err := compiled.ValidateBytes([]byte("id: " + testULID + "\nslug: hello-world\ntitle: Hello World\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid, got %v", res.Errors)
	}

	// Unparseable bytes
	if _, err := compiled.ValidateBytes([]byte("{unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestJSONPointer(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"", "/"},
		{"(root)", "/"},
		{"id", "/id"},
		{"meta.author", "/meta/author"},
	}
	for _, tt := range tests {
		if got := jsonPointer(tt.field); got != tt.want {
			t.Errorf("jsonPointer(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}
