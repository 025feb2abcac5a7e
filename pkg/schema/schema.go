// Package schema compiles snippet schemas and validates front matter
// mappings against them.
//
// Snippet schemas are a constrained JSON Schema dialect: drafts 07 and
// 2020-12 only, a closed root object, and a mandatory ULID-constrained
// "id" property. The contract is enforced before gojsonschema ever sees
// the document, so misconfigured schemas fail fast with a ContractError
// instead of silently passing documents they should reject.
//
// Compilation is expected to happen once per run; the resulting
// CompiledSchema is immutable and safe for concurrent use.
package schema

import (
	"os"
	"strings"
)

// Draft markers accepted in a schema's $schema declaration.
const (
	draft07Marker   = "draft-07"
	draft2020Marker = "2020-12"
)

// ULIDPattern is the regular expression a snippet schema must declare on its
// "id" property: 26 characters of Crockford base32, uppercase.
const ULIDPattern = `^[0-9A-HJKMNP-TV-Z]{26}$`

// ExtensionKeyPattern matches the x-/x_ prefixed keys a schema may admit
// through patternProperties while keeping the root otherwise closed.
const ExtensionKeyPattern = `^x[_-].*$`

// ValidationError describes a single violation found in a front matter
// mapping. Path is a JSON pointer ("/" for the root document).
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result holds the outcome of validating one front matter mapping.
// Errors collects every violation found, not just the first.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ContractError reports a schema that cannot be used for snippet validation:
// unparseable bytes, an unsupported draft, or a violation of the snippet
// schema contract. It aborts the run before any document is validated.
type ContractError struct {
	Detail string
}

func (e *ContractError) Error() string {
	return "schema contract violation: " + e.Detail
}

// isOfflineMode reports whether remote meta-schema fetches should be avoided.
// Gated by SNIPMARK_OFFLINE_SCHEMA_VALIDATION for air-gapped runs.
func isOfflineMode() bool {
	v := os.Getenv("SNIPMARK_OFFLINE_SCHEMA_VALIDATION")
	return v == "1" || strings.EqualFold(v, "true")
}
