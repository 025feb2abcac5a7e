package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/snipmark/pkg/safeio"
)

// requiredRootKeys are the top-level keys every snippet schema must declare.
var requiredRootKeys = []string{"$schema", "$id", "type", "properties", "required"}

// CompiledSchema is an immutable compiled snippet schema, reused for every
// document in a run.
type CompiledSchema struct {
	schema *gojsonschema.Schema
}

// Compile parses schema bytes (JSON or YAML), enforces the snippet schema
// contract, and compiles the result. All failures surface as *ContractError.
func Compile(schemaBytes []byte) (*CompiledSchema, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(schemaBytes, &doc); err != nil {
		if jsonErr := json.Unmarshal(schemaBytes, &doc); jsonErr != nil {
			return nil, &ContractError{Detail: fmt.Sprintf("schema is not valid YAML or JSON: YAML error: %v, JSON error: %v", err, jsonErr)}
		}
	}
	if len(doc) == 0 {
		return nil, &ContractError{Detail: "schema document is empty"}
	}

	if err := checkContract(doc); err != nil {
		return nil, err
	}

	if isOfflineMode() {
		// Keeps gojsonschema from fetching the declared meta-schema.
		delete(doc, "$schema")
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &ContractError{Detail: fmt.Sprintf("schema cannot be normalized to JSON: %v", err)}
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(normalized))
	if err != nil {
		return nil, &ContractError{Detail: fmt.Sprintf("schema does not compile: %v", err)}
	}
	return &CompiledSchema{schema: compiled}, nil
}

// CompileFile reads and compiles a schema file from disk.
func CompileFile(path string) (*CompiledSchema, error) {
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return nil, fmt.Errorf("schema path sanitization failed: %w", err)
	}
	raw, err := os.ReadFile(clean) // #nosec G304 -- clean sanitized with safeio.CleanUserPath
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", clean, err)
	}
	return Compile(raw)
}

func checkContract(doc map[string]interface{}) error {
	for _, key := range requiredRootKeys {
		if _, ok := doc[key]; !ok {
			return &ContractError{Detail: fmt.Sprintf("missing required top-level key %q", key)}
		}
	}

	if err := checkDraft(doc["$schema"]); err != nil {
		return err
	}

	if id, ok := doc["$id"].(string); !ok || id == "" {
		return &ContractError{Detail: `"$id" must be a non-empty string`}
	}

	if typ, ok := doc["type"].(string); !ok || typ != "object" {
		return &ContractError{Detail: `root "type" must be "object"`}
	}

	ap, ok := doc["additionalProperties"]
	if !ok {
		return &ContractError{Detail: `root "additionalProperties" must be declared and false`}
	}
	if allowed, isBool := ap.(bool); !isBool || allowed {
		return &ContractError{Detail: `root "additionalProperties" must be false`}
	}

	props, ok := doc["properties"].(map[string]interface{})
	if !ok {
		return &ContractError{Detail: `"properties" must be a mapping`}
	}
	idProp, ok := props["id"].(map[string]interface{})
	if !ok {
		return &ContractError{Detail: `"properties" must declare an "id" property`}
	}
	if pattern, ok := idProp["pattern"].(string); !ok || pattern != ULIDPattern {
		return &ContractError{Detail: fmt.Sprintf(`the "id" property must declare pattern %q`, ULIDPattern)}
	}

	if err := checkRequiredContainsID(doc["required"]); err != nil {
		return err
	}
	return checkPatternProperties(doc)
}

func checkDraft(declared interface{}) error {
	s, ok := declared.(string)
	if !ok || s == "" {
		return &ContractError{Detail: `"$schema" must be a non-empty string`}
	}
	if !strings.Contains(s, draft07Marker) && !strings.Contains(s, draft2020Marker) {
		return &ContractError{Detail: fmt.Sprintf("unsupported schema draft %q (supported: draft-07, 2020-12)", s)}
	}
	return nil
}

func checkRequiredContainsID(raw interface{}) error {
	list, ok := raw.([]interface{})
	if !ok {
		return &ContractError{Detail: `"required" must be an array of property names`}
	}
	for _, item := range list {
		if name, ok := item.(string); ok && name == "id" {
			return nil
		}
	}
	return &ContractError{Detail: `"required" must contain "id"`}
}

// checkPatternProperties permits patternProperties only for extension keys,
// so the root object stays closed to everything but x-/x_ prefixed fields.
func checkPatternProperties(doc map[string]interface{}) error {
	raw, ok := doc["patternProperties"]
	if !ok {
		return nil
	}
	pp, ok := raw.(map[string]interface{})
	if !ok {
		return &ContractError{Detail: `"patternProperties" must be a mapping`}
	}
	for pattern := range pp {
		if pattern != ExtensionKeyPattern {
			return &ContractError{Detail: fmt.Sprintf("patternProperties %q is not permitted (extension keys must use %q)", pattern, ExtensionKeyPattern)}
		}
	}
	return nil
}
