package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Validate evaluates data (typically a decoded front matter mapping) against
// the compiled schema. Every violation is collected and the list is sorted by
// path then message, so identical inputs always produce identical reports.
// The error return is reserved for marshalling failures, not invalid data.
func (s *CompiledSchema) Validate(data interface{}) (*Result, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(dataJSON))
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, verr := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Path:    jsonPointer(verr.Field()),
			Message: verr.Description(),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool {
		if out.Errors[i].Path != out.Errors[j].Path {
			return out.Errors[i].Path < out.Errors[j].Path
		}
		return out.Errors[i].Message < out.Errors[j].Message
	})
	return out, nil
}

// ValidateBytes parses raw YAML or JSON bytes and validates the result.
func (s *CompiledSchema) ValidateBytes(data []byte) (*Result, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse data as YAML or JSON: %w", jsonErr)
		}
	}
	return s.Validate(doc)
}

// jsonPointer converts gojsonschema's dotted field paths to JSON pointers.
// The root document is reported as "/".
func jsonPointer(field string) string {
	if field == "" || field == "(root)" {
		return "/"
	}
	return "/" + strings.ReplaceAll(field, ".", "/")
}
