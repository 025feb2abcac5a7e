package assets

import (
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSchemaAsset is the starter snippet schema written by `snipmark init`.
const DefaultSchemaAsset = "schemas/snippets/v1.0.0/snippets-schema.json"

// SchemaInfo holds schema metadata for `snipmark schema list`.
type SchemaInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Draft string `json:"draft"`
}

// GetSchema returns embedded schema bytes by path relative to the schema root
// (e.g. "schemas/snippets/v1.0.0/snippets-schema.json").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := schemas.ReadFile(path.Join("embedded_schemas", relPath))
	return data, err == nil
}

// DefaultSnippetSchema returns the starter snippet schema bytes.
func DefaultSnippetSchema() ([]byte, bool) {
	return GetSchema(DefaultSchemaAsset)
}

// GetSchemaNames lists the embedded schemas with detected draft versions.
func GetSchemaNames() []SchemaInfo {
	known := map[string]string{
		"snippets-v1.0.0": DefaultSchemaAsset,
	}

	var infos []SchemaInfo
	for name, p := range known {
		if _, ok := GetSchema(p); ok {
			infos = append(infos, SchemaInfo{Name: name, Path: p, Draft: detectDraft(p)})
		}
	}
	return infos
}

const draftUnknown = "Unknown (07/2020-12 supported)"

// detectDraft reads the $schema key. Schemas may be YAML or JSON, same as
// anywhere else the compiler accepts them.
func detectDraft(relPath string) string {
	data, ok := GetSchema(relPath)
	if !ok {
		return draftUnknown
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return draftUnknown
		}
	}
	m, ok := doc.(map[string]interface{})
	if !ok {
		return draftUnknown
	}
	v, ok := m["$schema"].(string)
	if !ok {
		return draftUnknown
	}
	switch {
	case strings.Contains(v, "draft-07"):
		return "Draft-07"
	case strings.Contains(v, "2020-12"):
		return "Draft-2020-12"
	default:
		return draftUnknown
	}
}
