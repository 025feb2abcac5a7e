package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the ordered key/value metadata block of a snippet. It wraps
// the underlying yaml mapping node directly: lookups and updates address the
// node in place, so untouched keys keep their position, style, and comments.
type FrontMatter struct {
	node *yaml.Node
}

// NewFrontMatter returns an empty mapping, used when building a snippet from
// scratch.
func NewFrontMatter() *FrontMatter {
	return &FrontMatter{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// Len returns the number of top-level keys.
func (f *FrontMatter) Len() int {
	return len(f.node.Content) / 2
}

// Keys returns the top-level keys in document order.
func (f *FrontMatter) Keys() []string {
	keys := make([]string, 0, f.Len())
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		keys = append(keys, f.node.Content[i].Value)
	}
	return keys
}

// Has reports whether key exists.
func (f *FrontMatter) Has(key string) bool {
	return f.valueNode(key) != nil
}

// Get returns the decoded value for key.
func (f *FrontMatter) Get(key string) (interface{}, bool) {
	vn := f.valueNode(key)
	if vn == nil {
		return nil, false
	}
	var v interface{}
	if err := vn.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// GetString returns the scalar text for key. Non-scalar values (mappings,
// sequences) report false.
func (f *FrontMatter) GetString(key string) (string, bool) {
	vn := f.valueNode(key)
	if vn == nil || vn.Kind != yaml.ScalarNode {
		return "", false
	}
	return vn.Value, true
}

// Set assigns key to value. An existing value node is replaced in place, so
// the key keeps its position; a new key is appended at the end of the mapping.
// Callers introducing several new keys control their order by the sequence of
// Set calls.
func (f *FrontMatter) Set(key string, value interface{}) error {
	vn := &yaml.Node{}
	if err := vn.Encode(value); err != nil {
		return fmt.Errorf("cannot encode front matter value for %q: %w", key, err)
	}
	if existing := f.valueNode(key); existing != nil {
		*existing = *vn
		return nil
	}
	kn := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	f.node.Content = append(f.node.Content, kn, vn)
	return nil
}

// Map decodes the front matter into a plain map for schema evaluation.
func (f *FrontMatter) Map() (map[string]interface{}, error) {
	m := make(map[string]interface{}, f.Len())
	if err := f.node.Decode(&m); err != nil {
		return nil, fmt.Errorf("front matter does not decode to a map: %w", err)
	}
	return m, nil
}

func (f *FrontMatter) valueNode(key string) *yaml.Node {
	for i := 0; i+1 < len(f.node.Content); i += 2 {
		if f.node.Content[i].Value == key {
			return f.node.Content[i+1]
		}
	}
	return nil
}
