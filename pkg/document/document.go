// Package document implements the snippet document codec: markdown files with
// a YAML front matter block delimited by "---" marker lines. Decoding keeps
// the front matter as a yaml mapping node so key order, scalar styles, and
// comments survive re-encoding untouched.
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// FormatError describes a document that cannot be parsed as front matter plus
// body. It is a per-file error: callers record it and continue the batch.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid snippet document: " + e.Reason
}

// Document is one snippet file: ordered front matter, markdown body, and the
// original bytes used to detect no-op rewrites.
type Document struct {
	FrontMatter *FrontMatter
	Body        string
	Raw         []byte
}

// Decode parses raw into front matter and body. The document must open with a
// "---" marker line, contain a YAML mapping, and close with a second marker
// line; anything else is a FormatError.
func Decode(raw []byte) (*Document, error) {
	text := string(raw)

	firstLine, rest, ok := cutLine(text)
	if strings.TrimRight(firstLine, " \t\r") != delimiter {
		return nil, &FormatError{Reason: "missing opening front matter delimiter"}
	}
	if !ok {
		return nil, &FormatError{Reason: "missing closing front matter delimiter"}
	}

	fmRaw, body, found := splitAtClosingDelimiter(rest)
	if !found {
		return nil, &FormatError{Reason: "missing closing front matter delimiter"}
	}

	node, err := parseMapping(fmRaw)
	if err != nil {
		return nil, err
	}

	return &Document{
		FrontMatter: &FrontMatter{node: node},
		Body:        body,
		Raw:         raw,
	}, nil
}

// Encode serializes the document back to bytes: marker line, front matter
// mapping in its original key order, marker line, then the body verbatim.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.FrontMatter.node); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}

// cutLine splits text at the first newline, returning the line without its
// terminator and everything after it.
func cutLine(text string) (line, rest string, ok bool) {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return text, "", false
	}
	return text[:i], text[i+1:], true
}

// splitAtClosingDelimiter scans rest line by line for the closing "---" marker
// and returns the YAML block before it and the body after it.
func splitAtClosingDelimiter(rest string) (fmRaw, body string, found bool) {
	offset := 0
	remaining := rest
	for {
		line, after, ok := cutLine(remaining)
		if strings.TrimRight(line, " \t\r") == delimiter {
			fmRaw = rest[:offset]
			if ok {
				body = after
			}
			return fmRaw, body, true
		}
		if !ok {
			return "", "", false
		}
		offset += len(line) + 1
		remaining = after
	}
}

// parseMapping parses the YAML block and requires a non-empty mapping root.
func parseMapping(fmRaw string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fmRaw), &doc); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("invalid YAML in front matter: %v", err)}
	}
	if len(doc.Content) == 0 {
		return nil, &FormatError{Reason: "front matter is not a mapping"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &FormatError{Reason: "front matter is not a mapping"}
	}
	return root, nil
}

var headingRe = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)

// FirstHeading returns the text of the first markdown heading line in body,
// or "" when no heading exists.
func FirstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}
