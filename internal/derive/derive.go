// Package derive computes the auto-maintained front matter fields of a
// snippet: slug, title, timestamps, and authorship from git provenance, plus
// ULID generation for documents that lack an id.
package derive

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fulmenhq/snipmark/internal/provenance"
	"github.com/fulmenhq/snipmark/pkg/document"
	"github.com/fulmenhq/snipmark/pkg/schema"
	"github.com/fulmenhq/snipmark/pkg/slug"
)

// Field identifies one auto-derivable front matter field.
type Field string

const (
	FieldSlug      Field = "slug"
	FieldTitle     Field = "title"
	FieldCreatedAt Field = "created_at"
	FieldUpdatedAt Field = "updated_at"
	FieldCreatedBy Field = "created_by"
	FieldUpdatedBy Field = "updated_by"
)

// idSlugPrefixLen is how much of a lower-cased ULID becomes the slug when
// neither title nor heading yields a usable one.
const idSlugPrefixLen = 8

var idRe = regexp.MustCompile(schema.ULIDPattern)

// ValidID reports whether s is a well-formed uppercase ULID.
func ValidID(s string) bool {
	return idRe.MatchString(s)
}

// ParseFields converts configured field names into Fields, preserving order.
func ParseFields(names []string) ([]Field, error) {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		f := Field(n)
		switch f {
		case FieldSlug, FieldTitle, FieldCreatedAt, FieldUpdatedAt, FieldCreatedBy, FieldUpdatedBy:
			out = append(out, f)
		default:
			return nil, fmt.Errorf("unknown auto-update field %q", n)
		}
	}
	return out, nil
}

// Deriver computes field values for one run. It carries the run's clock and
// committer identity so every document in a batch derives against the same
// moment, and a monotonic ULID source so generated ids sort in processing
// order. Not safe for concurrent use; the pipeline is single-threaded.
type Deriver struct {
	now      time.Time
	identity string
	entropy  *ulid.MonotonicEntropy
}

// New returns a Deriver pinned to the given clock and identity.
func New(now time.Time, identity string) *Deriver {
	return &Deriver{
		now:      now.UTC(),
		identity: identity,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// NewID generates a fresh ULID. Within one Deriver the timestamp component is
// fixed to the run clock and the entropy is monotonic, so ids never sort
// before those generated earlier in the same run.
func (d *Deriver) NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(d.now), d.entropy)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	return id.String(), nil
}

// EnsureID returns the document's id, generating one when the field is absent
// or empty. A present id is returned untouched even when malformed: the
// validator reports it and the fixer never rewrites an assigned id.
func (d *Deriver) EnsureID(fm *document.FrontMatter) (id string, generated bool, err error) {
	if cur, ok := fm.GetString("id"); ok && strings.TrimSpace(cur) != "" {
		return cur, false, nil
	}
	id, err = d.NewID()
	if err != nil {
		return "", false, err
	}
	if err := fm.Set("id", id); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Proposals computes the derived value for every requested field. Fields with
// nothing to derive (a title when the body has no heading) are omitted, never
// proposed as empty strings.
func (d *Deriver) Proposals(doc *document.Document, rec *provenance.Record, fields []Field) map[Field]string {
	out := make(map[Field]string, len(fields))
	for _, f := range fields {
		switch f {
		case FieldSlug:
			if s := d.slugFor(doc); s != "" {
				out[FieldSlug] = s
			}
		case FieldTitle:
			// Title derives only when absent: an author-set title wins over
			// the body heading.
			if cur, ok := doc.FrontMatter.GetString("title"); !ok || strings.TrimSpace(cur) == "" {
				if h := document.FirstHeading(doc.Body); h != "" {
					out[FieldTitle] = h
				}
			}
		case FieldCreatedAt:
			out[FieldCreatedAt] = d.stamp(rec, firstOf)
		case FieldUpdatedAt:
			out[FieldUpdatedAt] = d.stamp(rec, lastOf)
		case FieldCreatedBy:
			out[FieldCreatedBy] = d.author(rec, firstOf)
		case FieldUpdatedBy:
			out[FieldUpdatedBy] = d.author(rec, lastOf)
		}
	}
	return out
}

// slugFor derives the slug from the title, the first body heading, or the id,
// in that order of preference.
func (d *Deriver) slugFor(doc *document.Document) string {
	if title, ok := doc.FrontMatter.GetString("title"); ok {
		if s := slug.Make(title); s != "" {
			return s
		}
	}
	if h := document.FirstHeading(doc.Body); h != "" {
		if s := slug.Make(h); s != "" {
			return s
		}
	}
	if id, ok := doc.FrontMatter.GetString("id"); ok && len(id) >= idSlugPrefixLen {
		return strings.ToLower(id[:idSlugPrefixLen])
	}
	return ""
}

type bound int

const (
	firstOf bound = iota
	lastOf
)

// stamp formats the provenance time for the given bound, falling back to the
// run clock for untracked files. Values are RFC 3339 UTC strings so repeated
// runs against unchanged history rewrite nothing.
func (d *Deriver) stamp(rec *provenance.Record, b bound) string {
	if rec != nil && rec.Tracked {
		if b == firstOf {
			return rec.FirstTime.UTC().Format(time.RFC3339)
		}
		return rec.LastTime.UTC().Format(time.RFC3339)
	}
	return d.now.Format(time.RFC3339)
}

func (d *Deriver) author(rec *provenance.Record, b bound) string {
	if rec != nil && rec.Tracked {
		if b == firstOf {
			return rec.FirstAuthor
		}
		return rec.LastAuthor
	}
	return d.identity
}
