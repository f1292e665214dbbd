package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when an id resolves in neither the
// repository nor the static catalog.
var ErrNotFound = errors.New("diagram not found")

// Source values. Source is always derived from the path that produced
// the record and is never taken from client input.
const (
	SourceDB   = "db"
	SourceFile = "file"
)

// Diagram pairs searchable metadata with an opaque visual payload.
// Flow is carried verbatim across the storage layer; nothing here
// parses or validates its contents.
type Diagram struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Version     int             `json:"version"`
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Flow        json.RawMessage `json:"flow,omitempty"`
}

// HasTag reports whether the diagram's tag set contains t exactly.
func (d *Diagram) HasTag(t string) bool {
	for _, tag := range d.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// MatchesQuery reports whether q appears as a case-insensitive
// substring of the title or the description. This is the single
// query policy shared by every backend and the catalog merge path.
func (d *Diagram) MatchesQuery(q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(d.Title), q) ||
		strings.Contains(strings.ToLower(d.Description), q)
}

// NormalizeTags collapses duplicate and empty tags, keeping
// first-seen order. Tags form a set; order is irrelevant for
// matching. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Summarize projects the diagram to its list representation.
func (d *Diagram) Summarize() Summary {
	return Summary{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		Version:     d.Version,
		Source:      d.Source,
	}
}

// Summary is a Diagram without its flow payload, used for list
// results so large documents are not shipped on every listing.
type Summary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Version     int      `json:"version"`
	Source      string   `json:"source"`
}

// CreateInput carries the client-settable fields for a new diagram.
// Everything is optional; the service fills in defaults.
type CreateInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Flow        json.RawMessage `json:"flow"`
}

// UpdateInput carries replacement fields for an update. Pointer and
// nil-slice fields distinguish "absent" (retain the stored value)
// from an explicit empty value.
type UpdateInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Tags        []string        `json:"tags"`
	Flow        json.RawMessage `json:"flow"`
}
