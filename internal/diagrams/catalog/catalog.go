package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/drompincen/archviz-go/internal/diagrams/domain"
)

// Catalog exposes the bundled diagram documents as read-only
// Diagrams. Every call re-scans the configured directories, so a
// changed document shows up without a restart. Catalog diagrams are
// never updated or deleted; they are rebuilt per read and discarded.
type Catalog struct {
	dirs []string
}

// New builds a catalog over the given directories. Directories are
// scanned in order; when two of them carry the same filename, the
// first occurrence wins.
func New(dirs ...string) *Catalog {
	return &Catalog{dirs: dirs}
}

// ListAll scans every configured directory for *.json documents and
// synthesizes a Diagram for each. A document that fails to parse is
// logged and skipped so one corrupt file never takes the catalog
// down. A missing directory contributes nothing.
func (c *Catalog) ListAll() []domain.Diagram {
	seen := make(map[string]bool)
	var out []domain.Diagram
	for _, dir := range c.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			id := "file-" + strings.TrimSuffix(e.Name(), ".json")
			if seen[id] {
				continue
			}
			d, err := load(filepath.Join(dir, e.Name()), e.Name(), id)
			if err != nil {
				log.Printf("catalog: skipping %s: %v", e.Name(), err)
				continue
			}
			seen[id] = true
			out = append(out, d)
		}
	}
	return out
}

// FindByID scans the catalog for the given id. Returns
// domain.ErrNotFound when no bundled document carries it.
func (c *Catalog) FindByID(id string) (*domain.Diagram, error) {
	for _, d := range c.ListAll() {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

// load reads one bundled document. The title comes from the
// document's own "title" field when present, otherwise the filename.
func load(path, name, id string) (domain.Diagram, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Diagram{}, err
	}
	if !json.Valid(raw) {
		return domain.Diagram{}, fmt.Errorf("invalid JSON")
	}

	title := name
	var head struct {
		Title string `json:"title"`
	}
	// A non-object top level (array, scalar) simply has no title.
	if err := json.Unmarshal(raw, &head); err == nil && head.Title != "" {
		title = head.Title
	}

	return domain.Diagram{
		ID:          id,
		Title:       title,
		Description: "",
		Tags:        []string{},
		Version:     0,
		Source:      domain.SourceFile,
		Flow:        json.RawMessage(raw),
	}, nil
}
