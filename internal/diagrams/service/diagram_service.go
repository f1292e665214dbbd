package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/drompincen/archviz-go/internal/diagrams/catalog"
	"github.com/drompincen/archviz-go/internal/diagrams/domain"
	"github.com/drompincen/archviz-go/internal/diagrams/repository"
)

// emptyFlow is the payload stored for diagrams created without one.
var emptyFlow = json.RawMessage(`{}`)

// DiagramService aggregates the repository and the static catalog
// behind one API. It owns identity, versioning and source rules and
// never inspects flow contents.
type DiagramService struct {
	repo    repository.DiagramRepository
	catalog *catalog.Catalog
}

func New(repo repository.DiagramRepository, cat *catalog.Catalog) *DiagramService {
	return &DiagramService{repo: repo, catalog: cat}
}

// ListAll merges persisted and catalog diagrams under the same filter
// policy and projects everything to summaries. Persisted diagrams
// come first, catalog diagrams after.
func (s *DiagramService) ListAll(ctx context.Context, tag, query string) ([]domain.Summary, error) {
	stored, err := s.repo.FindAll(ctx, tag, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Summary, 0, len(stored))
	for i := range stored {
		stored[i].Source = domain.SourceDB
		out = append(out, stored[i].Summarize())
	}

	for _, d := range s.catalog.ListAll() {
		if tag != "" && !d.HasTag(tag) {
			continue
		}
		if query != "" && !d.MatchesQuery(query) {
			continue
		}
		out = append(out, d.Summarize())
	}
	return out, nil
}

// GetByID resolves the repository first, then the catalog. Whichever
// resolves wins outright; the two sources are never merged for one id.
func (s *DiagramService) GetByID(ctx context.Context, id string) (*domain.Diagram, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err == nil {
		d.Source = domain.SourceDB
		return d, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.catalog.FindByID(id)
}

// Create persists a new diagram with a fresh id, version 1 and both
// timestamps set to now.
func (s *DiagramService) Create(ctx context.Context, in domain.CreateInput) (*domain.Diagram, error) {
	now := time.Now().UTC()
	d := domain.Diagram{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Tags:        domain.NormalizeTags(in.Tags),
		Version:     1,
		Source:      domain.SourceDB,
		CreatedAt:   now,
		UpdatedAt:   now,
		Flow:        in.Flow,
	}
	if d.Title == "" {
		d.Title = "Untitled"
	}
	if len(d.Flow) == 0 {
		d.Flow = emptyFlow
	}

	stored, err := s.repo.Save(ctx, d)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update replaces the provided fields of a persisted diagram and
// bumps its version by exactly 1. Absent fields retain their stored
// values; id and createdAt are never touched. Catalog ids are not
// updatable and report ErrNotFound. There is no conditional-write
// guard, so concurrent updates to one id are last-write-wins.
func (s *DiagramService) Update(ctx context.Context, id string, in domain.UpdateInput) (*domain.Diagram, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Tags != nil {
		d.Tags = domain.NormalizeTags(in.Tags)
	}
	if in.Flow != nil {
		d.Flow = in.Flow
	}
	d.Version++
	d.UpdatedAt = time.Now().UTC()
	d.Source = domain.SourceDB

	stored, err := s.repo.Save(ctx, *d)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeleteByID removes a persisted diagram. Absent ids are a no-op;
// catalog entries are untouchable by construction.
func (s *DiagramService) DeleteByID(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}
