package repository

import (
	"context"

	"github.com/drompincen/archviz-go/internal/diagrams/domain"
)

// DiagramRepository is the persistence contract for user-created
// diagrams, implemented by the in-memory and DynamoDB backends. The
// backend is chosen once at startup; nothing above this interface
// branches on which one is active.
type DiagramRepository interface {
	// Save upserts by id, replacing any existing record wholesale.
	// There is no field-level merge at this layer.
	Save(ctx context.Context, d domain.Diagram) (domain.Diagram, error)

	// FindByID returns the stored diagram or domain.ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Diagram, error)

	// FindAll returns every diagram passing the filters; an empty tag
	// or query turns that filter off. Tag matching is exact set
	// membership, query matching is a case-insensitive substring test
	// against title or description, and both are ANDed when present.
	FindAll(ctx context.Context, tag, query string) ([]domain.Diagram, error)

	// DeleteByID removes the diagram if present. Deleting an absent
	// id is not an error.
	DeleteByID(ctx context.Context, id string) error
}
