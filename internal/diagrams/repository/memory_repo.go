package repository

import (
	"context"
	"sync"

	"github.com/drompincen/archviz-go/internal/diagrams/domain"
)

// MemoryRepository is the default backend: a mutex-guarded map used
// in development and tests. Diagrams are stored and returned by
// value, and a save replaces the whole stored value, so concurrent
// readers never observe a half-written record.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Diagram
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]domain.Diagram)}
}

func (r *MemoryRepository) Save(_ context.Context, d domain.Diagram) (domain.Diagram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[d.ID] = d
	return d, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*domain.Diagram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r *MemoryRepository) FindAll(_ context.Context, tag, query string) ([]domain.Diagram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Diagram, 0, len(r.items))
	for _, d := range r.items {
		if tag != "" && !d.HasTag(tag) {
			continue
		}
		if query != "" && !d.MatchesQuery(query) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}
