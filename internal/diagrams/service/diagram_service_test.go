package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drompincen/archviz-go/internal/diagrams/catalog"
	"github.com/drompincen/archviz-go/internal/diagrams/domain"
	"github.com/drompincen/archviz-go/internal/diagrams/repository"
)

func newTestService(t *testing.T) (*DiagramService, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"),
		[]byte(`{"title":"Sample Flow","nodes":[]}`), 0o644))
	return New(repository.NewMemoryRepository(), catalog.New(dir)), dir
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	d, err := svc.Create(ctx, domain.CreateInput{
		Title: "Checkout Flow",
		Tags:  []string{"payments"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Checkout Flow", d.Title)
	assert.Equal(t, "", d.Description)
	assert.Equal(t, []string{"payments"}, d.Tags)
	assert.Equal(t, 1, d.Version)
	assert.Equal(t, domain.SourceDB, d.Source)
	assert.True(t, d.CreatedAt.Equal(d.UpdatedAt))
	assert.JSONEq(t, `{}`, string(d.Flow), "flow defaults to an empty document")
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	d, err := svc.Create(ctx, domain.CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", d.Title)
	assert.NotNil(t, d.Tags)
	assert.Empty(t, d.Tags)
}

func TestCreateCollapsesDuplicateTags(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	d, err := svc.Create(ctx, domain.CreateInput{
		Tags: []string{"payments", "web", "payments", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"payments", "web"}, d.Tags)
}

func TestUpdateVersionArithmetic(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateInput{
		Title: "Checkout Flow",
		Tags:  []string{"payments"},
	})
	require.NoError(t, err)

	title := "Checkout Flow v2"
	updated, err := svc.Update(ctx, created.ID, domain.UpdateInput{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Checkout Flow v2", updated.Title)
	assert.Equal(t, []string{"payments"}, updated.Tags, "absent tags are retained")
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	// version after N updates is 1 + N
	for i := 0; i < 3; i++ {
		updated, err = svc.Update(ctx, created.ID, domain.UpdateInput{})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, updated.Version)
}

func TestUpdateRetainsAbsentFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateInput{
		Title:       "Original",
		Description: "keep me",
		Tags:        []string{"a"},
		Flow:        json.RawMessage(`{"nodes":[1]}`),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, []string{"a"}, updated.Tags)
	assert.JSONEq(t, `{"nodes":[1]}`, string(updated.Flow))

	t.Run("explicit empty tags clear the set", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, domain.UpdateInput{Tags: []string{}})
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
	})
}

func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	title := "x"
	_, err := svc.Update(ctx, "does-not-exist", domain.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCatalogIDNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	title := "hijack"
	_, err := svc.Update(ctx, "file-sample", domain.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the catalog entry is untouched
	d, err := svc.GetByID(ctx, "file-sample")
	require.NoError(t, err)
	assert.Equal(t, "Sample Flow", d.Title)
	assert.Equal(t, 0, d.Version)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateInput{Title: "Persisted"})
	require.NoError(t, err)

	t.Run("repository wins", func(t *testing.T) {
		d, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceDB, d.Source)
		assert.NotNil(t, d.Flow, "full record includes the flow")
	})

	t.Run("catalog fallback", func(t *testing.T) {
		d, err := svc.GetByID(ctx, "file-sample")
		require.NoError(t, err)
		assert.Equal(t, "Sample Flow", d.Title)
		assert.Equal(t, 0, d.Version)
		assert.Equal(t, domain.SourceFile, d.Source)
	})

	t.Run("absent everywhere", func(t *testing.T) {
		_, err := svc.GetByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestListAllMergesSources(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateInput{
		Title: "Checkout Flow",
		Tags:  []string{"payments"},
	})
	require.NoError(t, err)

	all, err := svc.ListAll(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.SourceDB, all[0].Source, "persisted results come first")
	assert.Equal(t, domain.SourceFile, all[1].Source)

	t.Run("tag filter spans both sources", func(t *testing.T) {
		got, err := svc.ListAll(ctx, "payments", "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, created.ID, got[0].ID)
	})

	t.Run("query filter is case-insensitive on both sources", func(t *testing.T) {
		got, err := svc.ListAll(ctx, "", "flow")
		require.NoError(t, err)
		require.Len(t, got, 2)

		got, err = svc.ListAll(ctx, "", "SAMPLE")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "file-sample", got[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := svc.ListAll(ctx, "nonexistent-tag", "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCatalogUnaffectedByWrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	before, err := svc.GetByID(ctx, "file-sample")
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateInput{Title: "Sample Flow"})
	require.NoError(t, err)

	after, err := svc.GetByID(ctx, "file-sample")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateInput{Title: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// absent id is a no-op
	require.NoError(t, svc.DeleteByID(ctx, created.ID))
}

func TestConcurrentCreatesNeverCollide(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := svc.Create(ctx, domain.CreateInput{Title: fmt.Sprintf("d-%d", i)})
			assert.NoError(t, err)
			ids <- d.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
