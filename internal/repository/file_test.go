package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kinoshelf/internal/domain"
	"gopkg.in/yaml.v3"
)

func TestCatalogSnapshot(t *testing.T) {
	r := NewFileRepository(zerolog.Nop())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "catalog.json")

	movies := []domain.MovieSummary{
		{ID: 1, Title: "A", PosterURL: "https://img/1.jpg"},
		{ID: 2, Title: "B", PosterURL: "https://img/2.jpg"},
	}
	require.NoError(t, r.StoreCatalog(ctx, path, movies))

	got, err := r.GetCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, movies, got)

	require.NoError(t, r.StoreCatalog(ctx, path, nil))
	got, err = r.GetCatalog(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetCatalogMissing(t *testing.T) {
	r := NewFileRepository(zerolog.Nop())

	_, err := r.GetCatalog(context.Background(), filepath.Join(t.TempDir(), "catalog.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = r.GetCatalog(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestStoreFavorites(t *testing.T) {
	r := NewFileRepository(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "favorites.yaml")

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	favs := []*domain.Favorite{{
		ID:        123,
		Title:     "Sample",
		Rating:    8.5,
		Year:      2023,
		Genres:    []string{"Drama", "Thriller"},
		CreatedAt: created,
	}}
	require.NoError(t, r.StoreFavorites(context.Background(), path, favs))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Favorites []*domain.Favorite `yaml:"favorites"`
	}
	require.NoError(t, yaml.Unmarshal(b, &doc))
	require.Len(t, doc.Favorites, 1)
	assert.Equal(t, "Sample", doc.Favorites[0].Title)
	assert.Equal(t, []string{"Drama", "Thriller"}, doc.Favorites[0].Genres)
	assert.True(t, created.Equal(doc.Favorites[0].CreatedAt))
}
