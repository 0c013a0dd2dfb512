package domain

import (
	"context"
)

// CatalogRepository stores the snapshot of the last catalog sync
type CatalogRepository interface {
	GetCatalog(ctx context.Context, path string) ([]MovieSummary, error)
	StoreCatalog(ctx context.Context, path string, movies []MovieSummary) error
}

// FavoritesExporter writes favorites to a portable file
type FavoritesExporter interface {
	StoreFavorites(ctx context.Context, path string, favorites []*Favorite) error
}
