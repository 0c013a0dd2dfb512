package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements domain.CatalogRepository and domain.FavoritesExporter using file storage
type FileRepository struct {
	log zerolog.Logger
}

func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.CatalogRepository = (*FileRepository)(nil)
var _ domain.FavoritesExporter = (*FileRepository)(nil)

// GetCatalog reads the catalog snapshot written by the last sync
func (r *FileRepository) GetCatalog(ctx context.Context, path string) ([]domain.MovieSummary, error) {
	movies := []domain.MovieSummary{}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no catalog snapshot at %s, run sync first: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := json.Unmarshal(body, &movies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
	}

	return movies, nil
}

// StoreCatalog replaces the catalog snapshot
func (r *FileRepository) StoreCatalog(ctx context.Context, path string, movies []domain.MovieSummary) error {
	if movies == nil {
		movies = []domain.MovieSummary{}
	}

	j, err := json.MarshalIndent(movies, "", "   ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := writeFile(path, j); err != nil {
		return err
	}

	r.log.Debug().Str("path", path).Int("count", len(movies)).Msg("stored catalog snapshot")
	return nil
}

// StoreFavorites exports favorites as YAML
func (r *FileRepository) StoreFavorites(ctx context.Context, path string, favorites []*domain.Favorite) error {
	doc := struct {
		Favorites []*domain.Favorite `yaml:"favorites"`
	}{Favorites: favorites}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	if err := writeFile(path, b); err != nil {
		return err
	}

	r.log.Debug().Str("path", path).Int("count", len(favorites)).Msg("exported favorites")
	return nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace file %s: %w", path, err)
	}

	return nil
}
