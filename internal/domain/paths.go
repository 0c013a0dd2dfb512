package domain

import "path/filepath"

type DataFile string

const (
	DatabaseFile    DataFile = "kinoshelf.db"
	CatalogFile     DataFile = "catalog.json"
	FavoritesFile   DataFile = "favorites.yaml"
	CredentialsFile DataFile = "credentials.yaml"
)

// Paths holds all the file paths of the local data directory
type Paths struct {
	RootDir         string
	DatabaseDir     string
	CatalogPath     string
	FavoritesPath   string
	CredentialsPath string
	ImageCacheDir   string
}

// NewPaths creates a new Paths instance with all paths initialized
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:         rootDir,
		DatabaseDir:     rootDir,
		CatalogPath:     makePath(rootDir, CatalogFile),
		FavoritesPath:   makePath(rootDir, FavoritesFile),
		CredentialsPath: makePath(rootDir, CredentialsFile),
		ImageCacheDir:   filepath.Join(rootDir, "cache", "images"),
	}
}

func makePath(rootDir string, f DataFile) string {
	return filepath.Join(rootDir, string(f))
}
