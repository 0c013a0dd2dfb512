package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/catalog"
	"github.com/varoOP/kinoshelf/internal/catalogsync"
	"github.com/varoOP/kinoshelf/internal/config"
	"github.com/varoOP/kinoshelf/internal/credentials"
	"github.com/varoOP/kinoshelf/internal/database"
	"github.com/varoOP/kinoshelf/internal/domain"
	"github.com/varoOP/kinoshelf/internal/imagecache"
	"github.com/varoOP/kinoshelf/internal/logger"
	"github.com/varoOP/kinoshelf/internal/notification"
	"github.com/varoOP/kinoshelf/internal/poster"
	"github.com/varoOP/kinoshelf/internal/repository"
	"github.com/varoOP/kinoshelf/internal/scheduler"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	paths               *domain.Paths
	db                  *database.DB
	favorites           domain.FavoriteRepo
	catalogRepo         domain.CatalogRepository
	exporter            domain.FavoritesExporter
	credentials         *credentials.FileStore
	client              *catalog.Client
	engine              *catalogsync.Engine
	images              *imagecache.Cache
	posters             poster.Service
	notificationService domain.NotificationService
}

// SyncReport is the outcome of App.Sync
type SyncReport struct {
	Result   *catalogsync.Result
	Posters  *poster.PrefetchResult
	Snapshot string
}

// NewApp loads the configuration and creates the application
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	return New(cfg, logger.NewLoggerWithLevel(level))
}

// New creates the application from an already validated configuration.
// Failing to open the favorites database is fatal.
func New(cfg *domain.Config, log zerolog.Logger) (*App, error) {
	paths := domain.NewPaths(cfg.RootPath)

	if err := os.MkdirAll(paths.RootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root dir %s: %w", paths.RootDir, err)
	}

	db, err := database.NewDB(paths.DatabaseDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	creds, err := credentials.NewFileStore(log, paths.CredentialsPath, map[string]string{
		domain.APIKeyName: cfg.APIKey,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	client, err := catalog.NewClient(log, cfg, creds)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	images, err := imagecache.New(paths.ImageCacheDir, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize image cache: %w", err)
	}

	fileRepo := repository.NewFileRepository(log)

	return &App{
		log:         log,
		config:      cfg,
		paths:       paths,
		db:          db,
		favorites:   database.NewFavoriteRepo(log, db),
		catalogRepo: fileRepo,
		exporter:    fileRepo,
		credentials: creds,
		client:      client,
		engine: catalogsync.NewEngine(log, client,
			catalogsync.WithConcurrency(cfg.Concurrency),
			catalogsync.WithMaxPages(cfg.MaxPages),
		),
		images:              images,
		posters:             poster.NewService(log, images, client, poster.WithConcurrency(cfg.PosterConcurrency)),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) Paths() *domain.Paths {
	return a.paths
}

// Sync fetches the whole catalog, stores the snapshot and optionally warms the poster cache
func (a *App) Sync(ctx context.Context, withPosters bool) (report *SyncReport, err error) {
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(context.WithoutCancel(ctx), err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	outcome := <-a.engine.FetchAllAsync(ctx)
	if outcome.Err != nil {
		return nil, fmt.Errorf("catalog sync failed: %w", outcome.Err)
	}
	res := outcome.Result

	if err := a.catalogRepo.StoreCatalog(ctx, a.paths.CatalogPath, res.Movies); err != nil {
		return nil, fmt.Errorf("failed to store catalog snapshot: %w", err)
	}

	report = &SyncReport{Result: res, Snapshot: a.paths.CatalogPath}

	stats := domain.SyncStatistics{
		TotalMovies:  len(res.Movies),
		TotalPages:   res.TotalPages,
		PagesFetched: len(res.Fetched),
	}
	for _, pe := range res.Failed {
		stats.PagesFailed = append(stats.PagesFailed, pe.Page)
	}

	if withPosters {
		urls := make([]string, 0, len(res.Movies))
		for _, m := range res.Movies {
			urls = append(urls, m.PosterURL)
		}
		pr := a.posters.Prefetch(ctx, urls)
		report.Posters = &pr
		stats.PostersCached = pr.Cached + pr.Fetched
		stats.PostersFailed = pr.Failed
	}

	a.log.Info().
		Int("movies", stats.TotalMovies).
		Int("total_pages", stats.TotalPages).
		Int("pages_fetched", stats.PagesFetched).
		Ints("pages_failed", stats.PagesFailed).
		Msg("sync complete")

	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return report, nil
}

// Watch syncs immediately and then on the configured schedule until ctx is cancelled
func (a *App) Watch(ctx context.Context, withPosters bool) error {
	s, err := scheduler.New(a.log, a.config.SyncSchedule, func(ctx context.Context) error {
		_, err := a.Sync(ctx, withPosters)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	return s.Run(ctx)
}

// Catalog returns the snapshot stored by the last sync
func (a *App) Catalog(ctx context.Context) ([]domain.MovieSummary, error) {
	movies, err := a.catalogRepo.GetCatalog(ctx, a.paths.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return movies, nil
}

// Detail fetches a movie detail. When the catalog cannot be reached the
// stored favorite record, if any, is returned instead (offline is true).
func (a *App) Detail(ctx context.Context, id int) (detail *domain.MovieDetail, offline bool, err error) {
	detail, err = a.client.FetchDetail(ctx, id)
	if err == nil {
		return detail, false, nil
	}

	fav, favErr := a.favorites.Get(ctx, id)
	if favErr != nil {
		return nil, false, fmt.Errorf("failed to fetch detail for %d: %w", id, err)
	}

	a.log.Warn().Err(err).Int("id", id).Msg("catalog unavailable, using stored favorite")
	return fav.Detail(), true, nil
}

// AddFavorite fetches the detail of id and stores it. Returns false when it was already a favorite.
func (a *App) AddFavorite(ctx context.Context, id int) (bool, *domain.MovieDetail, error) {
	if ok, err := a.favorites.Contains(ctx, id); err != nil {
		return false, nil, fmt.Errorf("failed to check favorite %d: %w", id, err)
	} else if ok {
		fav, err := a.favorites.Get(ctx, id)
		if err != nil {
			return false, nil, fmt.Errorf("failed to get favorite %d: %w", id, err)
		}
		return false, fav.Detail(), nil
	}

	detail, err := a.client.FetchDetail(ctx, id)
	if err != nil {
		return false, nil, fmt.Errorf("failed to fetch detail for %d: %w", id, err)
	}

	added, err := a.favorites.Add(ctx, detail)
	if err != nil {
		return false, nil, fmt.Errorf("failed to add favorite %d: %w", id, err)
	}

	return added, detail, nil
}

func (a *App) RemoveFavorite(ctx context.Context, id int) (int64, error) {
	n, err := a.favorites.Remove(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to remove favorite %d: %w", id, err)
	}
	return n, nil
}

func (a *App) IsFavorite(ctx context.Context, id int) (bool, error) {
	ok, err := a.favorites.Contains(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite %d: %w", id, err)
	}
	return ok, nil
}

func (a *App) Favorites(ctx context.Context) ([]*domain.Favorite, error) {
	favs, err := a.favorites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favs, nil
}

func (a *App) Favorite(ctx context.Context, id int) (*domain.Favorite, error) {
	fav, err := a.favorites.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite %d: %w", id, err)
	}
	return fav, nil
}

// ExportFavorites writes all favorites as YAML to path, or to the default
// favorites file when path is empty. Returns the path written and the count.
func (a *App) ExportFavorites(ctx context.Context, path string) (string, int, error) {
	if path == "" {
		path = a.paths.FavoritesPath
	}

	favs, err := a.Favorites(ctx)
	if err != nil {
		return "", 0, err
	}

	if err := a.exporter.StoreFavorites(ctx, path, favs); err != nil {
		return "", 0, fmt.Errorf("failed to export favorites: %w", err)
	}

	return path, len(favs), nil
}

func (a *App) ClearFavorites(ctx context.Context) (int64, error) {
	n, err := a.favorites.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear favorites: %w", err)
	}
	return n, nil
}

// Poster returns the poster bytes for url and whether they came from the cache
func (a *App) Poster(ctx context.Context, url string) ([]byte, bool, error) {
	data, hit, err := a.posters.Get(ctx, url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get poster: %w", err)
	}
	return data, hit, nil
}

func (a *App) PosterStats() (imagecache.Stats, error) {
	s, err := a.images.Stats()
	if err != nil {
		return imagecache.Stats{}, fmt.Errorf("failed to read image cache: %w", err)
	}
	return s, nil
}

// ClearPosters empties the image cache. Favorites are not touched.
func (a *App) ClearPosters() error {
	if err := a.images.Clear(); err != nil {
		return fmt.Errorf("failed to clear image cache: %w", err)
	}
	return nil
}

// SetAPIKey stores the catalog API key. An empty key removes the stored
// key only; a key configured through api_key still applies afterwards.
func (a *App) SetAPIKey(key string) error {
	if err := a.credentials.Set(domain.APIKeyName, key); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	return nil
}

// API key sources reported by APIKeySource
const (
	KeySourceNone        = ""
	KeySourceCredentials = "credentials file"
	KeySourceConfig      = "config"
)

// HasAPIKey reports whether an API key is available from the credentials file or config
func (a *App) HasAPIKey() bool {
	return a.APIKeySource() != KeySourceNone
}

// APIKeySource reports where the key used for catalog requests comes from
func (a *App) APIKeySource() string {
	if _, ok := a.credentials.Stored(domain.APIKeyName); ok {
		return KeySourceCredentials
	}
	if _, ok := a.credentials.Get(domain.APIKeyName); ok {
		return KeySourceConfig
	}
	return KeySourceNone
}
