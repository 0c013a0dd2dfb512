package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kinoshelf/internal/domain"
)

type fakeCatalog struct {
	srv        *httptest.Server
	detailDown atomic.Bool
	requests   atomic.Int32
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/films/top", func(w http.ResponseWriter, r *http.Request) {
		fc.requests.Add(1)
		if r.Header.Get("X-API-KEY") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, `{"pagesCount":3,"films":[{"filmId":1,"nameRu":"One","posterUrlPreview":"%s/img/1.jpg"}]}`, fc.srv.URL)
		case "2":
			// empty body
		case "3":
			fmt.Fprintf(w, `{"pagesCount":3,"films":[{"filmId":3,"nameRu":"Three","posterUrlPreview":"%s/img/3.jpg"}]}`, fc.srv.URL)
		}
	})
	mux.HandleFunc("/api/films/", func(w http.ResponseWriter, r *http.Request) {
		fc.requests.Add(1)
		if fc.detailDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/films/")
		fmt.Fprintf(w, `{"kinopoiskId":%s,"nameRu":"Movie %s","ratingKinopoisk":8.5,"year":2023,"genres":[{"genre":"Drama"},{"genre":"Thriller"}]}`, id, id)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
	})
	fc.srv = httptest.NewServer(mux)
	t.Cleanup(fc.srv.Close)
	return fc
}

func newTestApp(t *testing.T, fc *fakeCatalog, apiKey string) *App {
	t.Helper()
	return newTestAppWithConfig(t, fc, func(cfg *domain.Config) { cfg.APIKey = apiKey })
}

func newTestAppWithConfig(t *testing.T, fc *fakeCatalog, mutate func(cfg *domain.Config)) *App {
	t.Helper()
	cfg := &domain.Config{
		RootPath:          t.TempDir(),
		APIBaseURL:        fc.srv.URL + "/api",
		Concurrency:       2,
		RequestTimeout:    5 * time.Second,
		PosterConcurrency: 2,
		SyncSchedule:      "@every 1h",
		LogLevel:          "info",
	}
	mutate(cfg)

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSyncPartial(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "secret")
	ctx := context.Background()

	report, err := a.Sync(ctx, true)
	require.NoError(t, err)

	res := report.Result
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, []int{1, 3}, res.Fetched)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Page)
	assert.ErrorIs(t, res.Failed[0], domain.ErrNoData)

	require.NotNil(t, report.Posters)
	assert.Equal(t, 2, report.Posters.Fetched)

	movies, err := a.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, 1, movies[0].ID)
	assert.Equal(t, 3, movies[1].ID)

	stats, err := a.PosterStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)

	_, hit, err := a.Poster(ctx, movies[0].PosterURL)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestSyncWithoutKey(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "")

	assert.False(t, a.HasAPIKey())
	_, err := a.Sync(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int32(0), fc.requests.Load())

	require.NoError(t, a.SetAPIKey("secret"))
	assert.True(t, a.HasAPIKey())

	_, err = a.Sync(context.Background(), false)
	require.NoError(t, err)
}

func TestFavoritesFlow(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "secret")
	ctx := context.Background()

	added, detail, err := a.AddFavorite(ctx, 123)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Movie 123", detail.Title)

	added, _, err = a.AddFavorite(ctx, 123)
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := a.IsFavorite(ctx, 123)
	require.NoError(t, err)
	assert.True(t, ok)

	fc.detailDown.Store(true)
	d, offline, err := a.Detail(ctx, 123)
	require.NoError(t, err)
	assert.True(t, offline)
	assert.Equal(t, []string{"Drama", "Thriller"}, d.Genres)

	_, _, err = a.Detail(ctx, 456)
	assert.Error(t, err)

	path, n, err := a.ExportFavorites(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, a.Paths().FavoritesPath, path)

	removed, err := a.RemoveFavorite(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	favs, err := a.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestClearPostersKeepsFavorites(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "secret")
	ctx := context.Background()

	_, _, err := a.AddFavorite(ctx, 7)
	require.NoError(t, err)
	_, _, err = a.Poster(ctx, fc.srv.URL+"/img/7.jpg")
	require.NoError(t, err)

	require.NoError(t, a.ClearPosters())

	stats, err := a.PosterStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)

	ok, err := a.IsFavorite(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWatchSyncsImmediately(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Watch(ctx, false))

	movies, err := a.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestSyncFailureNotifiedAfterCancel(t *testing.T) {
	fc := newFakeCatalog(t)

	var notified atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notified.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()

	a := newTestAppWithConfig(t, fc, func(cfg *domain.Config) {
		cfg.APIKey = "secret"
		cfg.DiscordWebhookURL = webhook.URL
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Sync(ctx, false)
	require.Error(t, err)
	assert.Equal(t, int32(1), notified.Load())
}

func TestAPIKeySource(t *testing.T) {
	fc := newFakeCatalog(t)
	a := newTestApp(t, fc, "from-config")

	assert.Equal(t, KeySourceConfig, a.APIKeySource())

	require.NoError(t, a.SetAPIKey("secret"))
	assert.Equal(t, KeySourceCredentials, a.APIKeySource())

	require.NoError(t, a.SetAPIKey(""))
	assert.Equal(t, KeySourceConfig, a.APIKeySource())
	assert.True(t, a.HasAPIKey())

	b := newTestApp(t, fc, "")
	assert.Equal(t, KeySourceNone, b.APIKeySource())
	assert.False(t, b.HasAPIKey())
}
