package poster

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Fetcher downloads raw poster bytes
type Fetcher interface {
	FetchPoster(ctx context.Context, url string) ([]byte, error)
}

// Store is the poster byte cache
type Store interface {
	Save(url string, data []byte) error
	Load(url string) ([]byte, bool)
	Exists(url string) bool
}

type Service interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Prefetch(ctx context.Context, urls []string) PrefetchResult
}

// PrefetchResult counts the outcome of warming the cache
type PrefetchResult struct {
	Cached  int
	Fetched int
	Failed  int
}

type Option func(*service)

func WithConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

type service struct {
	log         zerolog.Logger
	store       Store
	fetcher     Fetcher
	concurrency int
}

func NewService(log zerolog.Logger, store Store, fetcher Fetcher, opts ...Option) Service {
	s := &service{
		log:         log.With().Str("module", "poster").Logger(),
		store:       store,
		fetcher:     fetcher,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the poster for url, from the cache when present (hit is true)
// or from the network otherwise. A failed cache write is logged only.
func (s *service) Get(ctx context.Context, url string) ([]byte, bool, error) {
	if url == "" {
		return nil, false, errors.New("empty poster url")
	}

	if data, ok := s.store.Load(url); ok {
		return data, true, nil
	}

	data, err := s.fetcher.FetchPoster(ctx, url)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to fetch poster %s", url)
	}

	if err := s.store.Save(url, data); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("failed to cache poster")
	}

	return data, false, nil
}

// Prefetch warms the cache for every distinct non-empty url
func (s *service) Prefetch(ctx context.Context, urls []string) PrefetchResult {
	var (
		res  PrefetchResult
		mu   sync.Mutex
		seen = make(map[string]struct{}, len(urls))
	)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		if s.store.Exists(url) {
			res.Cached++
			continue
		}

		g.Go(func() error {
			_, _, err := s.Get(ctx, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Debug().Err(err).Str("url", url).Msg("poster prefetch failed")
				res.Failed++
				return nil
			}
			res.Fetched++
			return nil
		})
	}

	_ = g.Wait()

	s.log.Info().Int("cached", res.Cached).Int("fetched", res.Fetched).Int("failed", res.Failed).Msg("poster prefetch finished")
	return res
}
