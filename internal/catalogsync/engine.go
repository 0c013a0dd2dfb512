package catalogsync

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// PageFetcher fetches a single listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*domain.Page, error)
}

// Result is the aggregate of one sync run
type Result struct {
	Movies     []domain.MovieSummary
	TotalPages int
	Fetched    []int
	Failed     []domain.PageError
}

// Partial reports whether any page of the run failed
func (r *Result) Partial() bool {
	return len(r.Failed) > 0
}

// Outcome is delivered exactly once by FetchAllAsync
type Outcome struct {
	Result *Result
	Err    error
}

type Option func(*Engine)

// WithConcurrency bounds the number of page requests in flight
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMaxPages caps the number of pages fetched. Zero means all pages.
func WithMaxPages(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPages = n
		}
	}
}

type Engine struct {
	log         zerolog.Logger
	fetcher     PageFetcher
	concurrency int
	maxPages    int
}

func NewEngine(log zerolog.Logger, fetcher PageFetcher, opts ...Option) *Engine {
	e := &Engine{
		log:         log.With().Str("module", "catalogsync").Logger(),
		fetcher:     fetcher,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type accumulator struct {
	mu     sync.Mutex
	pages  map[int][]domain.MovieSummary
	failed []domain.PageError
}

func (a *accumulator) add(page int, movies []domain.MovieSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages[page] = movies
}

func (a *accumulator) fail(page int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = append(a.failed, domain.PageError{Page: page, Err: err})
}

// FetchAll fetches every listing page and returns the concatenated catalog.
// A failure of the first page fails the whole run; later pages fail individually.
func (e *Engine) FetchAll(ctx context.Context) (*Result, error) {
	first, err := e.fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch first page")
	}

	total := first.TotalPages
	if total < 1 {
		total = 1
	}
	last := total
	if e.maxPages > 0 && last > e.maxPages {
		last = e.maxPages
	}

	e.log.Debug().Int("total_pages", total).Int("fetching", last).Msg("starting catalog sync")

	acc := &accumulator{pages: map[int][]domain.MovieSummary{1: first.Movies}}

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for page := 2; page <= last; page++ {
		g.Go(func() error {
			p, err := e.fetcher.FetchPage(ctx, page)
			if err != nil {
				e.log.Warn().Int("page", page).Err(err).Msg("failed to fetch page")
				acc.fail(page, err)
				return nil
			}
			acc.add(page, p.Movies)
			return nil
		})
	}

	// tasks never return errors
	_ = g.Wait()

	res := &Result{TotalPages: total}
	for page := 1; page <= last; page++ {
		movies, ok := acc.pages[page]
		if !ok {
			continue
		}
		res.Fetched = append(res.Fetched, page)
		res.Movies = append(res.Movies, movies...)
	}

	sort.Slice(acc.failed, func(i, j int) bool { return acc.failed[i].Page < acc.failed[j].Page })
	res.Failed = acc.failed

	e.log.Info().Int("movies", len(res.Movies)).Int("pages", len(res.Fetched)).Int("failed", len(res.Failed)).Msg("catalog sync finished")

	return res, nil
}

// FetchAllAsync runs FetchAll in the background. The returned channel
// receives exactly one Outcome and is then closed.
func (e *Engine) FetchAllAsync(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := e.FetchAll(ctx)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}
