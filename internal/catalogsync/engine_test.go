package catalogsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kinoshelf/internal/domain"
)

type fakeFetcher struct {
	total    int
	perPage  int
	failures map[int]error
	delay    func(page int) time.Duration

	mu       sync.Mutex
	calls    map[int]int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeFetcher(total, perPage int) *fakeFetcher {
	return &fakeFetcher{
		total:    total,
		perPage:  perPage,
		failures: map[int]error{},
		calls:    map[int]int{},
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (*domain.Page, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[page]++
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(page))
	}

	if err, ok := f.failures[page]; ok {
		return nil, err
	}

	movies := make([]domain.MovieSummary, 0, f.perPage)
	for i := 0; i < f.perPage; i++ {
		id := page*100 + i
		movies = append(movies, domain.MovieSummary{ID: id, Title: fmt.Sprintf("movie %d", id)})
	}
	return &domain.Page{Number: page, Movies: movies, TotalPages: f.total}, nil
}

func (f *fakeFetcher) callCount(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[page]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func ids(movies []domain.MovieSummary) []int {
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func TestFetchAllFetchesEveryPageOnce(t *testing.T) {
	f := newFakeFetcher(5, 2)
	e := NewEngine(zerolog.Nop(), f, WithConcurrency(3))

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)

	for page := 1; page <= 5; page++ {
		assert.Equal(t, 1, f.callCount(page), "page %d", page)
	}
	assert.Equal(t, 5, f.totalCalls())
	assert.Len(t, res.Movies, 10)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Fetched)
	assert.Equal(t, 5, res.TotalPages)
	assert.False(t, res.Partial())
}

func TestFetchAllSkipsFailedPage(t *testing.T) {
	f := newFakeFetcher(3, 2)
	f.failures[2] = domain.ErrNoData
	e := NewEngine(zerolog.Nop(), f)

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{100, 101, 300, 301}, ids(res.Movies))
	assert.Equal(t, []int{1, 3}, res.Fetched)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Page)
	assert.ErrorIs(t, res.Failed[0], domain.ErrNoData)
	assert.True(t, res.Partial())
}

func TestFetchAllFirstPageFailure(t *testing.T) {
	f := newFakeFetcher(3, 2)
	f.failures[1] = domain.ErrUnauthorized
	e := NewEngine(zerolog.Nop(), f)

	res, err := e.FetchAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, f.totalCalls())
}

func TestFetchAllSinglePage(t *testing.T) {
	f := newFakeFetcher(1, 3)
	e := NewEngine(zerolog.Nop(), f)

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{100, 101, 102}, ids(res.Movies))
	assert.Equal(t, 1, f.totalCalls())
}

func TestFetchAllZeroTotalTreatedAsOne(t *testing.T) {
	f := newFakeFetcher(0, 1)
	e := NewEngine(zerolog.Nop(), f)

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 1, f.totalCalls())
}

func TestFetchAllOrderIndependentOfCompletion(t *testing.T) {
	f := newFakeFetcher(6, 1)
	// later pages finish first
	f.delay = func(page int) time.Duration {
		return time.Duration(7-page) * 5 * time.Millisecond
	}
	e := NewEngine(zerolog.Nop(), f, WithConcurrency(6))

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{100, 200, 300, 400, 500, 600}, ids(res.Movies))
}

func TestFetchAllRespectsConcurrency(t *testing.T) {
	f := newFakeFetcher(20, 1)
	f.delay = func(int) time.Duration { return 5 * time.Millisecond }
	e := NewEngine(zerolog.Nop(), f, WithConcurrency(2))

	_, err := e.FetchAll(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
	assert.Equal(t, 20, f.totalCalls())
}

func TestFetchAllRespectsMaxPages(t *testing.T) {
	f := newFakeFetcher(10, 1)
	e := NewEngine(zerolog.Nop(), f, WithMaxPages(3))

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, f.totalCalls())
	assert.Equal(t, 10, res.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, res.Fetched)
}

func TestFetchAllFailedPagesSorted(t *testing.T) {
	f := newFakeFetcher(6, 1)
	f.failures[5] = domain.ErrDecode
	f.failures[2] = domain.ErrNoData
	f.failures[4] = domain.ErrNoData
	e := NewEngine(zerolog.Nop(), f, WithConcurrency(4))

	res, err := e.FetchAll(context.Background())
	require.NoError(t, err)

	pages := make([]int, 0, len(res.Failed))
	for _, pe := range res.Failed {
		pages = append(pages, pe.Page)
	}
	assert.Equal(t, []int{2, 4, 5}, pages)
	assert.Equal(t, []int{100, 300, 600}, ids(res.Movies))
}

func TestFetchAllConcurrentCallsIndependent(t *testing.T) {
	f := newFakeFetcher(4, 2)
	e := NewEngine(zerolog.Nop(), f)

	var wg sync.WaitGroup
	results := make([]*Result, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.FetchAll(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	for _, res := range results {
		require.NotNil(t, res)
		assert.Len(t, res.Movies, 8)
	}
	assert.Equal(t, 20, f.totalCalls())
}

func TestFetchAllAsyncDeliversOnce(t *testing.T) {
	f := newFakeFetcher(3, 1)
	e := NewEngine(zerolog.Nop(), f)

	ch := e.FetchAllAsync(context.Background())

	var outcomes []Outcome
	for o := range ch {
		outcomes = append(outcomes, o)
	}

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.Len(t, outcomes[0].Result.Movies, 3)
}

func TestFetchAllAsyncFirstPageError(t *testing.T) {
	f := newFakeFetcher(3, 1)
	f.failures[1] = domain.ErrDecode
	e := NewEngine(zerolog.Nop(), f)

	o, ok := <-e.FetchAllAsync(context.Background())
	require.True(t, ok)
	assert.ErrorIs(t, o.Err, domain.ErrDecode)
	assert.Nil(t, o.Result)
}
