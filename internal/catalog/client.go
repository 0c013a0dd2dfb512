package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
)

// APIKeyHeader carries the catalog API key
const APIKeyHeader = "X-API-KEY"

// Client is a stateless request/decode wrapper around the catalog API.
// It neither caches nor retries.
type Client struct {
	log          zerolog.Logger
	baseURL      *url.URL
	httpClient   *http.Client
	posterClient *http.Client
}

var _ domain.CatalogClient = (*Client)(nil)

type pageResponse struct {
	PagesCount *int `json:"pagesCount"`
	Films      []struct {
		FilmID           int    `json:"filmId"`
		NameRu           string `json:"nameRu"`
		PosterURLPreview string `json:"posterUrlPreview"`
	} `json:"films"`
}

type detailResponse struct {
	KinopoiskID     int     `json:"kinopoiskId"`
	NameRu          string  `json:"nameRu"`
	PosterURL       string  `json:"posterUrl"`
	RatingKinopoisk float64 `json:"ratingKinopoisk"`
	Year            int     `json:"year"`
	Description     string  `json:"description"`
	Genres          []struct {
		Genre string `json:"genre"`
	} `json:"genres"`
}

type apiKeyTransport struct {
	Transport   http.RoundTripper
	Credentials domain.CredentialProvider
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	key, ok := "", false
	if t.Credentials != nil {
		key, ok = t.Credentials.Get(domain.APIKeyName)
	}
	if !ok || key == "" {
		return nil, domain.ErrUnauthorized
	}

	r := req.Clone(req.Context())
	r.Header.Set(APIKeyHeader, key)
	r.Header.Set("Accept", "application/json")
	return transport.RoundTrip(r)
}

// NewClient creates a catalog client reading the API key from creds on every request
func NewClient(log zerolog.Logger, cfg *domain.Config, creds domain.CredentialProvider) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/"))
	if err != nil || !base.IsAbs() {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "invalid api base url %q", cfg.APIBaseURL)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		log:     log.With().Str("module", "catalog").Logger(),
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &apiKeyTransport{Credentials: creds},
		},
		posterClient: &http.Client{Timeout: timeout},
	}, nil
}

// FetchPage fetches one page of the top films listing
func (c *Client) FetchPage(ctx context.Context, page int) (*domain.Page, error) {
	if page < 1 {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "page %d out of range", page)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, c.endpoint(query, "films", "top"))
	if err != nil {
		return nil, err
	}

	resp := &pageResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrapf(domain.ErrDecode, "page %d: %v", page, err)
	}
	if resp.PagesCount == nil {
		return nil, errors.Wrapf(domain.ErrDecode, "page %d: missing pagesCount", page)
	}

	p := &domain.Page{
		Number:     page,
		TotalPages: *resp.PagesCount,
		Movies:     make([]domain.MovieSummary, 0, len(resp.Films)),
	}
	for _, f := range resp.Films {
		p.Movies = append(p.Movies, domain.MovieSummary{
			ID:        f.FilmID,
			Title:     f.NameRu,
			PosterURL: f.PosterURLPreview,
		})
	}

	c.log.Debug().Int("page", page).Int("films", len(p.Movies)).Int("pages_count", p.TotalPages).Msg("fetched catalog page")
	return p, nil
}

// FetchDetail fetches the detail record of a single film
func (c *Client) FetchDetail(ctx context.Context, id int) (*domain.MovieDetail, error) {
	if id < 1 {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "film id %d out of range", id)
	}

	body, err := c.get(ctx, c.endpoint(nil, "films", strconv.Itoa(id)))
	if err != nil {
		return nil, err
	}

	resp := &detailResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrapf(domain.ErrDecode, "film %d: %v", id, err)
	}
	if resp.KinopoiskID == 0 {
		return nil, errors.Wrapf(domain.ErrDecode, "film %d: missing kinopoiskId", id)
	}

	genres := make([]string, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		genres = append(genres, g.Genre)
	}

	return &domain.MovieDetail{
		ID:          resp.KinopoiskID,
		Title:       resp.NameRu,
		PosterURL:   resp.PosterURL,
		Rating:      resp.RatingKinopoisk,
		Year:        resp.Year,
		Description: resp.Description,
		Genres:      genres,
	}, nil
}

// FetchPoster downloads raw poster bytes. Posters are public, no API key is sent.
func (c *Client) FetchPoster(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "invalid poster url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidRequest, err.Error())
	}

	return c.do(c.posterClient, req)
}

func (c *Client) endpoint(query url.Values, elem ...string) string {
	u := c.baseURL.JoinPath(elem...)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidRequest, err.Error())
	}

	return c.do(c.httpClient, req)
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, domain.ErrUnauthorized
		}
		return nil, errors.Wrapf(domain.ErrNoData, "failed to fetch %s: %v", req.URL, err)
	}
	defer resp.Body.Close()

	c.log.Trace().Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("response")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrNoData, "failed to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if len(body) == 0 {
		return nil, errors.Wrap(domain.ErrNoData, fmt.Sprintf("empty response from %s", req.URL))
	}

	return body, nil
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
