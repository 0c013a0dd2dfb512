package domain

import "context"

// MovieSummary is one entry of a catalog listing page
type MovieSummary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl"`
}

// Page is one bounded slice of the remote catalog listing
type Page struct {
	Number     int
	Movies     []MovieSummary
	TotalPages int
}

// MovieDetail is the full record of a single movie, fetched on demand
type MovieDetail struct {
	ID          int
	Title       string
	PosterURL   string
	Rating      float64
	Year        int
	Description string
	Genres      []string
}

// CatalogClient is the transport and decode boundary of the remote catalog
type CatalogClient interface {
	FetchPage(ctx context.Context, page int) (*Page, error)
	FetchDetail(ctx context.Context, id int) (*MovieDetail, error)
	FetchPoster(ctx context.Context, url string) ([]byte, error)
}
