package domain

import (
	"context"
	"strings"
	"time"
)

// GenreSeparator joins genre names in the stored favorite record.
// A genre name containing the separator does not round-trip.
const GenreSeparator = ","

// Favorite is a movie detail the user chose to keep locally
type Favorite struct {
	ID          int       `yaml:"id"`
	Title       string    `yaml:"title"`
	PosterURL   string    `yaml:"posterUrl"`
	Rating      float64   `yaml:"rating"`
	Year        int       `yaml:"year"`
	Description string    `yaml:"description"`
	Genres      []string  `yaml:"genres"`
	CreatedAt   time.Time `yaml:"createdAt"`
}

// NewFavorite builds a favorite record from a movie detail
func NewFavorite(d *MovieDetail, now time.Time) *Favorite {
	return &Favorite{
		ID:          d.ID,
		Title:       d.Title,
		PosterURL:   d.PosterURL,
		Rating:      d.Rating,
		Year:        d.Year,
		Description: d.Description,
		Genres:      append([]string(nil), d.Genres...),
		CreatedAt:   now,
	}
}

// Detail converts the stored record back into a movie detail
func (f *Favorite) Detail() *MovieDetail {
	return &MovieDetail{
		ID:          f.ID,
		Title:       f.Title,
		PosterURL:   f.PosterURL,
		Rating:      f.Rating,
		Year:        f.Year,
		Description: f.Description,
		Genres:      append([]string(nil), f.Genres...),
	}
}

// EncodeGenres joins genres into their stored form
func EncodeGenres(genres []string) string {
	return strings.Join(genres, GenreSeparator)
}

// DecodeGenres splits a stored genre string. An empty string yields no genres.
func DecodeGenres(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, GenreSeparator)
}

// FavoriteRepo defines durable storage of favorite records.
// At most one record exists per movie ID.
type FavoriteRepo interface {
	// Add inserts the detail unless a record with the same ID exists. Reports whether a row was inserted.
	Add(ctx context.Context, detail *MovieDetail) (bool, error)
	// Remove deletes every record with the ID and reports how many were removed
	Remove(ctx context.Context, id int) (int64, error)
	Contains(ctx context.Context, id int) (bool, error)
	Get(ctx context.Context, id int) (*Favorite, error)
	// List returns all favorites ordered by title ascending
	List(ctx context.Context) ([]*Favorite, error)
	Clear(ctx context.Context) (int64, error)
}
