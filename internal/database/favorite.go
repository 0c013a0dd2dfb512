package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kinoshelf/internal/domain"
)

const favoritesTable = "favorites"

var favoriteColumns = []string{"id", "title", "poster_url", "rating", "year", "description", "genres", "created_at"}

// FavoriteRepo implements domain.FavoriteRepo on sqlite
type FavoriteRepo struct {
	log zerolog.Logger
	db  *DB
	now func() time.Time
}

var _ domain.FavoriteRepo = (*FavoriteRepo)(nil)

func NewFavoriteRepo(log zerolog.Logger, db *DB) *FavoriteRepo {
	return &FavoriteRepo{
		log: log.With().Str("repo", "favorite").Logger(),
		db:  db,
		now: time.Now,
	}
}

func persistence(err error, msg string) error {
	return errors.Wrapf(domain.ErrPersistence, "%s: %v", msg, err)
}

func (r *FavoriteRepo) Add(ctx context.Context, detail *domain.MovieDetail) (bool, error) {
	if detail == nil {
		return false, errors.Wrap(domain.ErrPersistence, "nil movie detail")
	}

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistence(err, "error starting transaction")
	}
	defer tx.Rollback()

	countQuery, countArgs, err := r.db.squirrel.
		Select("COUNT(*)").
		From(favoritesTable).
		Where(sq.Eq{"id": detail.ID}).
		ToSql()
	if err != nil {
		return false, persistence(err, "error building query")
	}

	r.log.Trace().Str("query", countQuery).Interface("args", countArgs).Msg("Add")

	var count int
	if err := tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&count); err != nil {
		return false, persistence(err, "error counting favorites")
	}
	if count > 0 {
		return false, nil
	}

	fav := domain.NewFavorite(detail, r.now().UTC())

	query, args, err := r.db.squirrel.
		Insert(favoritesTable).
		Columns(favoriteColumns...).
		Values(fav.ID, fav.Title, fav.PosterURL, fav.Rating, fav.Year, fav.Description,
			domain.EncodeGenres(fav.Genres), fav.CreatedAt.Format(time.RFC3339)).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, persistence(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Add")

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, persistence(err, "error executing query")
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, persistence(err, "error reading rows affected")
	}

	if err := tx.Commit(); err != nil {
		return false, persistence(err, "error committing transaction")
	}

	r.log.Debug().Int("id", fav.ID).Str("title", fav.Title).Msg("added favorite")
	return inserted > 0, nil
}

func (r *FavoriteRepo) Remove(ctx context.Context, id int) (int64, error) {
	return r.delete(ctx, sq.Eq{"id": id}, "Remove")
}

func (r *FavoriteRepo) Clear(ctx context.Context) (int64, error) {
	return r.delete(ctx, nil, "Clear")
}

func (r *FavoriteRepo) delete(ctx context.Context, where sq.Sqlizer, op string) (int64, error) {
	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistence(err, "error starting transaction")
	}
	defer tx.Rollback()

	builder := r.db.squirrel.Delete(favoritesTable)
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, persistence(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg(op)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, persistence(err, "error executing delete query")
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, persistence(err, "error reading rows affected")
	}

	if err := tx.Commit(); err != nil {
		return 0, persistence(err, "error committing transaction")
	}

	return removed, nil
}

func (r *FavoriteRepo) Contains(ctx context.Context, id int) (bool, error) {
	query, args, err := r.db.squirrel.
		Select("COUNT(*)").
		From(favoritesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, persistence(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Contains")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	var count int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, persistence(err, "error counting favorites")
	}

	return count > 0, nil
}

func (r *FavoriteRepo) Get(ctx context.Context, id int) (*domain.Favorite, error) {
	query, args, err := r.db.squirrel.
		Select(favoriteColumns...).
		From(favoritesTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, persistence(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	fav, err := scanFavorite(r.db.handler.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "favorite %d", id)
		}
		return nil, persistence(err, "error scanning row")
	}

	return fav, nil
}

func (r *FavoriteRepo) List(ctx context.Context) ([]*domain.Favorite, error) {
	query, args, err := r.db.squirrel.
		Select(favoriteColumns...).
		From(favoritesTable).
		OrderBy("title ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, persistence(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("List")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence(err, "error executing query")
	}
	defer rows.Close()

	favorites := make([]*domain.Favorite, 0)
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, persistence(err, "error scanning row")
		}
		favorites = append(favorites, fav)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence(err, "error iterating rows")
	}

	return favorites, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (*domain.Favorite, error) {
	var (
		fav       domain.Favorite
		genres    string
		createdAt string
	)

	if err := row.Scan(&fav.ID, &fav.Title, &fav.PosterURL, &fav.Rating, &fav.Year, &fav.Description, &genres, &createdAt); err != nil {
		return nil, err
	}

	fav.Genres = domain.DecodeGenres(genres)

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid created_at %q", createdAt)
	}
	fav.CreatedAt = t

	return &fav, nil
}
