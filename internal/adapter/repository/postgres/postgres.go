package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/R4255/URLShortener/internal/entity"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

type urlDB struct {
	ID          string         `db:"id"`
	ShortCode   string         `db:"short_code"`
	OriginalURL string         `db:"original_url"`
	OwnerID     sql.NullString `db:"owner_id"`
	Clicks      int64          `db:"clicks"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		OwnerID:     u.OwnerID.String,
		Clicks:      u.Clicks,
		CreatedAt:   u.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(id, short_code, original_url, owner_id, clicks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		url.ID, url.ShortCode, url.OriginalURL, nullString(url.OwnerID), url.Clicks, url.CreatedAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT id, short_code, original_url, owner_id, clicks, created_at
		FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// RetrieveByOriginalURL returns the oldest URL stored for the original URL.
func (r *URLRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByOriginalURL"
	const query = `SELECT id, short_code, original_url, owner_id, clicks, created_at
		FROM urls WHERE original_url = $1
		ORDER BY created_at
		LIMIT 1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, originalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// List returns a page of URLs ordered by creation time, most recent first, and
// the total number of URLs matching the owner filter. An empty ownerID matches all URLs.
func (r *URLRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*entity.URL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.List"
	const countQuery = `SELECT COUNT(*) FROM urls WHERE ($1 = '' OR owner_id = $1)`
	const listQuery = `SELECT id, short_code, original_url, owner_id, clicks, created_at
		FROM urls WHERE ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var total int64

	if err := r.db.GetContext(ctx, &total, countQuery, ownerID); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count rows in urls table: %w", op, err)
	}

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, listQuery, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select rows from urls table: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, total, nil
}

// Remove deletes the URL and its access events in a single transaction.
func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.URLRepository.Remove"
	const deleteAccessesQuery = `DELETE FROM url_accesses
		WHERE url_id IN (SELECT id FROM urls WHERE short_code = $1)`
	const deleteURLQuery = `DELETE FROM urls WHERE short_code = $1`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteAccessesQuery, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete from url_accesses table: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, deleteURLQuery, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
