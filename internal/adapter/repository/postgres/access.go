package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/R4255/URLShortener/internal/entity"
	"github.com/jmoiron/sqlx"
)

type accessDB struct {
	ID         string         `db:"id"`
	URLID      string         `db:"url_id"`
	AccessedAt time.Time      `db:"accessed_at"`
	IPAddress  sql.NullString `db:"ip_address"`
	UserAgent  sql.NullString `db:"user_agent"`
	Referrer   sql.NullString `db:"referrer"`
}

func (a *accessDB) toEntity() entity.AccessEvent {
	return entity.AccessEvent{
		ID:         a.ID,
		URLID:      a.URLID,
		AccessedAt: a.AccessedAt,
		IPAddress:  a.IPAddress.String,
		UserAgent:  a.UserAgent.String,
		Referrer:   a.Referrer.String,
	}
}

type dailyStatDB struct {
	Date   time.Time `db:"date"`
	Clicks int64     `db:"clicks"`
}

// AccessRepository stores the access events of shortened URLs.
type AccessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// Record increments the click counter of the URL and inserts the event. Both
// writes are committed together or not at all.
func (r *AccessRepository) Record(ctx context.Context, event *entity.AccessEvent) error {
	const op = "adapter.repository.postgres.AccessRepository.Record"
	const updateQuery = `UPDATE urls SET clicks = clicks + 1 WHERE id = $1`
	const insertQuery = `INSERT INTO url_accesses(id, url_id, accessed_at, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, updateQuery, event.URLID)
	if err != nil {
		return fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	_, err = tx.ExecContext(ctx, insertQuery,
		event.ID,
		event.URLID,
		event.AccessedAt,
		nullString(event.IPAddress),
		nullString(event.UserAgent),
		nullString(event.Referrer),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert into url_accesses table: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// RetrieveDailyStats counts the events of the URL per UTC calendar date since
// the given time, inclusive. Dates without events are omitted.
func (r *AccessRepository) RetrieveDailyStats(ctx context.Context, urlID string, since time.Time) ([]entity.DailyStat, error) {
	const op = "adapter.repository.postgres.AccessRepository.RetrieveDailyStats"
	const query = `SELECT DATE(accessed_at AT TIME ZONE 'UTC') AS date, COUNT(id) AS clicks
		FROM url_accesses
		WHERE url_id = $1 AND accessed_at >= $2
		GROUP BY date
		ORDER BY date`

	var rows []dailyStatDB

	if err := r.db.SelectContext(ctx, &rows, query, urlID, since); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate url_accesses table: %w", op, err)
	}

	stats := make([]entity.DailyStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, entity.DailyStat{Date: row.Date, Clicks: row.Clicks})
	}

	return stats, nil
}

func (r *AccessRepository) RetrieveRecent(ctx context.Context, urlID string, limit int) ([]entity.AccessEvent, error) {
	const op = "adapter.repository.postgres.AccessRepository.RetrieveRecent"
	const query = `SELECT id, url_id, accessed_at, ip_address, user_agent, referrer
		FROM url_accesses
		WHERE url_id = $1
		ORDER BY accessed_at DESC
		LIMIT $2`

	var rows []accessDB

	if err := r.db.SelectContext(ctx, &rows, query, urlID, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from url_accesses table: %w", op, err)
	}

	events := make([]entity.AccessEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEntity())
	}

	return events, nil
}
