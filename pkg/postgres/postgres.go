// Package postgres opens pooled PostgreSQL connections through sqlx and the
// pgx stdlib driver and applies embedded schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

type pool struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
	connectTimeout  time.Duration
}

var defaultPool = pool{
	connMaxIdleTime: 5 * time.Minute,
	connMaxLifetime: 30 * time.Minute,
	maxIdleConns:    5,
	maxOpenConns:    25,
	connectTimeout:  10 * time.Second,
}

// Option tunes the connection pool. Zero values passed to the options keep the defaults.
type Option func(*pool)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(p *pool) {
		if d > 0 {
			p.connMaxIdleTime = d
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(p *pool) {
		if d > 0 {
			p.connMaxLifetime = d
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(p *pool) {
		if n > 0 {
			p.maxIdleConns = n
		}
	}
}

func WithMaxOpenConns(n int) Option {
	return func(p *pool) {
		if n > 0 {
			p.maxOpenConns = n
		}
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(p *pool) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}

// New connects to the database and verifies the connection with a ping.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	p := defaultPool
	for _, opt := range opts {
		opt(&p)
	}

	connectCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(connectCtx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(p.connMaxIdleTime)
	db.SetConnMaxLifetime(p.connMaxLifetime)
	db.SetMaxIdleConns(p.maxIdleConns)
	db.SetMaxOpenConns(p.maxOpenConns)

	return db, nil
}
