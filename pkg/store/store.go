// pkg/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// ErrNoDatabase is returned by Unavailable for every query.
var ErrNoDatabase = errors.New("store: no database configured")

// Queryer sends SQL to the observation database.
//
// It is the subset of *pgxpool.Pool, *pgxpool.Conn and pgx.Tx used by
// data quality items.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var _ Queryer = (*pgxpool.Pool)(nil)

// Connect opens a pool for dsn and pings it once.
func Connect(ctx context.Context, dsn string, maxConns int32, log *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if log != nil {
		log.Info("database connected",
			zap.String("host", cfg.ConnConfig.Host),
			zap.String("database", cfg.ConnConfig.Database),
			zap.Int32("maxConns", cfg.MaxConns),
		)
	}
	return pool, nil
}

// Unavailable stands in when no database is configured. Pages that do not
// query keep working; those that do fail with ErrNoDatabase.
type Unavailable struct{}

var _ Queryer = Unavailable{}

func (Unavailable) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, ErrNoDatabase
}

func (Unavailable) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrNoDatabase
}

func (Unavailable) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{ErrNoDatabase}
}

type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }
