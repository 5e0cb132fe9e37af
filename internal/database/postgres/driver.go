// Package postgres provides a PostgreSQL implementation of database.DB
// backed by pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schemalens/schemalens/internal/database"
	"github.com/schemalens/schemalens/internal/errs"
)

// Driver is a PostgreSQL implementation of database.DB.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	d := &Driver{pool: pool}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

// Driver identifies the engine.
func (d *Driver) Driver() database.Driver {
	return database.DriverPostgres
}

// Ping verifies the database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	d.pool.Close()
}

// Query executes a SQL statement that returns multiple rows.
func (d *Driver) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// QueryRow executes a SQL statement expected to return at most one row.
func (d *Driver) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, desc := range descs {
		cols[i] = desc.Name
	}
	return cols, nil
}

// --- error mapping ---

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		// Class 08 — connection errors
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			kind = errs.ErrKindConnectionFailed
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
