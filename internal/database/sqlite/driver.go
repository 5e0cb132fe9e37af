// Package sqlite provides a SQLite implementation of database.DB backed by
// database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver

	"github.com/schemalens/schemalens/internal/database"
	"github.com/schemalens/schemalens/internal/errs"
)

// Driver is a SQLite implementation of database.DB. SQLite is file-based, so
// the Config DSN is simply the path to the database file.
type Driver struct {
	db *sql.DB
}

// New opens the SQLite file at cfg.DSN and returns a Driver.
// It calls Ping to validate the file before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open database file", err)
	}

	d := &Driver{db: db}

	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

func (d *Driver) Driver() database.Driver {
	return database.DriverSQLite
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// --- sql.DB type wrappers ---

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

// --- error mapping ---

func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
