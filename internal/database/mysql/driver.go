// Package mysql provides a MySQL implementation of database.DB backed by
// database/sql and go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/schemalens/schemalens/internal/database"
	"github.com/schemalens/schemalens/internal/errs"
)

// Driver is a MySQL implementation of database.DB.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided Config and returns a
// Driver. It calls Ping to validate the connection before returning.
// The DSN uses go-sql-driver format: "user:pass@tcp(host:port)/dbname".
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

func (d *Driver) Driver() database.Driver {
	return database.DriverMySQL
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

// mapError translates go-sql-driver/mysql errors into *errs.Error.
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

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case 1044, 1045, 1046, 1049:
		return errs.ErrKindConnectionFailed
	case 1040, 1203:
		return errs.ErrKindConnectionFailed
	case 1054, 1064, 1146:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
