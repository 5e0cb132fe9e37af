package schema

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/database"
)

// SQLiteIntrospector implements Introspector for SQLite using PRAGMA queries.
type SQLiteIntrospector struct {
	db database.DB
}

// NewSQLiteIntrospector creates a SQLite schema introspector.
func NewSQLiteIntrospector(db database.DB) *SQLiteIntrospector {
	return &SQLiteIntrospector{db: db}
}

// ListTables returns all user tables, excluding SQLite's internal tables.
func (s *SQLiteIntrospector) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableColumns returns column details via PRAGMA table_info.
// PRAGMA arguments cannot be parameterized, so the table name is quoted.
func (s *SQLiteIntrospector) TableColumns(ctx context.Context, table string) ([]Column, error) {
	q := fmt.Sprintf("PRAGMA table_info(%s)", database.QuoteIdent(database.DriverSQLite, table))

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			notNull int
			pk      int
			col     Column
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.DefaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		cols = append(cols, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", table)
	}
	return cols, nil
}

// ForeignKeys returns declared FK relationships by walking every table's
// PRAGMA foreign_key_list.
func (s *SQLiteIntrospector) ForeignKeys(ctx context.Context) ([]ForeignKeyRef, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var fks []ForeignKeyRef
	for _, table := range tables {
		q := fmt.Sprintf("PRAGMA foreign_key_list(%s)", database.QuoteIdent(database.DriverSQLite, table))

		rows, err := s.db.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list foreign keys for %s: %w", table, err)
		}

		for rows.Next() {
			var (
				id, seq            int
				refTable           string
				from               string
				to                 *string // nil when the FK targets the referenced table's PK
				onUpdate, onDelete string
				match              string
			)
			if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan foreign key for %s: %w", table, err)
			}
			refColumn := "id"
			if to != nil {
				refColumn = *to
			}
			fks = append(fks, ForeignKeyRef{
				Table:     table,
				Column:    from,
				RefTable:  refTable,
				RefColumn: refColumn,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return fks, nil
}

// RowCount returns the number of rows in the table.
func (s *SQLiteIntrospector) RowCount(ctx context.Context, table string) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", database.QuoteIdent(database.DriverSQLite, table))

	var count int64
	if err := s.db.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}
