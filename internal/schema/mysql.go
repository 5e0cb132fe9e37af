package schema

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/database"
)

// MySQLIntrospector implements Introspector for MySQL using information_schema.
// In MySQL the schema is the database, so the introspector scopes every query
// to the connected database via DATABASE().
type MySQLIntrospector struct {
	db database.DB
}

// NewMySQLIntrospector creates a MySQL schema introspector.
func NewMySQLIntrospector(db database.DB) *MySQLIntrospector {
	return &MySQLIntrospector{db: db}
}

// ListTables returns all user-defined table names in the connected database.
func (m *MySQLIntrospector) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.Query(ctx, q)
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

// TableColumns returns column details for a single table, in source order.
func (m *MySQLIntrospector) TableColumns(ctx context.Context, table string) ([]Column, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'   AS is_nullable,
			c.column_default,
			(c.column_key = 'PRI')  AS is_primary_key,
			(c.column_key = 'UNI')  AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE()
		  AND c.table_name   = ?
		ORDER BY c.ordinal_position`

	rows, err := m.db.Query(ctx, q, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.IsNullable,
			&col.DefaultValue,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
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

// ForeignKeys returns all declared FK relationships in the connected database.
func (m *MySQLIntrospector) ForeignKeys(ctx context.Context) ([]ForeignKeyRef, error) {
	const q = `
		SELECT
			kcu.table_name             AS from_table,
			kcu.column_name            AS from_column,
			kcu.referenced_table_name  AS to_table,
			kcu.referenced_column_name AS to_column
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = DATABASE()
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name`

	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKeyRef
	for rows.Next() {
		var fk ForeignKeyRef
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// RowCount returns the number of rows in the table.
func (m *MySQLIntrospector) RowCount(ctx context.Context, table string) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", database.QuoteIdent(database.DriverMySQL, table))

	var count int64
	if err := m.db.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}
