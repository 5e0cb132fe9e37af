package schema

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/database"
)

// PgIntrospector implements Introspector for PostgreSQL using information_schema.
type PgIntrospector struct {
	db     database.DB
	schema string // e.g. "public"
}

// NewPgIntrospector creates a PostgreSQL introspector scoped to one schema.
// An empty schema name defaults to "public".
func NewPgIntrospector(db database.DB, schema string) *PgIntrospector {
	if schema == "" {
		schema = "public"
	}
	return &PgIntrospector{db: db, schema: schema}
}

// ListTables returns all user-defined table names in the configured schema.
func (p *PgIntrospector) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.Query(ctx, q, p.schema)
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
func (p *PgIntrospector) TableColumns(ctx context.Context, table string) ([]Column, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'              AS is_nullable,
			c.column_default,
			COALESCE(pk.is_pk, false)          AS is_primary_key,
			COALESCE(uq.is_unique, false)      AS is_unique
		FROM information_schema.columns c

		-- Primary key check
		LEFT JOIN (
			SELECT kcu.column_name, true AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) pk ON pk.column_name = c.column_name

		-- Unique constraint check
		LEFT JOIN (
			SELECT kcu.column_name, true AS is_unique
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'UNIQUE'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) uq ON uq.column_name = c.column_name

		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := p.db.Query(ctx, q, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s.%s: %w", p.schema, table, err)
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
		return nil, fmt.Errorf("table %s.%s not found or has no columns", p.schema, table)
	}
	return cols, nil
}

// ForeignKeys returns all declared FK relationships in the schema.
func (p *PgIntrospector) ForeignKeys(ctx context.Context) ([]ForeignKeyRef, error) {
	const q = `
		SELECT
			kcu.table_name   AS from_table,
			kcu.column_name  AS from_column,
			ccu.table_name   AS to_table,
			ccu.column_name  AS to_column
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.constraint_name`

	rows, err := p.db.Query(ctx, q, p.schema)
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
func (p *PgIntrospector) RowCount(ctx context.Context, table string) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", database.QuoteIdent(database.DriverPostgres, table))

	var count int64
	if err := p.db.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}
