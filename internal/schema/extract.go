package schema

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/errs"
	"github.com/schemalens/schemalens/internal/logger"
)

// Introspector reads the structure of a database (tables, columns, foreign
// keys). Each driver implements the engine-specific queries; Extract is
// shared across all engines.
type Introspector interface {
	// ListTables returns all user-defined table names, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// TableColumns returns the ordered columns of a table with primary-key
	// and uniqueness flags already set.
	TableColumns(ctx context.Context, table string) ([]Column, error)

	// ForeignKeys returns every declared foreign key edge in the schema.
	ForeignKeys(ctx context.Context) ([]ForeignKeyRef, error)

	// RowCount returns the number of rows in the table.
	RowCount(ctx context.Context, table string) (int64, error)
}

// Extract builds the full Schema by orchestrating an Introspector.
// Shared across all DB engines — no duplication in introspectors.
//
// Row counts are informational: a failing count is logged and recorded as
// zero rather than failing the extraction.
func Extract(ctx context.Context, intro Introspector, log *logger.Logger) (*Schema, error) {
	if log == nil {
		log = logger.Nop()
	}

	tables, err := intro.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	s := &Schema{Tables: make(map[string]*Table, len(tables))}

	for _, name := range tables {
		cols, err := intro.TableColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspect table %q: %w", name, err)
		}

		table := &Table{
			Name:        name,
			Columns:     cols,
			ForeignKeys: make(map[string]string),
		}
		for _, col := range cols {
			if col.IsPrimaryKey {
				table.PrimaryKeys = append(table.PrimaryKeys, col.Name)
			}
		}
		s.Tables[name] = table
	}

	fks, err := intro.ForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	for _, fk := range fks {
		table := s.Tables[fk.Table]
		if table == nil {
			continue
		}
		ref := fk.RefTable + "." + fk.RefColumn
		table.ForeignKeys[fk.Column] = ref
		if col := table.Column(fk.Column); col != nil {
			col.IsForeignKey = true
			col.ForeignKeyRef = ref
		}
	}

	for _, name := range s.TableNames() {
		count, err := intro.RowCount(ctx, name)
		if err != nil {
			log.With().Str("table", name).Err(err).Logger().Warn("row count failed")
			continue
		}
		s.Tables[name].RowCount = count
	}

	if s.IsEmpty() {
		return nil, errs.New(errs.ErrKindInvalidInput, "schema contains no tables")
	}

	return s, nil
}
