package database

import (
	"strings"

	"github.com/schemalens/schemalens/internal/errs"
)

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows — callers do not need to call Close().
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}

// QuoteIdent wraps a SQL identifier in the engine's quote character: ANSI
// double-quotes for PostgreSQL and SQLite, backticks for MySQL, whose default
// sql_mode does not accept ANSI_QUOTES. This safely handles reserved words
// and mixed-case names.
func QuoteIdent(driver Driver, name string) string {
	if driver == DriverMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
