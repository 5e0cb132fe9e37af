package schema

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/database"
)

// SampleSet holds up to a handful of example rows per table. It is passed to
// the verification oracle so it can ground its judgment in real values.
type SampleSet map[string][]map[string]any

// SampleRows fetches up to limit rows from the table as generic maps.
func SampleRows(ctx context.Context, db database.DB, table string, limit int) ([]map[string]any, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", database.QuoteIdent(db.Driver(), table), limit)

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sample rows from %s: %w", table, err)
	}
	return database.ScanRows(rows)
}

// CollectSamples fetches sample rows for every table in the schema.
// Sampling is best-effort: a table that cannot be read is simply absent from
// the result.
func CollectSamples(ctx context.Context, db database.DB, s *Schema, limit int) SampleSet {
	samples := make(SampleSet, len(s.Tables))
	for _, name := range s.TableNames() {
		rows, err := SampleRows(ctx, db, name, limit)
		if err != nil || len(rows) == 0 {
			continue
		}
		samples[name] = rows
	}
	return samples
}
