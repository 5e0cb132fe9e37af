package verify

import (
	"sort"
	"strings"

	"github.com/schemalens/schemalens/internal/schema"
)

// DeclaredRelationships converts the schema's declared foreign keys into
// verified relationships so the renderer treats them uniformly with inferred
// ones. Declared keys are ground truth: confidence 1.0, cardinality N:1,
// valid.
func DeclaredRelationships(s *schema.Schema) []VerifiedRelationship {
	var out []VerifiedRelationship

	for _, tableName := range s.TableNames() {
		table := s.Tables[tableName]

		columns := make([]string, 0, len(table.ForeignKeys))
		for col := range table.ForeignKeys {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		for _, col := range columns {
			ref := table.ForeignKeys[col]
			refTable, refColumn, found := strings.Cut(ref, ".")
			if !found {
				continue
			}
			out = append(out, VerifiedRelationship{
				SourceTable:      tableName,
				SourceColumn:     col,
				TargetTable:      refTable,
				TargetColumn:     refColumn,
				Confidence:       1.0,
				OracleConfidence: 1.0,
				Kind:             KindForeignKey,
				Cardinality:      ManyToOne,
				Explanation:      "declared foreign key in the schema",
				IsValid:          true,
			})
		}
	}
	return out
}
