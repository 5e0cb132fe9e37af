package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
)

// typeMatchConfidence is the fixed score for type-compatibility candidates.
// They are a low-precision safety net under the two stronger generators, so
// they sit in the medium tier on their own and only rise when another
// generator agrees.
const typeMatchConfidence = 0.6

var integerTypes = map[string]bool{
	"int":       true,
	"integer":   true,
	"bigint":    true,
	"smallint":  true,
	"tinyint":   true,
	"mediumint": true,
	"int2":      true,
	"int4":      true,
	"int8":      true,
	"serial":    true,
	"bigserial": true,
}

// TypeMatcher proposes relationships between integer-typed columns and the
// integer primary keys of other tables whose names appear inside the column
// name.
type TypeMatcher struct {
	log *logger.Logger
}

func NewTypeMatcher(log *logger.Logger) *TypeMatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &TypeMatcher{log: log}
}

func (m *TypeMatcher) Name() string { return "type" }

// Detect pairs every integer-family column against every other table's
// integer-family primary key and emits a candidate when the target table's
// name is embedded in the column name.
func (m *TypeMatcher) Detect(_ context.Context, s *schema.Schema) ([]Candidate, error) {
	var out []Candidate

	for _, sourceName := range s.TableNames() {
		source := s.Tables[sourceName]
		for _, col := range source.Columns {
			if !isIntegerType(col.DataType) {
				continue
			}

			for _, targetName := range s.TableNames() {
				if targetName == sourceName {
					continue
				}
				target := s.Tables[targetName]
				for _, pk := range target.PrimaryKeys {
					pkCol := target.Column(pk)
					if pkCol == nil || !isIntegerType(pkCol.DataType) {
						continue
					}
					if !nameMentionsTable(col.Name, targetName) {
						continue
					}
					out = append(out, Candidate{
						SourceTable:  sourceName,
						SourceColumn: col.Name,
						TargetTable:  targetName,
						TargetColumn: pk,
						Confidence:   typeMatchConfidence,
						Type:         ManyToOne,
						Evidence: []string{
							fmt.Sprintf("integer column %q is type-compatible with primary key %q.%q", col.Name, targetName, pk),
							fmt.Sprintf("column name mentions table %q", targetName),
						},
					})
				}
			}
		}
	}

	m.log.With().Str("generator", m.Name()).Int("candidates", len(out)).Logger().
		Debug("type detection complete")
	return out, nil
}

// isIntegerType reports whether a declared SQL type belongs to the integer
// family. Length suffixes such as "int(11)" are tolerated.
func isIntegerType(dataType string) bool {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	// "integer unsigned" and friends
	if i := strings.IndexByte(t, ' '); i >= 0 {
		t = t[:i]
	}
	return integerTypes[t]
}

// nameMentionsTable reports whether the table name, its plural, or its
// singular form appears inside the column name.
func nameMentionsTable(column, table string) bool {
	col := strings.ToLower(column)
	tbl := strings.ToLower(table)

	if strings.Contains(col, tbl) || strings.Contains(col, tbl+"s") {
		return true
	}
	if singular, ok := strings.CutSuffix(tbl, "s"); ok && singular != "" {
		return strings.Contains(col, singular)
	}
	return false
}
