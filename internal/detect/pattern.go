package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
)

// defaultTokenSimilarity is the minimum token-overlap score for the
// name-similarity resolution path of the pattern matcher.
const defaultTokenSimilarity = 0.6

var fkSuffixes = []string{"_id", "_fk", "_ref", "_code", "_key"}

var fkPrefixes = []string{"fk_", "ref_", "parent_", "child_"}

var fkTokens = map[string]bool{
	"id":   true,
	"code": true,
	"key":  true,
	"ref":  true,
}

// PatternMatcher proposes relationships from column naming conventions.
//
// A column whose name carries a foreign-key marker (a known suffix, prefix,
// or token) is resolved against the schema two ways: by stripping a trailing
// "_id" and looking the remainder up as a table name, and by token-overlap
// similarity between the column name and every table name. The suffix path
// never targets the column's own table; the similarity path may, which is
// how self-referential keys such as employees.manager_id surface.
type PatternMatcher struct {
	tokenSimilarity float64
	log             *logger.Logger
}

// NewPatternMatcher creates a pattern matcher. minTokenSimilarity <= 0 uses
// the default threshold of 0.6.
func NewPatternMatcher(minTokenSimilarity float64, log *logger.Logger) *PatternMatcher {
	if minTokenSimilarity <= 0 {
		minTokenSimilarity = defaultTokenSimilarity
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PatternMatcher{tokenSimilarity: minTokenSimilarity, log: log}
}

func (m *PatternMatcher) Name() string { return "pattern" }

// Detect scans every column of every table and emits candidates for the ones
// whose names look like undeclared foreign keys.
func (m *PatternMatcher) Detect(_ context.Context, s *schema.Schema) ([]Candidate, error) {
	var out []Candidate

	for _, tableName := range s.TableNames() {
		table := s.Tables[tableName]
		for _, col := range table.Columns {
			// Declared foreign keys are not filtered here; the
			// consolidator removes candidates for known edges.
			if !looksLikeForeignKey(col.Name) {
				continue
			}
			out = append(out, m.resolve(s, tableName, col.Name)...)
		}
	}

	m.log.With().Str("generator", m.Name()).Int("candidates", len(out)).Logger().
		Debug("pattern detection complete")
	return out, nil
}

// resolve maps one suspicious column to zero or more target tables.
func (m *PatternMatcher) resolve(s *schema.Schema, sourceTable, column string) []Candidate {
	var out []Candidate
	colLower := strings.ToLower(column)

	// Path 1: strip a trailing "_id" and treat the remainder as a table
	// name, trying the plural form when the bare name misses and the
	// singular form when the bare name is itself plural. This path never
	// targets the source table itself.
	if base, ok := strings.CutSuffix(colLower, "_id"); ok && base != "" {
		exact := ""
		switch {
		case s.Table(base) != nil:
			exact = base
		case s.Table(base+"s") != nil:
			exact = base + "s"
		}
		if exact != "" && exact != sourceTable {
			out = append(out, Candidate{
				SourceTable:  sourceTable,
				SourceColumn: column,
				TargetTable:  exact,
				TargetColumn: "id",
				Confidence:   0.9,
				Type:         ManyToOne,
				Evidence: []string{
					fmt.Sprintf("column %q follows the <table>_id convention", column),
					fmt.Sprintf("table %q exists in the schema", exact),
				},
			})
		}

		if singular, ok := strings.CutSuffix(base, "s"); ok && singular != "" {
			if singular != sourceTable && s.Table(singular) != nil {
				out = append(out, Candidate{
					SourceTable:  sourceTable,
					SourceColumn: column,
					TargetTable:  singular,
					TargetColumn: "id",
					Confidence:   0.85,
					Type:         ManyToOne,
					Evidence: []string{
						fmt.Sprintf("column %q follows the <table>_id convention after singularising", column),
						fmt.Sprintf("table %q exists in the schema", singular),
					},
				})
			}
		}
	}

	// Path 2: token overlap between the column name and every table name.
	// Self-references are allowed here.
	for _, target := range s.TableNames() {
		sim := tokenSimilarity(colLower, strings.ToLower(target))
		if sim <= m.tokenSimilarity {
			continue
		}
		for _, pk := range s.Tables[target].PrimaryKeys {
			out = append(out, Candidate{
				SourceTable:  sourceTable,
				SourceColumn: column,
				TargetTable:  target,
				TargetColumn: pk,
				Confidence:   sim,
				Type:         ManyToOne,
				Evidence: []string{
					fmt.Sprintf("column %q shares %.0f%% of its name tokens with table %q", column, sim*100, target),
				},
			})
		}
	}

	return out
}

// looksLikeForeignKey reports whether a column name carries any of the
// conventional foreign-key markers.
func looksLikeForeignKey(column string) bool {
	name := strings.ToLower(column)

	for _, suffix := range fkSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, prefix := range fkPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, token := range strings.Split(name, "_") {
		if fkTokens[token] {
			return true
		}
	}
	return false
}

// tokenSimilarity is the intersection-over-union of the underscore-separated
// token sets of two names.
func tokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(name string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Split(name, "_") {
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}
