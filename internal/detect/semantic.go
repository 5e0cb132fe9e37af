package detect

import (
	"context"
	"fmt"

	"github.com/schemalens/schemalens/internal/embed"
	"github.com/schemalens/schemalens/internal/errs"
	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
)

const (
	defaultSimilarityThreshold = 0.7

	// semanticDiscount scales similarity into confidence. Semantic overlap
	// is weaker evidence than an explicit name match, so it never reaches
	// the pattern matcher's top score.
	semanticDiscount = 0.8
)

// SemanticMatcher proposes relationships from embedding similarity between
// column descriptions.
//
// Every column is rendered as a short text, embedded, and compared pairwise
// against all columns of other tables. A pair above the similarity threshold
// where exactly one side is a primary key yields a many-to-one candidate
// directed at the key column. Pairwise comparison is exhaustive, never
// approximated, so a fixed provider always yields the same candidate set.
type SemanticMatcher struct {
	provider  embed.Provider
	threshold float64
	log       *logger.Logger
}

// NewSemanticMatcher creates a semantic matcher. threshold <= 0 uses the
// default of 0.7.
func NewSemanticMatcher(provider embed.Provider, threshold float64, log *logger.Logger) *SemanticMatcher {
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SemanticMatcher{provider: provider, threshold: threshold, log: log}
}

func (m *SemanticMatcher) Name() string { return "semantic" }

// columnRef ties an embedded text back to its column.
type columnRef struct {
	table  string
	column string
	isPK   bool
}

// Detect embeds every column description in one provider call and emits a
// candidate for each cross-table pair above the similarity threshold.
func (m *SemanticMatcher) Detect(ctx context.Context, s *schema.Schema) ([]Candidate, error) {
	var refs []columnRef
	var texts []string

	for _, tableName := range s.TableNames() {
		table := s.Tables[tableName]
		for _, col := range table.Columns {
			refs = append(refs, columnRef{table: tableName, column: col.Name, isPK: col.IsPrimaryKey})
			texts = append(texts, describeColumn(tableName, col))
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := m.provider.Embed(ctx, texts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnavailable, "embed column descriptions", err)
	}
	if len(vectors) != len(texts) {
		return nil, errs.New(errs.ErrKindQueryFailed,
			fmt.Sprintf("embedding provider returned %d vectors for %d texts", len(vectors), len(texts)))
	}

	var out []Candidate
	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			a, b := refs[i], refs[j]
			if a.table == b.table {
				continue
			}
			// The pair is only directional evidence when exactly one
			// side is a primary key.
			if a.isPK == b.isPK {
				continue
			}

			sim := embed.Cosine(vectors[i], vectors[j])
			if sim <= m.threshold {
				continue
			}

			source, target := a, b
			if source.isPK {
				source, target = b, a
			}
			out = append(out, Candidate{
				SourceTable:  source.table,
				SourceColumn: source.column,
				TargetTable:  target.table,
				TargetColumn: target.column,
				Confidence:   sim * semanticDiscount,
				Type:         ManyToOne,
				Evidence: []string{
					fmt.Sprintf("semantic similarity %.2f between column descriptions", sim),
					fmt.Sprintf("%q is the primary key of %q", target.column, target.table),
				},
			})
		}
	}

	m.log.With().Str("generator", m.Name()).Str("provider", m.provider.Name()).
		Int("candidates", len(out)).Logger().Debug("semantic detection complete")
	return out, nil
}

// describeColumn renders the text that stands in for a column during
// embedding.
func describeColumn(table string, col schema.Column) string {
	text := fmt.Sprintf("%s %s %s", table, col.Name, col.DataType)
	if col.IsPrimaryKey {
		text += " primary key identifier"
	}
	return text
}
