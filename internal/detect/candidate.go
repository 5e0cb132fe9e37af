// Package detect implements the relationship-inference core: three
// independent candidate generators over the extracted schema, a consolidator
// that merges their output, and a confidence ranker.
//
// Each generator is a pure function over the read-only Schema and returns a
// fresh candidate slice, so every detector is testable in isolation and the
// pipeline stays deterministic.
package detect

import (
	"context"

	"github.com/schemalens/schemalens/internal/schema"
)

// RelationType classifies a proposed relationship's direction.
type RelationType string

const (
	ManyToOne RelationType = "many-to-one"
	OneToMany RelationType = "one-to-many"
	OneToOne  RelationType = "one-to-one"
)

// Candidate is a proposed, unverified relationship between two columns.
// Source and target may name the same table: self-referential foreign keys
// are valid and are preserved through consolidation and ranking.
type Candidate struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	Confidence   float64 // always within [0, 1]
	Type         RelationType
	Evidence     []string // human-readable reasons, deduplicated on merge
}

// Key identifies the candidate's edge: the 4-tuple of source and target.
func (c Candidate) Key() string {
	return c.SourceTable + "." + c.SourceColumn + "->" + c.TargetTable + "." + c.TargetColumn
}

// SourceKey is the "table.column" key used to match declared foreign keys.
func (c Candidate) SourceKey() string {
	return c.SourceTable + "." + c.SourceColumn
}

// Generator is one candidate-detection strategy.
type Generator interface {
	// Name identifies the strategy for logging and evidence.
	Name() string

	// Detect proposes relationship candidates for the schema.
	Detect(ctx context.Context, s *schema.Schema) ([]Candidate, error)
}
