// Package verify judges ranked relationship candidates through an oracle.
//
// Two oracles exist: an external one backed by a local Ollama model and a
// rule-based fallback. The choice is made once at pipeline construction; the
// adapter in Verifier treats both identically, and any per-candidate oracle
// failure is absorbed by a defensive default judgment so verification can
// never abort a run.
package verify

import (
	"context"

	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/schema"
)

// Cardinality tags the multiplicity of a verified relationship.
type Cardinality string

const (
	OneToOne   Cardinality = "1:1"
	OneToMany  Cardinality = "1:N"
	ManyToOne  Cardinality = "N:1"
	ManyToMany Cardinality = "N:M"
)

// RelationKind is the oracle's classification of what a candidate edge is.
type RelationKind string

const (
	KindForeignKey    RelationKind = "foreign_key"
	KindJunctionTable RelationKind = "junction_table"
	KindNone          RelationKind = "none"
	KindUnknown       RelationKind = "unknown"
)

// Judgment is the oracle's structured answer for one candidate.
type Judgment struct {
	IsValid     bool         `json:"is_valid"`
	Confidence  float64      `json:"confidence"`
	Kind        RelationKind `json:"relationship_type"`
	Cardinality Cardinality  `json:"cardinality"`
	Explanation string       `json:"explanation"`
}

// DefaultJudgment is substituted whenever the oracle is unreachable, times
// out, or answers with something that does not parse.
func DefaultJudgment() Judgment {
	return Judgment{
		IsValid:     false,
		Confidence:  0.5,
		Kind:        KindUnknown,
		Cardinality: OneToMany,
		Explanation: "unparseable oracle response",
	}
}

// VerifiedRelationship is a candidate annotated with the oracle's verdict.
// Confidence is the detector score; OracleConfidence is the oracle's own.
type VerifiedRelationship struct {
	SourceTable      string       `json:"source_table"`
	SourceColumn     string       `json:"source_column"`
	TargetTable      string       `json:"target_table"`
	TargetColumn     string       `json:"target_column"`
	Confidence       float64      `json:"confidence"`
	OracleConfidence float64      `json:"oracle_confidence"`
	Kind             RelationKind `json:"relationship_type"`
	Cardinality      Cardinality  `json:"cardinality"`
	Explanation      string       `json:"explanation"`
	IsValid          bool         `json:"is_valid"`
}

// Oracle judges one candidate at a time. Implementations must bound their
// own blocking time; a returned error means the adapter substitutes the
// default judgment, not that the run fails.
type Oracle interface {
	Name() string

	Judge(ctx context.Context, c detect.Candidate, source, target *schema.Table, samples schema.SampleSet) (Judgment, error)
}
