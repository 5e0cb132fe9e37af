package verify

import (
	"context"
	"time"

	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
)

const (
	// DefaultMaxChecks caps how many top-ranked candidates reach the
	// oracle per run.
	DefaultMaxChecks = 10

	// DefaultDelay is the politeness pause between successive external
	// oracle calls. Set to 0 for the rule-based oracle.
	DefaultDelay = 500 * time.Millisecond
)

// Verifier feeds the top-ranked candidates to an oracle, one at a time and
// in rank order, absorbing oracle failures with the default judgment.
type Verifier struct {
	oracle    Oracle
	maxChecks int
	delay     time.Duration
	log       *logger.Logger
}

// NewVerifier creates a verifier. maxChecks <= 0 uses the default cap of 10;
// a negative delay means the default politeness pause.
func NewVerifier(oracle Oracle, maxChecks int, delay time.Duration, log *logger.Logger) *Verifier {
	if maxChecks <= 0 {
		maxChecks = DefaultMaxChecks
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Verifier{oracle: oracle, maxChecks: maxChecks, delay: delay, log: log}
}

// Verify judges the top-ranked candidates and returns one verified
// relationship per processed candidate, in input order. Candidates beyond
// the cap are not processed at all.
func (v *Verifier) Verify(ctx context.Context, ranked []detect.Candidate, s *schema.Schema, samples schema.SampleSet) []VerifiedRelationship {
	limit := len(ranked)
	if limit > v.maxChecks {
		limit = v.maxChecks
	}

	out := make([]VerifiedRelationship, 0, limit)
	for i := 0; i < limit; i++ {
		c := ranked[i]

		v.log.With().
			Str("oracle", v.oracle.Name()).
			Str("source", c.SourceTable+"."+c.SourceColumn).
			Str("target", c.TargetTable+"."+c.TargetColumn).
			Int("position", i+1).
			Logger().Info("verifying candidate")

		judgment, err := v.oracle.Judge(ctx, c, s.Table(c.SourceTable), s.Table(c.TargetTable), samples)
		if err != nil {
			v.log.With().Err(err).Str("candidate", c.Key()).Logger().
				Warn("oracle failed, using default judgment")
			judgment = DefaultJudgment()
		}

		out = append(out, VerifiedRelationship{
			SourceTable:      c.SourceTable,
			SourceColumn:     c.SourceColumn,
			TargetTable:      c.TargetTable,
			TargetColumn:     c.TargetColumn,
			Confidence:       c.Confidence,
			OracleConfidence: judgment.Confidence,
			Kind:             judgment.Kind,
			Cardinality:      judgment.Cardinality,
			Explanation:      judgment.Explanation,
			IsValid:          judgment.IsValid,
		})

		if v.delay > 0 && i < limit-1 {
			select {
			case <-time.After(v.delay):
			case <-ctx.Done():
				return out
			}
		}
	}
	return out
}
