package detect

import (
	"slices"

	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
)

// Validate drops candidates that reference tables or columns absent from the
// schema. Well-formed generators never produce these, so each drop is logged
// as a warning rather than failing the run.
func Validate(s *schema.Schema, cands []Candidate, log *logger.Logger) []Candidate {
	if log == nil {
		log = logger.Nop()
	}

	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !candidateResolvable(s, c) {
			log.With().
				Str("source", c.SourceTable+"."+c.SourceColumn).
				Str("target", c.TargetTable+"."+c.TargetColumn).
				Logger().Warn("dropping candidate that references an unknown table or column")
			continue
		}
		out = append(out, c)
	}
	return out
}

func candidateResolvable(s *schema.Schema, c Candidate) bool {
	source := s.Table(c.SourceTable)
	target := s.Table(c.TargetTable)
	if source == nil || target == nil {
		return false
	}
	return source.Column(c.SourceColumn) != nil && target.Column(c.TargetColumn) != nil
}

// Consolidate merges the concatenated generator outputs into one candidate
// per unique (source, target) edge.
//
// Candidates whose source column already carries a declared foreign key are
// dropped first; re-detecting known relationships is noise. Within a group
// the merged confidence is the maximum observed, so a single strong signal
// is never diluted by weaker agreeing ones, and evidence strings are unioned
// with duplicates collapsed. Output order follows first appearance, which is
// deterministic given deterministic generator order.
func Consolidate(cands []Candidate, declared map[string]string) []Candidate {
	out := make([]Candidate, 0, len(cands))
	byKey := make(map[string]int, len(cands))

	for _, c := range cands {
		if _, known := declared[c.SourceKey()]; known {
			continue
		}

		key := c.Key()
		if i, seen := byKey[key]; seen {
			merged := &out[i]
			if c.Confidence > merged.Confidence {
				merged.Confidence = c.Confidence
			}
			merged.Evidence = appendUnique(merged.Evidence, c.Evidence)
			continue
		}

		byKey[key] = len(out)
		fresh := c
		fresh.Evidence = appendUnique(nil, c.Evidence)
		out = append(out, fresh)
	}
	return out
}

// appendUnique appends the strings from add that are not already present,
// preserving first-seen order.
func appendUnique(dst []string, add []string) []string {
	for _, s := range add {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
