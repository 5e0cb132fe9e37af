package verify

import (
	"context"
	"strings"

	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/schema"
)

// Rules is the oracle used when no external model is configured or
// reachable. It validates purely from the detector's own signals: a
// candidate passes when its confidence clears 0.7, and cardinality is
// inferred from column naming and uniqueness evidence.
type Rules struct{}

func NewRules() *Rules { return &Rules{} }

func (*Rules) Name() string { return "rules" }

// Judge never fails and never blocks.
func (*Rules) Judge(_ context.Context, c detect.Candidate, _, _ *schema.Table, _ schema.SampleSet) (Judgment, error) {
	cardinality := OneToMany
	switch {
	case strings.HasSuffix(c.SourceColumn, "_id") && c.TargetColumn == "id":
		cardinality = ManyToOne
	case mentionsUniqueness(c.Evidence):
		cardinality = OneToOne
	}

	return Judgment{
		IsValid:     c.Confidence > 0.7,
		Confidence:  c.Confidence,
		Kind:        KindForeignKey,
		Cardinality: cardinality,
		Explanation: "rule-based verification: " + strings.Join(c.Evidence, ", "),
	}, nil
}

func mentionsUniqueness(evidence []string) bool {
	for _, e := range evidence {
		if strings.Contains(strings.ToLower(e), "unique") {
			return true
		}
	}
	return false
}
