package verify

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport renders a human-readable summary of the verification results,
// valid relationships first.
func WriteReport(w io.Writer, verified []VerifiedRelationship) error {
	var valid, invalid []VerifiedRelationship
	for _, v := range verified {
		if v.IsValid {
			valid = append(valid, v)
		} else {
			invalid = append(invalid, v)
		}
	}

	var b strings.Builder
	rule := strings.Repeat("=", 80)
	b.WriteString(rule + "\n")
	b.WriteString("RELATIONSHIP VERIFICATION REPORT\n")
	b.WriteString(rule + "\n")

	fmt.Fprintf(&b, "\nVALID relationships: %d\n", len(valid))
	b.WriteString(strings.Repeat("=", 40) + "\n")
	for _, v := range valid {
		fmt.Fprintf(&b, "\n%s.%s -> %s.%s\n", v.SourceTable, v.SourceColumn, v.TargetTable, v.TargetColumn)
		fmt.Fprintf(&b, "  cardinality: %s\n", v.Cardinality)
		fmt.Fprintf(&b, "  oracle confidence: %.1f%%\n", v.OracleConfidence*100)
		fmt.Fprintf(&b, "  explanation: %s\n", truncate(v.Explanation, 100))
	}

	if len(invalid) > 0 {
		fmt.Fprintf(&b, "\nINVALID relationships: %d\n", len(invalid))
		b.WriteString(strings.Repeat("=", 40) + "\n")
		for _, v := range invalid {
			fmt.Fprintf(&b, "\n%s.%s -> %s.%s\n", v.SourceTable, v.SourceColumn, v.TargetTable, v.TargetColumn)
			fmt.Fprintf(&b, "  reason: %s\n", truncate(v.Explanation, 100))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
