package detect

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport renders a human-readable summary of the ranked candidates,
// bucketed into high (>= 0.8), medium ([0.6, 0.8)), and low (< 0.6)
// confidence tiers. The report is a read-only view; it never alters the
// candidate list.
func WriteReport(w io.Writer, cands []Candidate) error {
	var high, medium, low []Candidate
	for _, c := range cands {
		switch {
		case c.Confidence >= 0.8:
			high = append(high, c)
		case c.Confidence >= 0.6:
			medium = append(medium, c)
		default:
			low = append(low, c)
		}
	}

	var b strings.Builder
	rule := strings.Repeat("=", 80)
	b.WriteString(rule + "\n")
	b.WriteString("DETECTED RELATIONSHIP CANDIDATES\n")
	b.WriteString(rule + "\n")

	writeTier(&b, "HIGH CONFIDENCE (>= 80%)", high)
	writeTier(&b, "MEDIUM CONFIDENCE (60-79%)", medium)

	if len(low) > 0 {
		b.WriteString("\nLOW CONFIDENCE (< 60%)\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		fmt.Fprintf(&b, "%d low-confidence candidates omitted from detail\n", len(low))
	}

	fmt.Fprintf(&b, "\nTotal candidates detected: %d\n", len(cands))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTier(b *strings.Builder, title string, cands []Candidate) {
	if len(cands) == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")

	for _, c := range cands {
		fmt.Fprintf(b, "\n%s.%s -> %s.%s\n", c.SourceTable, c.SourceColumn, c.TargetTable, c.TargetColumn)
		fmt.Fprintf(b, "  confidence: %.1f%%\n", c.Confidence*100)
		fmt.Fprintf(b, "  type: %s\n", c.Type)
		b.WriteString("  evidence:\n")
		for _, e := range c.Evidence {
			fmt.Fprintf(b, "    - %s\n", e)
		}
	}
}
