package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_DescendingAndStable(t *testing.T) {
	input := []Candidate{
		{SourceTable: "a", SourceColumn: "first", TargetTable: "x", TargetColumn: "id", Confidence: 0.6},
		{SourceTable: "b", SourceColumn: "second", TargetTable: "x", TargetColumn: "id", Confidence: 0.9},
		{SourceTable: "c", SourceColumn: "third", TargetTable: "x", TargetColumn: "id", Confidence: 0.6},
	}

	out := Rank(input)
	require.Len(t, out, 3)
	assert.Equal(t, "second", out[0].SourceColumn)
	assert.Equal(t, "first", out[1].SourceColumn, "equal confidence keeps input order")
	assert.Equal(t, "third", out[2].SourceColumn)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	input := []Candidate{
		{SourceColumn: "low", Confidence: 0.1},
		{SourceColumn: "high", Confidence: 0.9},
	}

	_ = Rank(input)
	assert.Equal(t, "low", input[0].SourceColumn)
	assert.Equal(t, "high", input[1].SourceColumn)
}

func TestWriteReport_Tiers(t *testing.T) {
	cands := []Candidate{
		{SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "customers", TargetColumn: "id",
			Confidence: 0.9, Type: ManyToOne, Evidence: []string{"naming convention"}},
		{SourceTable: "invoices", SourceColumn: "account_ref",
			TargetTable: "accounts", TargetColumn: "id",
			Confidence: 0.65, Type: ManyToOne, Evidence: []string{"type compatible"}},
		{SourceTable: "logs", SourceColumn: "entity_id",
			TargetTable: "entities", TargetColumn: "id",
			Confidence: 0.3, Type: ManyToOne},
	}

	var b strings.Builder
	require.NoError(t, WriteReport(&b, cands))
	report := b.String()

	assert.Contains(t, report, "HIGH CONFIDENCE")
	assert.Contains(t, report, "orders.customer_id -> customers.id")
	assert.Contains(t, report, "confidence: 90.0%")
	assert.Contains(t, report, "MEDIUM CONFIDENCE")
	assert.Contains(t, report, "invoices.account_ref -> accounts.id")
	assert.Contains(t, report, "LOW CONFIDENCE")
	assert.NotContains(t, report, "logs.entity_id", "low-tier candidates are summarised, not listed")
	assert.Contains(t, report, "Total candidates detected: 3")
}

func TestWriteReport_Empty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteReport(&b, nil))

	report := b.String()
	assert.Contains(t, report, "Total candidates detected: 0")
	assert.NotContains(t, report, "HIGH CONFIDENCE")
}
