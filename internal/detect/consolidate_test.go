package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_MergesDuplicateEdges(t *testing.T) {
	input := []Candidate{
		{
			SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "customers", TargetColumn: "id",
			Confidence: 0.9, Type: ManyToOne,
			Evidence: []string{"naming convention"},
		},
		{
			SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "customers", TargetColumn: "id",
			Confidence: 0.6, Type: ManyToOne,
			Evidence: []string{"type compatible", "naming convention"},
		},
	}

	out := Consolidate(input, nil)
	require.Len(t, out, 1)

	got := out[0]
	assert.InDelta(t, 0.9, got.Confidence, 1e-9, "merge keeps the maximum confidence")
	assert.Equal(t, []string{"naming convention", "type compatible"}, got.Evidence,
		"evidence is unioned with duplicates collapsed")
}

func TestConsolidate_DropsDeclaredForeignKeys(t *testing.T) {
	input := []Candidate{
		{
			SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "customers", TargetColumn: "id",
			Confidence: 0.9, Type: ManyToOne,
		},
		{
			SourceTable: "order_items", SourceColumn: "order_id",
			TargetTable: "orders", TargetColumn: "id",
			Confidence: 0.9, Type: ManyToOne,
		},
	}
	declared := map[string]string{"orders.customer_id": "customers.id"}

	out := Consolidate(input, declared)
	require.Len(t, out, 1)
	assert.Equal(t, "order_items", out[0].SourceTable)
}

func TestConsolidate_Idempotent(t *testing.T) {
	input := []Candidate{
		{SourceTable: "a", SourceColumn: "b_id", TargetTable: "b", TargetColumn: "id",
			Confidence: 0.9, Type: ManyToOne, Evidence: []string{"x"}},
		{SourceTable: "a", SourceColumn: "b_id", TargetTable: "b", TargetColumn: "id",
			Confidence: 0.6, Type: ManyToOne, Evidence: []string{"y"}},
		{SourceTable: "c", SourceColumn: "a_id", TargetTable: "a", TargetColumn: "id",
			Confidence: 0.85, Type: ManyToOne, Evidence: []string{"z"}},
	}

	once := Consolidate(input, nil)
	twice := Consolidate(once, nil)
	assert.Equal(t, once, twice)
}

func TestConsolidate_PreservesEveryDistinctEdge(t *testing.T) {
	input := []Candidate{
		{SourceTable: "a", SourceColumn: "x", TargetTable: "b", TargetColumn: "id", Confidence: 0.9},
		{SourceTable: "a", SourceColumn: "x", TargetTable: "c", TargetColumn: "id", Confidence: 0.7},
		{SourceTable: "a", SourceColumn: "x", TargetTable: "b", TargetColumn: "id", Confidence: 0.6},
	}

	out := Consolidate(input, nil)
	require.Len(t, out, 2, "one candidate per distinct 4-tuple")

	keys := map[string]bool{}
	for _, c := range out {
		keys[c.Key()] = true
	}
	for _, c := range input {
		assert.True(t, keys[c.Key()], "4-tuple %s lost during consolidation", c.Key())
	}
}

func TestConsolidate_KeepsSelfReferences(t *testing.T) {
	input := []Candidate{
		{SourceTable: "employees", SourceColumn: "manager_id",
			TargetTable: "employees", TargetColumn: "id",
			Confidence: 0.7, Type: ManyToOne},
	}

	out := Consolidate(input, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "employees", out[0].SourceTable)
	assert.Equal(t, "employees", out[0].TargetTable)

	ranked := Rank(out)
	require.Len(t, ranked, 1, "self-references survive ranking too")
}

func TestValidate_DropsUnknownReferences(t *testing.T) {
	s := storeSchema()
	input := []Candidate{
		{SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "customers", TargetColumn: "id", Confidence: 0.9},
		{SourceTable: "orders", SourceColumn: "customer_id",
			TargetTable: "ghosts", TargetColumn: "id", Confidence: 0.9},
		{SourceTable: "orders", SourceColumn: "no_such_column",
			TargetTable: "customers", TargetColumn: "id", Confidence: 0.9},
	}

	out := Validate(s, input, nil)
	require.Len(t, out, 1)
	assert.Equal(t, "customers", out[0].TargetTable)
}
