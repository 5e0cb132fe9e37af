package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeMatcher_StoreSchema(t *testing.T) {
	m := NewTypeMatcher(nil)
	cands, err := m.Detect(context.Background(), storeSchema())
	require.NoError(t, err)

	got := findCandidate(cands, "orders", "customer_id", "customers", "id")
	require.NotNil(t, got, "integer column naming a table should match its integer primary key")
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	assert.Equal(t, ManyToOne, got.Type)

	// total is numeric, outside the integer family
	for _, c := range cands {
		assert.NotEqual(t, "total", c.SourceColumn)
	}
}

func TestTypeMatcher_IgnoresNonIntegerTargets(t *testing.T) {
	s := storeSchema()
	s.Tables["customers"].Columns[0].DataType = "uuid"

	m := NewTypeMatcher(nil)
	cands, err := m.Detect(context.Background(), s)
	require.NoError(t, err)

	assert.Nil(t, findCandidate(cands, "orders", "customer_id", "customers", "id"),
		"non-integer primary keys are not type-compatible targets")
}

func TestIsIntegerType(t *testing.T) {
	tests := []struct {
		dataType string
		want     bool
	}{
		{"integer", true},
		{"INTEGER", true},
		{"bigint", true},
		{"int(11)", true},
		{"int unsigned", true},
		{"serial", true},
		{"bigserial", true},
		{"numeric", false},
		{"varchar", false},
		{"uuid", false},
		{"timestamp", false},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			assert.Equal(t, tt.want, isIntegerType(tt.dataType))
		})
	}
}

func TestNameMentionsTable(t *testing.T) {
	tests := []struct {
		column string
		table  string
		want   bool
	}{
		{"customer_id", "customers", true}, // singular form embedded
		{"orders_ref", "orders", true},     // exact form embedded
		{"order_id", "orders", true},
		{"quantity", "products", false},
		{"total", "orders", false},
	}

	for _, tt := range tests {
		t.Run(tt.column+"/"+tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, nameMentionsTable(tt.column, tt.table))
		})
	}
}
