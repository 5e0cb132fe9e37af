package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/schema"
)

func TestDeclaredRelationships(t *testing.T) {
	s := &schema.Schema{Tables: map[string]*schema.Table{
		"orders": {
			Name: "orders",
			ForeignKeys: map[string]string{
				"customer_id": "customers.id",
				"address_id":  "addresses.id",
			},
		},
		"customers": {
			Name:        "customers",
			ForeignKeys: map[string]string{},
		},
	}}

	out := DeclaredRelationships(s)
	require.Len(t, out, 2)

	// sorted by column within a table
	assert.Equal(t, "address_id", out[0].SourceColumn)
	assert.Equal(t, "customer_id", out[1].SourceColumn)

	for _, rel := range out {
		assert.True(t, rel.IsValid)
		assert.InDelta(t, 1.0, rel.Confidence, 1e-9)
		assert.Equal(t, ManyToOne, rel.Cardinality)
		assert.Equal(t, KindForeignKey, rel.Kind)
	}
	assert.Equal(t, "customers", out[1].TargetTable)
	assert.Equal(t, "id", out[1].TargetColumn)
}

func TestDeclaredRelationships_SkipsMalformedRefs(t *testing.T) {
	s := &schema.Schema{Tables: map[string]*schema.Table{
		"orders": {
			Name:        "orders",
			ForeignKeys: map[string]string{"customer_id": "not-a-ref"},
		},
	}}

	assert.Empty(t, DeclaredRelationships(s))
}
