package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/schema"
)

// storeSchema is the canonical fixture: a small web-shop schema with no
// declared foreign keys.
func storeSchema() *schema.Schema {
	return &schema.Schema{Tables: map[string]*schema.Table{
		"customers": {
			Name: "customers",
			Columns: []schema.Column{
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "name", DataType: "varchar"},
				{Name: "email", DataType: "varchar", IsUnique: true},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
		"orders": {
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "customer_id", DataType: "integer"},
				{Name: "total", DataType: "numeric"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
		"products": {
			Name: "products",
			Columns: []schema.Column{
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "name", DataType: "varchar"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
		"order_items": {
			Name: "order_items",
			Columns: []schema.Column{
				{Name: "order_id", DataType: "integer"},
				{Name: "product_id", DataType: "integer"},
				{Name: "quantity", DataType: "integer"},
			},
			ForeignKeys: map[string]string{},
		},
	}}
}

func findCandidate(cands []Candidate, srcTable, srcCol, tgtTable, tgtCol string) *Candidate {
	for i := range cands {
		c := cands[i]
		if c.SourceTable == srcTable && c.SourceColumn == srcCol &&
			c.TargetTable == tgtTable && c.TargetColumn == tgtCol {
			return &cands[i]
		}
	}
	return nil
}

func TestPatternMatcher_StoreSchema(t *testing.T) {
	m := NewPatternMatcher(0, nil)
	cands, err := m.Detect(context.Background(), storeSchema())
	require.NoError(t, err)

	got := findCandidate(cands, "orders", "customer_id", "customers", "id")
	require.NotNil(t, got, "expected orders.customer_id -> customers.id")
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.Equal(t, ManyToOne, got.Type)
	assert.NotEmpty(t, got.Evidence)

	for _, c := range cands {
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		assert.NotNil(t, storeSchema().Table(c.TargetTable), "target table must exist: %s", c.TargetTable)
	}
}

func TestPatternMatcher_JunctionTable(t *testing.T) {
	m := NewPatternMatcher(0, nil)
	cands, err := m.Detect(context.Background(), storeSchema())
	require.NoError(t, err)

	orderRef := findCandidate(cands, "order_items", "order_id", "orders", "id")
	productRef := findCandidate(cands, "order_items", "product_id", "products", "id")
	require.NotNil(t, orderRef)
	require.NotNil(t, productRef)
	assert.InDelta(t, 0.9, orderRef.Confidence, 1e-9)
	assert.InDelta(t, 0.9, productRef.Confidence, 1e-9)
}

func TestPatternMatcher_SingularFallback(t *testing.T) {
	s := &schema.Schema{Tables: map[string]*schema.Table{
		"user": {
			Name:        "user",
			Columns:     []schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
		"sessions": {
			Name:        "sessions",
			Columns:     []schema.Column{{Name: "users_id", DataType: "integer"}},
			ForeignKeys: map[string]string{},
		},
	}}

	m := NewPatternMatcher(0, nil)
	cands, err := m.Detect(context.Background(), s)
	require.NoError(t, err)

	got := findCandidate(cands, "sessions", "users_id", "user", "id")
	require.NotNil(t, got, "plural column should resolve to singular table")
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
}

func TestPatternMatcher_NeverSelfTargetsOnIDPath(t *testing.T) {
	s := &schema.Schema{Tables: map[string]*schema.Table{
		"orders": {
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "orders_id", DataType: "integer"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
	}}

	m := NewPatternMatcher(0, nil)
	cands, err := m.Detect(context.Background(), s)
	require.NoError(t, err)

	assert.Nil(t, findCandidate(cands, "orders", "orders_id", "orders", "id"))
}

func TestPatternMatcher_SelfReferenceViaSimilarity(t *testing.T) {
	s := &schema.Schema{Tables: map[string]*schema.Table{
		"account_role": {
			Name: "account_role",
			Columns: []schema.Column{
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "account_role_key", DataType: "integer"},
			},
			PrimaryKeys: []string{"id"},
			ForeignKeys: map[string]string{},
		},
	}}

	m := NewPatternMatcher(0, nil)
	cands, err := m.Detect(context.Background(), s)
	require.NoError(t, err)

	got := findCandidate(cands, "account_role", "account_role_key", "account_role", "id")
	require.NotNil(t, got, "similarity path should allow self-references")
	// tokens {account, role, key} vs {account, role}: 2 of 3
	assert.InDelta(t, 2.0/3.0, got.Confidence, 1e-9)
}

func TestLooksLikeForeignKey(t *testing.T) {
	tests := []struct {
		column string
		want   bool
	}{
		{"customer_id", true},
		{"order_fk", true},
		{"account_ref", true},
		{"country_code", true},
		{"session_key", true},
		{"fk_customer", true},
		{"ref_order", true},
		{"parent_category", true},
		{"child_node", true},
		{"id", true},
		{"name", false},
		{"total", false},
		{"created_at", false},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeForeignKey(tt.column))
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "order_items", "order_items", 1.0},
		{"half overlap", "customer_id", "customer", 0.5},
		{"disjoint", "customer_id", "products", 0.0},
		{"partial", "account_role_key", "account_role", 2.0 / 3.0},
		{"empty", "", "orders", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tokenSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
