package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/artifact"
	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/embed"
	"github.com/schemalens/schemalens/internal/schema"
	"github.com/schemalens/schemalens/internal/verify"
)

// memIntrospector serves a fixed schema without a live database.
type memIntrospector struct {
	tables map[string][]schema.Column
	fks    []schema.ForeignKeyRef
	rows   map[string]int64
}

func (m *memIntrospector) ListTables(context.Context) ([]string, error) {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names, nil
}

func (m *memIntrospector) TableColumns(_ context.Context, table string) ([]schema.Column, error) {
	cols, ok := m.tables[table]
	if !ok {
		return nil, errors.New("unknown table")
	}
	return cols, nil
}

func (m *memIntrospector) ForeignKeys(context.Context) ([]schema.ForeignKeyRef, error) {
	return m.fks, nil
}

func (m *memIntrospector) RowCount(_ context.Context, table string) (int64, error) {
	return m.rows[table], nil
}

func shopIntrospector() *memIntrospector {
	return &memIntrospector{
		tables: map[string][]schema.Column{
			"customers": {
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "email", DataType: "varchar", IsUnique: true},
			},
			"orders": {
				{Name: "id", DataType: "integer", IsPrimaryKey: true},
				{Name: "customer_id", DataType: "integer"},
				{Name: "total", DataType: "numeric"},
			},
		},
		rows: map[string]int64{"customers": 10, "orders": 50},
	}
}

func testConfig(outputDir string) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = outputDir
	cfg.Detect.SampleRows = 0
	return cfg
}

func TestAnalyzer_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	store := artifact.NewDir(dir)

	a := New(testConfig(dir), shopIntrospector(), nil, embed.NewHashing(0), verify.NewRules(),
		[]artifact.Store{store}, nil)

	result, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Tables)
	assert.Equal(t, 5, result.Columns)
	assert.GreaterOrEqual(t, result.Candidates, 1)
	assert.GreaterOrEqual(t, result.ValidRelationships, 1)
	assert.Zero(t, result.DeclaredForeignKeys)

	// the undeclared customer link must be found and judged valid N:1
	var found bool
	for _, rel := range result.Relationships {
		if rel.SourceTable == "orders" && rel.SourceColumn == "customer_id" &&
			rel.TargetTable == "customers" && rel.TargetColumn == "id" {
			found = true
			assert.True(t, rel.IsValid)
			assert.Equal(t, verify.ManyToOne, rel.Cardinality)
			assert.InDelta(t, 0.9, rel.Confidence, 1e-9)
		}
	}
	assert.True(t, found, "orders.customer_id -> customers.id should be verified")

	// all five artifacts land on disk
	require.Len(t, result.Artifacts, 5)
	for _, key := range result.Artifacts {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
		assert.NoError(t, err, "artifact %s should exist", key)
	}

	dbmlData, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.RunID+"/schema.dbml")))
	require.NoError(t, err)
	assert.Contains(t, string(dbmlData), "Ref: orders.customer_id > customers.id")
}

func TestAnalyzer_DeclaredForeignKeyNotRedetected(t *testing.T) {
	intro := shopIntrospector()
	intro.fks = []schema.ForeignKeyRef{
		{Table: "orders", Column: "customer_id", RefTable: "customers", RefColumn: "id"},
	}

	a := New(testConfig(t.TempDir()), intro, nil, embed.NewHashing(0), verify.NewRules(), nil, nil)
	result, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.DeclaredForeignKeys)
	for _, rel := range result.Relationships[result.DeclaredForeignKeys:] {
		assert.False(t, rel.SourceTable == "orders" && rel.SourceColumn == "customer_id",
			"declared edge must not be re-detected")
	}

	// the declared edge itself is rendered at full confidence
	declared := result.Relationships[0]
	assert.InDelta(t, 1.0, declared.Confidence, 1e-9)
	assert.Equal(t, verify.ManyToOne, declared.Cardinality)
	assert.True(t, declared.IsValid)
}

func TestAnalyzer_EmptySchemaFails(t *testing.T) {
	intro := &memIntrospector{tables: map[string][]schema.Column{}}

	a := New(testConfig(t.TempDir()), intro, nil, nil, verify.NewRules(), nil, nil)
	_, err := a.Run(context.Background())
	require.Error(t, err)
}

func TestAnalyzer_SemanticFailureDegradesGracefully(t *testing.T) {
	a := New(testConfig(t.TempDir()), shopIntrospector(), nil, brokenProvider{}, verify.NewRules(), nil, nil)

	result, err := a.Run(context.Background())
	require.NoError(t, err, "one generator failing must not abort the run")
	assert.GreaterOrEqual(t, result.Candidates, 1, "pattern and type generators still contribute")
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }

func (brokenProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.New("embedding backend offline")
}

func TestAnalyzer_NoOracleSkipsVerification(t *testing.T) {
	a := New(testConfig(t.TempDir()), shopIntrospector(), nil, nil, nil, nil, nil)

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Verified)
	assert.NotZero(t, result.Candidates)
}

func TestAnalyzer_ExportsExtractedSchema(t *testing.T) {
	dir := t.TempDir()
	a := New(testConfig(dir), shopIntrospector(), nil, embed.NewHashing(0), verify.NewRules(),
		[]artifact.Store{artifact.NewDir(dir)}, nil)

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Artifacts, result.RunID+"/schema.json")

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.RunID+"/schema.json")))
	require.NoError(t, err)

	var exported schema.Schema
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported.Tables, 2)

	orders := exported.Table("orders")
	require.NotNil(t, orders)
	assert.Equal(t, []string{"id"}, orders.PrimaryKeys)
	assert.Equal(t, int64(50), orders.RowCount)
	assert.Len(t, orders.Columns, 3)
}

func TestAnalyzer_SummaryIsValidJSON(t *testing.T) {
	dir := t.TempDir()
	a := New(testConfig(dir), shopIntrospector(), nil, embed.NewHashing(0), verify.NewRules(),
		[]artifact.Store{artifact.NewDir(dir)}, nil)

	result, err := a.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.RunID+"/summary.json")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"))
	assert.Contains(t, string(data), result.RunID)
}
