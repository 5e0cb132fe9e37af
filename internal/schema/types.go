// Package schema holds the extracted database schema model and the
// per-engine introspectors that build it. The model is built once per run
// and is read-only for every downstream stage.
package schema

import "sort"

// Column describes a single column in a table. Immutable once extracted.
type Column struct {
	Name          string  `json:"name"`
	DataType      string  `json:"type"`
	IsNullable    bool    `json:"nullable"`
	IsPrimaryKey  bool    `json:"primary_key"`
	IsForeignKey  bool    `json:"foreign_key"`
	ForeignKeyRef string  `json:"foreign_key_ref,omitempty"` // "table.column", empty when not an FK
	IsUnique      bool    `json:"unique"`
	DefaultValue  *string `json:"default,omitempty"`
}

// Table describes a table, its ordered columns, and its declared keys.
// Column order matches the source column order.
type Table struct {
	Name        string            `json:"name"`
	Columns     []Column          `json:"columns"`
	PrimaryKeys []string          `json:"primary_keys"`
	ForeignKeys map[string]string `json:"foreign_keys"` // column -> "table.column"
	RowCount    int64             `json:"row_count"`
}

// Column returns the column with the given name, or nil if absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Schema is the full extracted database schema, keyed by table name.
type Schema struct {
	Tables map[string]*Table `json:"tables"`
}

// TableNames returns all table names in sorted order. Every stage iterates
// tables through this method so results are reproducible across runs.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns the table with the given name, or nil if absent.
func (s *Schema) Table(name string) *Table {
	return s.Tables[name]
}

// IsEmpty reports whether the schema contains no tables.
func (s *Schema) IsEmpty() bool {
	return len(s.Tables) == 0
}

// DeclaredForeignKeys returns every declared foreign key in the schema as a
// mapping from "table.column" to its "table.column" reference.
func (s *Schema) DeclaredForeignKeys() map[string]string {
	declared := make(map[string]string)
	for _, name := range s.TableNames() {
		table := s.Tables[name]
		for col, ref := range table.ForeignKeys {
			declared[name+"."+col] = ref
		}
	}
	return declared
}

// ForeignKeyRef is one declared foreign key edge as reported by an engine's
// catalog, before it is folded into the Table model.
type ForeignKeyRef struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}
