// Package dbml renders an extracted schema and its verified relationships
// as DBML for dbdiagram.io.
package dbml

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/schemalens/schemalens/internal/schema"
	"github.com/schemalens/schemalens/internal/verify"
)

// typeMapping normalises SQL types across engines into DBML types. Unknown
// types fall back to varchar.
var typeMapping = map[string]string{
	"integer":                     "int",
	"int":                         "int",
	"bigint":                      "bigint",
	"smallint":                    "int",
	"tinyint":                     "int",
	"mediumint":                   "int",
	"decimal":                     "decimal",
	"numeric":                     "decimal",
	"real":                        "float",
	"double precision":            "float",
	"double":                      "float",
	"float":                       "float",
	"character varying":           "varchar",
	"varchar":                     "varchar",
	"character":                   "char",
	"char":                        "char",
	"text":                        "text",
	"tinytext":                    "text",
	"mediumtext":                  "text",
	"longtext":                    "text",
	"boolean":                     "boolean",
	"bool":                        "boolean",
	"date":                        "date",
	"datetime":                    "datetime",
	"timestamp":                   "timestamp",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"time":                        "time",
	"json":                        "json",
	"jsonb":                       "jsonb",
	"uuid":                        "uuid",
	"blob":                        "blob",
	"serial":                      "int",
	"bigserial":                   "bigint",
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// cardinalityOrder fixes the rendering order of relationship groups so the
// output is reproducible.
var cardinalityOrder = []verify.Cardinality{
	verify.OneToOne,
	verify.OneToMany,
	verify.ManyToOne,
	verify.ManyToMany,
}

// Options controls optional sections of the generated document.
type Options struct {
	ProjectName    string
	DatabaseType   string
	IncludeIndexes bool
	IncludeNotes   bool
	IncludeGroups  bool
}

// Generator renders DBML documents.
type Generator struct {
	opts Options
}

// NewGenerator creates a generator. Empty project name and database type get
// sensible defaults.
func NewGenerator(opts Options) *Generator {
	if opts.ProjectName == "" {
		opts.ProjectName = "Database Schema"
	}
	if opts.DatabaseType == "" {
		opts.DatabaseType = "PostgreSQL"
	}
	return &Generator{opts: opts}
}

// Generate writes the full DBML document: project header, optional table
// groups, one Table block per table in sorted order, Ref lines for every
// valid relationship grouped by cardinality, and footer statistics. Invalid
// relationships are omitted entirely.
func (g *Generator) Generate(w io.Writer, s *schema.Schema, rels []verify.VerifiedRelationship) error {
	var b strings.Builder

	g.writeHeader(&b)

	if g.opts.IncludeGroups {
		writeTableGroups(&b, s)
	}

	for _, name := range s.TableNames() {
		g.writeTable(&b, s.Tables[name])
	}

	valid := g.writeRelationships(&b, rels)

	if g.opts.IncludeNotes {
		g.writeFooter(&b, s, valid)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (g *Generator) writeHeader(b *strings.Builder) {
	fmt.Fprintf(b, "// %s\n", g.opts.ProjectName)
	b.WriteString("// Paste into https://dbdiagram.io/d to visualise\n\n")
	fmt.Fprintf(b, "Project %s {\n", sanitizeName(g.opts.ProjectName))
	fmt.Fprintf(b, "  database_type: '%s'\n", g.opts.DatabaseType)
	b.WriteString("  Note: 'Automatically generated database schema'\n")
	b.WriteString("}\n\n")
}

func (g *Generator) writeTable(b *strings.Builder, table *schema.Table) {
	fmt.Fprintf(b, "Table %s {\n", sanitizeName(table.Name))

	for _, col := range table.Columns {
		g.writeColumn(b, col)
	}

	if g.opts.IncludeIndexes && (len(table.PrimaryKeys) > 0 || hasUniqueColumns(table)) {
		b.WriteString("\n  Indexes {\n")
		if len(table.PrimaryKeys) > 0 {
			fmt.Fprintf(b, "    (%s) [pk]\n", strings.Join(table.PrimaryKeys, ", "))
		}
		for _, col := range table.Columns {
			if col.IsUnique && !col.IsPrimaryKey {
				fmt.Fprintf(b, "    %s [unique]\n", sanitizeName(col.Name))
			}
		}
		b.WriteString("  }\n")
	}

	if g.opts.IncludeNotes && table.RowCount > 0 {
		fmt.Fprintf(b, "\n  Note: '%d rows'\n", table.RowCount)
	}

	b.WriteString("}\n\n")
}

func (g *Generator) writeColumn(b *strings.Builder, col schema.Column) {
	var constraints []string

	if col.IsPrimaryKey {
		constraints = append(constraints, "pk")
	}
	if !col.IsNullable && !col.IsPrimaryKey {
		constraints = append(constraints, "not null")
	}
	if col.IsUnique && !col.IsPrimaryKey {
		constraints = append(constraints, "unique")
	}
	if col.DefaultValue != nil && *col.DefaultValue != "" {
		constraints = append(constraints, fmt.Sprintf("default: '%s'", escapeValue(*col.DefaultValue)))
	}
	if col.IsForeignKey {
		constraints = append(constraints, fmt.Sprintf("note: 'FK to %s'", escapeValue(col.ForeignKeyRef)))
	}

	fmt.Fprintf(b, "  %s %s", sanitizeName(col.Name), mapType(col.DataType))
	if len(constraints) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(constraints, ", "))
	}
	b.WriteString("\n")
}

// writeRelationships emits Ref lines for valid relationships, grouped by
// cardinality, and returns how many were rendered.
func (g *Generator) writeRelationships(b *strings.Builder, rels []verify.VerifiedRelationship) int {
	grouped := make(map[verify.Cardinality][]verify.VerifiedRelationship)
	valid := 0
	for _, rel := range rels {
		if !rel.IsValid {
			continue
		}
		grouped[rel.Cardinality] = append(grouped[rel.Cardinality], rel)
		valid++
	}
	if valid == 0 {
		return 0
	}

	b.WriteString("// Relationships\n\n")
	for _, card := range cardinalityOrder {
		rels := grouped[card]
		if len(rels) == 0 {
			continue
		}

		fmt.Fprintf(b, "// %s relationships\n", card)
		for _, rel := range rels {
			fmt.Fprintf(b, "Ref: %s.%s %s %s.%s",
				sanitizeName(rel.SourceTable), sanitizeName(rel.SourceColumn),
				referenceSymbol(card),
				sanitizeName(rel.TargetTable), sanitizeName(rel.TargetColumn))
			if rel.Explanation != "" {
				fmt.Fprintf(b, " // %s", truncate(rel.Explanation, 50))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return valid
}

func (g *Generator) writeFooter(b *strings.Builder, s *schema.Schema, validRels int) {
	totalColumns := 0
	for _, table := range s.Tables {
		totalColumns += len(table.Columns)
	}

	b.WriteString("// Schema statistics\n")
	fmt.Fprintf(b, "// Tables: %d\n", len(s.Tables))
	fmt.Fprintf(b, "// Columns: %d\n", totalColumns)
	fmt.Fprintf(b, "// Relationships: %d\n", validRels)
}

// writeTableGroups emits TableGroup blocks: one per shared name prefix with
// more than one table, plus a group of junction-style tables (at least two
// foreign keys making up more than half the columns).
func writeTableGroups(b *strings.Builder, s *schema.Schema) {
	byPrefix := make(map[string][]string)
	var junction []string

	for _, name := range s.TableNames() {
		if prefix, _, found := strings.Cut(name, "_"); found {
			byPrefix[prefix] = append(byPrefix[prefix], name)
		}

		table := s.Tables[name]
		fks := 0
		for _, col := range table.Columns {
			if col.IsForeignKey {
				fks++
			}
		}
		if len(table.Columns) > 0 && fks >= 2 && float64(fks)/float64(len(table.Columns)) > 0.5 {
			junction = append(junction, name)
		}
	}

	prefixes := make([]string, 0, len(byPrefix))
	for prefix, tables := range byPrefix {
		if len(tables) > 1 {
			prefixes = append(prefixes, prefix)
		}
	}
	sort.Strings(prefixes)

	if len(prefixes) == 0 && len(junction) == 0 {
		return
	}

	b.WriteString("// Table groups\n")
	for _, prefix := range prefixes {
		fmt.Fprintf(b, "\nTableGroup %s_tables {\n", sanitizeName(prefix))
		for _, table := range byPrefix[prefix] {
			fmt.Fprintf(b, "  %s\n", sanitizeName(table))
		}
		b.WriteString("}\n")
	}
	if len(junction) > 0 {
		b.WriteString("\nTableGroup junction_tables {\n")
		for _, table := range junction {
			fmt.Fprintf(b, "  %s\n", sanitizeName(table))
		}
		b.WriteString("}\n")
	}
	b.WriteString("\n")
}

func referenceSymbol(card verify.Cardinality) string {
	switch card {
	case verify.OneToOne:
		return "-"
	case verify.OneToMany:
		return "<"
	case verify.ManyToOne:
		return ">"
	case verify.ManyToMany:
		return "<>"
	default:
		return ">"
	}
}

// mapType normalises a SQL type to its DBML equivalent, dropping any length
// qualifier such as varchar(255).
func mapType(dataType string) string {
	clean := strings.ToLower(dataType)
	if i := strings.IndexByte(clean, '('); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)

	if mapped, ok := typeMapping[clean]; ok {
		return mapped
	}
	return "varchar"
}

// sanitizeName quotes identifiers that contain characters DBML cannot take
// bare.
func sanitizeName(name string) string {
	if unsafeName.MatchString(name) {
		return `"` + name + `"`
	}
	return name
}

func escapeValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func hasUniqueColumns(table *schema.Table) bool {
	for _, col := range table.Columns {
		if col.IsUnique && !col.IsPrimaryKey {
			return true
		}
	}
	return false
}
