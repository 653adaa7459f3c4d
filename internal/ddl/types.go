package ddl

import "bqtarget/internal/schema"

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef is a table to create: its namespace (dataset), its name and an
// ordered list of columns.
type TableDef struct {
	Dataset string
	Table   string
	Columns []ColumnDef
}

// TypeMapper maps one destination field to a backend SQL type.
type TypeMapper func(f schema.Field) string

// FromFields derives a TableDef from translated fields. REQUIRED columns are
// NOT NULL; NULLABLE and REPEATED columns accept NULL.
func FromFields(dataset, table string, fields []schema.Field, mapType TypeMapper) TableDef {
	cols := make([]ColumnDef, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, ColumnDef{
			Name:     f.Name,
			SQLType:  mapType(f),
			Nullable: f.Mode != schema.ModeRequired,
		})
	}
	return TableDef{Dataset: dataset, Table: table, Columns: cols}
}
