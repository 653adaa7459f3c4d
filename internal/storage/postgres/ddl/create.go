package ddl

import (
	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
)

// Dialect quotes identifiers with double quotes and qualifies tables by
// schema: "dataset"."table".
var Dialect = gddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: gddl.DoubleQuote,
	TableName: func(dataset, table string) string {
		if dataset == "" {
			return gddl.DoubleQuote(table)
		}
		return gddl.DoubleQuote(dataset) + "." + gddl.DoubleQuote(table)
	},
}

// TableDef derives the Postgres table definition for fields.
func TableDef(dataset, table string, fields []schema.Field) gddl.TableDef {
	return gddl.FromFields(dataset, table, fields, func(f schema.Field) string { return MapType(f.Type) })
}

// BuildCreateTableSQL renders CREATE TABLE for dataset.table.
func BuildCreateTableSQL(dataset, table string, fields []schema.Field) (string, error) {
	return Dialect.CreateTable(TableDef(dataset, table, fields))
}

// CreateSchemaSQL renders CREATE SCHEMA for a dataset.
func CreateSchemaSQL(dataset string) string {
	return "CREATE SCHEMA " + gddl.DoubleQuote(dataset)
}
