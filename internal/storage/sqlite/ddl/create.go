package ddl

import (
	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
)

// Dialect names tables "<dataset>.<table>" as a single quoted identifier,
// since a SQLite file has no schemas of its own.
var Dialect = gddl.Dialect{
	Name:       "sqlite ddl",
	QuoteIdent: gddl.DoubleQuote,
	TableName: func(dataset, table string) string {
		return gddl.DoubleQuote(TableName(dataset, table))
	},
}

// TableName is the unquoted name dataset.table is stored under.
func TableName(dataset, table string) string {
	if dataset == "" {
		return table
	}
	return dataset + "." + table
}

// TableDef derives the SQLite table definition for fields.
func TableDef(dataset, table string, fields []schema.Field) gddl.TableDef {
	return gddl.FromFields(dataset, table, fields, func(f schema.Field) string { return MapType(f.Type) })
}

// BuildCreateTableSQL renders CREATE TABLE for dataset.table.
func BuildCreateTableSQL(dataset, table string, fields []schema.Field) (string, error) {
	return Dialect.CreateTable(TableDef(dataset, table, fields))
}

// DatasetsTable records which datasets were created.
const DatasetsTable = "_bqtarget_datasets"

// CreateDatasetsTableSQL creates the dataset registry if needed.
const CreateDatasetsTableSQL = `CREATE TABLE IF NOT EXISTS "` + DatasetsTable + `" (
  "name" TEXT PRIMARY KEY,
  "created_at" TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// RegisterDatasetSQL records a dataset; it affects no rows when the
// dataset is already known.
const RegisterDatasetSQL = `INSERT OR IGNORE INTO "` + DatasetsTable + `" ("name") VALUES (?)`
