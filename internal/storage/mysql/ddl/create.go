package ddl

import (
	"strings"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
)

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// Dialect maps a dataset onto a MySQL database: `dataset`.`table`.
var Dialect = gddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: QuoteIdent,
	TableName: func(dataset, table string) string {
		if dataset == "" {
			return QuoteIdent(table)
		}
		return QuoteIdent(dataset) + "." + QuoteIdent(table)
	},
}

func TableDef(dataset, table string, fields []schema.Field) gddl.TableDef {
	return gddl.FromFields(dataset, table, fields, func(f schema.Field) string { return MapType(f.Type) })
}

// BuildCreateTableSQL renders CREATE TABLE for dataset.table.
func BuildCreateTableSQL(dataset, table string, fields []schema.Field) (string, error) {
	return Dialect.CreateTable(TableDef(dataset, table, fields))
}

// CreateDatabaseSQL renders CREATE DATABASE for a dataset.
func CreateDatabaseSQL(dataset string) string {
	return "CREATE DATABASE " + QuoteIdent(dataset)
}
