// Package ddl renders SQL Server DDL from translated fields.
//
// Identifiers use bracket quoting: [schema].[table], [col]. Statements are
// plain CREATE TABLE; an existing table surfaces as error 2714.
package ddl

import (
	"strings"

	gddl "bqtarget/internal/ddl"
	"bqtarget/internal/schema"
)

// quoteIdent brackets a SQL Server identifier, escaping closing brackets.
func quoteIdent(id string) string {
	return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]`
}

// quoteFQN quotes a possibly schema-qualified name like "dbo.t" to
// "[dbo].[t]". Empty segments are dropped.
func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

// Dialect qualifies tables by schema: [dataset].[table].
var Dialect = gddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: quoteIdent,
	TableName: func(dataset, table string) string {
		if dataset == "" {
			return quoteIdent(table)
		}
		return quoteIdent(dataset) + "." + quoteIdent(table)
	},
}

// QuoteIdent is exported for callers composing their own T-SQL.
func QuoteIdent(id string) string { return quoteIdent(id) }

// QuoteFQN is exported for callers composing their own T-SQL.
func QuoteFQN(fqn string) string { return quoteFQN(fqn) }

// TableDef derives the SQL Server table definition for fields.
func TableDef(dataset, table string, fields []schema.Field) gddl.TableDef {
	return gddl.FromFields(dataset, table, fields, func(f schema.Field) string { return MapType(f.Type) })
}

// BuildCreateTableSQL renders CREATE TABLE for dataset.table.
func BuildCreateTableSQL(dataset, table string, fields []schema.Field) (string, error) {
	return Dialect.CreateTable(TableDef(dataset, table, fields))
}

// CreateSchemaSQL renders CREATE SCHEMA for a dataset. It must run as its
// own batch.
func CreateSchemaSQL(dataset string) string {
	return "CREATE SCHEMA " + quoteIdent(dataset)
}
