// Package ddl holds the small SQL model shared by the SQL backends: table
// definitions derived from translated fields, a dialect-parameterized CREATE
// TABLE renderer and conversion of buffered records into driver values.
//
// Statements are rendered without IF NOT EXISTS. Backends rely on the
// store's "already exists" error to report AlreadyExists.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the quoting rules of one SQL backend.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string
	// QuoteIdent quotes a single identifier.
	QuoteIdent func(string) string
	// TableName renders the fully-qualified, quoted table name.
	TableName func(dataset, table string) string
}

// CreateTable renders a CREATE TABLE statement:
//
//	CREATE TABLE <name> (
//	  <col1> <TYPE> [NOT NULL],
//	  ...
//	);
func (d Dialect) CreateTable(t TableDef) (string, error) {
	if strings.TrimSpace(t.Table) == "" {
		return "", fmt.Errorf("%s: table name must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.Name, t.Table)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.Name, c.Name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		d.TableName(t.Dataset, t.Table),
		strings.Join(cols, ",\n  "),
	), nil
}

// InsertSQL renders a single-row INSERT with one placeholder per column.
// placeholder receives the 1-based column position.
func (d Dialect) InsertSQL(t TableDef, placeholder func(i int) string) string {
	names := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = d.QuoteIdent(c.Name)
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.TableName(t.Dataset, t.Table),
		strings.Join(names, ", "),
		strings.Join(params, ", "),
	)
}

// DoubleQuote quotes an identifier ANSI-style, doubling embedded quotes.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
