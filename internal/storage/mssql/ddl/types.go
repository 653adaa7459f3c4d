// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// The type mapping is conservative and biased toward safe, widely-supported
// SQL Server types.
package ddl

import "strings"

// MapType maps a destination field type into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX); records and arrays are
// stored as JSON text.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "float", "number", "double":
		return "FLOAT"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIMEOFFSET"
	case "uuid":
		return "UNIQUEIDENTIFIER"
	default:
		return "NVARCHAR(MAX)"
	}
}
