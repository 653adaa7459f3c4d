// Package ddl renders MySQL DDL from translated fields.
package ddl

import "strings"

// MapType maps a destination field type into a MySQL column type. Records
// and arrays land in native JSON columns.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "float", "number", "double":
		return "DOUBLE"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME(6)"
	case "record", "object", "array", "json":
		return "JSON"
	default:
		return "LONGTEXT"
	}
}
