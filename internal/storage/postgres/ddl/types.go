// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "strings"

// MapType normalizes a destination field type into a Postgres SQL type.
//
//	"int"/"integer"/"bigint"        -> BIGINT
//	"bool"/"boolean"                -> BOOLEAN
//	"float"/"number"/"double"       -> DOUBLE PRECISION
//	"date"                          -> DATE
//	"timestamp"/"timestamptz"       -> TIMESTAMPTZ
//	"record"/"object"/"array"/"json" -> JSONB
//	everything else                 -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "float", "number", "double":
		return "DOUBLE PRECISION"
	case "date":
		return "DATE"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	case "record", "object", "array", "json", "jsonb":
		return "JSONB"
	default:
		return "TEXT"
	}
}
