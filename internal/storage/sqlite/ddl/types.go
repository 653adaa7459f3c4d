// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite types are affinities, so the mapping only picks the canonical one
// for each destination type:
//   - integer-ish types -> INTEGER
//   - boolean           -> INTEGER (0/1)
//   - float             -> REAL
//   - timestamps        -> TEXT (ISO-8601, as received)
//   - records/arrays    -> TEXT (JSON)
//   - others            -> TEXT
package ddl

import "strings"

// MapType maps a destination field type into a SQLite column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "number", "double", "real":
		return "REAL"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}
