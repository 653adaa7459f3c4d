// Package schema holds the two schema languages the target works with: the
// JSON Schema subset that arrives on SCHEMA messages (SourceSchema) and the
// destination tabular schema derived from it (Field).
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// NullType is the union member marking a nullable value.
const NullType = "null"

// Properties keeps object members in document order so derived columns
// come out in the order the tap declared them.
type Properties = orderedmap.OrderedMap[string, *SourceSchema]

// TypeList is the JSON Schema "type" keyword. It accepts both the scalar
// form ("string") and the union form (["null", "string"]).
type TypeList []string

func (t *TypeList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var many []string
		if err := json.Unmarshal(b, &many); err != nil {
			return fmt.Errorf("type: %w", err)
		}
		*t = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	*t = TypeList{one}
	return nil
}

func (t TypeList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// HasNull reports whether the union admits null.
func (t TypeList) HasNull() bool {
	for _, s := range t {
		if s == NullType {
			return true
		}
	}
	return false
}

// SourceSchema is one node of a stream's declared schema.
type SourceSchema struct {
	Type        TypeList      `json:"type,omitempty"`
	Format      string        `json:"format,omitempty"`
	Description string        `json:"description,omitempty"`
	Items       *SourceSchema `json:"items,omitempty"`
	Properties  *Properties   `json:"properties,omitempty"`
}

// Parse decodes a schema document.
func Parse(raw []byte) (*SourceSchema, error) {
	var s SourceSchema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &s, nil
}

// Mode is the destination nullability mode.
type Mode string

const (
	ModeNullable Mode = "NULLABLE"
	ModeRequired Mode = "REQUIRED"
	ModeRepeated Mode = "REPEATED"
)

// Destination type names produced by the translator. Any other source
// primitive (integer, boolean, ...) is passed through verbatim and mapped by
// the storage backend.
const (
	TypeString    = "STRING"
	TypeFloat     = "FLOAT"
	TypeTimestamp = "TIMESTAMP"
	TypeRecord    = "RECORD"
)

// Field is one column of the destination schema. Fields is non-empty only
// for RECORD columns.
type Field struct {
	Name        string
	Type        string
	Mode        Mode
	Description string
	Fields      []Field
}

// ColumnNames returns the top-level column names in order.
func ColumnNames(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
