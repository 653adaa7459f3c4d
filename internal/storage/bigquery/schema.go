package bigquery

import (
	"strings"

	"cloud.google.com/go/bigquery"

	"bqtarget/internal/schema"
)

// Schema converts translated fields into a BigQuery table schema.
func Schema(fields []schema.Field) bigquery.Schema {
	out := make(bigquery.Schema, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldSchema(f))
	}
	return out
}

func fieldSchema(f schema.Field) *bigquery.FieldSchema {
	fs := &bigquery.FieldSchema{
		Name:        f.Name,
		Description: f.Description,
		Type:        fieldType(f),
		Required:    f.Mode == schema.ModeRequired,
		Repeated:    f.Mode == schema.ModeRepeated,
	}
	if fs.Type == bigquery.RecordFieldType {
		fs.Schema = Schema(f.Fields)
	}
	return fs
}

// fieldType maps a destination type name to a BigQuery column type. Source
// primitives passed through by the translator are upper-cased; a RECORD with
// no declared members (an array without items) and the item types "object"
// and "array" become JSON.
func fieldType(f schema.Field) bigquery.FieldType {
	switch strings.ToLower(f.Type) {
	case "record":
		if len(f.Fields) == 0 {
			return bigquery.JSONFieldType
		}
		return bigquery.RecordFieldType
	case "object", "array", "json":
		return bigquery.JSONFieldType
	case "string", schema.NullType:
		return bigquery.StringFieldType
	case "integer":
		return bigquery.IntegerFieldType
	case "number", "float":
		return bigquery.FloatFieldType
	case "boolean":
		return bigquery.BooleanFieldType
	case "timestamp":
		return bigquery.TimestampFieldType
	default:
		return bigquery.FieldType(strings.ToUpper(f.Type))
	}
}
