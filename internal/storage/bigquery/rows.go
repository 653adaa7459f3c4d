package bigquery

import (
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/bigquery"
	"github.com/zeebo/xxh3"

	"bqtarget/internal/schema"
)

// rowSaver hands one prepared row to the inserter.
type rowSaver struct {
	values   map[string]bigquery.Value
	insertID string
}

func (s *rowSaver) Save() (map[string]bigquery.Value, string, error) {
	return s.values, s.insertID, nil
}

// InsertID derives a stable insert ID for the index-th row of a batch, so a
// retried request within the same run is deduplicated by the service.
func InsertID(runID, dataset, table string, index int) string {
	key := runID + "|" + dataset + "." + table + "|" + strconv.Itoa(index)
	return strconv.FormatUint(xxh3.HashString(key), 16)
}

// Values projects a record onto fields. Keys not declared in fields are
// dropped. Each element of a REPEATED RECORD is stored in the single member
// the translator declared for it, named after the column.
func Values(fields []schema.Field, rec map[string]any) map[string]bigquery.Value {
	out := make(map[string]bigquery.Value, len(fields))
	for _, f := range fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		out[f.Name] = value(f, v)
	}
	return out
}

func value(f schema.Field, v any) bigquery.Value {
	if f.Mode != schema.ModeRepeated {
		return element(f, v)
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	list := make([]bigquery.Value, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		switch {
		case fieldType(f) == bigquery.RecordFieldType && len(f.Fields) == 1:
			member := f.Fields[0]
			list = append(list, map[string]bigquery.Value{member.Name: element(member, it)})
		default:
			list = append(list, element(f, it))
		}
	}
	return list
}

func element(f schema.Field, v any) bigquery.Value {
	switch fieldType(f) {
	case bigquery.JSONFieldType:
		return jsonText(v)
	case bigquery.RecordFieldType:
		obj, ok := v.(map[string]any)
		if !ok {
			return jsonText(v)
		}
		return Values(f.Fields, obj)
	case bigquery.StringFieldType:
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case map[string]any, []any:
			return jsonText(t)
		default:
			return fmt.Sprint(t)
		}
	}
	// json.Number marshals as its literal so integers keep full precision.
	return v
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
