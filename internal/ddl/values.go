package ddl

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bqtarget/internal/schema"
)

// ValueOptions tunes Values for a driver.
type ValueOptions struct {
	// ParseTimestamps converts TIMESTAMP strings to time.Time. Unparsable
	// strings are passed through for the store to reject.
	ParseTimestamps bool
}

// Values lays out row in column order, converting decoded JSON into values
// database/sql drivers accept:
//
//   - integer json.Number -> int64, FLOAT json.Number -> float64
//   - RECORD values (objects and arrays) -> JSON text
//   - STRING columns holding non-strings -> their JSON text
//
// Missing keys become NULL.
func Values(fields []schema.Field, row map[string]any, opts ValueOptions) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = convert(f, row[f.Name], opts)
	}
	return out
}

func convert(f schema.Field, v any, opts ValueOptions) any {
	if v == nil {
		return nil
	}
	switch strings.ToUpper(f.Type) {
	case "INTEGER":
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
			if fl, err := n.Float64(); err == nil {
				return fl
			}
			return n.String()
		}
	case schema.TypeFloat:
		if n, ok := v.(json.Number); ok {
			if fl, err := n.Float64(); err == nil {
				return fl
			}
			return n.String()
		}
	case schema.TypeTimestamp:
		if s, ok := v.(string); ok && opts.ParseTimestamps {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return ts
			}
			return s
		}
	case schema.TypeRecord:
		return jsonText(v)
	case schema.TypeString:
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case bool:
			return fmt.Sprint(t)
		default:
			return jsonText(t)
		}
	}

	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any, []any:
		return jsonText(t)
	}
	return v
}

func jsonText(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
