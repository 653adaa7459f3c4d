// Package singer models the line-delimited messages a tap writes to stdout:
// SCHEMA, RECORD, STATE and ACTIVATE_VERSION. Parsing produces a closed set
// of concrete message types; anything else becomes an UnknownMessage so the
// caller decides what an unrecognized kind means.
package singer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message type tags as they appear in the "type" field.
const (
	TypeSchema          = "SCHEMA"
	TypeRecord          = "RECORD"
	TypeState           = "STATE"
	TypeActivateVersion = "ACTIVATE_VERSION"
)

var (
	ErrMissingType   = errors.New(`missing "type"`)
	ErrMissingStream = errors.New(`missing "stream"`)
	ErrMissingField  = errors.New("missing required field")
)

// Message is one parsed input line. The set of implementations is closed.
type Message interface {
	Kind() string
	isMessage()
}

// SchemaMessage declares (or redeclares) the shape of a stream.
type SchemaMessage struct {
	Stream             string          `json:"stream"`
	Schema             json.RawMessage `json:"schema"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
}

// RecordMessage carries one row for a stream. Numbers in Record are
// json.Number so integers keep their precision.
type RecordMessage struct {
	Stream        string         `json:"stream"`
	Record        map[string]any `json:"record"`
	Version       *int64         `json:"version,omitempty"`
	TimeExtracted *time.Time     `json:"time_extracted,omitempty"`
}

// StateMessage carries an opaque checkpoint value.
type StateMessage struct {
	Value json.RawMessage `json:"value"`
}

// ActivateVersionMessage marks a table version switch. It carries no load
// semantics here.
type ActivateVersionMessage struct {
	Stream  string `json:"stream"`
	Version int64  `json:"version"`
}

// UnknownMessage is a well-formed line whose type tag is not one of the
// known kinds.
type UnknownMessage struct {
	Type string
}

func (*SchemaMessage) Kind() string          { return TypeSchema }
func (*RecordMessage) Kind() string          { return TypeRecord }
func (*StateMessage) Kind() string           { return TypeState }
func (*ActivateVersionMessage) Kind() string { return TypeActivateVersion }
func (m *UnknownMessage) Kind() string       { return m.Type }

func (*SchemaMessage) isMessage()          {}
func (*RecordMessage) isMessage()          {}
func (*StateMessage) isMessage()           {}
func (*ActivateVersionMessage) isMessage() {}
func (*UnknownMessage) isMessage()         {}

// Parse decodes one line into its concrete message type.
//
// The returned error is a plain parse error; callers attach the line number.
func Parse(line []byte) (Message, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if head.Type == nil {
		return nil, ErrMissingType
	}

	switch *head.Type {
	case TypeSchema:
		var m SchemaMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TypeSchema, err)
		}
		if m.Stream == "" {
			return nil, fmt.Errorf("%s: %w", TypeSchema, ErrMissingStream)
		}
		if isNull(m.Schema) {
			return nil, fmt.Errorf("%s: %w: schema", TypeSchema, ErrMissingField)
		}
		return &m, nil

	case TypeRecord:
		var m RecordMessage
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TypeRecord, err)
		}
		if m.Stream == "" {
			return nil, fmt.Errorf("%s: %w", TypeRecord, ErrMissingStream)
		}
		if m.Record == nil {
			return nil, fmt.Errorf("%s: %w: record", TypeRecord, ErrMissingField)
		}
		return &m, nil

	case TypeState:
		var m StateMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TypeState, err)
		}
		if len(m.Value) == 0 {
			return nil, fmt.Errorf("%s: %w: value", TypeState, ErrMissingField)
		}
		return &m, nil

	case TypeActivateVersion:
		var m ActivateVersionMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", TypeActivateVersion, err)
		}
		if m.Stream == "" {
			return nil, fmt.Errorf("%s: %w", TypeActivateVersion, ErrMissingStream)
		}
		return &m, nil

	default:
		return &UnknownMessage{Type: *head.Type}, nil
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
