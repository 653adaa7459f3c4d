// Package validate checks records against the JSON Schema their stream
// declared. Validation is structural: format keywords are annotations only.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator is a compiled stream schema. It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// resourceURL names the in-memory resource a stream's schema is compiled
// from. It shows up in validation error messages.
func resourceURL(stream string) string {
	return "mem:///streams/" + url.PathEscape(stream) + ".json"
}

// Compile builds a Validator from a raw schema document. Draft 7 is assumed
// unless the document names another draft in "$schema".
func Compile(stream string, raw json.RawMessage) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = false

	u := resourceURL(stream)
	if err := c.AddResource(u, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema for stream %q: %w", stream, err)
	}
	s, err := c.Compile(u)
	if err != nil {
		return nil, fmt.Errorf("compile schema for stream %q: %w", stream, err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks one decoded record. Numbers may be json.Number.
func (v *Validator) Validate(record any) error {
	if err := v.schema.Validate(record); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
