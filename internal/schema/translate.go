package schema

import (
	"errors"
	"fmt"
)

var (
	ErrMissingType       = errors.New("missing type")
	ErrMissingProperties = errors.New("object without properties")
)

// Build translates the top-level properties of a stream schema into the
// destination column list, in declaration order.
func Build(root *SourceSchema) ([]Field, error) {
	if root == nil || root.Properties == nil {
		return nil, fmt.Errorf("schema root: %w", ErrMissingProperties)
	}
	fields := make([]Field, 0, root.Properties.Len())
	for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
		f, err := Translate(pair.Value, pair.Key)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Translate maps one source node, named name, to a destination field.
//
// A union whose first member is "null" is NULLABLE; a union that carries
// "null" in any later position is REQUIRED. Arrays become REPEATED records
// holding a single field named after the parent and typed after the items;
// item objects are not expanded further.
func Translate(node *SourceSchema, name string) (Field, error) {
	if node == nil {
		return Field{}, fmt.Errorf("field %q: %w", name, ErrMissingType)
	}
	f := Field{Name: name, Mode: ModeNullable, Description: node.Description}

	typ, mode, err := resolveType(node.Type)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	f.Mode = mode

	switch typ {
	case "array":
		f.Type = TypeRecord
		f.Mode = ModeRepeated
		if node.Items != nil {
			itemType, _, err := resolveType(node.Items.Type)
			if err != nil {
				return Field{}, fmt.Errorf("field %q items: %w", name, err)
			}
			f.Fields = []Field{{Name: name, Type: itemType, Mode: ModeNullable}}
		}
	case "object":
		f.Type = TypeRecord
		if node.Properties == nil {
			return Field{}, fmt.Errorf("field %q: %w", name, ErrMissingProperties)
		}
		f.Fields = make([]Field, 0, node.Properties.Len())
		for pair := node.Properties.Oldest(); pair != nil; pair = pair.Next() {
			sub, err := Translate(pair.Value, pair.Key)
			if err != nil {
				return Field{}, fmt.Errorf("field %q: %w", name, err)
			}
			f.Fields = append(f.Fields, sub)
		}
	case "string":
		f.Type = TypeString
		if node.Format == "date-time" {
			f.Type = TypeTimestamp
		}
	case "number":
		f.Type = TypeFloat
	default:
		f.Type = typ
	}
	return f, nil
}

// resolveType picks the underlying type of a type keyword and the mode
// implied by its null position. In a union the type is the first non-null
// member after the leading one, falling back to the leading member: ["null",
// T] and [T, "null"] both give T, while ["null", "integer", "string"] and
// ["string", "integer"] give "integer".
func resolveType(t TypeList) (string, Mode, error) {
	if len(t) == 0 {
		return "", "", ErrMissingType
	}
	if len(t) == 1 {
		if t[0] == NullType {
			return "", "", fmt.Errorf("%w: only %q", ErrMissingType, NullType)
		}
		return t[0], ModeNullable, nil
	}

	typ := firstNonNull(t[1:])
	if typ == "" {
		typ = firstNonNull(t[:1])
	}
	if typ == "" {
		return "", "", fmt.Errorf("%w: only %q", ErrMissingType, NullType)
	}

	if t[0] == NullType {
		return typ, ModeNullable, nil
	}
	if t.HasNull() {
		return typ, ModeRequired, nil
	}
	return typ, ModeNullable, nil
}

func firstNonNull(t []string) string {
	for _, s := range t {
		if s != NullType {
			return s
		}
	}
	return ""
}
