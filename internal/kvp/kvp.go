// Package kvp holds the fixed field catalog used to unpivot ranking rows into
// (field, value, type) triples.
package kvp

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the declared type of a field's value. Values are always stored as
// text; the type tells the dashboard how to read them.
type Type string

const (
	TypeStr   Type = "str"
	TypeFloat Type = "float"
)

// FieldPrefix is prepended to every label in the generated field column.
const FieldPrefix = "f"

// Field maps one wide source column to a KVP row.
type Field struct {
	Label string `yaml:"label"`
	Expr  string `yaml:"expr"` // SQL over the source view, aliased s
	Type  Type   `yaml:"type"`
}

// Name is the value written to the view's field column, e.g. "frank display".
func (f Field) Name() string {
	return FieldPrefix + f.Label
}

// Catalog is an ordered, validated list of fields.
type Catalog struct {
	fields []Field
}

//go:embed fields.yaml
var defaultFields []byte

var defaultCatalog = MustParse(defaultFields)

// Default returns the built-in field catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Parse decodes and validates a YAML field list.
func Parse(data []byte) (*Catalog, error) {
	var fields []Field
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing field catalog: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("field catalog is empty")
	}

	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Label) == "" {
			return nil, fmt.Errorf("field %d: empty label", i+1)
		}
		if strings.ContainsAny(f.Label, "'\\") {
			return nil, fmt.Errorf("field %q: label may not contain quotes or backslashes", f.Label)
		}
		if strings.TrimSpace(f.Expr) == "" {
			return nil, fmt.Errorf("field %q: empty expression", f.Label)
		}
		if f.Type != TypeStr && f.Type != TypeFloat {
			return nil, fmt.Errorf("field %q: unknown type %q", f.Label, f.Type)
		}
		if prev, ok := seen[f.Label]; ok {
			return nil, fmt.Errorf("field %q: duplicate of field %d", f.Label, prev)
		}
		seen[f.Label] = i + 1
	}

	return &Catalog{fields: fields}, nil
}

// MustParse is Parse for embedded catalogs; it panics on error.
func MustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Fields returns a copy of the catalog's fields in order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Len is the number of fields, i.e. rows generated per source row.
func (c *Catalog) Len() int {
	return len(c.fields)
}

// Names returns the field column values in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name()
	}
	return names
}
