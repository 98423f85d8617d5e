// Package ident guards the names and literals interpolated into view DDL.
//
// PostgreSQL cannot bind parameters inside CREATE VIEW, so identifiers are
// checked against an allow-list and literals are quoted before rendering.
package ident

import (
	"fmt"
	"regexp"

	"github.com/lib/pq"
)

// MaxLength is PostgreSQL's NAMEDATALEN - 1.
const MaxLength = 63

// Unquoted identifiers fold to lower case, so upper case is rejected to keep
// catalog lookups by name exact.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// InvalidIdentifierError reports a schema or view name outside the allow-list.
type InvalidIdentifierError struct {
	Field string
	Value string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier for %s: %q (want lower-case letters, digits, _ or $, at most %d bytes, not starting with a digit)",
		e.Field, e.Value, MaxLength)
}

// Validate returns an InvalidIdentifierError when value is not a plain
// unquoted PostgreSQL identifier. field names the setting in the error.
func Validate(field, value string) error {
	if len(value) == 0 || len(value) > MaxLength || !identPattern.MatchString(value) {
		return &InvalidIdentifierError{Field: field, Value: value}
	}
	return nil
}

// Qualified joins a schema and object name.
func Qualified(schema, name string) string {
	return schema + "." + name
}

// Literal renders s as a SQL string literal.
func Literal(s string) string {
	return pq.QuoteLiteral(s)
}
