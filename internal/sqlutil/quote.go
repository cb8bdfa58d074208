// Package sqlutil builds MySQL identifiers for the visits queries.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// Existing backticks are doubled.
// Example: "visits" -> "`visits`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QualifiedName quotes column and prefixes it with a table alias.
// Example: QualifiedName("v", "created_at") -> "v.`created_at`"
func QualifiedName(alias, column string) string {
	return alias + "." + QuoteIdentifier(column)
}

// Schema identifiers come from configuration and are restricted to
// alphanumerics and underscores.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a valid schema identifier.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// ValidateIdentifiers returns an *InvalidIdentifierError for the first
// invalid name.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if !IsValidIdentifier(name) {
			return &InvalidIdentifierError{Name: name}
		}
	}
	return nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
