package export

import (
	"strings"

	"github.com/dbsmedya/visitexport/internal/types"
)

// EscapeField wraps a field in double quotes and doubles any quotes inside.
// Every field is quoted, not only those that need it.
//
// Example: He said "hi" -> "He said ""hi"""
func EscapeField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FlattenRow produces one escaped CSV row for rec: fixed columns first, then
// dynamic columns. The row always has len(fixed)+len(dynamic) fields. An
// error means a value could not be serialized at all.
func FlattenRow(rec *types.Record, fixed, dynamic []Column) ([]string, error) {
	row := make([]string, 0, len(fixed)+len(dynamic))
	for _, group := range [][]Column{fixed, dynamic} {
		for _, col := range group {
			value, err := col.Value(rec)
			if err != nil {
				return nil, serializationFailure(err, "column %q", col.Label)
			}
			row = append(row, EscapeField(value))
		}
	}
	return row, nil
}
