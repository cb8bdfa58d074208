// Package export flattens visit records into column-aligned CSV files.
package export

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/visitexport/internal/response"
	"github.com/dbsmedya/visitexport/internal/types"
)

// Column is one CSV column: a header label plus an accessor producing the
// unescaped field value for a record.
type Column struct {
	Key   string // Raw answer key; empty for fixed metadata columns
	Label string
	value func(rec *types.Record) (string, error)
}

// Value returns the unescaped field for rec.
func (c Column) Value(rec *types.Record) (string, error) {
	if c.value == nil || rec == nil {
		return "", nil
	}
	return c.value(rec)
}

// Labels returns the header labels of columns in order.
func Labels(columns []Column) []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.Label
	}
	return labels
}

// DiscoverColumns scans the answer sets of records in sequence and returns one
// column per distinct key, ordered by first appearance. Records without an
// object answer set contribute nothing. The result depends only on the
// record sequence, so repeated calls return identical columns.
func DiscoverColumns(records []*types.Record) []Column {
	seen := orderedmap.NewOrderedMap[string, struct{}]()
	for _, rec := range records {
		for _, key := range rec.AnswerKeys() {
			seen.Set(key, struct{}{})
		}
	}

	columns := make([]Column, 0, seen.Len())
	for el := seen.Front(); el != nil; el = el.Next() {
		columns = append(columns, AnswerColumn(el.Key))
	}
	return columns
}

// AnswerColumn returns a column that looks up key in a record's answer set by
// exact equality. The header label is the formatted key, matching the labels
// used when rendering.
func AnswerColumn(key string) Column {
	return Column{
		Key:   key,
		Label: response.FormatKey(key),
		value: func(rec *types.Record) (string, error) {
			v, ok := rec.Answer(key)
			if !ok {
				return "", nil
			}
			return AnswerText(v)
		},
	}
}

// AnswerText flattens one answer to a single field. Arrays are joined with
// ", " and objects become compact JSON; nothing is expanded into further
// columns.
func AnswerText(v response.Value) (string, error) {
	switch v.Type() {
	case response.TypeArray:
		return v.Join(", ")
	case response.TypeObject:
		data, err := v.MarshalJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return v.Text(), nil
	}
}
