package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/visitexport/internal/types"
)

func TestEscapeField(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`He said "hi"`, `"He said ""hi"""`},
		{"plain", `"plain"`},
		{"", `""`},
		{"a,b", `"a,b"`},
		{`""`, `""""""`},
		{"line\nbreak", "\"line\nbreak\""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeField(tt.input))
		})
	}
}

func TestFlattenRow(t *testing.T) {
	fixed, err := FixedColumns(FixedOptions{})
	require.NoError(t, err)

	records := []*types.Record{
		newRecord(t, "1", `{"Name": "Ada", "Age": 36}`),
		newRecord(t, "2", `{"Age": 41, "City": "Izmir \"old town\""}`),
	}
	records[0].User = "Ayse"
	records[0].Timestamp = "2024-03-01T09:30:00Z"

	dynamic := DiscoverColumns(records)

	row, err := FlattenRow(records[0], fixed, dynamic)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`"2024-03-01"`, `"09:30"`, `"Ayse"`, `"Unknown"`, `"Unknown"`, `"No notes provided"`,
		`"Ada"`, `"36"`, `""`,
	}, row)

	row, err = FlattenRow(records[1], fixed, dynamic)
	require.NoError(t, err)
	assert.Equal(t, []string{`""`, `"41"`, `"Izmir ""old town"""`}, row[len(fixed):])
}

func TestFlattenRow_LengthInvariant(t *testing.T) {
	fixed, err := FixedColumns(FixedOptions{})
	require.NoError(t, err)

	records := []*types.Record{
		newRecord(t, "1", `{"a": 1}`),
		newRecord(t, "2", `{}`),
		newRecord(t, "3", ``),
		newRecord(t, "4", `{"b": [1, 2], "c": {"d": null}, "e": "x"}`),
		newRecord(t, "5", `[1, 2, 3]`),
		{},
	}
	dynamic := DiscoverColumns(records)

	for _, rec := range records {
		row, err := FlattenRow(rec, fixed, dynamic)
		require.NoError(t, err)
		assert.Len(t, row, len(fixed)+len(dynamic), "record %s", rec.ID)
	}
}

func TestFlattenRow_NoColumns(t *testing.T) {
	row, err := FlattenRow(&types.Record{}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, row)
}

func TestFlattenRow_SerializationFailure(t *testing.T) {
	deep := `{"deep":` + strings.Repeat("[", 100) + strings.Repeat("]", 100) + `}`
	rec := newRecord(t, "1", deep)

	_, err := FlattenRow(rec, nil, DiscoverColumns([]*types.Record{rec}))
	require.Error(t, err)
	assert.True(t, IsSerializationFailure(err))
	assert.False(t, IsContractViolation(err))
}
