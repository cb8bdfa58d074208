package export

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/visitexport/internal/response"
	"github.com/dbsmedya/visitexport/internal/types"
)

// newRecord builds a record whose answer set is parsed from JSON.
func newRecord(t *testing.T, id, answers string) *types.Record {
	t.Helper()
	rec := &types.Record{ID: id}
	if answers != "" {
		v, err := response.Parse([]byte(answers))
		require.NoError(t, err)
		rec.Answers = v
	}
	return rec
}

func columnKeys(columns []Column) []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}
