package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runColumnsCaptured(t *testing.T) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	columnsCmd.SetOut(&buf)
	columnsCmd.SetErr(&buf)
	t.Cleanup(func() {
		columnsCmd.SetOut(nil)
		columnsCmd.SetErr(nil)
	})
	err := runColumns(columnsCmd, nil)
	return buf.String(), err
}

func TestColumnsCommandStructure(t *testing.T) {
	assert.Equal(t, "columns", columnsCmd.Use)
	assert.NotEmpty(t, columnsCmd.Short)
	for _, name := range []string{"export", "entity", "where"} {
		assert.NotNil(t, columnsCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestRunColumns(t *testing.T) {
	newTestEnv(t, `exports:
  corner_shop:
    entity: Corner Shop
`)
	columnsExport = "corner_shop"

	out, err := runColumnsCaptured(t)
	require.NoError(t, err)

	assert.Contains(t, out, "Columns for corner_shop (2 record(s), 2 with answers)")
	assert.Contains(t, out, "  1. Date\n")
	assert.Contains(t, out, "  6. Notes\n")
	assert.Contains(t, out, "  7. Shelf Count (shelfCount)\n")
	assert.Contains(t, out, "  8. Store Name (storeName)\n")
	assert.Contains(t, out, "  9. Details (details)\n")
	assert.Contains(t, out, " 10. Photo (photo)\n")
	assert.Contains(t, out, "Total: 10 column(s)")
}

func TestRunColumns_RequiresTarget(t *testing.T) {
	newTestEnv(t, "")

	_, err := runColumnsCaptured(t)
	assert.ErrorContains(t, err, "--export or --entity")
}
