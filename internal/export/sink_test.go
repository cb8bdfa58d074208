package export

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entity   string
		style    FilenameStyle
		expected string
	}{
		{"dated", "Corner Shop", StyleDated, "Corner_Shop_2024-03-01.csv"},
		{"visits", "Corner Shop", StyleVisits, "Corner_Shop_visits.csv"},
		{"whitespace runs", "  Big \t Market ", StyleVisits, "_Big_Market__visits.csv"},
		{"path separators", "a/b\\c", StyleDated, "a_b_c_2024-03-01.csv"},
		{"empty entity", "", StyleDated, "export_2024-03-01.csv"},
		{"unknown style falls back to dated", "x", FilenameStyle("other"), "x_2024-03-01.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.entity, tt.style, now))
		})
	}

	// The file name date is zero padded regardless of the Date column format.
	padded := time.Date(2023, 12, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "Kiosk_2023-12-09.csv", FileName("Kiosk", StyleDated, padded))
}

func TestFileSink_Write(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFileSink(fs, "/exports")

	err := sink.Write(context.Background(), "shop_visits.csv", []byte("\"a\"\n\"b\""))
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/exports/shop_visits.csv")
	require.NoError(t, err)
	assert.Equal(t, "\"a\"\n\"b\"", string(data))

	entries, err := afero.ReadDir(fs, "/exports")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestFileSink_Overwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFileSink(fs, "/exports")
	ctx := context.Background()

	require.NoError(t, sink.Write(ctx, "x.csv", []byte("old")))
	require.NoError(t, sink.Write(ctx, "x.csv", []byte("new")))

	data, err := afero.ReadFile(fs, "/exports/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileSink_InvalidNames(t *testing.T) {
	sink := NewFileSink(afero.NewMemMapFs(), "/exports")

	for _, name := range []string{"", "../x.csv", "dir/x.csv", ".hidden.csv"} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, sink.Write(context.Background(), name, []byte("x")))
		})
	}
}

func TestFileSink_CanceledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFileSink(fs, "/exports")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Write(ctx, "x.csv", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = fs.Stat("/exports/x.csv")
	assert.True(t, os.IsNotExist(err))
}

func TestFileSink_ReadOnlyFsKeepsPreviousExport(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/exports/x.csv", []byte("previous"), 0644))

	sink := NewFileSink(afero.NewReadOnlyFs(base), "/exports")
	err := sink.Write(context.Background(), "x.csv", []byte("next"))
	require.Error(t, err)

	data, err := afero.ReadFile(base, "/exports/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestNewFileSink_DefaultDir(t *testing.T) {
	sink := NewFileSink(afero.NewMemMapFs(), "")
	assert.Equal(t, "x.csv", sink.Path("x.csv"))
}

// failingSink records calls and returns err.
type failingSink struct {
	err   error
	calls int
}

func (s *failingSink) Write(ctx context.Context, filename string, content []byte) error {
	s.calls++
	return s.err
}

var errDiskFull = errors.New("disk full")
