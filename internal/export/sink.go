package export

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/afero"
)

// Sink receives finished CSV files.
type Sink interface {
	Write(ctx context.Context, filename string, content []byte) error
}

// FilenameStyle selects the export file name pattern.
type FilenameStyle string

const (
	// StyleDated names files <entity>_<YYYY-MM-DD>.csv
	StyleDated FilenameStyle = "dated"
	// StyleVisits names files <entity>_visits.csv
	StyleVisits FilenameStyle = "visits"
)

var unsafeFilenamePattern = regexp.MustCompile(`[\s/\\]+`)

// filenameDate formats the day in dated file names, independent of the
// configured Date column format.
var filenameDate = mustStrftime(DefaultDateFormat)

func mustStrftime(pattern string) *strftime.Strftime {
	f, err := strftime.New(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// FileName builds the export file name for entity. Whitespace and path
// separators in the entity are replaced with underscores.
//
// Example: FileName("Corner Shop", StyleDated, t) -> "Corner_Shop_2024-03-01.csv"
func FileName(entity string, style FilenameStyle, now time.Time) string {
	name := unsafeFilenamePattern.ReplaceAllString(entity, "_")
	if name == "" {
		name = "export"
	}
	if style == StyleVisits {
		return name + "_visits.csv"
	}
	return fmt.Sprintf("%s_%s.csv", name, filenameDate.FormatString(now))
}

// FileSink writes exports into a directory. Files are written to a temporary
// name and renamed into place, so a failed write leaves no partial file and
// never touches earlier exports.
type FileSink struct {
	fs  afero.Fs
	dir string
}

// NewFileSink creates a sink writing into dir on fs.
func NewFileSink(fs afero.Fs, dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{fs: fs, dir: dir}
}

// Path returns the full path a file name is written to.
func (s *FileSink) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Write stores content as filename in the sink directory.
func (s *FileSink) Write(ctx context.Context, filename string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("invalid export file name %q", filename)
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(filename)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filename, err)
	}
	return nil
}
