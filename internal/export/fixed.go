package export

import (
	"fmt"
	"strings"

	"github.com/lestrrat-go/strftime"
	"github.com/relvacode/iso8601"

	"github.com/dbsmedya/visitexport/internal/types"
)

// Fallback texts for missing or unusable metadata.
const (
	TextInvalidDate = "Invalid date"
	TextUnknown     = "Unknown"
	TextNoNotes     = "No notes provided"
)

// Default strftime patterns for the Date and Time columns.
const (
	DefaultDateFormat = "%Y-%m-%d"
	DefaultTimeFormat = "%H:%M"
)

// FixedOptions controls the metadata columns emitted before the answers.
type FixedOptions struct {
	DateFormat string // strftime pattern, defaults to DefaultDateFormat
	TimeFormat string // strftime pattern, defaults to DefaultTimeFormat
}

// FixedColumns returns the metadata columns: Date, Time, User, Shop, Status
// and Notes. It fails only on invalid strftime patterns.
func FixedColumns(opts FixedOptions) ([]Column, error) {
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}

	dateFmt, err := strftime.New(opts.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid date format %q: %w", opts.DateFormat, err)
	}
	timeFmt, err := strftime.New(opts.TimeFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid time format %q: %w", opts.TimeFormat, err)
	}

	return []Column{
		timestampColumn("Date", dateFmt),
		timestampColumn("Time", timeFmt),
		metadataColumn("User", TextUnknown, func(r *types.Record) string { return r.User }),
		metadataColumn("Shop", TextUnknown, func(r *types.Record) string { return r.Shop }),
		metadataColumn("Status", TextUnknown, func(r *types.Record) string { return r.Status }),
		metadataColumn("Notes", TextNoNotes, func(r *types.Record) string { return r.Notes }),
	}, nil
}

// FormatTimestamp formats an ISO 8601 timestamp with f. Empty input gives an
// empty field, unparseable input gives TextInvalidDate.
func FormatTimestamp(raw string, f *strftime.Strftime) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := iso8601.ParseString(raw)
	if err != nil {
		return TextInvalidDate
	}
	return f.FormatString(t)
}

func timestampColumn(label string, f *strftime.Strftime) Column {
	return Column{
		Label: label,
		value: func(rec *types.Record) (string, error) {
			return FormatTimestamp(rec.Timestamp, f), nil
		},
	}
}

func metadataColumn(label, fallback string, get func(*types.Record) string) Column {
	return Column{
		Label: label,
		value: func(rec *types.Record) (string, error) {
			if v := strings.TrimSpace(get(rec)); v != "" {
				return v, nil
			}
			return fallback, nil
		},
	}
}
