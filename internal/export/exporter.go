package export

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/dbsmedya/visitexport/internal/logger"
	"github.com/dbsmedya/visitexport/internal/types"
)

// Request describes one export run.
type Request struct {
	Entity  string          // Name used for the output file
	Style   FilenameStyle   // File name pattern, defaults to StyleDated
	Records []*types.Record // Records in export order
}

// Result summarises a finished export.
type Result struct {
	Filename string
	Rows     int
	Columns  int
	Bytes    int
	Duration time.Duration
}

// Exporter turns record sets into CSV files. It holds no per-export state, so
// one Exporter can serve concurrent exports.
type Exporter struct {
	sink   Sink
	fixed  []Column
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewExporter creates an exporter writing to sink. A nil clock uses the real
// clock and a nil logger the default logger.
func NewExporter(sink Sink, fixed []Column, clock clockwork.Clock, log *logger.Logger) (*Exporter, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Exporter{
		sink:   sink,
		fixed:  fixed,
		clock:  clock,
		logger: log,
	}, nil
}

// Columns returns the fixed and discovered columns for records.
func (e *Exporter) Columns(records []*types.Record) (fixed, dynamic []Column) {
	return e.fixed, DiscoverColumns(records)
}

// Build produces the CSV text for records without writing it anywhere.
func (e *Exporter) Build(records []*types.Record) (string, []Column, error) {
	fixed, dynamic := e.Columns(records)

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row, err := FlattenRow(rec, fixed, dynamic)
		if err != nil {
			// Already marked by FlattenRow.
			return "", nil, errors.Wrapf(err, "record %s", rec.ID)
		}
		rows = append(rows, row)
	}

	content, err := Serialize(Labels(fixed), Labels(dynamic), rows)
	if err != nil {
		return "", nil, err
	}
	return content, dynamic, nil
}

// Export builds the CSV for req and hands it to the sink. Nothing is written
// when building fails.
func (e *Exporter) Export(ctx context.Context, req Request) (*Result, error) {
	start := e.clock.Now()
	style := req.Style
	if style == "" {
		style = StyleDated
	}
	filename := FileName(req.Entity, style, start)
	log := e.logger.WithFields(map[string]interface{}{
		"entity": req.Entity,
		"file":   filename,
	})

	log.Infof("Exporting %d record(s)", len(req.Records))

	content, dynamic, err := e.Build(req.Records)
	if err != nil {
		if IsContractViolation(err) {
			log.Errorf("Internal error while building CSV: %v", err)
		} else {
			log.Warnf("Export failed: %v", err)
		}
		return nil, err
	}

	if err := e.sink.Write(ctx, filename, []byte(content)); err != nil {
		log.Warnf("Failed to deliver export: %v", err)
		return nil, serializationFailure(err, "write %s", filename)
	}

	result := &Result{
		Filename: filename,
		Rows:     len(req.Records),
		Columns:  len(e.fixed) + len(dynamic),
		Bytes:    len(content),
		Duration: e.clock.Since(start),
	}
	log.Infof("Export complete: %d row(s), %d column(s), %d bytes",
		result.Rows, result.Columns, result.Bytes)
	return result, nil
}
