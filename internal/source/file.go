package source

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/dbsmedya/visitexport/internal/logger"
	"github.com/dbsmedya/visitexport/internal/response"
	"github.com/dbsmedya/visitexport/internal/types"
)

// DefaultAnswersField is the record field holding the answer set.
const DefaultAnswersField = "responses"

// Record fields read from dashboard API dumps.
const (
	fieldID        = "id"
	fieldTimestamp = "created_at"
	fieldUser      = "user"
	fieldShop      = "shop"
	fieldNotes     = "notes"
	fieldStatus    = "status"
	fieldData      = "data"
)

// FileSource reads records from a JSON dump of the visits API: either a
// top-level array of records or an object wrapping the array in "data".
type FileSource struct {
	fs           afero.Fs
	path         string
	answersField string
	logger       *logger.Logger
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a source reading path from fs. An empty answersField
// selects DefaultAnswersField.
func NewFileSource(fs afero.Fs, path, answersField string, log *logger.Logger) *FileSource {
	if answersField == "" {
		answersField = DefaultAnswersField
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FileSource{
		fs:           fs,
		path:         path,
		answersField: answersField,
		logger:       log.WithSource(path),
	}
}

// Load reads every record in file order.
func (s *FileSource) Load(ctx context.Context) ([]*types.Record, types.RecordStats, error) {
	var stats types.RecordStats
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc, err := response.Parse(data)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if doc.Type() == response.TypeObject {
		if wrapped, ok := doc.Get(fieldData); ok {
			doc = wrapped
		}
	}
	if doc.Type() != response.TypeArray {
		return nil, stats, fmt.Errorf("%s: expected an array of records, got %s", s.path, doc.Type())
	}

	records := make([]*types.Record, 0, doc.Len())
	for i, item := range doc.Items() {
		if item.Type() != response.TypeObject {
			s.logger.Warnf("Skipping entry %d: expected an object, got %s", i, item.Type())
			continue
		}
		rec, malformed := s.toRecord(item)
		countRecord(&stats, rec, malformed)
		records = append(records, rec)
	}

	s.logger.Debugf("Loaded %d record(s), %d with answers, %d malformed",
		stats.Records, stats.WithAnswers, stats.MalformedCount)
	return records, stats, nil
}

// Get returns the record with the given id.
func (s *FileSource) Get(ctx context.Context, id string) (*types.Record, error) {
	records, _, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s in %s", ErrNotFound, id, s.path)
}

func (s *FileSource) toRecord(item response.Value) (*types.Record, bool) {
	rec := &types.Record{
		ID:        textField(item, fieldID),
		Timestamp: textField(item, fieldTimestamp),
		User:      displayName(item, fieldUser),
		Shop:      displayName(item, fieldShop),
		Notes:     textField(item, fieldNotes),
		Status:    textField(item, fieldStatus),
	}

	raw, _ := item.Get(s.answersField)
	answers, err := decodeAnswers(raw)
	if err != nil {
		s.logger.WithRecord(rec.ID).Warnf("Ignoring malformed answers: %v", err)
		return rec, true
	}
	rec.Answers = answers
	return rec, false
}

func textField(item response.Value, key string) string {
	v, ok := item.Get(key)
	if !ok {
		return ""
	}
	switch v.Type() {
	case response.TypeString, response.TypeNumber, response.TypeBool:
		return v.Text()
	default:
		return ""
	}
}

// displayName reads a reference that is either a plain name or an embedded
// object with a "name" field.
func displayName(item response.Value, key string) string {
	v, ok := item.Get(key)
	if !ok {
		return ""
	}
	if v.Type() == response.TypeObject {
		return textField(v, "name")
	}
	return textField(item, key)
}
