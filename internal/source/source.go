// Package source loads visit records from the configured backend.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/visitexport/internal/response"
	"github.com/dbsmedya/visitexport/internal/types"
)

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Source yields visit records. Implementations return records in export
// order and never fail on a single bad answer set: malformed answers load as
// empty and are counted in RecordStats.MalformedCount.
type Source interface {
	Load(ctx context.Context) ([]*types.Record, types.RecordStats, error)
	Get(ctx context.Context, id string) (*types.Record, error)
}

// decodeAnswers normalises a raw answer set. Absent answers and objects are
// accepted as they are; a string is decoded once more, since APIs commonly
// deliver the answers column as JSON text.
func decodeAnswers(raw response.Value) (response.Value, error) {
	switch raw.Type() {
	case response.TypeNull, response.TypeObject:
		return raw, nil
	case response.TypeString:
		text := strings.TrimSpace(raw.Text())
		if text == "" {
			return response.Null(), nil
		}
		decoded, err := response.Parse([]byte(text))
		if err != nil {
			return response.Null(), err
		}
		if decoded.Type() != response.TypeObject && !decoded.IsNull() {
			return response.Null(), fmt.Errorf("answers must be an object, got %s", decoded.Type())
		}
		return decoded, nil
	default:
		return response.Null(), fmt.Errorf("answers must be an object, got %s", raw.Type())
	}
}

// decodeAnswerBytes parses an answers column value. NULL and empty columns
// are absent answers.
func decodeAnswerBytes(data []byte) (response.Value, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return response.Null(), nil
	}
	raw, err := response.Parse(data)
	if err != nil {
		return response.Null(), err
	}
	return decodeAnswers(raw)
}

func countRecord(stats *types.RecordStats, rec *types.Record, malformed bool) {
	stats.Records++
	if malformed {
		stats.MalformedCount++
	}
	if rec.Answers.Type() == response.TypeObject && rec.Answers.Len() > 0 {
		stats.WithAnswers++
	}
}
