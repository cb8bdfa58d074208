// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "github.com/dbsmedya/visitexport/internal/response"

// Record is one visit: a fixed metadata envelope plus the schema-less answer set.
// Metadata fields are empty when the source did not provide them.
type Record struct {
	ID        string         // Visit identifier
	Timestamp string         // Raw visit timestamp as delivered by the source
	User      string         // Display name of the visiting user
	Shop      string         // Display name of the visited shop
	Notes     string         // Free-text notes
	Status    string         // Visit status
	Answers   response.Value // Questionnaire answers keyed by question identifier
}

// AnswerKeys returns the answer set's question identifiers in their own order.
// Absent or non-object answer sets have no keys.
func (r *Record) AnswerKeys() []string {
	if r == nil {
		return nil
	}
	return r.Answers.Keys()
}

// Answer looks up one answer by exact key.
func (r *Record) Answer(key string) (response.Value, bool) {
	if r == nil {
		return response.Value{}, false
	}
	return r.Answers.Get(key)
}

// RecordStats summarises a loaded record set.
type RecordStats struct {
	Records        int // Number of records loaded
	WithAnswers    int // Records whose answer set is a non-empty object
	MalformedCount int // Records whose answer set could not be decoded
}
