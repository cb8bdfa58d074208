package export

import (
	"github.com/cockroachdb/errors"
)

// ErrSerialization marks failures to produce or deliver CSV text. Earlier
// exports are never affected by such a failure.
var ErrSerialization = errors.New("serialization failure")

func serializationFailure(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrSerialization)
}

func contractViolation(row, got, want int) error {
	return errors.AssertionFailedf("csv row %d has %d fields but the header has %d", row, got, want)
}

// IsSerializationFailure reports whether err is a recoverable export failure.
func IsSerializationFailure(err error) bool {
	return errors.Is(err, ErrSerialization)
}

// IsContractViolation reports whether err is an internal row/header mismatch.
func IsContractViolation(err error) bool {
	return errors.IsAssertionFailure(err)
}
