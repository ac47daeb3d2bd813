package rating

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord marks a fight that is missing a required field. The batch
// skips it and carries on.
var ErrInvalidRecord = errors.New("invalid fight record")

// InvalidRecordError describes one skipped record. It matches
// ErrInvalidRecord with errors.Is.
type InvalidRecordError struct {
	// Index is the record's position in the caller's input slice.
	Index int
	Field string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("%s at index %d: missing %s", ErrInvalidRecord, e.Index, e.Field)
}

// Unwrap lets errors.Is match ErrInvalidRecord.
func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }
