package vector

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no record exists for the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrConnection is returned when the backing engine is unreachable or a
	// connector handshake fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensionMismatch is returned when a stored or query vector's length
	// does not equal the configured dimension. Vectors are never truncated
	// or padded.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DimensionError reports the expected and actual vector lengths. It unwraps
// to ErrDimensionMismatch.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// BatchError reports per-id failures from a bulk store on a backend that
// writes item by item. Items not present in Failed were committed.
type BatchError struct {
	// Failed maps each failed record id to the error that stopped it.
	Failed map[string]error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("bulk store failed for %d record(s): %s", len(ids), strings.Join(ids, ", "))
}
