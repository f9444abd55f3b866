package library

import (
	"errors"
	"fmt"

	"github.com/vrsandeep/shelf-go/internal/store"
)

var (
	// ErrNoFamily is returned when an operation runs without a family.
	ErrNoFamily = errors.New("no family selected")
	// ErrNoMember is returned when an operation needs an active member.
	ErrNoMember = errors.New("no member selected")
	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound is returned when the targeted record does not exist.
	ErrNotFound = store.ErrNotFound
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// BulkError reports a bulk operation that stopped partway. Result holds
// the counts for the books processed before the failure; those writes are
// kept.
type BulkError struct {
	Result BulkResult
	Err    error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("stopped after %d added, %d skipped: %v", e.Result.Added, e.Result.Skipped, e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}
