package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrTextRequired    = errors.New("text required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrTaskCompleted   = errors.New("task already completed")
)

// CorruptDataError reports a persisted value that could not be decoded.
// The store starts empty when it sees one.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt data under %q: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// EditResult tells the caller whether an edit was applied.
type EditResult int

const (
	EditSaved EditResult = iota
	EditRejectedEmpty
	EditRejectedCompleted
	EditNotFound
)

func (r EditResult) String() string {
	switch r {
	case EditSaved:
		return "saved"
	case EditRejectedEmpty:
		return "rejected_empty"
	case EditRejectedCompleted:
		return "rejected_completed"
	case EditNotFound:
		return "not_found"
	}
	return fmt.Sprintf("EditResult(%d)", int(r))
}
