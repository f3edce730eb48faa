package registrations

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no registration exists for the given id.
	ErrNotFound = errors.New("registration not found")
	// ErrDuplicateTransaction means the transaction id is already bound to
	// another registration. The store's unique index is the final arbiter.
	ErrDuplicateTransaction = errors.New("transaction id already used")
	// ErrAlreadyFinalized means the registration has left the processing
	// state, so confirm/reject can no longer be applied.
	ErrAlreadyFinalized = errors.New("registration already finalized")
)

// ValidationError reports client-fixable input problems. The message always
// names the offending field so the UI can render field-level feedback.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
