package intake

import (
	"errors"
	"fmt"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrMultipleFiles   = errors.New("only one file can be uploaded at a time")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ValidationError is a locally detected rejection of an upload. Message is
// safe to show to the user as is.
type ValidationError struct {
	Reason  error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

func reject(reason error, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
