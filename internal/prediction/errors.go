package prediction

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("prediction request failed")

// GenericFailureMessage is what the user sees for any transport failure.
const GenericFailureMessage = "An error occurred during prediction. Please try again."

type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureTimeout   FailureKind = "timeout"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
)

type TransportError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("prediction request failed: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("prediction request failed (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func malformed(format string, args ...any) *TransportError {
	return &TransportError{Kind: FailureMalformed, Err: fmt.Errorf(format, args...)}
}
