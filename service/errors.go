package service

import (
	"errors"
	"fmt"
)

// ErrNonRetryable marks failures that must not be redelivered by the
// queue. Joined onto the underlying cause with errors.Join.
var ErrNonRetryable = errors.New("non-retryable error")

// ProbeError means the source could not be read or its probe output
// could not be parsed.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// TranscodeError means a codec invocation exited non-zero or exceeded
// its wall-clock timeout.
type TranscodeError struct {
	Op  string
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// StorageError wraps an object storage upload or download failure.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed split or formatting parameters.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
