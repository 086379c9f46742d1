package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a fatal condition that stops a run before a report can
// be produced. Problems inside the record set never become RuntimeErrors;
// they are recorded in the report.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// File names the input that failed, when there is one.
	File string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeCompile indicates a record file failed schema compilation.
	ErrCodeCompile RuntimeErrorCode = "COMPILE_FAILED"

	// ErrCodeNoInput indicates a run was started without record files.
	ErrCodeNoInput RuntimeErrorCode = "NO_INPUT"

	// ErrCodeCancelled indicates the context ended mid-run.
	ErrCodeCancelled RuntimeErrorCode = "CANCELLED"

	// ErrCodeDigest indicates the record set could not be hashed.
	ErrCodeDigest RuntimeErrorCode = "DIGEST_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.File != "" {
		msg += fmt.Sprintf(" (file=%s)", e.File)
	}
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsCompileError returns true if the error is a compile error.
// Uses errors.As to handle wrapped errors.
func IsCompileError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCompile
	}
	return false
}

// IsCancelled returns true if the run was cut short by its context.
func IsCancelled(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCancelled
	}
	return false
}

func newCompileError(runID, file string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCompile,
		Message: "record file does not match the schema",
		RunID:   runID,
		File:    file,
		Err:     err,
	}
}

func newCancelledError(runID, phase string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCancelled,
		Message: fmt.Sprintf("run cancelled during %s", phase),
		RunID:   runID,
		Err:     err,
	}
}
