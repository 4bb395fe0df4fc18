package jobstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by a Backend for a missing blob and by Get for a missing job
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict means the expected version no longer matches the stored blob
	ErrVersionConflict = errors.New("version conflict")

	// ErrConcurrentModification is returned by Append once every attempt lost the version race
	ErrConcurrentModification = errors.New("concurrent modification: retry budget exhausted")

	// ErrBackendUnavailable covers timeouts, network failures and 5xx answers
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrDecode means the blob is not a JSON array of jobs
	ErrDecode = errors.New("decode collection")

	ErrInvalidDraft = errors.New("invalid job draft")
)

// DecodeError carries the path and parser error of an undecodable blob
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ValidationError lists the missing required fields of a Draft
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDraft
}

// Unavailable wraps err so that it matches ErrBackendUnavailable. Backends
// use it to keep the native cause visible in logs.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}
