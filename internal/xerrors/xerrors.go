// Package xerrors defines the error-kind taxonomy used across the
// detector pipeline, video engine, stream worker, and scheduler.
package xerrors

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories. Kinds determine how a caller
// should react (retry, surface, absorb) without needing to inspect message
// text.
type Kind string

const (
	KindInput             Kind = "INPUT_ERROR"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindResourceExhausted Kind = "RESOURCE_EXHAUSTED"
	KindTimeout           Kind = "TIMEOUT"
	KindDetectorFailure   Kind = "DETECTOR_FAILURE"
	KindSourceUnavailable Kind = "SOURCE_UNAVAILABLE"
	KindConnectionLost    Kind = "CONNECTION_LOST"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindConfig            Kind = "CONFIG_ERROR"
	KindInternal          Kind = "INTERNAL"
)

// Error is the wrapped error type carrying a Kind plus optional structured
// context. It participates in errors.Is/As via Unwrap.
type Error struct {
	Kind    Kind
	Op      string // operation that produced the error, e.g. "pipeline.Run"
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a new *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds a new *Error of the given kind wrapping an existing error.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an *Error,
// otherwise KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func NotFound(op, message string) *Error   { return New(KindNotFound, op, message) }
func Conflict(op, message string) *Error   { return New(KindConflict, op, message) }
func ConfigErr(op, message string) *Error  { return New(KindConfig, op, message) }
func Input(op, message string) *Error      { return New(KindInput, op, message) }
func Timeout(op, message string) *Error    { return New(KindTimeout, op, message) }
func Internal(op string, err error) *Error { return Wrap(KindInternal, op, "unclassified failure", err) }
