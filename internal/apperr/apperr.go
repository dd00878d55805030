// Package apperr provides tagged errors shared across the ingestion pipeline.
package apperr

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation policy. Values are stable.
type Kind uint8

const (
	// KindUnknown is for unclassified errors.
	KindUnknown Kind = iota

	// KindValidation is for rejected input; no shared state was touched.
	KindValidation

	// KindCapacity is for session entry-limit rejections; no side effects.
	KindCapacity

	// KindConsistency is for invariant violations. Fatal, never auto-repaired.
	KindConsistency

	// KindTransientBackend is for store failures where retry may succeed.
	KindTransientBackend

	// KindDegradedCapability is for unavailable classify/embed capability.
	// Absorbed and annotated, never escalated to the caller as a failure.
	KindDegradedCapability

	// KindNotFound is for missing resources.
	KindNotFound
)

// Code returns the wire code for a kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindCapacity:
		return "CAPACITY_ERROR"
	case KindConsistency:
		return "CONSISTENCY_ERROR"
	case KindTransientBackend:
		return "BACKEND_UNAVAILABLE"
	case KindDegradedCapability:
		return "DEGRADED_CAPABILITY"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps a kind to an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindCapacity:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindTransientBackend:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	kind Kind
	msg  string
	orig error
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, orig error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), orig: orig}
}

func (e *Error) Error() string {
	if e.orig != nil {
		return e.msg + ": " + e.orig.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

func (e *Error) Kind() Kind { return e.kind }

// KindOf extracts the kind of err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var ae *Error
	if stderrs.As(err, &ae) {
		return ae.kind
	}
	return KindUnknown
}

// IsRetryable reports whether the whole operation may be retried safely.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransientBackend
}
