package apperr

import (
	"errors"
	"fmt"

	"github.com/salonkit/reserve-core/internal/models"
)

// Kind classifies an error for transport mapping and caller retry policy.
type Kind string

const (
	KindValidation Kind = "validation" // malformed input, never retried
	KindConflict   Kind = "conflict"   // slot race lost / overlap; refetch availability
	KindPolicy     Kind = "policy"     // closed day, past cutoff, exceeds closing
	KindCoupon     Kind = "coupon"     // a coupon predicate failed
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream" // store/collaborator unavailable, retryable
)

// Error carries a stable machine-readable kind+code and a human message.
// Internal causes stay wrapped and are never serialized to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Conflict is set on conflict errors so the caller can re-render the
	// colliding interval.
	Conflict *models.Interval

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Kind, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Conflict(code, message string, conflicting *models.Interval) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Conflict: conflicting}
}

func Policy(code, message string) *Error {
	return New(KindPolicy, code, message)
}

func Coupon(code, message string) *Error {
	return New(KindCoupon, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: "upstream_unavailable", Message: message, cause: cause}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// KindOf returns the kind of err, or KindUpstream for unclassified errors so
// unknown failures surface as retryable internals, never as caller mistakes.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUpstream
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
