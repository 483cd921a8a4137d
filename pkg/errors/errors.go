// Package errors provides typed error kinds for the application
package errors

import stderrors "errors"

// Kind classifies an error by what the user can do about it
type Kind int

const (
	// KindInternal is an unexpected failure with no specific corrective action
	KindInternal Kind = iota
	// KindInvalidInput is a malformed URL or selection token; the user resubmits
	KindInvalidInput
	// KindProviderUnavailable is a failed provider call; the user retries later
	KindProviderUnavailable
	// KindNoEligibleContent means nothing can be delivered for this URL
	KindNoEligibleContent
	// KindSessionExpired means the selection refers to a consumed or unknown session
	KindSessionExpired
	// KindDeliveryFailed means the file could not be handed to the transport
	KindDeliveryFailed
)

// String returns a stable label used in logs and metrics
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindNoEligibleContent:
		return "no_eligible_content"
	case KindSessionExpired:
		return "session_expired"
	case KindDeliveryFailed:
		return "delivery_failed"
	default:
		return "internal"
	}
}

// Kinded is implemented by errors that know their kind
type Kinded interface {
	error
	Kind() Kind
}

// baseError is the base implementation for all error types
type baseError struct {
	kind Kind
	msg  string
}

func (e *baseError) Error() string {
	return e.msg
}

// Kind implements Kinded
func (e *baseError) Kind() Kind {
	return e.kind
}

// New creates an error of the given kind
func New(kind Kind, msg string) error {
	return &baseError{kind: kind, msg: msg}
}

// NewValidationError creates a new InvalidInput error
func NewValidationError(msg string) error {
	return New(KindInvalidInput, msg)
}

// NewInternalError creates a new Internal error
func NewInternalError(msg string) error {
	return New(KindInternal, msg)
}

// KindOf returns the kind of the first Kinded error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var k Kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
