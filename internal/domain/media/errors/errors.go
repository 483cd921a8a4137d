// Package errors contains domain-specific errors for the media domain
package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/Marinerbyte/Ytmagic/pkg/errors"
)

// Sentinel errors. MediaProvider implementations wrap ErrProviderUnavailable or ErrRestricted.
var (
	ErrProviderUnavailable = stderrors.New("media provider unavailable")
	ErrRestricted          = stderrors.New("video is private or restricted")
	ErrFormatGone          = stderrors.New("format no longer available")
	ErrFileTooLarge        = stderrors.New("downloaded file exceeds size ceiling")
	ErrHistoryDisabled     = stderrors.New("delivery history is disabled")
)

// ResolutionReason tells why a URL could not be resolved
type ResolutionReason string

const (
	ReasonInvalidURL          ResolutionReason = "invalid-url"
	ReasonProviderUnreachable ResolutionReason = "provider-unreachable"
	ReasonRestricted          ResolutionReason = "private-or-restricted"
	ReasonNoEligibleEncoding  ResolutionReason = "no-eligible-encoding"
)

// ResolutionError is returned by the stream resolver
type ResolutionError struct {
	Reason ResolutionReason
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve: %s", e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Kind implements pkgerrors.Kinded
func (e *ResolutionError) Kind() pkgerrors.Kind {
	switch e.Reason {
	case ReasonInvalidURL:
		return pkgerrors.KindInvalidInput
	case ReasonProviderUnreachable:
		return pkgerrors.KindProviderUnavailable
	case ReasonRestricted, ReasonNoEligibleEncoding:
		return pkgerrors.KindNoEligibleContent
	default:
		return pkgerrors.KindInternal
	}
}

// TokenReason tells why a selection token was rejected
type TokenReason string

const (
	ReasonMalformed     TokenReason = "malformed"
	ReasonUnknownAction TokenReason = "unknown-action"
)

// TokenError is returned when a selection token cannot be used
type TokenError struct {
	Reason TokenReason
	Token  string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("selection token %q: %s", e.Token, e.Reason)
}

// Kind implements pkgerrors.Kinded
func (e *TokenError) Kind() pkgerrors.Kind { return pkgerrors.KindInvalidInput }

// SessionReason tells why a session lookup failed
type SessionReason string

const ReasonExpired SessionReason = "expired"

// SessionError is returned by session stores
type SessionError struct {
	Reason SessionReason
	Key    string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s", e.Key, e.Reason)
}

// Kind implements pkgerrors.Kinded
func (e *SessionError) Kind() pkgerrors.Kind { return pkgerrors.KindSessionExpired }

// NewSessionExpired builds the error returned for missing or consumed sessions
func NewSessionExpired(key string) *SessionError {
	return &SessionError{Reason: ReasonExpired, Key: key}
}

// DeliveryReason tells where a delivery attempt stopped
type DeliveryReason string

const (
	ReasonFormatGone     DeliveryReason = "format-no-longer-available"
	ReasonDownloadFailed DeliveryReason = "download-failed"
	ReasonUploadFailed   DeliveryReason = "upload-failed"
)

// DeliveryError is returned by the download/deliver executor
type DeliveryError struct {
	Reason DeliveryReason
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliver: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("deliver: %s", e.Reason)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Kind implements pkgerrors.Kinded
func (e *DeliveryError) Kind() pkgerrors.Kind {
	switch e.Reason {
	case ReasonFormatGone:
		return pkgerrors.KindNoEligibleContent
	case ReasonDownloadFailed:
		return pkgerrors.KindProviderUnavailable
	case ReasonUploadFailed:
		return pkgerrors.KindDeliveryFailed
	default:
		return pkgerrors.KindInternal
	}
}

// Retriable reports whether the same selection may be tried again
func (e *DeliveryError) Retriable() bool {
	return e.Reason == ReasonDownloadFailed || e.Reason == ReasonUploadFailed
}
