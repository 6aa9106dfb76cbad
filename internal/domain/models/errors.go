package models

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies provider failures so the fetcher can decide
// whether to retry.
type FetchErrorKind string

const (
	// ErrRateLimited means the provider rejected the request despite local
	// limiting. Transient; retried with extra backoff.
	ErrRateLimited FetchErrorKind = "rate_limited"
	// ErrTransient covers network and timeout failures. Retried.
	ErrTransient FetchErrorKind = "transient"
	// ErrNotFound means the provider does not know the instrument. Never
	// retried; the instrument is flagged.
	ErrNotFound FetchErrorKind = "not_found"
	// ErrProvider covers malformed or otherwise unexpected responses.
	// Retried a bounded number of times, then surfaced.
	ErrProvider FetchErrorKind = "provider_error"
	// ErrPublish means hand-off to the broadcast substrate failed. Surfaced
	// per record; never rolls back a watermark advance.
	ErrPublish FetchErrorKind = "publish_failure"
)

// FetchError carries the taxonomy kind along with the underlying cause.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the fetcher may retry this failure.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case ErrRateLimited, ErrTransient, ErrProvider:
		return true
	}
	return false
}

// RateLimitedError wraps err as a provider-side rate limit rejection.
func RateLimitedError(err error) *FetchError {
	return &FetchError{Kind: ErrRateLimited, Err: err}
}

// TransientError wraps err as a network/timeout failure.
func TransientError(err error) *FetchError {
	return &FetchError{Kind: ErrTransient, Err: err}
}

// NotFoundError wraps err as an unknown-instrument failure.
func NotFoundError(err error) *FetchError {
	return &FetchError{Kind: ErrNotFound, Err: err}
}

// ProviderError wraps err as an unexpected provider response.
func ProviderError(err error) *FetchError {
	return &FetchError{Kind: ErrProvider, Err: err}
}

// PublishError wraps err as a broadcast hand-off failure.
func PublishError(err error) *FetchError {
	return &FetchError{Kind: ErrPublish, Err: err}
}

// KindOf extracts the taxonomy kind from err. Unclassified errors are
// treated as transient so a plain wrapped network error still retries.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrTransient
}
