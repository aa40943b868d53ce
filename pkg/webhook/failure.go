package webhook

import (
	"errors"
	"fmt"
)

// FailureKind is the closed set of ways a webhook exchange can fail.
type FailureKind string

const (
	// FailureNetwork means the request never completed (DNS, refused, reset).
	FailureNetwork FailureKind = "network"
	// FailureHTTP means the server answered with a non-2xx status.
	FailureHTTP FailureKind = "http"
	// FailureUnreadableBody means the response body could not be read.
	FailureUnreadableBody FailureKind = "unreadable_body"
	// FailureUnrecognizedShape means the body matched no known reply shape,
	// or cleaning left raw wrapper syntax behind.
	FailureUnrecognizedShape FailureKind = "unrecognized_shape"
)

// Failure classifies a failed webhook exchange. Detail carries the raw body
// or cause description for diagnostics; it is never shown as the reply.
type Failure struct {
	Kind   FailureKind
	Status int // HTTP status, set for FailureHTTP only
	Detail string
	cause  error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureNetwork:
		return fmt.Sprintf("webhook: network failure: %v", f.cause)
	case FailureHTTP:
		return fmt.Sprintf("webhook: server returned status %d", f.Status)
	case FailureUnreadableBody:
		return fmt.Sprintf("webhook: reading response body: %v", f.cause)
	default:
		return "webhook: unrecognized response shape"
	}
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// Recoverable reports whether the failure is a shape-level problem the caller
// may paper over with a fixed fallback reply. Network and HTTP failures are
// hard: the message may never have reached the automation flow.
func (f *Failure) Recoverable() bool {
	return f.Kind == FailureUnreadableBody || f.Kind == FailureUnrecognizedShape
}

// AsFailure unwraps err into a *Failure if one is in the chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
