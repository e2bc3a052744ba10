// Package apierr defines the closed set of errors produced by the API client.
//
// Every failure that leaves the client is an *Error tagged with one Kind.
// Callers switch on Kind instead of inspecting messages.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates API failures.
type Kind int

const (
	// KindNetwork means no response was obtained (DNS, refused, timeout, abort).
	KindNetwork Kind = iota + 1
	// KindHTTP means a 4xx response. The request itself must change.
	KindHTTP
	// KindServer means a 5xx response. May heal on its own.
	KindServer
	// KindAPI means the transport succeeded but the envelope reported failure.
	KindAPI
	// KindUnknown is everything else.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindServer:
		return "server"
	case KindAPI:
		return "api"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Machine codes attached to errors created by this module.
const (
	CodeTimeout  = "TIMEOUT"
	CodeCanceled = "CANCELED"
	CodeDecode   = "DECODE"
)

// Error is the single error type returned by the API client.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 when no response was obtained
	Code    string // optional machine-readable code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Canceled reports whether the error is a caller-initiated cancellation.
func (e *Error) Canceled() bool {
	return e.Kind == KindNetwork && errors.Is(e.Cause, context.Canceled)
}

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	if e.Canceled() {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindServer:
		return true
	case KindHTTP, KindAPI:
		return false
	case KindUnknown:
		return e.Status == 0 || e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// Network builds a KindNetwork error.
func Network(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Cause: cause}
}

// Timeout builds the KindNetwork error for a request that hit its deadline.
func Timeout(cause error) *Error {
	return &Error{Kind: KindNetwork, Code: CodeTimeout, Message: "request timed out", Cause: cause}
}

// Canceled builds the KindNetwork error for a caller-initiated abort.
func Canceled(cause error) *Error {
	if cause == nil {
		cause = context.Canceled
	}
	if !errors.Is(cause, context.Canceled) {
		cause = fmt.Errorf("%w: %w", context.Canceled, cause)
	}
	return &Error{Kind: KindNetwork, Code: CodeCanceled, Message: "request canceled", Cause: cause}
}

// HTTP builds a KindHTTP error for a 4xx status.
func HTTP(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: KindHTTP, Status: status, Message: message}
}

// Server builds a KindServer error for a 5xx status.
func Server(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: KindServer, Status: status, Message: message}
}

// DefaultAPIMessage is used when the envelope reports failure without a message.
const DefaultAPIMessage = "Request failed"

// API builds a KindAPI error from a failed envelope.
func API(status int, message string) *Error {
	if message == "" {
		message = DefaultAPIMessage
	}
	return &Error{Kind: KindAPI, Status: status, Message: message}
}

// Unknown wraps an unexpected failure.
func Unknown(status int, cause error) *Error {
	msg := "unexpected error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindUnknown, Status: status, Message: msg, Cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or 0 when err is nil or untyped.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return 0
}

// IsCanceled reports whether err represents a caller cancellation.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := As(err); ok {
		return e.Canceled()
	}
	return errors.Is(err, context.Canceled)
}

// Normalize maps any error onto the closed set. Typed errors pass through,
// bare cancellations become Canceled, everything else becomes Unknown with
// status 500.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return Canceled(err)
	}
	return Unknown(http.StatusInternalServerError, err)
}

// FromTransport maps a bare transport failure to a Network error.
func FromTransport(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return Canceled(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Network("network request failed", err)
}
