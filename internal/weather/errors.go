package weather

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrUpstreamUnavailable is returned by providers that refuse to call the
// upstream, e.g. while a circuit breaker is open.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamStatusError is returned by providers when the upstream answered
// with a non-2xx status.
type UpstreamStatusError struct {
	Status  int
	Message string
	// Body is the decoded upstream error payload, if it was JSON.
	Body any
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// ErrorKind tags a LookupError.
type ErrorKind int

const (
	// KindRejected means the upstream answered with a non-2xx status.
	KindRejected ErrorKind = iota + 1
	// KindUnreachable means no response was received.
	KindUnreachable
	// KindTimeout means the upstream call exceeded its deadline.
	KindTimeout
	// KindFault covers everything else: malformed payloads, misconfiguration, bugs.
	KindFault
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// LookupError is the single error type returned by Service.Fetch.
type LookupError struct {
	Kind ErrorKind
	// Status is the upstream HTTP status; only set for KindRejected.
	Status  int
	Message string
	Details any
	Err     error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status the HTTP boundary should answer with.
func (e *LookupError) HTTPStatus() int {
	if e.Kind == KindRejected && e.Status >= 400 && e.Status <= 599 {
		return e.Status
	}
	return http.StatusInternalServerError
}

const (
	msgUnreachable = "weather provider is unreachable"
	msgTimeout     = "weather provider did not respond in time"
	msgFault       = "failed to fetch weather data"
)

// classify converts any provider error into a LookupError.
func classify(err error) *LookupError {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr
	}

	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) && statusErr.Status >= 400 && statusErr.Status <= 599 {
		msg := statusErr.Message
		if msg == "" {
			msg = http.StatusText(statusErr.Status)
		}
		return &LookupError{
			Kind:    KindRejected,
			Status:  statusErr.Status,
			Message: msg,
			Details: statusErr.Body,
			Err:     err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &LookupError{Kind: KindTimeout, Message: msgTimeout, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.Is(err, ErrUpstreamUnavailable) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &LookupError{Kind: KindUnreachable, Message: msgUnreachable, Err: err}
	}

	return &LookupError{Kind: KindFault, Message: msgFault, Err: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
