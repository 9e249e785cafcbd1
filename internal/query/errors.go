package query

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindNetwork covers transport failures where no response arrived,
	// including timeouts.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers responses with a non-success status.
	KindHTTP ErrorKind = "http-error"
	// KindUnknown covers everything else (decode failures, panics in a fetch).
	KindUnknown ErrorKind = "unknown"
)

// Error is the failure recorded on an entry and shown to subscribers.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status code for KindHTTP
	Body   []byte // response body for KindHTTP, when the transport kept it
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("http-status:%d", e.Status)
	case KindNetwork:
		if e.Err == nil {
			return string(KindNetwork)
		}
		return fmt.Sprintf("%s: %v", KindNetwork, e.Err)
	default:
		if e.Err == nil {
			return string(KindUnknown)
		}
		return fmt.Sprintf("%s: %v", KindUnknown, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// httpStatusError is implemented by transports that surface the status code
// of a non-2xx response.
type httpStatusError interface {
	HTTPStatus() int
}

type httpBodyError interface {
	HTTPBody() []byte
}

// Classify maps a fetch error onto the query error taxonomy. It returns nil
// for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}

	var se httpStatusError
	if errors.As(err, &se) {
		out := &Error{Kind: KindHTTP, Status: se.HTTPStatus(), Err: err}
		var be httpBodyError
		if errors.As(err, &be) {
			out.Body = be.HTTPBody()
		}
		return out
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &Error{Kind: KindNetwork, Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &Error{Kind: KindNetwork, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}
