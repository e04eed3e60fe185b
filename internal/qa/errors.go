package qa

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind categorizes a failed ask so the bot can log and count it.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"          // request exceeded the configured timeout
	KindNetwork    ErrorKind = "network_error"    // connection, TLS or read failure
	KindStructured ErrorKind = "structured_error" // API answered 4xx/5xx or with an error object

	// KindExtractionAbsent marks a successful response with no usable answer.
	// It never travels as an error; the bot uses it to label the outcome.
	KindExtractionAbsent ErrorKind = "extraction_absent"
)

// Error is returned by Client.Ask for every failed request.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status for structured errors
	Message string // API supplied message, for logs only
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStructured:
		return fmt.Sprintf("qa: %s: status %d: %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("qa: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("qa: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ClassifyError wraps a transport failure, telling timeouts apart from other
// network errors. An *Error is returned unchanged.
func ClassifyError(err error) *Error {
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}

	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout(),
		strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return &Error{Kind: KindTimeout, Err: err}
	default:
		return &Error{Kind: KindNetwork, Err: err}
	}
}

// KindOf returns the kind of a qa error, or KindNetwork for any other error.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindNetwork
}
