package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies failures crossing an external-call boundary.
type ErrorKind string

const (
	KindTransport  ErrorKind = "transport"
	KindProtocol   ErrorKind = "protocol"
	KindValidation ErrorKind = "validation"
	KindJobFailed  ErrorKind = "job_failed"
	KindTimeout    ErrorKind = "timeout"
)

// Error is the typed failure returned by adapters and use cases.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	// Status is the upstream HTTP status for transport errors, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransportError reports a network or HTTP failure reaching a backend.
func TransportError(op string, status int, err error) *Error {
	msg := ""
	if status > 0 {
		msg = fmt.Sprintf("upstream returned status %d", status)
	}
	return &Error{Kind: KindTransport, Op: op, Message: msg, Status: status, Err: err}
}

// ProtocolError reports a malformed or unexpected response.
func ProtocolError(op, message string, err error) *Error {
	return &Error{Kind: KindProtocol, Op: op, Message: message, Err: err}
}

// ValidationError reports bad caller input.
func ValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// JobFailedError reports that an ingestion job reached the failed state.
func JobFailedError(jobID, detail string) *Error {
	if detail == "" {
		detail = "Unknown error"
	}
	return &Error{Kind: KindJobFailed, Op: "job " + jobID, Message: detail}
}

// TimeoutError reports that polling gave up before a terminal state.
func TimeoutError(jobID string, waited time.Duration) *Error {
	return &Error{Kind: KindTimeout, Op: "job " + jobID, Message: "no terminal status after " + waited.String()}
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
