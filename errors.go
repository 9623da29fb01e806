package h1

import "fmt"

// ErrorHint is the HTTP status code a server collaborator should
// consider replying with when a protocol error surfaces. It is only a
// suggestion: the engine performs no I/O and never sends anything on
// its own.
type ErrorHint int

const (
	// HintBadRequest is the default hint for malformed input.
	HintBadRequest ErrorHint = 400
	// HintRequestURITooLong is used when the receive buffer exceeds its
	// limit while the peer is still IDLE (for a server: before a full
	// request-line + header block arrives).
	HintRequestURITooLong ErrorHint = 414
	// HintHeaderFieldsTooLarge is used when the receive buffer exceeds
	// its limit in any other state, e.g. an incomplete response head or
	// chunk-size line.
	HintHeaderFieldsTooLarge ErrorHint = 431
	HintNotImplemented       ErrorHint = 501
)

// LocalProtocolError is raised when the caller asks the engine to do
// something the protocol disallows: construct an invalid event,
// Send an event illegal in the current state, or violate a framing
// constraint on the outgoing side (e.g. under-running a declared
// Content-Length). Raised synchronously from the offending call; our
// side of the connection moves to StateError.
type LocalProtocolError struct {
	Msg  string
	Hint ErrorHint
}

func (e *LocalProtocolError) Error() string {
	return fmt.Sprintf("local protocol error: %s", e.Msg)
}

func newLocalProtocolError(hint ErrorHint, format string, args ...interface{}) *LocalProtocolError {
	return &LocalProtocolError{Msg: fmt.Sprintf(format, args...), Hint: hint}
}

// RemoteProtocolError is raised when bytes received from the peer
// violate HTTP/1.1: a malformed start line, a disallowed header, a
// broken chunk, EOF mid-body, or a receive buffer overflow. Raised
// from ReceiveData/NextEvent; the peer's side of the connection moves
// to StateError.
type RemoteProtocolError struct {
	Msg  string
	Hint ErrorHint
}

func (e *RemoteProtocolError) Error() string {
	return fmt.Sprintf("remote protocol error: %s", e.Msg)
}

func newRemoteProtocolError(hint ErrorHint, format string, args ...interface{}) *RemoteProtocolError {
	return &RemoteProtocolError{Msg: fmt.Sprintf(format, args...), Hint: hint}
}
