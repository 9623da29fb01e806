package h1

import "bytes"

// ProtocolVersion is an HTTP version as carried on the wire. Only 1.0
// and 1.1 are meaningful to this engine: versions >= 1.1 are treated as
// 1.1, and anything lower is treated as 1.0, for keep-alive purposes.
type ProtocolVersion struct {
	Major, Minor int
}

func (v ProtocolVersion) String() string {
	return "HTTP/" + string(rune('0'+v.Major)) + "." + string(rune('0'+v.Minor))
}

// AtLeast11 reports whether v should be treated as HTTP/1.1 or newer.
func (v ProtocolVersion) AtLeast11() bool {
	return v.Major > 1 || (v.Major == 1 && v.Minor >= 1)
}

var (
	HTTP10 = ProtocolVersion{1, 0}
	HTTP11 = ProtocolVersion{1, 1}
)

// Event is the sum type of everything that can flow through the state
// machine: Request, InformationalResponse, Response, Data,
// EndOfMessage, ConnectionClosed. NeedData and Paused also implement
// Event so they can be returned from Connection.NextEvent, but they
// are sentinels and never reach the state machine.
type Event interface {
	isEvent()
}

// Request is the start of a client->server request.
type Request struct {
	Method      []byte
	Target      []byte
	Headers     Headers
	HTTPVersion ProtocolVersion
}

func (*Request) isEvent() {}

// InformationalResponse is a 1xx interim response.
type InformationalResponse struct {
	StatusCode  int
	Reason      []byte
	Headers     Headers
	HTTPVersion ProtocolVersion
}

func (*InformationalResponse) isEvent() {}

// Response is a final (non-1xx) response.
type Response struct {
	StatusCode  int
	Reason      []byte
	Headers     Headers
	HTTPVersion ProtocolVersion
}

func (*Response) isEvent() {}

// Data is a slice of body bytes. ChunkStart/ChunkEnd are informational
// markers set by the chunked reader on emission; they carry no meaning
// when constructed by a caller for Send.
type Data struct {
	Data       []byte
	ChunkStart bool
	ChunkEnd   bool
}

func (*Data) isEvent() {}

// EndOfMessage terminates the current message. Headers carries
// trailers, which are only legal (non-empty) when the message was
// chunked-framed.
type EndOfMessage struct {
	Headers Headers
}

func (*EndOfMessage) isEvent() {}

// ConnectionClosed signals that the connection has been closed in this
// direction. It has no wire form.
type ConnectionClosed struct{}

func (*ConnectionClosed) isEvent() {}

type sentinelEvent struct{ name string }

func (*sentinelEvent) isEvent() {}

// NeedData and Paused are sentinel results from Connection.NextEvent.
// They are never valid arguments to Connection.Send and never flow
// through the state machine.
var (
	NeedData Event = &sentinelEvent{"NEED_DATA"}
	Paused   Event = &sentinelEvent{"PAUSED"}
)

func isSentinel(ev Event) bool {
	_, ok := ev.(*sentinelEvent)
	return ok
}

// isValidTarget rejects whitespace and control bytes in a
// request-target. Validating the request-target byte grammar is the
// only URL handling this engine does — no parsing of
// scheme/authority/path.
func isValidTarget(target []byte) bool {
	if len(target) == 0 {
		return false
	}
	for _, c := range target {
		if c <= ' ' || c == 0x7f {
			return false
		}
	}
	return true
}

// NewRequest constructs and validates a Request event: method must be
// a token, target must have no embedded whitespace, and — for
// HTTP/1.1 — exactly one Host header must be present (RFC 7230 §5.4).
// Validation happens here at construction rather than at Send, so a
// malformed Request can never be built in the first place.
func NewRequest(method, target string, headers Headers, version ProtocolVersion) (*Request, error) {
	m := []byte(method)
	if !isValidToken(m) {
		return nil, newLocalProtocolError(HintBadRequest, "invalid request method %q", method)
	}
	t := []byte(target)
	if !isValidTarget(t) {
		return nil, newLocalProtocolError(HintBadRequest, "invalid request target %q", target)
	}
	if version.AtLeast11() {
		if n := headers.Count("host"); n != 1 {
			return nil, newLocalProtocolError(HintBadRequest, "HTTP/1.1 requests must have exactly one Host header, got %d", n)
		}
	}
	return &Request{Method: m, Target: t, Headers: headers, HTTPVersion: version}, nil
}

// NewInformationalResponse constructs a 1xx response event.
func NewInformationalResponse(statusCode int, reason string, headers Headers, version ProtocolVersion) (*InformationalResponse, error) {
	if statusCode < 100 || statusCode >= 200 {
		return nil, newLocalProtocolError(HintBadRequest, "informational response status code %d out of range [100,200)", statusCode)
	}
	return &InformationalResponse{StatusCode: statusCode, Reason: []byte(reason), Headers: headers, HTTPVersion: version}, nil
}

// NewResponse constructs a final response event.
func NewResponse(statusCode int, reason string, headers Headers, version ProtocolVersion) (*Response, error) {
	if statusCode < 200 || statusCode >= 600 {
		return nil, newLocalProtocolError(HintBadRequest, "response status code %d out of range [200,600)", statusCode)
	}
	return &Response{StatusCode: statusCode, Reason: []byte(reason), Headers: headers, HTTPVersion: version}, nil
}

// isConnectRequest and isUpgradeRequest report whether req proposes a
// protocol switch via CONNECT or a non-empty Upgrade header.
func isConnectRequest(req *Request) bool {
	return bytes.Equal(req.Method, strCONNECT)
}

func isUpgradeRequest(req *Request) bool {
	v, ok := req.Headers.Get("upgrade")
	return ok && len(bytes.TrimSpace(v)) > 0
}
