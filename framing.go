package h1

import "bytes"

// FramingKind names the body-delimiting strategy chosen for a message,
// per RFC 7230 §3.3.3's precedence table.
type FramingKind int

const (
	// FramingContentLength delimits the body by a known byte count
	// (which may be zero).
	FramingContentLength FramingKind = iota
	// FramingChunked delimits the body by chunk-size-prefixed
	// segments terminated by a zero-size chunk.
	FramingChunked
	// FramingCloseDelimited (the http/1.0 framing) has no explicit
	// length; the body runs until the connection closes.
	FramingCloseDelimited
)

// Framing is the resolved body-framing decision for one message.
type Framing struct {
	Kind   FramingKind
	Length int // valid when Kind == FramingContentLength
}

// FramingFor computes the body framing for an outgoing or incoming
// message. It is the single source of truth the readers and the
// writers both consult, rather than each inlining the precedence table
// separately.
//
// requestMethod and statusCode are only consulted when isResponse is
// true (i.e. framing a Response); pass a nil method and zero status
// when framing a Request.
func FramingFor(headers Headers, isResponse bool, requestMethod []byte, statusCode int) (Framing, error) {
	if isResponse {
		if bytes.EqualFold(requestMethod, strHEAD) ||
			statusCode == 204 || statusCode == 304 ||
			(bytes.EqualFold(requestMethod, strCONNECT) && statusCode >= 200 && statusCode < 300) {
			return Framing{Kind: FramingContentLength, Length: 0}, nil
		}
	}

	if te, ok := headers.Get("transfer-encoding"); ok {
		if !equalFold(bytes.TrimSpace(te), strChunked) {
			return Framing{}, newRemoteProtocolError(HintNotImplemented, "unsupported Transfer-Encoding %q", te)
		}
		return Framing{Kind: FramingChunked}, nil
	}

	if cls := headers.GetAll("content-length"); len(cls) > 0 {
		if len(cls) > 1 {
			return Framing{}, newRemoteProtocolError(HintBadRequest, "multiple Content-Length headers")
		}
		n, err := parseUint(bytes.TrimSpace(cls[0]))
		if err != nil {
			return Framing{}, newRemoteProtocolError(HintBadRequest, "invalid Content-Length: %s", err)
		}
		return Framing{Kind: FramingContentLength, Length: n}, nil
	}

	if isResponse {
		return Framing{Kind: FramingCloseDelimited}, nil
	}
	return Framing{Kind: FramingContentLength, Length: 0}, nil
}
