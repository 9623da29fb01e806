package h1

// Writers are the symmetric counterpart to the Readers: they encode
// events into bytes. Unlike the readers, only the Response writer
// performs any rewriting of the caller's data — the mandatory header
// repair that reconciles a handler's declared framing with what the
// peer's HTTP version can actually receive.

func appendHeaders(b []byte, hs Headers) []byte {
	for _, h := range hs {
		b = append(b, h.Name...)
		b = append(b, strColonSpace...)
		b = append(b, h.Value...)
		b = append(b, strCRLF...)
	}
	return b
}

// writeRequest formats "METHOD SP TARGET SP HTTP/1.1 CRLF" followed by
// headers and the terminating blank line. The wire always carries the
// literal "HTTP/1.1" token: this engine never originates a 1.0
// request.
func writeRequest(req *Request) []byte {
	b := make([]byte, 0, 64+len(req.Target))
	b = append(b, req.Method...)
	b = append(b, ' ')
	b = append(b, req.Target...)
	b = append(b, ' ')
	b = append(b, strHTTP11...)
	b = append(b, strCRLF...)
	b = appendHeaders(b, req.Headers)
	b = append(b, strCRLF...)
	return b
}

func writeStatusLine(b []byte, statusCode int, reason []byte) []byte {
	b = append(b, strHTTP11...)
	b = append(b, ' ')
	b = appendUint(b, statusCode)
	b = append(b, ' ')
	b = append(b, reason...) // reason may be empty; the space above is mandatory regardless.
	b = append(b, strCRLF...)
	return b
}

// writeInformationalResponse formats a 1xx response. No header repair
// applies here: a 1xx carries no body, so there is no framing decision
// to reconcile, and the final Response that follows gets its own
// repair pass regardless.
func writeInformationalResponse(ir *InformationalResponse) []byte {
	b := make([]byte, 0, 64)
	b = writeStatusLine(b, ir.StatusCode, ir.Reason)
	b = appendHeaders(b, ir.Headers)
	b = append(b, strCRLF...)
	return b
}

// writeResponseHead formats the status line and the already-repaired
// headers of a final Response.
func writeResponseHead(statusCode int, reason []byte, headers Headers) []byte {
	b := make([]byte, 0, 64)
	b = writeStatusLine(b, statusCode, reason)
	b = appendHeaders(b, headers)
	b = append(b, strCRLF...)
	return b
}

// repairResponseHeaders reconciles a Response's declared framing with
// what peerVersion can receive (RFC 7230 §3.3.1: chunked is only legal
// toward an HTTP/1.1-or-later peer) and with whether the connection is
// closing anyway. It clones the caller's header list rather than
// mutating it in place — returning the normalized headers instead of
// aliasing the caller's slice avoids surprising a caller who reuses the
// same Headers value across requests — and returns the framing
// that will actually be written to the wire — which may differ from
// the framing FramingFor computed from the caller's headers alone,
// since an unknown-length response talking to an HTTP/1.1 peer is
// repaired into a chunked response.
func repairResponseHeaders(headers Headers, framing Framing, peerVersion ProtocolVersion, keepAlive bool) (Headers, Framing, bool) {
	out := headers.Clone()
	needClose := false

	if framing.Kind == FramingChunked || framing.Kind == FramingCloseDelimited {
		out = out.withoutName(strContentLength)
		if peerVersion.AtLeast11() {
			out = out.set(strTransferEncoding, append([]byte(nil), strChunked...))
			framing = Framing{Kind: FramingChunked}
		} else {
			out = out.withoutName(strTransferEncoding)
			needClose = true
			framing = Framing{Kind: FramingCloseDelimited}
		}
	}

	if !keepAlive || needClose {
		for i := range out {
			if equalFold(out[i].Name, strConnection) {
				v := withoutCommaToken(out[i].Value, strKeepAlive)
				if v == nil {
					out = append(out[:i], out[i+1:]...)
				} else {
					out[i].Value = v
				}
				break
			}
		}
		if !out.hasConnectionToken(strClose) {
			out = append(out, Header{
				Name:  append([]byte(nil), strConnection...),
				Value: append([]byte(nil), strClose...),
			})
		}
	}

	return out, framing, needClose
}

// PrepareResponse resolves a Response event's body framing and applies
// the mandatory header repair, returning the headers that will
// actually be written, the framing chosen, and whether the repair
// determined the connection must close afterward.
func PrepareResponse(resp *Response, requestMethod []byte, peerVersion ProtocolVersion, keepAlive bool) (Headers, Framing, bool, error) {
	framing, err := FramingFor(resp.Headers, true, requestMethod, resp.StatusCode)
	if err != nil {
		return nil, Framing{}, false, err
	}
	headers, framing, needClose := repairResponseHeaders(resp.Headers, framing, peerVersion, keepAlive)
	return headers, framing, needClose, nil
}

// bodyWriter is the writer-side counterpart to bodyReader.
type bodyWriter interface {
	writeData(d *Data) ([]byte, error)
	writeEndOfMessage(eom *EndOfMessage) ([]byte, error)
}

type contentLengthBodyWriter struct {
	remaining int
}

func (w *contentLengthBodyWriter) writeData(d *Data) ([]byte, error) {
	if len(d.Data) > w.remaining {
		return nil, newLocalProtocolError(HintBadRequest, "Content-Length overrun: only %d bytes remain but got %d more", w.remaining, len(d.Data))
	}
	w.remaining -= len(d.Data)
	return d.Data, nil
}

func (w *contentLengthBodyWriter) writeEndOfMessage(eom *EndOfMessage) ([]byte, error) {
	if w.remaining != 0 {
		return nil, newLocalProtocolError(HintBadRequest, "Content-Length under-run: %d bytes were declared but never sent", w.remaining)
	}
	if len(eom.Headers) > 0 {
		return nil, newLocalProtocolError(HintBadRequest, "trailers are not allowed with Content-Length framing")
	}
	return nil, nil
}

type chunkedBodyWriter struct{}

func (w *chunkedBodyWriter) writeData(d *Data) ([]byte, error) {
	if len(d.Data) == 0 {
		return nil, nil
	}
	b := make([]byte, 0, len(d.Data)+16)
	b = appendHexUint(b, len(d.Data))
	b = append(b, strCRLF...)
	b = append(b, d.Data...)
	b = append(b, strCRLF...)
	return b, nil
}

func (w *chunkedBodyWriter) writeEndOfMessage(eom *EndOfMessage) ([]byte, error) {
	for _, forbidden := range trailerForbiddenNames {
		if eom.Headers.Has(b2s(forbidden)) {
			return nil, newLocalProtocolError(HintBadRequest, "forbidden trailer header %q", forbidden)
		}
	}
	b := []byte("0")
	b = append(b, strCRLF...)
	b = appendHeaders(b, eom.Headers)
	b = append(b, strCRLF...)
	return b, nil
}

// http10BodyWriter emits data verbatim; EndOfMessage writes nothing.
// This framing is only chosen together with need_close, so the sender
// ends in MUST_CLOSE and the body's end is marked by the caller closing
// the transport.
type http10BodyWriter struct{}

func (w *http10BodyWriter) writeData(d *Data) ([]byte, error) {
	return d.Data, nil
}

func (w *http10BodyWriter) writeEndOfMessage(*EndOfMessage) ([]byte, error) {
	return nil, nil
}

func newBodyWriter(f Framing) bodyWriter {
	switch f.Kind {
	case FramingChunked:
		return &chunkedBodyWriter{}
	case FramingCloseDelimited:
		return &http10BodyWriter{}
	default:
		return &contentLengthBodyWriter{remaining: f.Length}
	}
}
