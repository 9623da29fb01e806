package h1

import (
	"bytes"
)

// bodyReader is the family of stateful byte-consumers selected by
// party, state and framing. Exactly one is active at a time for each
// direction of a Connection.
type bodyReader interface {
	// read consumes from buf and returns (event, true, nil) on
	// success, (nil, false, nil) when more data is needed, or
	// (nil, false, err) on a framing violation.
	read(buf *ReceiveBuffer) (Event, bool, error)
}

// eofReader is implemented by readers that have well-defined behavior
// when the peer closes the connection — e.g. close-delimited framing,
// where EOF is exactly how the body's end is signaled rather than a
// truncation.
type eofReader interface {
	readEOF() (Event, error)
}

func parseVersion(tok []byte) (ProtocolVersion, error) {
	if len(tok) != 8 || !bytes.HasPrefix(tok, []byte("HTTP/")) || tok[6] != '.' {
		return ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "unsupported HTTP version %q", tok)
	}
	major, minor := tok[5], tok[7]
	if major < '0' || major > '9' || minor < '0' || minor > '9' {
		return ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "unsupported HTTP version %q", tok)
	}
	return ProtocolVersion{Major: int(major - '0'), Minor: int(minor - '0')}, nil
}

// parseRequestLine parses "METHOD SP TARGET SP HTTP/D.D", rejecting
// any extra whitespace between components (RFC 9112 requires exactly
// one space).
func parseRequestLine(line []byte) (method, target []byte, version ProtocolVersion, err error) {
	i := bytes.IndexByte(line, ' ')
	if i <= 0 {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "cannot find method in request line %q", line)
	}
	method = line[:i]
	if !isValidToken(method) {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "invalid request method %q", method)
	}
	rest := line[i+1:]
	if len(rest) > 0 && rest[0] == ' ' {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "extra whitespace in request line %q", line)
	}

	j := bytes.IndexByte(rest, ' ')
	if j <= 0 {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "cannot find request-target in request line %q", line)
	}
	target = rest[:j]
	if !isValidTarget(target) {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "invalid request-target %q", target)
	}
	verTok := rest[j+1:]
	if len(verTok) > 0 && verTok[0] == ' ' {
		return nil, nil, ProtocolVersion{}, newRemoteProtocolError(HintBadRequest, "extra whitespace in request line %q", line)
	}
	version, err = parseVersion(verTok)
	if err != nil {
		return nil, nil, ProtocolVersion{}, err
	}
	return method, target, version, nil
}

// parseStatusLine parses "HTTP/D.D SP STATUS SP REASON".
func parseStatusLine(line []byte) (version ProtocolVersion, status int, reason []byte, err error) {
	i := bytes.IndexByte(line, ' ')
	if i <= 0 {
		return ProtocolVersion{}, 0, nil, newRemoteProtocolError(HintBadRequest, "cannot find whitespace in status line %q", line)
	}
	version, err = parseVersion(line[:i])
	if err != nil {
		return ProtocolVersion{}, 0, nil, err
	}
	rest := line[i+1:]
	if len(rest) < 3 {
		return ProtocolVersion{}, 0, nil, newRemoteProtocolError(HintBadRequest, "malformed status code in %q", line)
	}
	codeTok := rest[:3]
	n, perr := parseUint(codeTok)
	if perr != nil || n < 100 || n > 599 {
		return ProtocolVersion{}, 0, nil, newRemoteProtocolError(HintBadRequest, "malformed status code in %q", line)
	}
	if len(rest) > 3 {
		if rest[3] != ' ' {
			return ProtocolVersion{}, 0, nil, newRemoteProtocolError(HintBadRequest, "unexpected char after status code in %q", line)
		}
		reason = rest[4:]
	}
	return version, n, reason, nil
}

// parseHeaderBlock turns the header lines following a start line into
// Headers, performing obsolete line-folding (a continuation line
// starting with SP/HTAB joins the previous value with a single space)
// and per-field validation.
func parseHeaderBlock(lines [][]byte) (Headers, error) {
	var hs Headers
	for _, line := range lines {
		if len(line) == 0 {
			return nil, newRemoteProtocolError(HintBadRequest, "empty header line")
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(hs) == 0 {
				return nil, newRemoteProtocolError(HintBadRequest, "header block cannot start with a continuation line")
			}
			folded := bytes.TrimSpace(line)
			last := &hs[len(hs)-1]
			last.Value = append(append(last.Value, ' '), folded...)
			continue
		}

		colon := bytes.IndexByte(line, strColon[0])
		if colon < 0 {
			return nil, newRemoteProtocolError(HintBadRequest, "malformed header line %q", line)
		}
		name := line[:colon]
		if len(name) == 0 || name[len(name)-1] == ' ' || name[len(name)-1] == '\t' {
			return nil, newRemoteProtocolError(HintBadRequest, "whitespace between header field-name and colon in %q", line)
		}
		if !isValidToken(name) {
			return nil, newRemoteProtocolError(HintBadRequest, "invalid header field-name %q", name)
		}
		value := bytes.TrimSpace(line[colon+1:])
		if !isValidHeaderValue(value) {
			return nil, newRemoteProtocolError(HintBadRequest, "invalid header field-value for %q", name)
		}

		lname := make([]byte, len(name))
		copy(lname, name)
		lowercaseASCII(lname)
		lvalue := make([]byte, len(value))
		copy(lvalue, value)
		hs = append(hs, Header{Name: lname, Value: lvalue})
	}
	return hs, nil
}

// extractHeaderLines pulls the start-line + header block out of buf,
// skipping any leading bare blank lines — a stray CRLF some clients or
// intermediaries leave trailing after the previous message's body,
// before the next request/status line.
func extractHeaderLines(buf *ReceiveBuffer) ([][]byte, bool, error) {
	for {
		lines, ok := buf.ExtractLines()
		if !ok {
			return nil, false, nil
		}
		if len(lines) == 0 {
			continue
		}
		return lines, true, nil
	}
}

// readRequestHeaders is the CLIENT-direction start-line+header reader.
func readRequestHeaders(buf *ReceiveBuffer) (*Request, bool, error) {
	lines, ok, err := extractHeaderLines(buf)
	if err != nil || !ok {
		return nil, ok, err
	}
	method, target, version, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, false, err
	}
	headers, err := parseHeaderBlock(lines[1:])
	if err != nil {
		return nil, false, err
	}
	if version.AtLeast11() {
		if n := headers.Count("host"); n != 1 {
			return nil, false, newRemoteProtocolError(HintBadRequest, "HTTP/1.1 request must have exactly one Host header, got %d", n)
		}
	}
	return &Request{Method: method, Target: target, Headers: headers, HTTPVersion: version}, true, nil
}

// readResponseHeaders is the SERVER-direction reader; it returns
// either an *InformationalResponse or a *Response depending on the
// parsed status code.
func readResponseHeaders(buf *ReceiveBuffer) (Event, bool, error) {
	lines, ok, err := extractHeaderLines(buf)
	if err != nil || !ok {
		return nil, ok, err
	}
	version, status, reason, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, false, err
	}
	headers, err := parseHeaderBlock(lines[1:])
	if err != nil {
		return nil, false, err
	}
	if status < 200 {
		return &InformationalResponse{StatusCode: status, Reason: reason, Headers: headers, HTTPVersion: version}, true, nil
	}
	return &Response{StatusCode: status, Reason: reason, Headers: headers, HTTPVersion: version}, true, nil
}

// contentLengthReader emits Data up to a fixed remaining byte count,
// then one EndOfMessage.
type contentLengthReader struct {
	remaining int
}

func (r *contentLengthReader) read(buf *ReceiveBuffer) (Event, bool, error) {
	if r.remaining == 0 {
		return &EndOfMessage{}, true, nil
	}
	chunk, ok := buf.ExtractAtMost(r.remaining)
	if !ok {
		return nil, false, nil
	}
	r.remaining -= len(chunk)
	return &Data{Data: chunk}, true, nil
}

func (r *contentLengthReader) readEOF() (Event, error) {
	if r.remaining > 0 {
		return nil, newRemoteProtocolError(HintBadRequest, "peer closed connection with %d bytes of body remaining", r.remaining)
	}
	return &EndOfMessage{}, nil
}

type chunkedStage int

const (
	chunkedReadSize chunkedStage = iota
	chunkedReadBody
	chunkedReadBodyCRLF
	chunkedReadTrailer
)

// chunkedReader implements the chunked transfer-coding reader: chunk
// size line -> chunk body -> trailing CRLF -> repeat, until a
// zero-size chunk switches to trailer mode.
type chunkedReader struct {
	stage     chunkedStage
	remaining int
	atStart   bool // the next Data is the first of its chunk
}

// trailerForbiddenNames lists headers that may never appear as
// trailers: a Transfer-Encoding or Content-Length discovered only
// after the body would retroactively change how the message should
// have been framed, and a trailing Host could be used to smuggle a
// routing decision past whatever inspected the start line.
var trailerForbiddenNames = [][]byte{strTransferEncoding, strContentLength, strHost}

func (r *chunkedReader) read(buf *ReceiveBuffer) (Event, bool, error) {
	for {
		switch r.stage {
		case chunkedReadSize:
			line, ok := buf.ExtractUntilNext(strCRLF)
			if !ok {
				return nil, false, nil
			}
			line = bytes.TrimSuffix(line, strCRLF)
			if i := bytes.IndexByte(line, strSemicolon[0]); i >= 0 {
				line = line[:i] // chunk-extensions are accepted and discarded
			}
			n, err := parseHexUint(line)
			if err != nil {
				return nil, false, newRemoteProtocolError(HintBadRequest, "invalid chunk size: %s", err)
			}
			r.remaining = n
			if n == 0 {
				r.stage = chunkedReadTrailer
				continue
			}
			r.stage = chunkedReadBody
			r.atStart = true
		case chunkedReadBody:
			if r.remaining == 0 {
				r.stage = chunkedReadBodyCRLF
				continue
			}
			chunk, ok := buf.ExtractAtMost(r.remaining)
			if !ok {
				return nil, false, nil
			}
			r.remaining -= len(chunk)
			start := r.atStart
			r.atStart = false
			end := r.remaining == 0
			return &Data{Data: chunk, ChunkStart: start, ChunkEnd: end}, true, nil
		case chunkedReadBodyCRLF:
			crlf, ok := buf.ExtractAtMost(2)
			if !ok {
				return nil, false, nil
			}
			if !bytes.Equal(crlf, strCRLF) {
				return nil, false, newRemoteProtocolError(HintBadRequest, "missing CRLF after chunk data")
			}
			r.stage = chunkedReadSize
		case chunkedReadTrailer:
			lines, ok := buf.ExtractLines()
			if !ok {
				return nil, false, nil
			}
			trailers, err := parseHeaderBlock(lines)
			if err != nil {
				return nil, false, err
			}
			for _, forbidden := range trailerForbiddenNames {
				if trailers.Has(b2s(forbidden)) {
					return nil, false, newRemoteProtocolError(HintBadRequest, "forbidden trailer header %q", forbidden)
				}
			}
			return &EndOfMessage{Headers: trailers}, true, nil
		}
	}
}

func (r *chunkedReader) readEOF() (Event, error) {
	return nil, newRemoteProtocolError(HintBadRequest, "peer closed connection mid-chunked-body")
}

// http10Reader consumes all available bytes as Data; EOF ends the
// message. Used for responses with no declared length talking to a
// peer where close is the only framing signal.
type http10Reader struct{}

func (r *http10Reader) read(buf *ReceiveBuffer) (Event, bool, error) {
	chunk, ok := buf.ExtractAtMost(buf.Len())
	if !ok {
		return nil, false, nil
	}
	return &Data{Data: chunk}, true, nil
}

func (r *http10Reader) readEOF() (Event, error) {
	return &EndOfMessage{}, nil
}

// expectNothingReader is installed in terminal states where any byte
// from the peer is itself a protocol error.
type expectNothingReader struct{}

func (r *expectNothingReader) read(buf *ReceiveBuffer) (Event, bool, error) {
	if buf.Len() > 0 {
		return nil, false, newRemoteProtocolError(HintBadRequest, "unexpected data in a state expecting none")
	}
	return nil, false, nil
}

// newBodyReader selects the body-framing reader variant for framing.
func newBodyReader(f Framing) bodyReader {
	switch f.Kind {
	case FramingChunked:
		return &chunkedReader{}
	case FramingCloseDelimited:
		return &http10Reader{}
	default:
		return &contentLengthReader{remaining: f.Length}
	}
}
