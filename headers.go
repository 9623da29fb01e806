package h1

import "bytes"

// Header is a single name/value pair as it travels on the wire. Field
// names are case-insensitive per RFC 7230 §3.2; this engine normalizes
// them to lowercase on both construction and parse so callers never
// have to case-fold a lookup themselves. Values are opaque octet
// sequences, stripped of surrounding whitespace.
type Header struct {
	Name  []byte
	Value []byte
}

// Headers is an ordered list of header fields. Order is preserved on
// both ingestion and emission; multiple fields with the same name are
// kept as separate entries and never comma-merged, so a caller that
// cares about wire order (or needs to see every Set-Cookie separately)
// always gets it.
type Headers []Header

// tokenByteTable marks bytes legal in an HTTP token (RFC 7230 §3.2.6),
// used to validate header field names.
var tokenByteTable = func() [256]bool {
	var t [256]bool
	for c := byte('0'); c <= '9'; c++ {
		t[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		t[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		t[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		t[c] = true
	}
	return t
}()

func isValidToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !tokenByteTable[c] {
			return false
		}
	}
	return true
}

// isValidHeaderValue rejects CR, LF and NUL: left unchecked, any of
// these would let a caller smuggle an extra header or a response
// splitting attack into an otherwise single field value.
func isValidHeaderValue(v []byte) bool {
	for _, c := range v {
		if c == '\r' || c == '\n' || c == 0 {
			return false
		}
	}
	return true
}

// NewHeader builds and validates one header field, lowercasing the
// name and trimming the value the way the header reader does on
// ingestion.
func NewHeader(name, value string) (Header, error) {
	n := bytes.ToLower([]byte(name))
	if !isValidToken(n) {
		return Header{}, newLocalProtocolError(HintBadRequest, "invalid header name %q", name)
	}
	v := bytes.TrimSpace([]byte(value))
	if !isValidHeaderValue(v) {
		return Header{}, newLocalProtocolError(HintBadRequest, "invalid header value for %q", name)
	}
	return Header{Name: n, Value: v}, nil
}

func mustHeader(name, value string) Header {
	h, err := NewHeader(name, value)
	if err != nil {
		panic(err)
	}
	return h
}

// Get returns the first value for name (case-insensitive), and
// whether it was present.
func (hs Headers) Get(name string) ([]byte, bool) {
	n := s2b(name)
	for _, h := range hs {
		if equalFold(h.Name, n) {
			return h.Value, true
		}
	}
	return nil, false
}

// GetAll returns every value for name, in wire order.
func (hs Headers) GetAll(name string) [][]byte {
	n := s2b(name)
	var out [][]byte
	for _, h := range hs {
		if equalFold(h.Name, n) {
			out = append(out, h.Value)
		}
	}
	return out
}

// Has reports whether name is present.
func (hs Headers) Has(name string) bool {
	_, ok := hs.Get(name)
	return ok
}

// Count returns the number of fields named name.
func (hs Headers) Count(name string) int {
	n := s2b(name)
	c := 0
	for _, h := range hs {
		if equalFold(h.Name, n) {
			c++
		}
	}
	return c
}

// Clone returns a deep copy, so the caller's header list is never
// aliased by the writer's mandatory header repair — a caller that
// reuses the same Headers value across requests must not see it
// mutated out from under it.
func (hs Headers) Clone() Headers {
	out := make(Headers, len(hs))
	for i, h := range hs {
		name := make([]byte, len(h.Name))
		copy(name, h.Name)
		value := make([]byte, len(h.Value))
		copy(value, h.Value)
		out[i] = Header{Name: name, Value: value}
	}
	return out
}

// withoutName returns hs with every field named name removed.
func (hs Headers) withoutName(name []byte) Headers {
	out := hs[:0:0]
	for _, h := range hs {
		if !equalFold(h.Name, name) {
			out = append(out, h)
		}
	}
	return out
}

// set removes every existing field named name and appends a single
// new one.
func (hs Headers) set(name, value []byte) Headers {
	out := hs.withoutName(name)
	return append(out, Header{Name: name, Value: value})
}

// commaTokens splits a comma-separated header value (e.g. Connection)
// into trimmed, non-empty tokens.
func commaTokens(v []byte) [][]byte {
	var out [][]byte
	for _, part := range bytes.Split(v, strComma) {
		t := bytes.TrimSpace(part)
		if len(t) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// hasCommaToken reports whether token (case-insensitive) appears among
// v's comma-separated tokens, e.g. checking a Connection header for
// "close" or "keep-alive".
func hasCommaToken(v, token []byte) bool {
	for _, t := range commaTokens(v) {
		if equalFold(t, token) {
			return true
		}
	}
	return false
}

// withoutCommaToken returns v's tokens with token removed, re-joined
// with ", ". Returns nil if nothing remains.
func withoutCommaToken(v, token []byte) []byte {
	tokens := commaTokens(v)
	out := tokens[:0:0]
	for _, t := range tokens {
		if !equalFold(t, token) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return bytes.Join(out, []byte(", "))
}

// connectionTokens returns the merged Connection header value(s)
// as one comma-token list (RFC 7230 allows the field to be sent as
// multiple lines or one comma-joined line; this engine treats both the
// same on read).
func (hs Headers) connectionTokens() [][]byte {
	var out [][]byte
	for _, v := range hs.GetAll("connection") {
		out = append(out, commaTokens(v)...)
	}
	return out
}

func (hs Headers) hasConnectionToken(token []byte) bool {
	for _, t := range hs.connectionTokens() {
		if equalFold(t, token) {
			return true
		}
	}
	return false
}
