package h1

import (
	"bytes"
	"testing"
)

func TestWriteRequest(t *testing.T) {
	req, err := NewRequest("GET", "/", Headers{mustHeader("host", "example.com")}, HTTP11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := writeRequest(req)
	want := "GET / HTTP/1.1\r\nhost: example.com\r\n\r\n"
	if string(got) != want {
		t.Errorf("writeRequest = %q, want %q", got, want)
	}
}

func TestWriteInformationalResponse(t *testing.T) {
	ir, _ := NewInformationalResponse(100, "Continue", nil, HTTP11)
	got := writeInformationalResponse(ir)
	want := "HTTP/1.1 100 Continue\r\n\r\n"
	if string(got) != want {
		t.Errorf("writeInformationalResponse = %q, want %q", got, want)
	}
}

func TestWriteStatusLineEmptyReasonKeepsMandatorySpace(t *testing.T) {
	got := writeStatusLine(nil, 204, nil)
	want := "HTTP/1.1 204 \r\n"
	if string(got) != want {
		t.Errorf("writeStatusLine with empty reason = %q, want %q", got, want)
	}
}

func TestRepairResponseHeadersChunkedForHTTP11Peer(t *testing.T) {
	resp, _ := NewResponse(200, "OK", Headers{}, HTTP11)
	framing, err := FramingFor(resp.Headers, true, []byte("GET"), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if framing.Kind != FramingCloseDelimited {
		t.Fatalf("expected natural framing to be close-delimited, got %v", framing.Kind)
	}

	headers, repaired, needClose, err := PrepareResponse(resp, []byte("GET"), HTTP11, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if needClose {
		t.Error("should not need to close: peer is HTTP/1.1, chunked is available")
	}
	if repaired.Kind != FramingChunked {
		t.Errorf("expected framing repaired to chunked, got %v", repaired.Kind)
	}
	if v, ok := headers.Get("transfer-encoding"); !ok || string(v) != "chunked" {
		t.Errorf("expected Transfer-Encoding: chunked to be added, got %q %v", v, ok)
	}
}

func TestRepairResponseHeadersClosesForHTTP10Peer(t *testing.T) {
	resp, _ := NewResponse(200, "OK", Headers{}, HTTP11)

	headers, repaired, needClose, err := PrepareResponse(resp, []byte("GET"), HTTP10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !needClose {
		t.Error("expected need_close: HTTP/1.0 peer cannot receive chunked")
	}
	if repaired.Kind != FramingCloseDelimited {
		t.Errorf("expected framing to remain close-delimited, got %v", repaired.Kind)
	}
	if !headers.hasConnectionToken(strClose) {
		t.Error("expected Connection: close to be present")
	}
}

func TestRepairResponseHeadersRemovesKeepAliveToken(t *testing.T) {
	resp, _ := NewResponse(200, "OK", Headers{mustHeader("connection", "keep-alive")}, HTTP11)
	headers, _, _, err := PrepareResponse(resp, []byte("GET"), HTTP11, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasCommaToken(mustGetConnection(headers), strKeepAlive) {
		t.Error("expected keep-alive token to be stripped")
	}
	if !headers.hasConnectionToken(strClose) {
		t.Error("expected close token to be present once keep_alive is false")
	}
}

func mustGetConnection(hs Headers) []byte {
	v, _ := hs.Get("connection")
	return v
}

func TestContentLengthBodyWriterOverrunAndUnderrun(t *testing.T) {
	w := &contentLengthBodyWriter{remaining: 3}
	if _, err := w.writeData(&Data{Data: []byte("abcd")}); err == nil {
		t.Error("expected error: overrunning declared Content-Length")
	}

	w = &contentLengthBodyWriter{remaining: 3}
	if _, err := w.writeData(&Data{Data: []byte("ab")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.writeEndOfMessage(&EndOfMessage{}); err == nil {
		t.Error("expected error: under-running declared Content-Length")
	}
}

func TestContentLengthBodyWriterRejectsTrailers(t *testing.T) {
	w := &contentLengthBodyWriter{remaining: 0}
	trailers := Headers{mustHeader("x", "y")}
	if _, err := w.writeEndOfMessage(&EndOfMessage{Headers: trailers}); err == nil {
		t.Error("expected error: trailers not allowed with Content-Length framing")
	}
}

func TestChunkedBodyWriter(t *testing.T) {
	w := &chunkedBodyWriter{}
	out, err := w.writeData(&Data{Data: []byte("1234567890")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "a\r\n1234567890\r\n" {
		t.Errorf("writeData = %q", out)
	}

	out, err = w.writeEndOfMessage(&EndOfMessage{Headers: Headers{mustHeader("hello", "there")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "0\r\nhello: there\r\n\r\n" {
		t.Errorf("writeEndOfMessage = %q", out)
	}
}

func TestChunkedBodyWriterRejectsForbiddenTrailer(t *testing.T) {
	w := &chunkedBodyWriter{}
	trailers := Headers{mustHeader("content-length", "3")}
	if _, err := w.writeEndOfMessage(&EndOfMessage{Headers: trailers}); err == nil {
		t.Error("expected error: Content-Length forbidden as a trailer")
	}
}

func TestHTTP10BodyWriterPassesThroughVerbatim(t *testing.T) {
	w := &http10BodyWriter{}
	out, err := w.writeData(&Data{Data: []byte("raw")})
	if err != nil || !bytes.Equal(out, []byte("raw")) {
		t.Fatalf("writeData = %q, %v", out, err)
	}
	if out, err := w.writeEndOfMessage(&EndOfMessage{}); out != nil || err != nil {
		t.Errorf("writeEndOfMessage should be a no-op, got %v, %v", out, err)
	}
}
