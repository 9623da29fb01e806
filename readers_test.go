package h1

import "testing"

func feed(buf *ReceiveBuffer, s string) {
	buf.Append([]byte(s))
}

func TestReadRequestHeadersBasic(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "GET /index.html HTTP/1.1\r\nHost: example.com\r\nX-A: 1\r\n\r\n")

	req, ok, err := readRequestHeaders(buf)
	if err != nil || !ok {
		t.Fatalf("readRequestHeaders: ok=%v err=%v", ok, err)
	}
	if string(req.Method) != "GET" || string(req.Target) != "/index.html" {
		t.Errorf("method/target = %q %q", req.Method, req.Target)
	}
	if !req.HTTPVersion.AtLeast11() {
		t.Errorf("expected HTTP/1.1")
	}
	if v, ok := req.Headers.Get("host"); !ok || string(v) != "example.com" {
		t.Errorf("Host header = %q, %v", v, ok)
	}
}

func TestReadRequestHeadersNeedsMoreData(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "GET / HTTP/1.1\r\nHost: example.com\r\n")

	_, ok, err := readRequestHeaders(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected false: no blank line yet")
	}
}

func TestReadRequestHeadersRejectsMissingHost(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "GET / HTTP/1.1\r\n\r\n")

	_, _, err := readRequestHeaders(buf)
	if err == nil {
		t.Fatal("expected error: HTTP/1.1 request missing Host")
	}
}

func TestReadRequestHeadersObsFold(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "GET / HTTP/1.0\r\nX-Long: part1\r\n part2\r\n\r\n")

	req, ok, err := readRequestHeaders(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	v, _ := req.Headers.Get("x-long")
	if string(v) != "part1 part2" {
		t.Errorf("folded value = %q, want %q", v, "part1 part2")
	}
}

func TestReadResponseHeadersInformationalVsFinal(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "HTTP/1.1 100 Continue\r\n\r\n")

	ev, ok, err := readResponseHeaders(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, ok := ev.(*InformationalResponse); !ok {
		t.Fatalf("expected *InformationalResponse, got %T", ev)
	}

	feed(buf, "HTTP/1.1 200 OK\r\n\r\n")
	ev, ok, err = readResponseHeaders(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	resp, ok := ev.(*Response)
	if !ok {
		t.Fatalf("expected *Response, got %T", ev)
	}
	if resp.StatusCode != 200 || string(resp.Reason) != "OK" {
		t.Errorf("status/reason = %d %q", resp.StatusCode, resp.Reason)
	}
}

func TestContentLengthReader(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "hello")

	r := &contentLengthReader{remaining: 5}
	ev, ok, err := r.read(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	d, ok := ev.(*Data)
	if !ok || string(d.Data) != "hello" {
		t.Fatalf("Data = %v", ev)
	}

	ev, ok, err = r.read(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, ok := ev.(*EndOfMessage); !ok {
		t.Fatalf("expected EndOfMessage, got %T", ev)
	}
}

func TestContentLengthReaderEOFUnderrun(t *testing.T) {
	r := &contentLengthReader{remaining: 5}
	if _, err := r.readEOF(); err == nil {
		t.Error("expected error: EOF before declared length satisfied")
	}
}

func TestChunkedReaderFullCycle(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "5\r\nhello\r\n0\r\nX-Trailer: v\r\n\r\n")

	r := &chunkedReader{}
	ev, ok, err := r.read(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	d, ok := ev.(*Data)
	if !ok || string(d.Data) != "hello" {
		t.Fatalf("Data = %v", ev)
	}

	ev, ok, err = r.read(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	eom, ok := ev.(*EndOfMessage)
	if !ok {
		t.Fatalf("expected EndOfMessage, got %T", ev)
	}
	v, ok := eom.Headers.Get("x-trailer")
	if !ok || string(v) != "v" {
		t.Errorf("trailer = %q, %v", v, ok)
	}
}

func TestChunkedReaderRejectsForbiddenTrailer(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "0\r\nContent-Length: 5\r\n\r\n")

	r := &chunkedReader{}
	_, _, err := r.read(buf)
	if err == nil {
		t.Error("expected error: Content-Length is forbidden as a trailer")
	}
}

func TestChunkedReaderRejectsMissingBodyCRLF(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "3\r\nabcXX")

	r := &chunkedReader{}
	if _, _, err := r.read(buf); err != nil {
		t.Fatalf("unexpected error reading chunk data: %v", err)
	}
	// The next read should consume "XX" where a CRLF was expected.
	_, _, err := r.read(buf)
	if err == nil {
		t.Error("expected error: missing CRLF after chunk data")
	}
}

func TestHttp10ReaderConsumesAndEOF(t *testing.T) {
	buf := NewReceiveBuffer()
	defer buf.Release()
	feed(buf, "whatever bytes")

	r := &http10Reader{}
	ev, ok, err := r.read(buf)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if d, ok := ev.(*Data); !ok || string(d.Data) != "whatever bytes" {
		t.Fatalf("Data = %v", ev)
	}

	ev, err = r.readEOF()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(*EndOfMessage); !ok {
		t.Fatalf("expected EndOfMessage on EOF, got %T", ev)
	}
}
