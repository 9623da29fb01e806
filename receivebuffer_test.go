package h1

import (
	"bytes"
	"testing"
)

func TestExtractAtMost(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()
	b.Append([]byte("hello world"))

	chunk, ok := b.ExtractAtMost(5)
	if !ok || string(chunk) != "hello" {
		t.Fatalf("ExtractAtMost(5) = %q, %v", chunk, ok)
	}
	if b.Len() != 6 {
		t.Errorf("Len() = %d, want 6", b.Len())
	}

	rest, ok := b.ExtractAtMost(100)
	if !ok || string(rest) != " world" {
		t.Fatalf("ExtractAtMost(100) = %q, %v", rest, ok)
	}
	if _, ok := b.ExtractAtMost(1); ok {
		t.Error("expected ExtractAtMost on an empty buffer to fail")
	}
}

func TestExtractUntilNext(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()

	if _, ok := b.ExtractUntilNext(strCRLF); ok {
		t.Fatal("expected no match before CRLF arrives")
	}
	b.Append([]byte("abc"))
	if _, ok := b.ExtractUntilNext(strCRLF); ok {
		t.Fatal("expected no match: CRLF still missing")
	}
	b.Append([]byte("\r\ndef"))
	line, ok := b.ExtractUntilNext(strCRLF)
	if !ok || string(line) != "abc\r\n" {
		t.Fatalf("ExtractUntilNext = %q, %v", line, ok)
	}
	if string(b.window()) != "def" {
		t.Errorf("remaining window = %q, want def", b.window())
	}
}

// TestExtractUntilNextSplitAcrossAppends exercises the cached-scan
// backoff: the needle straddles two Append calls, so a naive "only
// scan new bytes" implementation would miss it.
func TestExtractUntilNextSplitAcrossAppends(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()

	b.Append([]byte("abc\r"))
	if _, ok := b.ExtractUntilNext(strCRLF); ok {
		t.Fatal("expected no match: only half the needle has arrived")
	}
	b.Append([]byte("\ndef"))
	line, ok := b.ExtractUntilNext(strCRLF)
	if !ok || string(line) != "abc\r\n" {
		t.Fatalf("ExtractUntilNext after split append = %q, %v", line, ok)
	}
}

func TestExtractLinesBasic(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()
	b.Append([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\nbody"))

	lines, ok := b.ExtractLines()
	if !ok {
		t.Fatal("expected a blank line to be found")
	}
	want := []string{"GET / HTTP/1.1", "Host: x"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i, w := range want {
		if string(lines[i]) != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if string(b.window()) != "body" {
		t.Errorf("remaining window = %q, want body", b.window())
	}
}

func TestExtractLinesBareLeadingBlankLine(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()
	b.Append([]byte("\r\nGET / HTTP/1.1\r\n\r\n"))

	lines, ok := b.ExtractLines()
	if !ok {
		t.Fatal("expected leading bare CRLF to be consumed")
	}
	if len(lines) != 0 {
		t.Errorf("expected an empty (non-nil) line list, got %v", lines)
	}

	lines, ok = b.ExtractLines()
	if !ok || len(lines) != 1 || string(lines[0]) != "GET / HTTP/1.1" {
		t.Fatalf("second ExtractLines = %v, %v", lines, ok)
	}
}

func TestExtractLinesAcceptsBareLF(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()
	b.Append([]byte("GET / HTTP/1.1\nHost: x\n\n"))

	lines, ok := b.ExtractLines()
	if !ok || len(lines) != 2 {
		t.Fatalf("ExtractLines with bare LF = %v, %v", lines, ok)
	}
}

func TestCompressReclaimsConsumedPrefix(t *testing.T) {
	b := NewReceiveBuffer()
	defer b.Release()
	b.Append([]byte("abcdef"))
	b.ExtractAtMost(3)
	b.Compress()
	if !bytes.Equal(b.window(), []byte("def")) {
		t.Errorf("window after Compress = %q, want def", b.window())
	}
}
