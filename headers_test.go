package h1

import "testing"

func TestNewHeaderLowercasesName(t *testing.T) {
	h, err := NewHeader("Content-Type", " text/plain ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(h.Name) != "content-type" {
		t.Errorf("Name = %q, want content-type", h.Name)
	}
	if string(h.Value) != "text/plain" {
		t.Errorf("Value = %q, want trimmed text/plain", h.Value)
	}
}

func TestNewHeaderRejectsInvalidToken(t *testing.T) {
	if _, err := NewHeader("bad name", "x"); err == nil {
		t.Error("expected error for header name containing a space")
	}
}

func TestNewHeaderRejectsCRLFInValue(t *testing.T) {
	if _, err := NewHeader("x", "a\r\nb"); err == nil {
		t.Error("expected error for value containing CRLF")
	}
}

func TestHeadersGetAndCount(t *testing.T) {
	hs := Headers{
		mustHeader("X-Foo", "1"),
		mustHeader("X-Foo", "2"),
		mustHeader("Host", "example.com"),
	}
	if n := hs.Count("x-foo"); n != 2 {
		t.Errorf("Count(x-foo) = %d, want 2", n)
	}
	v, ok := hs.Get("HOST")
	if !ok || string(v) != "example.com" {
		t.Errorf("Get(HOST) = %q, %v", v, ok)
	}
	all := hs.GetAll("x-foo")
	if len(all) != 2 || string(all[0]) != "1" || string(all[1]) != "2" {
		t.Errorf("GetAll(x-foo) = %v", all)
	}
}

func TestHeadersCloneDoesNotAlias(t *testing.T) {
	orig := Headers{mustHeader("x", "1")}
	clone := orig.Clone()
	clone[0].Value[0] = '9'
	if string(orig[0].Value) != "1" {
		t.Errorf("mutating clone affected original: %q", orig[0].Value)
	}
}

func TestWithoutNameRemovesAllMatches(t *testing.T) {
	hs := Headers{
		mustHeader("a", "1"),
		mustHeader("b", "2"),
		mustHeader("a", "3"),
	}
	out := hs.withoutName([]byte("a"))
	if len(out) != 1 || string(out[0].Name) != "b" {
		t.Errorf("withoutName(a) = %v", out)
	}
}

func TestConnectionTokenHelpers(t *testing.T) {
	hs := Headers{mustHeader("Connection", "keep-alive, Upgrade")}
	if !hs.hasConnectionToken(strUpgrade) {
		t.Error("expected Upgrade token to be found case-insensitively")
	}
	if hs.hasConnectionToken(strClose) {
		t.Error("did not expect close token")
	}
}

func TestWithoutCommaToken(t *testing.T) {
	out := withoutCommaToken([]byte("keep-alive, close"), strKeepAlive)
	if string(out) != "close" {
		t.Errorf("withoutCommaToken = %q, want close", out)
	}
	if withoutCommaToken([]byte("keep-alive"), strKeepAlive) != nil {
		t.Error("expected nil when the only token is removed")
	}
}
