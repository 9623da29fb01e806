package h1

import (
	"errors"
	"unsafe"
)

// Byte/string conversion and integer parsing helpers, adapted from
// fasthttp's bytesconv.go: same zero-allocation conversions and the
// same hand-rolled integer parser (avoiding strconv's error-allocation
// on the hot header-parsing path), trimmed to decimal and hex parsing
// over a byte slice rather than a bufio.Reader — this engine has no
// bufio.Reader, only whatever the Receive Buffer has already
// extracted.

// b2s converts a byte slice to a string without allocating.
func b2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// s2b converts a string to a byte slice without allocating. The
// returned slice must not be mutated.
func s2b(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

var (
	errEmptyInt            = errors.New("empty integer")
	errUnexpectedFirstChar = errors.New("unexpected char found, expected 0-9")
	errIntTooLong          = errors.New("integer too long")
	errEmptyHex            = errors.New("empty hex number")
	errHexTooLong          = errors.New("hex number too long")
)

// maxHexIntChars bounds chunk-size parsing to 20 hex digits, enough for
// any real chunk size and small enough to reject a peer sending an
// unbounded digit string; parseHexUint separately rejects any value
// that would overflow an int.
const maxHexIntChars = 20

// parseUint parses a non-negative decimal integer occupying the whole
// of buf. Used for Content-Length values, which must not carry any
// trailing garbage.
func parseUint(buf []byte) (int, error) {
	n := len(buf)
	if n == 0 {
		return -1, errEmptyInt
	}
	v := 0
	for i := 0; i < n; i++ {
		c := buf[i]
		k := c - '0'
		if k > 9 {
			return -1, errUnexpectedFirstChar
		}
		vNew := 10*v + int(k)
		if vNew < v {
			return -1, errIntTooLong
		}
		v = vNew
	}
	return v, nil
}

// parseHexUint parses a 1-20 digit hex number occupying the whole of
// buf (the chunk-size line, minus any chunk-extension and the
// trailing CRLF, which the caller has already stripped).
func parseHexUint(buf []byte) (int, error) {
	n := len(buf)
	if n == 0 {
		return -1, errEmptyHex
	}
	if n > maxHexIntChars {
		return -1, errHexTooLong
	}
	v := 0
	for i := 0; i < n; i++ {
		c := buf[i]
		k := hex2intTable[c]
		if k == 0xFF {
			return -1, errUnexpectedFirstChar
		}
		if v > int(^uint(0)>>1)>>4 {
			return -1, errHexTooLong
		}
		v = (v << 4) | int(k)
	}
	return v, nil
}

// appendHexUint appends the lowercase hex representation of n to dst.
func appendHexUint(dst []byte, n int) []byte {
	if n == 0 {
		return append(dst, '0')
	}
	var buf [maxHexIntChars]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = lowerhex[n&0xf]
		n >>= 4
	}
	return append(dst, buf[i:]...)
}

// appendUint appends the decimal representation of n to dst.
func appendUint(dst []byte, n int) []byte {
	if n == 0 {
		return append(dst, '0')
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return append(dst, buf[i:]...)
}

const lowerhex = "0123456789abcdef"

var hex2intTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 0xFF
	}
	for i := byte(0); i <= 9; i++ {
		t['0'+i] = i
	}
	for i := byte(0); i <= 5; i++ {
		t['a'+i] = 10 + i
		t['A'+i] = 10 + i
	}
	return t
}()

// toLowerTable is an ASCII lowercasing table, adapted from fasthttp's
// bytesconv_table_gen.go (there generated for the full byte range; here
// hand-written since only ASCII letters ever need folding in header
// names/values).
var toLowerTable = func() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		t[i] = byte(i)
	}
	for i := byte('A'); i <= 'Z'; i++ {
		t[i] = i + ('a' - 'A')
	}
	return t
}()

// lowercaseASCII lowercases b in place.
func lowercaseASCII(b []byte) {
	for i, c := range b {
		b[i] = toLowerTable[c]
	}
}

// equalFold reports whether a and b are equal, ignoring ASCII case.
func equalFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLowerTable[a[i]] != toLowerTable[b[i]] {
			return false
		}
	}
	return true
}
