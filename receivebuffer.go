package h1

import (
	"bytes"

	"github.com/valyala/bytebufferpool"
)

// ReceiveBuffer is an append-only byte accumulator with amortized O(1)
// front-truncation and cached search offsets for line/blank-line
// delimiters.
//
// Storage is a pooled bytebufferpool.ByteBuffer, the same structure
// fasthttp uses for its own body/header scratch buffers
// (bytebuffer.go): an append-mostly byte slice recycled across
// connections is exactly the shape bytebufferpool optimizes for, and a
// Connection acquires one per its lifetime and releases it back to the
// pool when the connection is discarded.
type ReceiveBuffer struct {
	bb    *bytebufferpool.ByteBuffer
	start int // index of the first unconsumed byte in bb.B

	// lastScan caches how far into the unconsumed window we've already
	// confirmed contains no match for needleCache, so repeated
	// extract_until_next/extract_lines calls for the same delimiter,
	// across many small Append calls, scan only the newly arrived
	// bytes instead of the whole buffer.
	needleCache []byte
	lastScan    int
	lastScanKind scanKind
}

type scanKind int

const (
	scanNone scanKind = iota
	scanNeedle
	scanBlankLine
)

// NewReceiveBuffer returns an empty buffer backed by a pooled
// bytebufferpool.ByteBuffer.
func NewReceiveBuffer() *ReceiveBuffer {
	return &ReceiveBuffer{bb: bytebufferpool.Get()}
}

// Release returns the backing store to the pool. The buffer must not
// be used afterwards.
func (b *ReceiveBuffer) Release() {
	bytebufferpool.Put(b.bb)
	b.bb = nil
}

// window is the unconsumed slice.
func (b *ReceiveBuffer) window() []byte {
	return b.bb.B[b.start:]
}

// Len reports the number of unconsumed bytes.
func (b *ReceiveBuffer) Len() int {
	return len(b.bb.B) - b.start
}

// Append extends the buffer with p.
func (b *ReceiveBuffer) Append(p []byte) {
	b.bb.B = append(b.bb.B, p...)
}

// resetScanCache invalidates cached search progress; called whenever
// start moves, since every offset into the window shifts.
func (b *ReceiveBuffer) resetScanCache() {
	b.lastScan = 0
	b.lastScanKind = scanNone
	b.needleCache = nil
}

// ExtractAtMost consumes up to n bytes from the front of the buffer.
// It returns (nil, false) when the buffer is empty.
func (b *ReceiveBuffer) ExtractAtMost(n int) ([]byte, bool) {
	avail := b.Len()
	if avail == 0 {
		return nil, false
	}
	if n > avail {
		n = avail
	}
	out := make([]byte, n)
	copy(out, b.bb.B[b.start:b.start+n])
	b.start += n
	b.resetScanCache()
	return out, true
}

// ExtractUntilNext consumes through (and including) the first
// occurrence of needle, returning the consumed slice. It returns
// (nil, false) if needle is not yet present, after caching how much of
// the window has been scanned so the next call (with the same needle)
// only looks at newly appended bytes.
func (b *ReceiveBuffer) ExtractUntilNext(needle []byte) ([]byte, bool) {
	w := b.window()

	from := 0
	if b.lastScanKind == scanNeedle && bytes.Equal(b.needleCache, needle) {
		from = b.lastScan
	}
	if from > len(w) {
		from = len(w)
	}
	// Back off by len(needle)-1 so a needle split across the old
	// scan boundary and newly appended bytes is not missed.
	if back := len(needle) - 1; from > back {
		from -= back
	} else {
		from = 0
	}

	idx := bytes.Index(w[from:], needle)
	if idx < 0 {
		b.needleCache = append(b.needleCache[:0], needle...)
		b.lastScan = len(w)
		b.lastScanKind = scanNeedle
		return nil, false
	}

	end := from + idx + len(needle)
	out := make([]byte, end)
	copy(out, w[:end])
	b.start += end
	b.resetScanCache()
	return out, true
}

// findBlankLine returns the offset and length of the earliest blank
// line terminator (\r\n\r\n or \n\n) in w, or (-1, 0) if absent.
func findBlankLine(w []byte) (int, int) {
	iCRLF := bytes.Index(w, strCRLFCRLF)
	iLF := bytes.Index(w, strLFLF)
	switch {
	case iCRLF < 0 && iLF < 0:
		return -1, 0
	case iCRLF < 0:
		return iLF, len(strLFLF)
	case iLF < 0:
		return iCRLF, len(strCRLFCRLF)
	case iCRLF <= iLF:
		return iCRLF, len(strCRLFCRLF)
	default:
		return iLF, len(strLFLF)
	}
}

// ExtractLines consumes through the first blank-line terminator and
// returns the CRLF/LF-split lines preceding it, with trailing CRs
// stripped. It returns (nil, false) if no blank line is yet present.
//
// If the buffer begins with a bare blank line (a client or a
// preceding message leaving a stray CRLF before the next
// request-line), that single line terminator is consumed and an empty,
// non-nil slice is returned, rather than treating it as "no blank line
// yet".
func (b *ReceiveBuffer) ExtractLines() ([][]byte, bool) {
	w := b.window()

	if len(w) >= 1 && w[0] == '\n' {
		b.start++
		b.resetScanCache()
		return [][]byte{}, true
	}
	if len(w) >= 2 && w[0] == '\r' && w[1] == '\n' {
		b.start += 2
		b.resetScanCache()
		return [][]byte{}, true
	}

	from := 0
	if b.lastScanKind == scanBlankLine {
		from = b.lastScan
	}
	if from > len(w) {
		from = len(w)
	}
	if back := 3; from > back {
		from -= back
	} else {
		from = 0
	}

	p, tlen := findBlankLine(w[from:])
	if p < 0 {
		b.lastScan = len(w)
		b.lastScanKind = scanBlankLine
		b.needleCache = nil
		return nil, false
	}
	p += from

	// Copy out, like the other Extract methods: the returned lines
	// must not alias bytes that Compress later overwrites.
	raw := append([]byte(nil), w[:p]...)
	consumed := p + tlen

	var lines [][]byte
	for _, part := range bytes.Split(raw, strLF) {
		lines = append(lines, bytes.TrimSuffix(part, []byte("\r")))
	}

	b.start += consumed
	b.resetScanCache()
	return lines, true
}

// Compress reclaims the consumed prefix, called after processing a
// complete event so the backing store doesn't retain already-consumed
// bytes indefinitely.
func (b *ReceiveBuffer) Compress() {
	if b.start == 0 {
		return
	}
	n := copy(b.bb.B, b.bb.B[b.start:])
	b.bb.B = b.bb.B[:n]
	b.start = 0
	b.resetScanCache()
}
