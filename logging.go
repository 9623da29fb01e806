package h1

import (
	"log"
	"os"
)

// Logger is the diagnostic-tracing interface a Connection accepts,
// mirroring fasthttp.Logger (server.go) so callers can plug in
// whatever *log.Logger (or adapter) they already use elsewhere. A nil
// Logger means silent — the Connection never logs on its own.
type Logger interface {
	Printf(format string, args ...interface{})
}

// DefaultLogger writes to stderr with the standard log.Logger flags,
// offered for callers who want fasthttp's "just log to stderr"
// default without writing their own adapter; unlike fasthttp a
// Connection does not install this automatically — SetLogger(nil)
// (the zero value) stays silent.
var DefaultLogger Logger = log.New(os.Stderr, "", log.LstdFlags)

// SetLogger installs l as the Connection's diagnostic logger. Passing
// nil silences it again.
func (c *Connection) SetLogger(l Logger) { c.logger = l }

func (c *Connection) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
