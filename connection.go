package h1

import "fmt"

// defaultMaxBufferSize bounds the receive buffer: enough for a
// realistic request line plus headers, without leaving an easy memory
// exhaustion vector open to a peer that never sends a blank line.
const defaultMaxBufferSize = 16 * 1024

// Connection is the engine's façade: it owns the receive buffer, the
// current reader/writer, the state machine, and the auxiliary
// bookkeeping a collaborator needs to drive a real socket. It performs
// no I/O of its own — the caller owns the net.Conn (or equivalent) and
// is responsible for reading/writing the bytes this type produces and
// consumes.
//
// role names which side of the wire this instance plays. Both
// per-party automata live in the embedded state machine regardless of
// role, since framing and keep-alive decisions on our own side depend
// on the peer's observed state (receiving a Connection: close on a
// request we're about to answer affects how we must write our own
// response).
type Connection struct {
	role Role
	sm   *stateMachine
	buf  *ReceiveBuffer

	maxBufferSize int

	requestMethod    []byte
	theirHTTPVersion ProtocolVersion
	peerBodyFraming  Framing

	bodyReader bodyReader
	bodyWriter bodyWriter

	peerEOF   bool
	ourClosed bool

	logger Logger
}

// NewConnection returns a Connection playing role, with a fresh
// receive buffer and default resource bounds.
func NewConnection(role Role) *Connection {
	return &Connection{
		role:             role,
		sm:               newStateMachine(),
		buf:              NewReceiveBuffer(),
		maxBufferSize:    defaultMaxBufferSize,
		theirHTTPVersion: HTTP10,
	}
}

// SetMaxBufferSize overrides the default 16 KiB receive-buffer cap.
func (c *Connection) SetMaxBufferSize(n int) { c.maxBufferSize = n }

// Close releases the pooled backing store. The Connection must not be
// used afterward.
func (c *Connection) Close() { c.buf.Release() }

func opposite(r Role) Role {
	if r == Client {
		return Server
	}
	return Client
}

func (c *Connection) peerRole() Role { return opposite(c.role) }

// OurState and TheirState expose the two per-party automata.
func (c *Connection) OurState() State   { return c.sm.stateOf(c.role) }
func (c *Connection) TheirState() State { return c.sm.stateOf(c.peerRole()) }

// KeepAlive reports whether the connection may be reused after the
// current cycle. It is true until either party signals that the
// connection should close, and never becomes true again.
func (c *Connection) KeepAlive() bool { return c.sm.keepAlive }

// TheyAreWaitingFor100Continue mirrors the matching auxiliary flag.
func (c *Connection) TheyAreWaitingFor100Continue() bool {
	return c.sm.clientWaiting100Continue
}

func asLocalError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*LocalProtocolError); ok {
		return err
	}
	return newLocalProtocolError(HintBadRequest, "%s", err)
}

func asRemoteError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*RemoteProtocolError); ok {
		return err
	}
	return newRemoteProtocolError(HintBadRequest, "%s", err)
}

// Send validates ev against the state machine, encodes it, and
// returns the bytes to write to the socket. ConnectionClosed has no
// wire form and always returns (nil, nil) on success.
func (c *Connection) Send(ev Event) ([]byte, error) {
	if isSentinel(ev) {
		return nil, newLocalProtocolError(HintBadRequest, "%T is a sentinel value and cannot be sent", ev)
	}
	if c.OurState() == StateError {
		return nil, newLocalProtocolError(HintBadRequest, "cannot send: our side of the connection is in an error state")
	}

	if _, ok := ev.(*ConnectionClosed); ok {
		if err := c.sm.applyEvent(c.role, ev); err != nil {
			c.sm.setState(c.role, StateError)
			return nil, asLocalError(err)
		}
		c.ourClosed = true
		return nil, nil
	}

	out, pendingWriter, encodeErr := c.encode(ev)
	if encodeErr != nil {
		c.sm.setState(c.role, StateError)
		// FramingFor reports bad framing headers as remote errors; on
		// the sending side they are the caller's fault.
		if rpe, ok := encodeErr.(*RemoteProtocolError); ok {
			return nil, newLocalProtocolError(rpe.Hint, "%s", rpe.Msg)
		}
		return nil, encodeErr
	}

	if err := c.sm.applyEvent(c.role, ev); err != nil {
		c.sm.setState(c.role, StateError)
		return nil, asLocalError(err)
	}
	c.logf("%s: sent %T, our state -> %s", c.role, ev, c.OurState())

	switch ev.(type) {
	case *Request, *Response:
		c.bodyWriter = pendingWriter
	case *EndOfMessage:
		c.bodyWriter = nil
	}

	return out, nil
}

// encode formats ev's wire bytes. For *Request and *Response it also
// returns the body writer that should become active once the state
// transition succeeds. The writer is deliberately not installed until
// after applyEvent confirms the transition: holding a reference across
// a transition that might fail would leave bodyWriter pointing at a
// framing no longer backed by the actual state.
func (c *Connection) encode(ev Event) ([]byte, bodyWriter, error) {
	switch e := ev.(type) {
	case *Request:
		c.requestMethod = append(c.requestMethod[:0], e.Method...)
		framing, err := FramingFor(e.Headers, false, nil, 0)
		if err != nil {
			return nil, nil, err
		}
		return writeRequest(e), newBodyWriter(framing), nil

	case *InformationalResponse:
		return writeInformationalResponse(e), nil, nil

	case *Response:
		headers, framing, needClose, err := PrepareResponse(e, c.requestMethod, c.theirHTTPVersion, c.sm.keepAlive)
		if err != nil {
			return nil, nil, err
		}
		if needClose {
			c.sm.keepAlive = false
		}
		return writeResponseHead(e.StatusCode, e.Reason, headers), newBodyWriter(framing), nil

	case *Data:
		if c.bodyWriter == nil {
			return nil, nil, newLocalProtocolError(HintBadRequest, "Data sent outside of a body-sending state")
		}
		out, err := c.bodyWriter.writeData(e)
		return out, nil, err

	case *EndOfMessage:
		if c.bodyWriter == nil {
			return nil, nil, newLocalProtocolError(HintBadRequest, "EndOfMessage sent outside of a body-sending state")
		}
		out, err := c.bodyWriter.writeEndOfMessage(e)
		return out, nil, err

	default:
		return nil, nil, newLocalProtocolError(HintBadRequest, "%T is not a sendable event", ev)
	}
}

// ReceiveData feeds bytes read from the socket into the connection. An
// empty slice signals the peer has closed their side; calling it again
// afterward is an error.
func (c *Connection) ReceiveData(data []byte) error {
	if c.peerEOF {
		return newRemoteProtocolError(HintBadRequest, "receive_data called again after peer EOF")
	}
	if len(data) == 0 {
		c.peerEOF = true
		return nil
	}
	c.buf.Append(data)
	return nil
}

// NextEvent pulls one event out of the buffered bytes.
func (c *Connection) NextEvent() (Event, error) {
	peer := c.peerRole()
	state := c.sm.stateOf(peer)

	if state == StateError {
		return nil, newRemoteProtocolError(HintBadRequest, "cannot receive: peer's side of the connection is in an error state")
	}
	if state == Done && c.buf.Len() > 0 {
		c.logf("%s: %d bytes buffered past peer's DONE state, pausing for pipelined read", c.role, c.buf.Len())
		return Paused, nil
	}
	if state == MightSwitchProtocol || state == SwitchedProtocol {
		return Paused, nil
	}

	ev, ok, err := c.readOneEvent(peer, state)
	if err != nil {
		c.sm.setState(peer, StateError)
		return nil, asRemoteError(err)
	}
	if ok {
		return ev, c.applyPeerEvent(peer, ev)
	}

	if c.peerEOF {
		ev, err := c.eofOutcome(peer, state)
		if err != nil {
			c.sm.setState(peer, StateError)
			return nil, asRemoteError(err)
		}
		return ev, c.applyPeerEvent(peer, ev)
	}

	if c.buf.Len() > c.maxBufferSize {
		hint := HintHeaderFieldsTooLarge
		if state == Idle {
			hint = HintRequestURITooLong
		}
		err := newRemoteProtocolError(hint, "receive buffer exceeded max_buffer_size (%d bytes)", c.maxBufferSize)
		c.sm.setState(peer, StateError)
		return nil, err
	}

	return NeedData, nil
}

// readOneEvent dispatches to the reader selected by peer's current
// state — the state alone determines the wire grammar expected next,
// so there is never an ambiguity about which reader applies.
func (c *Connection) readOneEvent(peer Role, state State) (Event, bool, error) {
	switch state {
	case Idle:
		if peer != Client {
			return nil, false, nil
		}
		return readRequestHeaders(c.buf)

	case SendResponse:
		return readResponseHeaders(c.buf)

	case SendBody:
		if c.bodyReader == nil {
			c.bodyReader = newBodyReader(c.peerBodyFraming)
		}
		return c.bodyReader.read(c.buf)

	default:
		// MUST_CLOSE, CLOSED and similar terminal states: the peer has
		// nothing left to legitimately say.
		return (&expectNothingReader{}).read(c.buf)
	}
}

// eofOutcome decides what a peer EOF means in state: a clean close
// while idle and unbuffered is a normal connection teardown, but an
// EOF mid-headers or mid-body (short of a reader's own readEOF
// accepting it, e.g. close-delimited framing) is a truncated message.
func (c *Connection) eofOutcome(peer Role, state State) (Event, error) {
	switch state {
	case Idle:
		if c.buf.Len() == 0 {
			return &ConnectionClosed{}, nil
		}
		return nil, fmt.Errorf("peer closed the connection with a partial request line buffered")

	case SendResponse:
		return nil, fmt.Errorf("peer closed the connection while sending headers")

	case SendBody:
		if eofr, ok := c.bodyReader.(eofReader); ok {
			return eofr.readEOF()
		}
		return nil, fmt.Errorf("peer closed the connection unexpectedly in state %s", state)

	default:
		if c.buf.Len() == 0 {
			return &ConnectionClosed{}, nil
		}
		return nil, fmt.Errorf("peer sent data after their state reached %s", state)
	}
}

// applyPeerEvent threads a peer-authored event through the state
// machine, first recording whatever framing/version bookkeeping the
// event implies.
func (c *Connection) applyPeerEvent(peer Role, ev Event) error {
	switch e := ev.(type) {
	case *Request:
		c.requestMethod = append(c.requestMethod[:0], e.Method...)
		c.theirHTTPVersion = e.HTTPVersion
		framing, err := FramingFor(e.Headers, false, nil, 0)
		if err != nil {
			c.sm.setState(peer, StateError)
			return asRemoteError(err)
		}
		c.peerBodyFraming = framing

	case *InformationalResponse:
		c.theirHTTPVersion = e.HTTPVersion

	case *Response:
		c.theirHTTPVersion = e.HTTPVersion
		framing, err := FramingFor(e.Headers, true, c.requestMethod, e.StatusCode)
		if err != nil {
			c.sm.setState(peer, StateError)
			return asRemoteError(err)
		}
		c.peerBodyFraming = framing
	}

	if err := c.sm.applyEvent(peer, ev); err != nil {
		c.sm.setState(peer, StateError)
		return asRemoteError(err)
	}
	c.logf("%s: received %T, their state -> %s", c.role, ev, c.sm.stateOf(peer))

	if _, ok := ev.(*EndOfMessage); ok {
		c.bodyReader = nil
	}
	c.buf.Compress()
	return nil
}

// StartNextCycle resets both automata to IDLE for the next
// request/response cycle on a kept-alive connection.
func (c *Connection) StartNextCycle() error {
	if c.OurState() != Done || c.TheirState() != Done {
		return newLocalProtocolError(HintBadRequest, "start_next_cycle requires both parties to be DONE")
	}
	if !c.sm.keepAlive {
		return newLocalProtocolError(HintBadRequest, "start_next_cycle requires keep_alive")
	}
	if len(c.sm.pendingSwitchProposals) > 0 {
		return newLocalProtocolError(HintBadRequest, "start_next_cycle requires no pending protocol switch")
	}
	c.sm.reset()
	c.requestMethod = c.requestMethod[:0]
	c.buf.Compress()
	return nil
}

// TrailingData exposes the unconsumed tail of the receive buffer,
// valid once the connection has reached SWITCHED_PROTOCOL: those bytes
// belong to whatever protocol it switched to, not to HTTP/1.1.
func (c *Connection) TrailingData() ([]byte, bool) {
	return c.buf.window(), c.peerEOF
}
