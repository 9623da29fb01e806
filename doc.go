// Package h1 implements a sans-I/O HTTP/1.1 protocol engine: a pure,
// in-memory state machine plus wire-format codec that converts between
// raw byte streams and structured HTTP events.
//
// The package performs no I/O of its own. It never opens a socket,
// starts a timer, or spawns a goroutine. A caller owns the transport
// (a net.Conn, a pipe, an in-memory test harness, anything that
// produces and consumes bytes) and drives a Connection by feeding it
// received bytes and pulling events back out, or by handing it events
// to serialize into bytes for sending.
//
// A minimal client loop looks like:
//
//	conn := h1.NewConnection(h1.Client)
//	host, _ := h1.NewHeader("host", "example.com")
//	req, _ := h1.NewRequest("GET", "/", h1.Headers{host}, h1.HTTP11)
//	wire, _ := conn.Send(req)
//	wire2, _ := conn.Send(&h1.EndOfMessage{})
//	transport.Write(append(wire, wire2...))
//	conn.ReceiveData(transport.Read())
//	for {
//		ev, err := conn.NextEvent()
//		if err != nil {
//			break
//		}
//		if ev == h1.NeedData {
//			conn.ReceiveData(transport.Read())
//			continue
//		}
//		// handle ev
//	}
package h1
