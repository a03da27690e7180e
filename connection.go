package wsforge

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ConnectionID opaquely identifies a session for the lifetime of the
// process. Equality is all that matters — ordering carries no meaning.
type ConnectionID string

// connIDCounter is the process-wide monotonic counter behind
// nextConnectionID. spec.md §9 leaves open whether this should be global or
// per-Router; this repo keeps it global (stable uniqueness across every
// Router in the process), matching the original implementation.
var connIDCounter uint64

func nextConnectionID() ConnectionID {
	n := atomic.AddUint64(&connIDCounter, 1) - 1
	return ConnectionID(fmt.Sprintf("conn_%d", n))
}

// ConnectionInfo is the immutable metadata recorded once at session start.
type ConnectionInfo struct {
	ID         ConnectionID
	RemoteAddr string
	ConnectedAt time.Time
	// Protocol is the negotiated Sec-WebSocket-Protocol value, if the client
	// offered one and the handshake accepted it. Empty when not negotiated.
	Protocol string
}

// Connection is a handle to one live session. The only way to reach a
// client is through Send — there is no synchronous receive; inbound
// messages are pushed to handlers by the session runtime. Connection is
// cheap to copy: copies share the same outbound queue producer.
type Connection struct {
	info     ConnectionInfo
	outbound *outboundQueue
}

func newConnection(info ConnectionInfo, outbound *outboundQueue) Connection {
	return Connection{info: info, outbound: outbound}
}

// ID returns the connection's identifier.
func (c Connection) ID() ConnectionID { return c.info.ID }

// Info returns the connection's immutable metadata.
func (c Connection) Info() ConnectionInfo { return c.info }

// Send enqueues message onto the outbound queue. It returns immediately;
// it fails when the queue has already been closed, or when a bounded queue
// with OverflowCloseConnection is full, and reports both as KindTransport
// rather than blocking.
func (c Connection) Send(message Message) error {
	if c.outbound == nil {
		return newError(KindTransport, "connection has no outbound queue")
	}
	return c.outbound.push(message)
}

// SendText is a convenience wrapper sending a Text message.
func (c Connection) SendText(s string) error { return c.Send(NewText(s)) }

// SendBinary is a convenience wrapper sending a Binary message.
func (c Connection) SendBinary(b []byte) error { return c.Send(NewBinary(b)) }

// SendJSON serializes v and sends it as a Text message.
func (c Connection) SendJSON(v any) error {
	msg, err := TextJSON(v)
	if err != nil {
		return err
	}
	return c.Send(msg)
}
