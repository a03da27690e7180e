package wsforge

import (
	"context"
	"net"
)

// WireMessage is the minimal shape a framing library needs to hand the core
// an inbound frame, or accept an outbound one: a type tag plus payload
// bytes. Concrete framing adapters (see package wsgorilla) translate their
// own message type to and from this shape; the core never needs to know the
// wire format beneath it.
type WireMessage struct {
	Type MessageType
	Data []byte
}

// WireConn is the framing library contract from spec.md §6: something that
// can hand the session runtime inbound frames and accept outbound ones,
// after a handshake has already taken place. The core consumes this
// interface; it never depends on any particular WebSocket library directly.
type WireConn interface {
	// ReadMessage blocks for the next frame, or returns an error (including
	// ctx cancellation) when none will arrive.
	ReadMessage(ctx context.Context) (WireMessage, error)
	// WriteMessage sends one frame. Implementations must serialize
	// concurrent writers themselves if their underlying library requires
	// it — the session runtime only ever calls this from its single write
	// loop, but other framing-adapter internals (e.g. an auto-pong) may
	// also write.
	WriteMessage(ctx context.Context, msg WireMessage) error
	// Close tears down the underlying transport.
	Close() error
}

// toMessage converts a WireMessage into the core's Message, applying the
// lossy UTF-8 decoding spec.md §3 requires for inbound Text frames.
func (w WireMessage) toMessage() Message {
	switch w.Type {
	case TextMessage:
		return textFromWire(w.Data)
	case CloseMessage:
		return NewClose()
	default:
		return Message{typ: w.Type, data: w.Data}
	}
}

func fromMessage(m Message) WireMessage {
	return WireMessage{Type: m.typ, Data: m.data}
}

// Upgrader is the handshake half of the framing library contract: given a
// raw TCP stream already peeked for the "Upgrade: websocket" header, it
// performs the WebSocket handshake and hands back a WireConn ready for the
// session runtime. The listener's demultiplex peek consumes nothing: the
// conn it passes replays the peeked bytes on Read, so the upgrader parses
// the whole request from conn. The Router passes nil for peeked.
//
// The core package never implements this itself — see package wsgorilla for
// the concrete adapter over github.com/gorilla/websocket.
type Upgrader interface {
	Upgrade(ctx context.Context, conn net.Conn, peeked []byte) (UpgradeResult, error)
}

// UpgradeResult is what a successful Upgrade produces: the framing
// connection plus the negotiated subprotocol, if any.
type UpgradeResult struct {
	Conn     WireConn
	Protocol string
}
