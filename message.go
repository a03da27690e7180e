package wsforge

import (
	"encoding/json"
	"strings"
)

// MessageType categorizes a Message into one of the five WebSocket frame
// kinds the core understands. Control frames are exposed so middleware can
// observe them, but the session runtime never hands a Close frame to a
// handler.
type MessageType int

const (
	// TextMessage carries UTF-8 text.
	TextMessage MessageType = iota
	// BinaryMessage carries an opaque byte payload.
	BinaryMessage
	// PingMessage is a keep-alive probe.
	PingMessage
	// PongMessage answers a PingMessage.
	PongMessage
	// CloseMessage terminates the session. It never carries a payload in
	// this design.
	CloseMessage
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	case PingMessage:
		return "ping"
	case PongMessage:
		return "pong"
	case CloseMessage:
		return "close"
	default:
		return "unknown"
	}
}

// Message is an immutable tagged payload exchanged with a client. Values are
// cheap to duplicate: copying a Message never copies the handler pipeline or
// the connection it arrived on.
type Message struct {
	typ  MessageType
	data []byte
}

// NewText builds a Text message. The string is assumed well-formed UTF-8 —
// this constructor is for outbound messages the application builds itself.
func NewText(s string) Message {
	return Message{typ: TextMessage, data: []byte(s)}
}

// NewBinary builds a Binary message from the given bytes.
func NewBinary(b []byte) Message {
	return Message{typ: BinaryMessage, data: append([]byte(nil), b...)}
}

// NewPing builds a Ping message with optional application data.
func NewPing(b []byte) Message {
	return Message{typ: PingMessage, data: append([]byte(nil), b...)}
}

// NewPong builds a Pong message with optional application data.
func NewPong(b []byte) Message {
	return Message{typ: PongMessage, data: append([]byte(nil), b...)}
}

// NewClose builds a Close message. Close never carries a payload.
func NewClose() Message {
	return Message{typ: CloseMessage}
}

// textFromWire decodes an inbound Text frame using lossy UTF-8 conversion so
// that a malformed frame never evicts the whole session — the payload is
// still delivered, just with replacement characters where needed.
func textFromWire(b []byte) Message {
	return Message{typ: TextMessage, data: []byte(strings.ToValidUTF8(string(b), "�"))}
}

// Type reports the message's tag.
func (m Message) Type() MessageType { return m.typ }

// IsText reports whether the message is a Text frame.
func (m Message) IsText() bool { return m.typ == TextMessage }

// IsBinary reports whether the message is a Binary frame.
func (m Message) IsBinary() bool { return m.typ == BinaryMessage }

// Bytes returns the raw payload. The caller must not mutate the result.
func (m Message) Bytes() []byte { return m.data }

// Text returns the payload decoded as a string, and whether the message was
// actually a Text frame. A Binary/Ping/Pong/Close message always yields
// ("", false).
func (m Message) Text() (string, bool) {
	if m.typ != TextMessage {
		return "", false
	}
	return string(m.data), true
}

// JSON unmarshals the Text payload into v. It fails with KindInvalidMessage
// if the message is not Text, or KindSerialization if the payload does
// not parse.
func (m Message) JSON(v any) error {
	if m.typ != TextMessage {
		return newError(KindInvalidMessage, "message is not text")
	}
	if err := json.Unmarshal(m.data, v); err != nil {
		return wrapError(KindSerialization, "decoding json message", err)
	}
	return nil
}

// TextJSON serializes v to JSON and wraps it as a Text message.
func TextJSON(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, wrapError(KindSerialization, "encoding json message", err)
	}
	return Message{typ: TextMessage, data: data}, nil
}
