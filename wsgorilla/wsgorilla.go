// Package wsgorilla adapts github.com/gorilla/websocket to the
// wsforge.WireConn / wsforge.Upgrader contracts, so the core package never
// needs to import a framing library directly. This is the only non-test
// package in the module that imports gorilla/websocket.
package wsgorilla

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wsforge-go/wsforge"
)

// Config mirrors the subset of gorilla's websocket.Upgrader that matters for
// a server demultiplexing raw TCP: buffer sizes, origin policy, and
// subprotocol negotiation. Grounded on the CheckOrigin allow-list pattern
// from the teacher's enterprise WebSocket handler.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	Subprotocols    []string
	// CheckOrigin validates the handshake's Origin header. Defaults to
	// same-origin-or-absent when nil; callers serving cross-origin clients
	// must supply an explicit allow-list.
	CheckOrigin func(r *http.Request) bool
	// HandshakeTimeout bounds how long the HTTP parse + gorilla handshake
	// may take once bytes have already been peeked by the listener.
	HandshakeTimeout time.Duration
}

// Upgrader implements wsforge.Upgrader over gorilla/websocket.
type Upgrader struct {
	inner websocket.Upgrader
}

// New builds an Upgrader from cfg.
func New(cfg Config) *Upgrader {
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = defaultCheckOrigin
	}
	return &Upgrader{inner: websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		Subprotocols:    cfg.Subprotocols,
		CheckOrigin:     checkOrigin,
		HandshakeTimeout: func() time.Duration {
			if cfg.HandshakeTimeout > 0 {
				return cfg.HandshakeTimeout
			}
			return 5 * time.Second
		}(),
	}}
}

func defaultCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
}

// Upgrade implements wsforge.Upgrader: it parses the HTTP request the
// listener already peeked the opening bytes of, then runs the gorilla
// handshake by hijacking conn through a minimal http.ResponseWriter shim.
func (u *Upgrader) Upgrade(ctx context.Context, conn net.Conn, _ []byte) (wsforge.UpgradeResult, error) {
	reader := bufio.NewReader(conn)
	req, err := http.ReadRequest(reader)
	if err != nil {
		return wsforge.UpgradeResult{}, fmt.Errorf("wsgorilla: parsing handshake request: %w", err)
	}
	req = req.WithContext(ctx)

	rw := &hijackWriter{conn: conn, reader: reader, header: make(http.Header)}
	wsConn, err := u.inner.Upgrade(rw, req, nil)
	if err != nil {
		return wsforge.UpgradeResult{}, fmt.Errorf("wsgorilla: handshake: %w", err)
	}

	return wsforge.UpgradeResult{
		Conn:     &wireConn{conn: wsConn},
		Protocol: wsConn.Subprotocol(),
	}, nil
}

// hijackWriter is the minimal http.ResponseWriter + http.Hijacker gorilla's
// Upgrade needs: it never serves a full HTTP response body, only either the
// handshake's 101 switching-protocols reply (written directly to the
// hijacked conn by gorilla) or a rejection status on failure.
type hijackWriter struct {
	conn       net.Conn
	reader     *bufio.Reader
	header     http.Header
	statusCode int
}

func (w *hijackWriter) Header() http.Header { return w.header }

func (w *hijackWriter) Write(b []byte) (int, error) { return w.conn.Write(b) }

func (w *hijackWriter) WriteHeader(statusCode int) { w.statusCode = statusCode }

func (w *hijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw := bufio.NewReadWriter(w.reader, bufio.NewWriter(w.conn))
	return w.conn, rw, nil
}

// wireConn adapts *websocket.Conn to wsforge.WireConn.
type wireConn struct {
	conn *websocket.Conn
}

func (w *wireConn) ReadMessage(ctx context.Context) (wsforge.WireMessage, error) {
	typ, data, err := w.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return wsforge.WireMessage{}, ctx.Err()
		}
		return wsforge.WireMessage{}, fmt.Errorf("wsgorilla: read: %w", err)
	}
	return wsforge.WireMessage{Type: fromGorillaType(typ), Data: data}, nil
}

func (w *wireConn) WriteMessage(ctx context.Context, msg wsforge.WireMessage) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := w.conn.WriteMessage(toGorillaType(msg.Type), msg.Data); err != nil {
		return fmt.Errorf("wsgorilla: write: %w", err)
	}
	return nil
}

func (w *wireConn) Close() error {
	w.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
	return w.conn.Close()
}

func fromGorillaType(t int) wsforge.MessageType {
	switch t {
	case websocket.TextMessage:
		return wsforge.TextMessage
	case websocket.BinaryMessage:
		return wsforge.BinaryMessage
	case websocket.PingMessage:
		return wsforge.PingMessage
	case websocket.PongMessage:
		return wsforge.PongMessage
	case websocket.CloseMessage:
		return wsforge.CloseMessage
	default:
		return wsforge.BinaryMessage
	}
}

func toGorillaType(t wsforge.MessageType) int {
	switch t {
	case wsforge.TextMessage:
		return websocket.TextMessage
	case wsforge.BinaryMessage:
		return websocket.BinaryMessage
	case wsforge.PingMessage:
		return websocket.PingMessage
	case wsforge.PongMessage:
		return websocket.PongMessage
	case wsforge.CloseMessage:
		return websocket.CloseMessage
	default:
		return websocket.BinaryMessage
	}
}
