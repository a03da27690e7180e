package wsforge

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"time"

	"github.com/wsforge-go/wsforge/logger"
)

// peekBudget bounds the initial HTTP-vs-WebSocket sniff so a half-open
// socket cannot pin an accept-spawned goroutine forever. spec.md §5 fixes
// this at 5 seconds.
const peekBudget = 5 * time.Second

// peekSize bounds how many leading bytes of the request are inspected for
// the upgrade header, per spec.md §6. It is a ceiling, not a target: peekRequest
// classifies as soon as a full header block (or this many bytes) is seen,
// rather than forcing every connection to fill the buffer.
const peekSize = 1024

// headerTerminator marks the end of the request line plus headers, for
// either an HTTP request or a WebSocket handshake (itself just HTTP).
var headerTerminator = []byte("\r\n\r\n")

// Router is the programmatic builder and runtime for C11: the TCP accept
// loop, the HTTP-vs-WebSocket demultiplexer, the route table, and the
// per-message dispatch glue tying everything in this package together. The
// zero value is not usable; build one with NewRouter.
type Router struct {
	routes         map[string]Handler
	defaultHandler Handler
	middleware     []Middleware

	state    *StateMap
	registry *ConnectionRegistry

	onConnect    Hook
	onDisconnect Hook

	upgrader Upgrader

	staticRoot  string
	staticIndex string

	queueCapacity int
	overflow      OverflowPolicy

	dispatchObserver func(route string, err error)
}

// NewRouter returns a Router with an empty route table, a fresh StateMap,
// and a fresh ConnectionRegistry already installed as shared state (per
// spec.md §3: "the registry itself is always inserted as one of the stored
// values so handlers can reach it").
func NewRouter() *Router {
	r := &Router{
		routes:      make(map[string]Handler),
		state:       NewStateMap(),
		registry:    NewConnectionRegistry(),
		staticIndex: "index.html",
	}
	InsertState(r.state, r.registry)
	return r
}

// Route registers handler under path, matched per the routing convention in
// spec.md §6 (first whitespace-delimited token of a leading-"/" Text
// message).
func (r *Router) Route(path string, handler Handler) *Router {
	r.routes[path] = handler
	return r
}

// Default installs the fallback handler used when no route matches.
func (r *Router) Default(handler Handler) *Router {
	r.defaultHandler = handler
	return r
}

// Use appends mw to the router's middleware chain, run in registration
// order ahead of whichever handler a dispatch resolves to.
func (r *Router) Use(mw Middleware) *Router {
	r.middleware = append(r.middleware, mw)
	return r
}

// OnConnect installs the connect hook, invoked after registry insertion.
func (r *Router) OnConnect(hook Hook) *Router {
	r.onConnect = hook
	return r
}

// OnDisconnect installs the disconnect hook, invoked after registry removal.
func (r *Router) OnDisconnect(hook Hook) *Router {
	r.onDisconnect = hook
	return r
}

// WithUpgrader installs the WebSocket handshake adapter (see package
// wsgorilla). Listen refuses to start without one.
func (r *Router) WithUpgrader(u Upgrader) *Router {
	r.upgrader = u
	return r
}

// ServeStatic enables the HTTP file path rooted at root, falling back to
// index for directory requests. An empty index keeps the default
// "index.html".
func (r *Router) ServeStatic(root string, index string) *Router {
	r.staticRoot = root
	if index != "" {
		r.staticIndex = index
	}
	return r
}

// WithQueueCapacity bounds each session's outbound queue and selects the
// overflow policy applied once full. capacity 0 (the default) keeps the
// queue unbounded, matching spec.md §4.10's baseline design.
func (r *Router) WithQueueCapacity(capacity int, overflow OverflowPolicy) *Router {
	r.queueCapacity = capacity
	r.overflow = overflow
	return r
}

// SetDispatchObserver installs fn to be called after every completed
// dispatch with the resolved route key ("default" for a fallback/no-match)
// and the handler/middleware error, if any. The core package never imports
// wsforge/metrics directly (that would be an import cycle); a host wires
// this to metrics.ObserveDispatch instead.
func (r *Router) SetDispatchObserver(fn func(route string, err error)) *Router {
	r.dispatchObserver = fn
	return r
}

// State returns the router's StateMap so callers can InsertState before
// Listen starts serving. spec.md §3: the StateMap is populated before the
// listener starts and is read-only from the dispatch path thereafter.
func (r *Router) State() *StateMap { return r.state }

// Registry returns the router's ConnectionRegistry.
func (r *Router) Registry() *ConnectionRegistry { return r.registry }

// Listen binds addr and runs the accept loop until ctx is cancelled or
// accept fails unrecoverably.
func (r *Router) Listen(ctx context.Context, addr string) error {
	if r.upgrader == nil {
		return newError(KindTransport, "router has no upgrader installed, cannot demultiplex WebSocket traffic")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return wrapError(KindTransport, "listen on "+addr, err)
	}
	defer ln.Close()

	logger.Broadcast().Info().Str("addr", addr).Msg("listener started")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return wrapError(KindTransport, "accept", err)
			}
		}
		go r.handleAccepted(ctx, conn)
	}
}

// handleAccepted implements the per-accepted-connection state machine from
// spec.md §4.11: peek, classify, and either hand off to the WS handshake or
// the static-file responder.
func (r *Router) handleAccepted(ctx context.Context, conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	conn.SetReadDeadline(time.Now().Add(peekBudget))
	reader := bufio.NewReaderSize(conn, peekSize)
	peeked, err := peekRequest(reader)
	if err != nil && len(peeked) == 0 {
		logger.Connection().Debug().Str("remote_addr", remoteAddr).Err(err).Msg("peek failed, closing")
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	if containsUpgradeHeader(peeked) {
		r.handleUpgrade(ctx, conn, reader, remoteAddr)
		return
	}

	if r.staticRoot != "" {
		r.serveStatic(reader, conn, remoteAddr)
		return
	}

	logger.Connection().Warn().Str("remote_addr", remoteAddr).Msg("neither WebSocket upgrade nor static file handler configured, closing")
	conn.Close()
}

// peekRequest looks far enough into reader to classify the connection
// without forcing a full peekSize fill: bufio.Reader.Peek(n) blocks until n
// bytes have arrived, and almost every real request (a handshake, a static
// GET) is well under peekSize, so asking for the full buffer up front stalls
// every connection for the whole peek budget. Instead this peeks whatever
// the first read delivered, then grows the probe only while the header
// terminator hasn't shown up yet and there is still room under peekSize.
func peekRequest(reader *bufio.Reader) ([]byte, error) {
	peeked, err := reader.Peek(1)
	if err != nil {
		return peeked, err
	}
	for {
		avail := reader.Buffered()
		peeked, _ = reader.Peek(avail)
		if bytes.Contains(peeked, headerTerminator) || avail >= peekSize {
			return peeked, nil
		}
		grown, err := reader.Peek(avail + 1)
		if err != nil {
			// Whatever arrived before the deadline/EOF is all we'll get.
			return peeked, nil
		}
		peeked = grown
	}
}

func containsUpgradeHeader(peeked []byte) bool {
	return strings.Contains(strings.ToLower(string(peeked)), "upgrade: websocket")
}

// bufferedConn adapts a bufio.Reader back onto net.Conn so downstream code
// (the upgrader, the static-file responder) sees one io.ReadWriteCloser
// that never loses the bytes already buffered by the initial peek.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (b bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }

func (r *Router) handleUpgrade(ctx context.Context, conn net.Conn, reader *bufio.Reader, remoteAddr string) {
	bc := bufferedConn{Conn: conn, r: reader}
	result, err := r.upgrader.Upgrade(ctx, bc, nil)
	if err != nil {
		logger.Connection().Warn().Str("remote_addr", remoteAddr).Err(err).Msg("websocket handshake failed")
		conn.Close()
		return
	}

	info := ConnectionInfo{
		ID:          nextConnectionID(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		Protocol:    result.Protocol,
	}

	runSession(ctx, sessionConfig{
		wire:          result.Conn,
		info:          info,
		registry:      r.registry,
		dispatcher:    r,
		onConnect:     r.onConnect,
		onDisconnect:  r.onDisconnect,
		queueCapacity: r.queueCapacity,
		overflow:      r.overflow,
	})
}

// Dispatch implements Dispatcher for the session runtime: spec.md §4.11's
// "WebSocket dispatch per message" steps 1-5.
func (r *Router) Dispatch(connID ConnectionID, msg Message) {
	conn, ok := r.registry.Get(connID)
	if !ok {
		logger.Dispatch().Warn().Str("conn_id", string(connID)).Msg("dispatch targeted connection no longer in registry")
		return
	}

	handler := r.resolveHandler(msg)
	if handler == nil {
		logger.Dispatch().Warn().Str("conn_id", string(connID)).Msg("no route matched and no default handler configured, dropping message")
		return
	}

	ctx := &Context{
		Message: msg,
		Conn:    conn,
		State:   r.state,
		Ext:     NewExtensions(),
	}

	chain := NewMiddlewareChain(handler)
	for _, mw := range r.middleware {
		chain.Use(mw)
	}

	resp, err := chain.Run(ctx)
	if r.dispatchObserver != nil {
		route := r.routeKey(msg)
		if route == "" {
			route = "default"
		}
		r.dispatchObserver(route, err)
	}
	reply, ok := dispatchResponse(resp, err)
	if !ok {
		return
	}
	if sendErr := conn.Send(reply); sendErr != nil {
		logger.Dispatch().Warn().Str("conn_id", string(connID)).Err(sendErr).Msg("failed to enqueue dispatch reply")
	}
}

// routeKey returns the registered route matched by msg under the
// selection rule of spec.md §3/§6 (a Text message starting with "/" routes
// on its first whitespace-delimited token), or "" if nothing matched.
func (r *Router) routeKey(msg Message) string {
	if text, ok := msg.Text(); ok && strings.HasPrefix(text, "/") {
		key := text
		if idx := strings.IndexFunc(text, isRouteSeparator); idx >= 0 {
			key = text[:idx]
		}
		if _, ok := r.routes[key]; ok {
			return key
		}
	}
	return ""
}

// resolveHandler implements the route-selection rule from spec.md §3/§6:
// a Text message starting with "/" routes on its first whitespace-delimited
// token; anything else, or a miss, falls back to the default handler.
func (r *Router) resolveHandler(msg Message) Handler {
	if key := r.routeKey(msg); key != "" {
		return r.routes[key]
	}
	return r.defaultHandler
}

func isRouteSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
