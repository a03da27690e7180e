package wsforge

import (
	"sync"

	"github.com/wsforge-go/wsforge/logger"
)

// ConnectionRegistry is the concurrent map of live Connections, indexed by
// ConnectionID, plus the broadcast primitives built on top of it. A
// Connection appears here strictly between the post-handshake registration
// done by the session runtime and the on_disconnect hook.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[ConnectionID]Connection

	broadcastObserver func(sent, failed int)
}

// NewConnectionRegistry returns an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[ConnectionID]Connection)}
}

// SetBroadcastObserver installs fn to be called after every Broadcast /
// BroadcastExcept / BroadcastTo with the sent/failed enqueue counts. The
// core package never imports wsforge/metrics directly (that would be an
// import cycle); a host wires this to metrics.ObserveBroadcast instead.
func (r *ConnectionRegistry) SetBroadcastObserver(fn func(sent, failed int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastObserver = fn
}

// Add inserts conn and returns the registry size immediately after.
func (r *ConnectionRegistry) Add(conn Connection) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
	return len(r.conns)
}

// Remove deletes the connection with the given id, returning it if present.
func (r *ConnectionRegistry) Remove(id ConnectionID) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return c, ok
}

// Get looks up the connection with the given id.
func (r *ConnectionRegistry) Get(id ConnectionID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Count reports the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// AllIDs returns a snapshot of every live connection id.
func (r *ConnectionRegistry) AllIDs() []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ConnectionID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// AllConnections returns a snapshot of every live connection.
func (r *ConnectionRegistry) AllConnections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast enqueues message onto every live connection's outbound queue.
// Failures are logged and counted but never stop the iteration — a single
// stuck client must not prevent delivery to the rest.
func (r *ConnectionRegistry) Broadcast(message Message) {
	r.broadcastFiltered(message, func(ConnectionID) bool { return true })
}

// BroadcastExcept is Broadcast, skipping the named connection.
func (r *ConnectionRegistry) BroadcastExcept(except ConnectionID, message Message) {
	r.broadcastFiltered(message, func(id ConnectionID) bool { return id != except })
}

// BroadcastTo enqueues message only onto the listed connections. Unknown ids
// are silently ignored.
func (r *ConnectionRegistry) BroadcastTo(ids []ConnectionID, message Message) {
	want := make(map[ConnectionID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.broadcastFiltered(message, func(id ConnectionID) bool { return want[id] })
}

func (r *ConnectionRegistry) broadcastFiltered(message Message, include func(ConnectionID) bool) {
	conns := r.AllConnections()
	failed := 0
	sent := 0
	for _, c := range conns {
		if !include(c.ID()) {
			continue
		}
		if err := c.Send(message); err != nil {
			failed++
			continue
		}
		sent++
	}
	if failed > 0 {
		logger.Broadcast().Warn().
			Int("sent", sent).
			Int("failed", failed).
			Msg("broadcast enqueue failures")
	}

	r.mu.RLock()
	observer := r.broadcastObserver
	r.mu.RUnlock()
	if observer != nil {
		observer(sent, failed)
	}
}
