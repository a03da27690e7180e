package wsforge

import (
	"context"
	"errors"

	"github.com/wsforge-go/wsforge/logger"
)

// Dispatcher hands one inbound Message off to the router's dispatch
// pipeline. The session runtime calls this from a freshly spawned goroutine
// per message so the read loop never awaits handler completion.
type Dispatcher interface {
	Dispatch(connID ConnectionID, msg Message)
}

// Hook is the shape of the on_connect / on_disconnect callables from
// spec.md §6. They run synchronously on the session's own goroutine.
type Hook func(registry *ConnectionRegistry, id ConnectionID)

// sessionConfig bundles everything runSession needs for one upgraded
// WebSocket stream.
type sessionConfig struct {
	wire          WireConn
	info          ConnectionInfo
	registry      *ConnectionRegistry
	dispatcher    Dispatcher
	onConnect     Hook
	onDisconnect  Hook
	queueCapacity int
	overflow      OverflowPolicy
}

// runSession implements spec.md §4.10: register, fire on_connect, run read
// and write loops concurrently until either terminates, deregister, fire
// on_disconnect. It blocks until the session ends.
func runSession(ctx context.Context, cfg sessionConfig) {
	queue := newOutboundQueue(cfg.queueCapacity, cfg.overflow)
	conn := newConnection(cfg.info, queue)

	count := cfg.registry.Add(conn)
	logger.Connection().Info().
		Str("conn_id", string(conn.ID())).
		Int("registry_size", count).
		Msg("connection registered")

	if cfg.onConnect != nil {
		cfg.onConnect(cfg.registry, conn.ID())
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{}, 2)
	go func() {
		writeLoop(sessionCtx, cfg.wire, queue)
		done <- struct{}{}
	}()
	go func() {
		readLoop(sessionCtx, cfg.wire, cfg.dispatcher, conn.ID())
		done <- struct{}{}
	}()

	// Either loop finishing ends the session; spec.md §5 requires the other
	// be cancelled. Closing the wire unblocks whichever loop is parked in a
	// blocking socket call, since WireConn has no ctx-aware read/write.
	<-done
	cancel()
	cfg.wire.Close()
	queue.close()
	<-done

	cfg.registry.Remove(conn.ID())
	logger.Connection().Info().
		Str("conn_id", string(conn.ID())).
		Msg("connection deregistered")

	if cfg.onDisconnect != nil {
		cfg.onDisconnect(cfg.registry, conn.ID())
	}
}

// writeLoop drains the outbound queue and writes each message to the wire in
// enqueue order, until the queue closes or a write fails.
func writeLoop(ctx context.Context, wire WireConn, queue *outboundQueue) {
	for {
		msg, ok := queue.pop()
		if !ok {
			return
		}
		if err := wire.WriteMessage(ctx, fromMessage(msg)); err != nil {
			logger.Connection().Warn().Err(err).Msg("write loop: transport error, ending session")
			return
		}
	}
}

// readLoop awaits frames from the wire and hands each off to the
// dispatcher, without waiting for the dispatch to complete. A Close frame
// ends the loop without reaching user handlers; any other transport error
// also ends it.
func readLoop(ctx context.Context, wire WireConn, dispatcher Dispatcher, connID ConnectionID) {
	for {
		wireMsg, err := wire.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Connection().Debug().Err(err).Msg("read loop: transport error, ending session")
			}
			return
		}
		if wireMsg.Type == CloseMessage {
			return
		}
		msg := wireMsg.toMessage()
		go dispatcher.Dispatch(connID, msg)
	}
}
