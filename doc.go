// Package wsforge is a general-purpose WebSocket server framework: a single
// TCP listener that demultiplexes a minimal HTTP/1.1 static-file subset from
// the WebSocket upgrade flow, a concurrent connection registry with
// broadcast primitives, and a typed extractor/middleware/handler dispatch
// pipeline for inbound messages.
//
// The framing codec itself (handshake, masking, fragmentation, control
// frames) is an external collaborator: wsforge depends only on the WireConn
// and Upgrader interfaces in wire.go. Package wsgorilla supplies the concrete adapter over
// github.com/gorilla/websocket.
package wsforge
