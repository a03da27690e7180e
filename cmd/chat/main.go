// Command chat is a broadcast chat room, ported from
// original_source/examples/chat: every message on /chat is fanned out to
// every other connection, /broadcast reaches everyone including the
// sender, and /stats reports the live connection count. Wires SanitizeText
// so one user's message can't carry HTML into another client's renderer.
package main

import (
	"context"
	"strings"
	"time"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/admin"
	"github.com/wsforge-go/wsforge/logger"
	mw "github.com/wsforge-go/wsforge/middleware"
	"github.com/wsforge-go/wsforge/metrics"
	"github.com/wsforge-go/wsforge/wsgorilla"
)

// ChatMessage mirrors the JSON shape of the original Rust example.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func chatHandler(ctx *wsforge.Context, msg ChatMessage, conn wsforge.Connection, registry *wsforge.ConnectionRegistry) (wsforge.Response, error) {
	logger.Dispatch().Info().Str("username", msg.Username).Msg("chat message")

	out := ChatMessage{Username: msg.Username, Message: msg.Message, Timestamp: time.Now().Unix()}
	reply, err := wsforge.TextJSON(out)
	if err != nil {
		return wsforge.Response{}, err
	}
	registry.BroadcastExcept(conn.ID(), reply)
	return wsforge.NoResponse(), nil
}

func broadcastHandler(ctx *wsforge.Context, msg ChatMessage, registry *wsforge.ConnectionRegistry) (wsforge.Response, error) {
	reply, err := wsforge.TextJSON(msg)
	if err != nil {
		return wsforge.Response{}, err
	}
	registry.Broadcast(reply)
	return wsforge.TextResponse("Broadcast sent"), nil
}

func statsHandler(ctx *wsforge.Context, registry *wsforge.ConnectionRegistry) (wsforge.Response, error) {
	return wsforge.JSONResponse(map[string]any{
		"total_connections": registry.Count(),
		"connection_ids":    registry.AllIDs(),
	})
}

func extractChatMessage(ctx *wsforge.Context) (ChatMessage, error) {
	text, _ := ctx.Message.Text()
	if idx := strings.IndexAny(text, " \t\r\n"); idx >= 0 {
		text = text[idx+1:]
	}
	return wsforge.ExtractJSON[ChatMessage](&wsforge.Context{Message: wsforge.NewText(text)})
}

func main() {
	logger.Initialize("info", true)

	router := wsforge.NewRouter().
		Use(mw.RequestID()).
		Use(mw.SanitizeText()).
		Route("/chat", wsforge.H3(extractChatMessage, wsforge.ExtractConnection, wsforge.ExtractState[*wsforge.ConnectionRegistry], chatHandler)).
		Route("/broadcast", wsforge.H2(extractChatMessage, wsforge.ExtractState[*wsforge.ConnectionRegistry], broadcastHandler)).
		Route("/stats", wsforge.H1(wsforge.ExtractState[*wsforge.ConnectionRegistry], statsHandler)).
		OnConnect(func(registry *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("user joined the chat")
			welcome := ChatMessage{Username: "System", Message: "User " + string(id) + " joined the chat", Timestamp: time.Now().Unix()}
			if msg, err := wsforge.TextJSON(welcome); err == nil {
				registry.Broadcast(msg)
			}
		}).
		OnDisconnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("user left the chat")
		}).
		WithUpgrader(wsgorilla.New(wsgorilla.Config{}))

	router.SetDispatchObserver(metrics.ObserveDispatch)
	router.Registry().SetBroadcastObserver(metrics.ObserveBroadcast)

	ctx := context.Background()
	adminServer := admin.New("127.0.0.1:9090", router.Registry(), nil)
	go func() {
		if err := adminServer.Run(ctx); err != nil {
			logger.Admin().Error().Err(err).Msg("admin server failed")
		}
	}()

	logger.Broadcast().Info().Msg("chat server running on ws://127.0.0.1:9000")
	if err := router.Listen(ctx, "127.0.0.1:9000"); err != nil {
		logger.Broadcast().Fatal().Err(err).Msg("listener failed")
	}
}
