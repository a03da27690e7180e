// Command echo is the simplest wsforge example: it echoes back whatever a
// client sends, on two routes (raw text and JSON), ported from
// original_source/examples/echo.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/logger"
	"github.com/wsforge-go/wsforge/wsgorilla"
)

func echoHandler(ctx *wsforge.Context, msg wsforge.Message, conn wsforge.Connection) (wsforge.Response, error) {
	logger.Dispatch().Info().Str("conn_id", string(conn.ID())).Msg("echo")
	return wsforge.MessageResponse(msg), nil
}

func jsonEchoHandler(ctx *wsforge.Context, data any, conn wsforge.Connection) (wsforge.Response, error) {
	logger.Dispatch().Info().Str("conn_id", string(conn.ID())).Msg("json echo")
	return wsforge.TextResponse(fmt.Sprintf("Echo: %v", data)), nil
}

func defaultHandler(ctx *wsforge.Context, msg wsforge.Message) (wsforge.Response, error) {
	text, _ := msg.Text()
	return wsforge.TextResponse("Unknown route. You sent: " + text), nil
}

func extractJSONAny(ctx *wsforge.Context) (any, error) {
	text, _ := ctx.Message.Text()
	if idx := strings.IndexAny(text, " \t\r\n"); idx >= 0 {
		text = text[idx+1:]
	}
	var v any
	if err := wsforge.NewText(text).JSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func main() {
	logger.Initialize("info", true)

	router := wsforge.NewRouter().
		Route("/echo", wsforge.H2(wsforge.ExtractMessage, wsforge.ExtractConnection, echoHandler)).
		Route("/json", wsforge.H2(extractJSONAny, wsforge.ExtractConnection, jsonEchoHandler)).
		Default(wsforge.H1(wsforge.ExtractMessage, defaultHandler)).
		OnConnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("client connected")
		}).
		OnDisconnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("client disconnected")
		}).
		WithUpgrader(wsgorilla.New(wsgorilla.Config{}))

	logger.Broadcast().Info().Msg("echo server running on ws://127.0.0.1:8080")
	if err := router.Listen(context.Background(), "127.0.0.1:8080"); err != nil {
		logger.Broadcast().Fatal().Err(err).Msg("listener failed")
	}
}
