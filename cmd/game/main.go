// Command game is a real-time multiplayer relay, ported from
// original_source/examples/realtime-game: player moves, shots, and chat
// lines all arrive as one tagged JSON message and get rebroadcast to the
// other players. Wires RequestID and a prometheus dispatch counter.
package main

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/logger"
	mw "github.com/wsforge-go/wsforge/middleware"
	"github.com/wsforge-go/wsforge/wsgorilla"
)

// GameMessage is the tagged union the client sends on /game: exactly one of
// Position/TargetID/Message is populated, selected by Type.
type GameMessage struct {
	Type     string   `json:"type"`
	Position Position `json:"position,omitempty"`
	TargetID string   `json:"target_id,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Position is a player's location in the 3D game world.
type Position struct {
	PlayerID string  `json:"player_id"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Z        float32 `json:"z"`
}

var gameDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wsforge_game",
	Name:      "messages_total",
	Help:      "Total /game messages handled, by message type.",
}, []string{"type"})

func extractGameMessage(ctx *wsforge.Context) (GameMessage, error) {
	text, _ := ctx.Message.Text()
	if idx := strings.IndexAny(text, " \t\r\n"); idx >= 0 {
		text = text[idx+1:]
	}
	return wsforge.ExtractJSON[GameMessage](&wsforge.Context{Message: wsforge.NewText(text)})
}

func gameHandler(ctx *wsforge.Context, msg GameMessage, conn wsforge.Connection, registry *wsforge.ConnectionRegistry) (wsforge.Response, error) {
	gameDispatchTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case "move":
		logger.Dispatch().Info().Str("player_id", msg.Position.PlayerID).Msg("player moved")
		update, err := wsforge.TextJSON(map[string]any{
			"type":      "position_update",
			"player_id": msg.Position.PlayerID,
			"x":         msg.Position.X,
			"y":         msg.Position.Y,
			"z":         msg.Position.Z,
		})
		if err != nil {
			return wsforge.Response{}, err
		}
		registry.BroadcastExcept(conn.ID(), update)

	case "shoot":
		logger.Dispatch().Info().Str("shooter_id", string(conn.ID())).Str("target_id", msg.TargetID).Msg("shot fired")
		event, err := wsforge.TextJSON(map[string]any{
			"type":       "shot_fired",
			"shooter_id": conn.ID(),
			"target_id":  msg.TargetID,
		})
		if err != nil {
			return wsforge.Response{}, err
		}
		registry.Broadcast(event)

	case "chat":
		logger.Dispatch().Info().Str("player_id", string(conn.ID())).Msg("game chat")
		chat, err := wsforge.TextJSON(map[string]any{
			"type":      "chat",
			"player_id": conn.ID(),
			"message":   msg.Message,
		})
		if err != nil {
			return wsforge.Response{}, err
		}
		registry.Broadcast(chat)

	default:
		return wsforge.Response{}, wsforge.NewCustomError("unknown game message type: " + msg.Type)
	}

	return wsforge.NoResponse(), nil
}

func main() {
	logger.Initialize("info", true)
	prometheus.MustRegister(gameDispatchTotal)

	router := wsforge.NewRouter().
		Use(mw.RequestID()).
		Route("/game", wsforge.H3(extractGameMessage, wsforge.ExtractConnection, wsforge.ExtractState[*wsforge.ConnectionRegistry], gameHandler)).
		OnConnect(func(registry *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("player joined")
			spawn, err := wsforge.TextJSON(map[string]any{"type": "player_joined", "player_id": id})
			if err == nil {
				registry.Broadcast(spawn)
			}
		}).
		OnDisconnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
			logger.Connection().Info().Str("conn_id", string(id)).Msg("player left")
		}).
		WithUpgrader(wsgorilla.New(wsgorilla.Config{}))

	logger.Broadcast().Info().Msg("game server running on ws://127.0.0.1:9001")
	if err := router.Listen(context.Background(), "127.0.0.1:9001"); err != nil {
		logger.Broadcast().Fatal().Err(err).Msg("listener failed")
	}
}
