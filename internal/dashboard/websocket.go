package dashboard

import (
	"errors"
	"net/http"
	"strings"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/planner"
	"HealthBuddy/internal/utility"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	EventChatReply = "CHAT_REPLY"
	EventError     = "ERROR"
)

// SocketReply is written for each text frame received on /ws.
type SocketReply struct {
	Type     string                `json:"type"`
	Exchange *planner.ChatExchange `json:"exchange,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ChatWebSocketHandler upgrades the request and treats every text frame as a chat
// message. The socket also receives the session's pushed events.
func ChatWebSocketHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	// Resolve the session before upgrading so a stale token gets a plain 404.
	if _, err := service.Get(c.Request().Context(), sessionID); err != nil {
		return writeError(c, err)
	}

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already answered the client.
		utility.LoggerFromContext(c).Error().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	client := utility.NewClient(conn)
	hub.Register(sessionID, client)
	defer func() {
		hub.Unregister(sessionID, client)
		conn.Close()
	}()

	logger := utility.LoggerFromContext(c).With().Str("session_id", sessionID).Logger()
	ctx := logger.WithContext(c.Request().Context())

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := SocketReply{Type: EventChatReply}
		exchange, err := service.Chat(ctx, sessionID, strings.TrimSpace(string(data)))
		switch {
		case err == nil:
			reply.Exchange = &exchange
		case errors.Is(err, chat.ErrEmptyMessage):
			reply = SocketReply{Type: EventError, Error: "Message must not be empty"}
		case errors.Is(err, planner.ErrSessionNotFound):
			_ = client.WriteJSON(SocketReply{Type: EventError, Error: "Session not found or expired"})
			return nil
		default:
			zerolog.Ctx(ctx).Error().Err(err).Msg("WebSocket chat failed")
			reply = SocketReply{Type: EventError, Error: "Internal server error"}
		}

		if err := client.WriteJSON(reply); err != nil {
			logger.Error().Err(err).Msg("Failed to write WebSocket reply")
			return nil
		}
	}
}
