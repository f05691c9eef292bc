package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/service"
	internalWS "pharmarag-chat/internal/websocket"
)

const localSocketSession = "ws_session_id"

// EventsHandler streams workspace events of one session over a websocket.
type EventsHandler struct {
	workspaces service.WorkspaceResolver
	tokens     *serverutils.SessionTokens
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewEventsHandler(workspaces service.WorkspaceResolver, tokens *serverutils.SessionTokens, hub *internalWS.Hub, log logger.ILogger) *EventsHandler {
	return &EventsHandler{
		workspaces: workspaces,
		tokens:     tokens,
		hub:        hub,
		logger:     log,
	}
}

func (h *EventsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.tokens.Middleware(), h.Upgrade, websocket.New(h.serve))
}

// Upgrade rejects plain HTTP requests and sessions whose workspace expired.
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	sessionID, err := serverutils.SessionID(c)
	if err != nil {
		return err
	}
	if _, err := h.workspaces.Resolve(sessionID); err != nil {
		h.logger.Warn("EventsHandler", "Websocket for unknown session", map[string]interface{}{"session_id": sessionID})
		return err
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	c.Locals(localSocketSession, sessionID)
	return c.Next()
}

func (h *EventsHandler) serve(c *websocket.Conn) {
	sessionID, _ := c.Locals(localSocketSession).(string)
	h.logger.Info("EventsHandler", "Websocket connected", map[string]interface{}{"session_id": sessionID})
	internalWS.ServeWs(h.hub, c, sessionID)
}
