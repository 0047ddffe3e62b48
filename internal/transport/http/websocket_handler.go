package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"datalens/internal/infrastructure"
	ws "datalens/internal/websocket"
)

// WebSocketHandler upgrades connections and hands them to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a websocket handler. checkOrigin decides which
// origins may connect; nil allows all, for same-origin deployments behind
// the embedded UI.
func NewWebSocketHandler(hub *ws.Hub, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.With(slog.String("component", "websocket_handler")),
	}
}

// ServeHTTP handles GET /ws.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response.
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ws.ServeWS(h.hub, conn, infrastructure.GetTraceID(r.Context()), h.logger)
}
