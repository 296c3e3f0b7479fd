package handlers

import (
	"net/http"

	"github.com/dom/card-chess/internal/api/middleware"
	"github.com/dom/card-chess/internal/websocket"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
	log      *zap.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		log: log,
	}
}

// Handle upgrades the request. A valid session token resumes the previous
// connection id.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	resumeID, _ := middleware.GetConnID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, resumeID)
	h.hub.Register(client)
}
