package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
)

type notificationSubscriber interface {
	flashSource
	Subscribe(key string) (<-chan models.Notification, func())
}

type notificationEvent struct {
	Event        string              `json:"event"`
	Notification models.Notification `json:"notification"`
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty list permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams workspace notifications to the browser.
type WSHandler struct {
	hub          notificationSubscriber
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub notificationSubscriber, logger *zap.Logger, allowedOrigins []string) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		hub:          hub,
		logger:       logger.With(zap.String("component", "ws_handler")),
		upgrader:     buildUpgrader(allowedOrigins),
		pingInterval: wsPingInterval,
	}
}

// Notifications upgrades to WebSocket and pushes every notification of the
// workspace until the browser goes away. Messages queued while no socket was
// open are sent first.
func (h *WSHandler) Notifications(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(ws.ID)
	defer cancel()

	log := h.logger.With(zap.String("workspace", ws.ID))
	log.Debug("notification stream opened")

	for _, n := range h.hub.Drain(ws.ID) {
		if err := writeNotification(conn, n); err != nil {
			return
		}
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("unexpected close", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			log.Debug("notification stream closed")
			return
		case n, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := writeNotification(conn, n); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeNotification(conn *websocket.Conn, n models.Notification) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(notificationEvent{Event: "notification", Notification: n})
}
