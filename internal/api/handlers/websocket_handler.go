// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"
	"time"

	"starhawk-api-server/internal/api/middleware"
	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Longest silence tolerated from a client before the connection is dropped.
const pongWait = 60 * time.Second

type WebSocketHandler struct {
	Hub      *socket.Hub
	Tokens   *auth.TokenManager
	Sessions middleware.SessionChecker
	Log      *zap.Logger
	// CheckOrigin defaults to allowing every origin when nil.
	CheckOrigin func(r *http.Request) bool
}

// ServeWs upgrades an authenticated request and keeps the connection registered
// until the client goes away. Browsers cannot set headers on a websocket
// handshake, so the token travels in ?token=.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		response.Error(c, http.StatusUnauthorized, "Access token required")
		return
	}
	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	active, err := h.Sessions.IsActive(c.Request.Context(), claims.ID)
	if err != nil {
		h.Log.Error("check websocket session", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !active {
		response.Error(c, http.StatusUnauthorized, "Session has been revoked")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID := claims.UserID
	h.Hub.Register(userID, conn)
	defer func() {
		h.Hub.Unregister(userID, conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	// A custom ping handler has to send the pong itself.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("websocket closed unexpectedly", zap.String("userId", userID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
