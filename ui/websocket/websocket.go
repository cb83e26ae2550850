package websocket

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	domainUser "github.com/washday/washday/domains/user"
	"github.com/washday/washday/pkg/security"
	"github.com/washday/washday/realtime/registry"
)

// wsChannel adapts one websocket connection to the registry's Channel
// interface. Writes are serialized: the fanout and the sync scheduler can
// both target the same connection.
type wsChannel struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

func (c *wsChannel) Send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// RegisterRoutes mounts the realtime status socket. The client passes its
// session token as a query parameter; the token must both parse and match
// the stored session, so logout invalidates live sockets on reconnect.
func RegisterRoutes(app fiber.Router, users domainUser.IUserUsecase, reg *registry.Registry) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws/status", websocket.New(func(conn *websocket.Conn) {
		token := conn.Query("token")
		claims, err := security.ValidateToken(token)
		if err != nil {
			logrus.Debug("[WS] Rejecting connection: invalid token")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
			_ = conn.Close()
			return
		}

		account, err := users.GetByID(context.Background(), claims.UserID)
		if err != nil || account.Token != token {
			logrus.Debugf("[WS] Rejecting connection: stale session for user %d", claims.UserID)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"))
			_ = conn.Close()
			return
		}

		ch := &wsChannel{conn: conn}
		reg.Connect(claims.UserID, ch)
		logrus.Debugf("[WS] User %d connected (%d live)", claims.UserID, reg.Count())

		defer func() {
			reg.Disconnect(claims.UserID, ch)
			_ = ch.Close()
			logrus.Debugf("[WS] User %d disconnected", claims.UserID)
		}()

		// Delivery is one-way; the read loop only detects the peer going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logrus.Debugf("[WS] Read error for user %d: %v", claims.UserID, err)
				}
				return
			}
		}
	}))
}
