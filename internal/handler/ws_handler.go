package handler

import (
	"go-inventory-ledger/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RequireUpgrade rejects plain HTTP requests to the feed.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// LedgerFeed streams ledger events until the client disconnects.
func LedgerFeed(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		hub.Register(c)
		defer hub.Unregister(c)

		for {
			// Keep alive loop; clients do not send anything meaningful
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
