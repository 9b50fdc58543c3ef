package handler

import (
	"time"

	"go-inventory-ledger/pkg/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	appName string
	started time.Time
}

func NewHealthHandler(db *gorm.DB, appName string) *HealthHandler {
	return &HealthHandler{db: db, appName: appName, started: time.Now()}
}

// Check GET /api/health. Returns 503 while the database is unreachable.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := database.Ping(c.UserContext(), h.db); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": h.appName,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
