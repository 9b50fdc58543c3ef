package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

// GetMovements GET /api/stock?productId=&type=&startDate=&endDate=
func (h *StockHandler) GetMovements(c *fiber.Ctx) error {
	movements, err := h.service.ListMovements(c.UserContext(), service.MovementQuery{
		ProductID: c.Query("productId"),
		Type:      c.Query("type"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"movements": movements})
}

func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "movement")
	if err != nil {
		return err
	}
	movement, err := h.service.GetMovement(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"movement": movement})
}

// CreateMovement POST /api/stock
func (h *StockHandler) CreateMovement(c *fiber.Ctx) error {
	var req service.RecordMovementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.RecordMovement(c.UserContext(), &req, actor(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Stock movement created successfully",
		"movement":     result.Movement,
		"currentStock": result.CurrentStock,
	})
}

// DeleteMovement DELETE /api/stock/:id
func (h *StockHandler) DeleteMovement(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "movement")
	if err != nil {
		return err
	}

	result, err := h.service.DeleteMovement(c.UserContext(), id, actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":      "Stock movement deleted successfully",
		"currentStock": result.CurrentStock,
	})
}

// GetSummary GET /api/stock/summary
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"summary": summary})
}
