package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// GetUsers GET /api/auth/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

// UpdateRole PUT /api/auth/users/:id/role
func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}
	var req service.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateRole(c.UserContext(), id, req.Role, actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User role updated successfully", "user": user})
}

// DeleteUser DELETE /api/auth/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.service.DeleteUser(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
