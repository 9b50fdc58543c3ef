package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorHandler renders service errors as {"error", "code", "details"} with
// the matching status. Server-side failures are logged.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = log.Named("http")
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "http"})
		}

		appErr := apperror.As(err)
		status := appErr.HTTPStatus()
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("code", string(appErr.Kind)),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(appErr)
	}
}

// actor builds the caller from the locals set by RequireAuth.
func actor(c *fiber.Ctx) service.Actor {
	a := service.Actor{ID: "system", Label: "Unknown"}
	if id, ok := c.Locals(middleware.LocalUserID).(string); ok {
		a.ID = id
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(model.Role); ok {
		a.Role = role
	}
	if email, ok := c.Locals(middleware.LocalUserEmail).(string); ok && email != "" {
		a.Label = email
	}
	return a
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Auth("Authentication required")
	}
	return parsed, nil
}

func paramID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid %s ID", label)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("Invalid JSON")
	}
	return nil
}
