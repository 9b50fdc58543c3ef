package middleware

import (
	"errors"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Keys under which RequireAuth stores the caller in fiber locals.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserName  = "user_name"
	LocalUserRole  = "user_role"
)

// RequireAuth validates the bearer token and then re-reads the user, so a
// deleted account or a changed role takes effect on the next request even
// though the token itself is still valid.
func RequireAuth(userRepo repository.UserRepository, tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return err
		}

		// Validate token
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return apperror.Auth("Invalid or expired token")
		}

		// Load the current state of the user
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Auth("User no longer exists")
			}
			return apperror.FromDB(err, "")
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUserName, user.Name)
		c.Locals(LocalUserRole, user.Role)

		return c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>". WebSocket upgrades may
// pass the token as ?token= instead, since browsers cannot set the header.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c) && c.Query("token") != "" {
			return c.Query("token"), nil
		}
		return "", apperror.Auth("Missing authorization token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", apperror.Auth("Invalid authorization format. Use: Bearer <token>")
	}
	return parts[1], nil
}

// RequirePrivilege checks the role loaded by RequireAuth against the privilege table.
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalUserRole).(model.Role)
		if !ok {
			return apperror.Auth("Authentication required")
		}
		if !role.HasPrivilege(requiredPrivilege) {
			return apperror.Forbidden("Access denied. Requires '%s' privilege", requiredPrivilege).
				WithDetail("privilege", requiredPrivilege)
		}
		return c.Next()
	}
}
