package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/washday/washday/pkg/security"
	"github.com/washday/washday/pkg/utils"
)

const (
	LocalUserID   = "userID"
	LocalUserRole = "userRole"
)

// Auth validates the bearer token and stores the caller's identity in the
// request locals.
func Auth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "missing bearer token")
		}

		claims, err := security.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUserRole, claims.Role)
		return c.Next()
	}
}

// AdminOnly gates a route to admin accounts; must run after Auth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalUserRole).(string)
		if role != "ADMIN" {
			return c.Status(403).JSON(utils.ResponseData{
				Status:  403,
				Code:    "FORBIDDEN",
				Message: "admin privileges required",
			})
		}
		return c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(401).JSON(utils.ResponseData{
		Status:  401,
		Code:    "UNAUTHORIZED",
		Message: message,
	})
}
