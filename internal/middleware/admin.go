package middleware

import (
	"slices"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RoleRequired admits only users whose role is one of roles. Must run after
// CurrentUser.
func RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := User(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !slices.Contains(roles, user.Role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Caregiver or therapist access required",
			})
		}
		return c.Next()
	}
}
