// file: internals/helpers/token.go
package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetUserIDFromToken mengambil user_id yang sudah diisi AuthMiddleware.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user ID tidak ditemukan di token")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user ID tidak valid")
	}
	return id, nil
}

// GetManagerIDFromToken: alias semantik — identitas manager = user_id pada token.
// Guard role sudah dilakukan middleware, di sini tinggal ambil ID-nya.
func GetManagerIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return GetUserIDFromToken(c)
}

// GetRoleFromToken mengambil role dari locals (diisi AuthMiddleware).
func GetRoleFromToken(c *fiber.Ctx) string {
	role, _ := c.Locals("userRole").(string)
	return role
}
