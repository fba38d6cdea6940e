package middleware

import (
	"Dashspect/Whatsapp"

	"github.com/gofiber/fiber/v2"
)

// CheckWPLoginMiddleware stops the request when no WhatsApp device is paired
func CheckWPLoginMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		loggedIn, err := Whatsapp.Service.LoggedIn(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to check login status",
			})
		}
		if !loggedIn {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Not logged in to WhatsApp",
			})
		}
		return c.Next()
	}
}
