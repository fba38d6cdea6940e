package Whatsapp

import (
	"github.com/gofiber/fiber/v2"
)

func CheckWPLogin(c *fiber.Ctx) error {
	loggedIn, err := Service.LoggedIn(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to check login status",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"logged_in": loggedIn,
	})
}

func GetQRCode(c *fiber.Ctx) error {
	qr, err := Service.QRCode(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to get QR code",
		})
	}

	c.Set("Content-Disposition", "attachment; filename=qr.png")
	c.Set("Content-Type", "image/png")
	return c.Send(qr)
}

type TestMessageInput struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendTestMessage checks the gateway end to end by sending one message
func SendTestMessage(c *fiber.Ctx) error {
	var input TestMessageInput
	if err := c.BodyParser(&input); err != nil || input.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone is required",
		})
	}
	if input.Message == "" {
		input.Message = "Dashspect test message"
	}

	if err := Service.SendMessage(c.UserContext(), input.Phone, input.Message); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "sent"})
}
