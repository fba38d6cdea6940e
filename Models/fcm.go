package Models

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FCMToken is a device registration for push notifications
type FCMToken struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index"`
	Value  string `json:"value" gorm:"uniqueIndex"`
}

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateToken registers the caller's device token, moving it over if another
// account registered the same device before
func UpdateToken(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not Logged In.",
		})
	}

	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token value is required",
		})
	}

	var token FCMToken
	err := DB.Where(FCMToken{Value: req.Value}).
		Assign(FCMToken{UserID: user.ID}).
		FirstOrCreate(&token).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create/update token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token updated successfully",
		"token":   token,
	})
}

// TokensFor returns the push tokens registered by the given users
func TokensFor(db *gorm.DB, userIDs []uint) ([]FCMToken, error) {
	var tokens []FCMToken
	if len(userIDs) == 0 {
		return tokens, nil
	}
	err := db.Where("user_id IN ?", userIDs).Find(&tokens).Error
	return tokens, err
}
