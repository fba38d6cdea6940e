package Controllers

import (
	"strconv"

	"Dashspect/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type UpdateUserInput struct {
	Name        string `json:"name" validate:"required"`
	Permission  int    `json:"permission" validate:"required,oneof=1 2 3"`
	Role        string `json:"role"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	IsActive    *bool  `json:"is_active"`
	LocationIDs []uint `json:"location_ids"`
}

// GetUsers lists accounts with their locations; ?location_id narrows it
func (c *UserController) GetUsers(ctx *fiber.Ctx) error {
	query := c.DB.Preload("Locations").Order("name")
	if locationID := ctx.Query("location_id"); locationID != "" {
		id, err := strconv.Atoi(locationID)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location_id"})
		}
		query = query.Where("id IN (?)", c.DB.Table("user_locations").Select("user_id").Where("location_id = ?", id))
	}

	var users []Models.User
	if err := query.Find(&users).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}
	return ctx.JSON(users)
}

// UpdateUser changes permission, role, contact and location assignments
func (c *UserController) UpdateUser(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user Models.User
	if err := c.DB.First(&user, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var input UpdateUserInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	var locations []Models.Location
	if len(input.LocationIDs) > 0 {
		if err := c.DB.Find(&locations, input.LocationIDs).Error; err != nil || len(locations) != len(input.LocationIDs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown location in location_ids"})
		}
	}

	updates := map[string]interface{}{
		"name":       input.Name,
		"permission": input.Permission,
		"role":       input.Role,
		"phone":      input.Phone,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Locations").Replace(locations)
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	c.DB.Preload("Locations").First(&user, id)
	return ctx.JSON(user)
}
