package Controllers

import (
	"strconv"

	"Dashspect/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LocationController handles the sites tasks and shifts belong to
type LocationController struct {
	DB *gorm.DB
}

func NewLocationController(db *gorm.DB) *LocationController {
	return &LocationController{DB: db}
}

type LocationInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	Address       string `json:"address"`
	WhatsappGroup string `json:"whatsapp_group"`
}

func (c *LocationController) GetLocations(ctx *fiber.Ctx) error {
	var locations []Models.Location
	if err := c.DB.Order("name").Find(&locations).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve locations"})
	}
	return ctx.JSON(locations)
}

func (c *LocationController) GetLocation(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	var location Models.Location
	if err := c.DB.First(&location, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Location not found"})
	}
	return ctx.JSON(location)
}

func (c *LocationController) CreateLocation(ctx *fiber.Ctx) error {
	var input LocationInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	location := Models.Location{
		Name:          input.Name,
		Address:       input.Address,
		WhatsappGroup: input.WhatsappGroup,
	}
	if err := c.DB.Create(&location).Error; err != nil {
		if isDuplicate(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A location with this name already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create location"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(location)
}

func (c *LocationController) UpdateLocation(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	var location Models.Location
	if err := c.DB.First(&location, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Location not found"})
	}

	var input LocationInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	err = c.DB.Model(&location).Updates(map[string]interface{}{
		"name":           input.Name,
		"address":        input.Address,
		"whatsapp_group": input.WhatsappGroup,
	}).Error
	if err != nil {
		if isDuplicate(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A location with this name already exists"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update location"})
	}
	return ctx.JSON(location)
}

// DeleteLocation soft deletes a location that no active task points at
func (c *LocationController) DeleteLocation(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	var location Models.Location
	if err := c.DB.First(&location, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Location not found"})
	}

	var tasks int64
	c.DB.Model(&Models.Task{}).Where("location_id = ? AND status <> ?", id, Models.TaskStatusArchived).Count(&tasks)
	if tasks > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Location still has active tasks",
			"tasks": tasks,
		})
	}

	c.DB.Delete(&location)
	return ctx.JSON(fiber.Map{"message": "Location deleted successfully"})
}
