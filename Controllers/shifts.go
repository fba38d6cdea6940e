package Controllers

import (
	"strconv"

	"Dashspect/Models"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ShiftController struct {
	DB *gorm.DB
}

func NewShiftController(db *gorm.DB) *ShiftController {
	return &ShiftController{DB: db}
}

type ShiftInput struct {
	EmployeeID uint   `json:"employee_id" validate:"required"`
	LocationID uint   `json:"location_id" validate:"required"`
	Role       string `json:"role"`
	ShiftDate  string `json:"shift_date" validate:"required,isodate"`
	StartTime  string `json:"start_time" validate:"omitempty,clock"`
	EndTime    string `json:"end_time" validate:"omitempty,clock"`
	Notes      string `json:"notes"`
}

func (c *ShiftController) fromInput(ctx *fiber.Ctx, shift *Models.Shift) fiber.Map {
	var input ShiftInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return errMap
	}
	if err := c.DB.First(&Models.User{}, input.EmployeeID).Error; err != nil {
		return fiber.Map{"error": "unknown employee_id"}
	}
	if err := c.DB.First(&Models.Location{}, input.LocationID).Error; err != nil {
		return fiber.Map{"error": "unknown location_id"}
	}

	date, _ := Models.ParseStorageDate(input.ShiftDate)
	shift.EmployeeID = input.EmployeeID
	shift.LocationID = input.LocationID
	shift.Role = input.Role
	shift.ShiftDate = *date
	shift.StartTime = input.StartTime
	shift.EndTime = input.EndTime
	shift.Notes = input.Notes
	return nil
}

// GetShifts lists shifts between ?start and ?end (YYYY-MM-DD), optionally
// for one ?location_id or ?employee_id. Employees only see their own.
func (c *ShiftController) GetShifts(ctx *fiber.Ctx) error {
	query := c.DB.Preload("Employee").Order("shift_date, start_time, id")

	if start := ctx.Query("start"); start != "" {
		d, err := Models.ParseStorageDate(start)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date format. Use YYYY-MM-DD"})
		}
		query = query.Where("shift_date >= ?", *d)
	}
	if end := ctx.Query("end"); end != "" {
		d, err := Models.ParseStorageDate(end)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end date format. Use YYYY-MM-DD"})
		}
		query = query.Where("shift_date <= ?", *d)
	}
	for _, column := range []string{"location_id", "employee_id"} {
		if value := ctx.Query(column); value != "" {
			id, err := strconv.Atoi(value)
			if err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + column})
			}
			query = query.Where(column+" = ?", id)
		}
	}
	if user, ok := middleware.CurrentUser(ctx); ok && user.Permission < Models.PermissionManager {
		query = query.Where("employee_id = ?", user.ID)
	}

	var shifts []Models.Shift
	if err := query.Find(&shifts).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve shifts"})
	}
	return ctx.JSON(shifts)
}

func (c *ShiftController) CreateShift(ctx *fiber.Ctx) error {
	var shift Models.Shift
	if errMap := c.fromInput(ctx, &shift); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	if err := c.DB.Create(&shift).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create shift"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(shift)
}

func (c *ShiftController) UpdateShift(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	var shift Models.Shift
	if err := c.DB.First(&shift, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Shift not found"})
	}
	if errMap := c.fromInput(ctx, &shift); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	if err := c.DB.Save(&shift).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update shift"})
	}
	return ctx.JSON(shift)
}

func (c *ShiftController) DeleteShift(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	var shift Models.Shift
	if err := c.DB.First(&shift, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Shift not found"})
	}

	c.DB.Delete(&shift)
	return ctx.JSON(fiber.Map{"message": "Shift deleted successfully"})
}
