package Controllers

import (
	"errors"
	"strconv"
	"time"

	"Dashspect/Models"
	"Dashspect/TaskEngine"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TaskController handles task definitions. Occurrences are never written
// here; see OccurrenceController.
type TaskController struct {
	DB       *gorm.DB
	Location *time.Location
}

func NewTaskController(db *gorm.DB, loc *time.Location) *TaskController {
	return &TaskController{DB: db, Location: loc}
}

type TaskInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`

	Pattern    string `json:"pattern" validate:"required,oneof=once daily weekly monthly"`
	Date       string `json:"date" validate:"required_if=Pattern once,omitempty,isodate"`
	StartDate  string `json:"start_date" validate:"omitempty,isodate"`
	EndDate    string `json:"end_date" validate:"omitempty,isodate"`
	DayOfWeek  *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	DayOfMonth int    `json:"day_of_month" validate:"min=0,max=31"`

	StartTime       string `json:"start_time" validate:"omitempty,clock"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0,max=1440"`

	ScopeType  string `json:"scope_type" validate:"required,oneof=employee role location shared"`
	LocationID *uint  `json:"location_id"`
	Role       string `json:"role"`
	EmployeeID *uint  `json:"employee_id"`

	LockMode            string `json:"lock_mode" validate:"omitempty,oneof=anytime scheduled"`
	UnlockWindowMinutes int    `json:"unlock_window_minutes" validate:"min=0,max=1440"`
}

// apply copies the input onto task. Dates were validated by bindJSON.
func (in TaskInput) apply(task *Models.Task) {
	task.Title = in.Title
	task.Description = in.Description
	task.Pattern = in.Pattern
	task.Date, _ = Models.ParseStorageDate(in.Date)
	task.StartDate, _ = Models.ParseStorageDate(in.StartDate)
	task.EndDate, _ = Models.ParseStorageDate(in.EndDate)
	task.DayOfWeek = in.DayOfWeek
	task.DayOfMonth = in.DayOfMonth
	task.StartTime = in.StartTime
	task.DurationMinutes = in.DurationMinutes
	task.ScopeType = in.ScopeType
	task.LocationID = in.LocationID
	task.Role = in.Role
	task.EmployeeID = in.EmployeeID
	task.LockMode = in.LockMode
	if task.LockMode == "" {
		task.LockMode = string(TaskEngine.LockAnytime)
	}
	task.UnlockWindowMinutes = in.UnlockWindowMinutes
	if task.UnlockWindowMinutes == 0 {
		task.UnlockWindowMinutes = TaskEngine.DefaultUnlockWindowMinutes
	}
}

// check runs the same rules the task pipeline applies, so a stored task is
// never skipped as malformed
func (c *TaskController) check(task Models.Task) error {
	def := task.ToDefinition(c.Location)
	if def.Scope == nil {
		return errors.New("scope_type " + task.ScopeType + " is missing its location_id, role or employee_id")
	}
	if err := TaskEngine.ValidateRecurrence(def); err != nil {
		return err
	}
	if task.LocationID != nil {
		if err := c.DB.First(&Models.Location{}, *task.LocationID).Error; err != nil {
			return errors.New("unknown location_id")
		}
	}
	if task.EmployeeID != nil {
		if err := c.DB.First(&Models.User{}, *task.EmployeeID).Error; err != nil {
			return errors.New("unknown employee_id")
		}
	}
	return nil
}

// GetTasks lists definitions; ?status=archived|all and ?location_id filter
func (c *TaskController) GetTasks(ctx *fiber.Ctx) error {
	query := c.DB.Order("id")

	switch status := ctx.Query("status", Models.TaskStatusActive); status {
	case "all":
	case Models.TaskStatusActive, Models.TaskStatusArchived:
		query = query.Where("status = ?", status)
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status, use active, archived or all"})
	}
	if locationID := ctx.Query("location_id"); locationID != "" {
		id, err := strconv.Atoi(locationID)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location_id"})
		}
		query = query.Where("location_id = ?", id)
	}

	var tasks []Models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve tasks"})
	}
	return ctx.JSON(tasks)
}

func (c *TaskController) GetTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	return ctx.JSON(task)
}

func (c *TaskController) CreateTask(ctx *fiber.Ctx) error {
	var input TaskInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}

	task := Models.Task{Status: Models.TaskStatusActive}
	input.apply(&task)
	if user, ok := middleware.CurrentUser(ctx); ok {
		task.CreatedBy = user.ID
	}
	if err := c.check(task); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := c.DB.Create(&task).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// UpdateTask replaces the definition. Completions keep pointing at their
// occurrence keys, so a schedule change can orphan past completions.
func (c *TaskController) UpdateTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	var input TaskInput
	if errMap := bindJSON(ctx, &input); errMap != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
	}
	input.apply(&task)
	if err := c.check(task); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := c.DB.Save(&task).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}
	return ctx.JSON(task)
}

// ArchiveTask hides a task from every board without losing its history
func (c *TaskController) ArchiveTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	if err := c.DB.Model(&task).Update("status", Models.TaskStatusArchived).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to archive task"})
	}
	return ctx.JSON(task)
}

func (c *TaskController) DeleteTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := c.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	if err := c.DB.Delete(&task).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete task"})
	}
	return ctx.JSON(fiber.Map{"message": "Task deleted successfully"})
}
