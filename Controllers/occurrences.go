package Controllers

import (
	"errors"
	"fmt"
	"time"

	"Dashspect/Models"
	"Dashspect/TaskEngine"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxRangeDays caps how many days one listing may expand
const MaxRangeDays = 92

// OccurrenceController serves the expanded task board and records
// completions against occurrence keys
type OccurrenceController struct {
	DB       *gorm.DB
	Pipeline *TaskEngine.Pipeline
	Location *time.Location
	now      func() time.Time
}

func NewOccurrenceController(db *gorm.DB, pipeline *TaskEngine.Pipeline, loc *time.Location) *OccurrenceController {
	return &OccurrenceController{DB: db, Pipeline: pipeline, Location: loc, now: time.Now}
}

func (c *OccurrenceController) clock() (time.Time, time.Time) {
	now := c.now().In(c.Location)
	y, m, d := now.Date()
	return now, time.Date(y, m, d, 0, 0, 0, 0, c.Location)
}

func dateParam(ctx *fiber.Ctx, name string, fallback time.Time, loc *time.Location) (time.Time, error) {
	value := ctx.Query(name)
	if value == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date format, use YYYY-MM-DD", name)
	}
	return t, nil
}

// dateRange reads ?start and ?end; both default to today and end defaults
// to start
func (c *OccurrenceController) dateRange(ctx *fiber.Ctx) (TaskEngine.DateRange, error) {
	_, today := c.clock()
	start, err := dateParam(ctx, "start", today, c.Location)
	if err != nil {
		return TaskEngine.DateRange{}, err
	}
	end, err := dateParam(ctx, "end", start, c.Location)
	if err != nil {
		return TaskEngine.DateRange{}, err
	}
	rng, err := TaskEngine.NewDateRange(start, end)
	if err != nil {
		return TaskEngine.DateRange{}, err
	}
	if len(rng.Days()) > MaxRangeDays {
		return TaskEngine.DateRange{}, fmt.Errorf("date range longer than %d days", MaxRangeDays)
	}
	return rng, nil
}

func (c *OccurrenceController) run(rng TaskEngine.DateRange, viewer TaskEngine.Identity, by TaskEngine.GroupKey) (TaskEngine.Result, Models.VisibilityInput, error) {
	now, _ := c.clock()
	input, err := Models.LoadVisibilityInput(c.DB, rng, c.Location)
	if err != nil {
		return TaskEngine.Result{}, input, err
	}
	result, err := c.Pipeline.Run(input.Request(rng, now, viewer, by))
	return result, input, err
}

// GetOccurrences lists what the caller can see, ?group_by=day|employee|location
func (c *OccurrenceController) GetOccurrences(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	rng, err := c.dateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	by := TaskEngine.GroupKey(ctx.Query("group_by", string(TaskEngine.GroupByDay)))
	result, _, err := c.run(rng, user.Identity(), by)
	if errors.Is(err, TaskEngine.ErrUnknownGroupKey) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group_by, use day, employee or location"})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list occurrences"})
	}

	response := fiber.Map{
		"start":    rng.Start.Format("2006-01-02"),
		"end":      rng.End.Format("2006-01-02"),
		"group_by": result.GroupBy,
		"groups":   result.Groups,
		"summary":  result.Summary(),
	}
	if user.Permission >= Models.PermissionManager {
		response["diagnostics"] = result.Diagnostics
	}
	return ctx.JSON(response)
}

// resolve turns the :key param into the task and its occurrence, checking
// the caller may see it
func (c *OccurrenceController) resolve(ctx *fiber.Ctx, user Models.User) (Models.Task, TaskEngine.Occurrence, *fiber.Error) {
	taskID, date, err := TaskEngine.ParseOccurrenceKey(ctx.Params("key"), c.Location)
	if err != nil {
		return Models.Task{}, TaskEngine.Occurrence{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var task Models.Task
	if err := c.DB.First(&task, taskID).Error; err != nil {
		return task, TaskEngine.Occurrence{}, fiber.NewError(fiber.StatusNotFound, "Task not found")
	}
	if task.Status == Models.TaskStatusArchived {
		return task, TaskEngine.Occurrence{}, fiber.NewError(fiber.StatusConflict, "Task is archived")
	}

	occ, ok, err := TaskEngine.OccurrenceOn(task.ToDefinition(c.Location), date)
	if err != nil {
		return task, occ, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if !ok {
		return task, occ, fiber.NewError(fiber.StatusNotFound, "Task has no occurrence on that date")
	}
	if !user.Identity().CanSee(occ) {
		return task, occ, fiber.NewError(fiber.StatusForbidden, "You cannot access this task")
	}
	return task, occ, nil
}

// GetLock previews whether the occurrence can be completed right now
func (c *OccurrenceController) GetLock(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	_, occ, ferr := c.resolve(ctx, user)
	if ferr != nil {
		return ctx.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	now, _ := c.clock()
	decision := TaskEngine.EvaluateLock(occ, now)
	return ctx.JSON(fiber.Map{
		"key":         occ.Key,
		"lock_mode":   occ.LockMode,
		"completable": decision.Completable,
		"reason":      decision.Reason,
		"opens_at":    decision.OpensAt,
		"closes_at":   decision.ClosesAt,
	})
}

type CompleteInput struct {
	Notes string `json:"notes" validate:"max=500"`
}

// Complete records the occurrence as done. Scheduled tasks are refused
// outside their unlock window.
func (c *OccurrenceController) Complete(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	task, occ, ferr := c.resolve(ctx, user)
	if ferr != nil {
		return ctx.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	var input CompleteInput
	if len(ctx.Body()) > 0 {
		if errMap := bindJSON(ctx, &input); errMap != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(errMap)
		}
	}

	now, _ := c.clock()
	if decision := TaskEngine.EvaluateLock(occ, now); !decision.Completable {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     decision.Err().Error(),
			"reason":    decision.Reason,
			"opens_at":  decision.OpensAt,
			"closes_at": decision.ClosesAt,
		})
	}

	var existing int64
	if err := c.DB.Model(&Models.TaskCompletion{}).Where("occurrence_key = ?", occ.Key).Count(&existing).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete task"})
	}
	if existing > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Occurrence already completed"})
	}

	completion := Models.TaskCompletion{
		TaskID:          task.ID,
		OccurrenceDate:  Models.StorageDate(occ.Date),
		OccurrenceKey:   occ.Key,
		CompletedBy:     user.ID,
		CompletedByName: user.Name,
		CompletedAt:     now,
		Notes:           input.Notes,
	}
	if err := c.DB.Create(&completion).Error; err != nil {
		if isDuplicate(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Occurrence already completed"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete task"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(completion)
}

// Uncomplete removes a completion; only its author or a manager may
func (c *OccurrenceController) Uncomplete(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	_, occ, ferr := c.resolve(ctx, user)
	if ferr != nil {
		return ctx.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	var completion Models.TaskCompletion
	if err := c.DB.Where("occurrence_key = ?", occ.Key).First(&completion).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Occurrence is not completed"})
	}
	if completion.CompletedBy != user.ID && user.Permission < Models.PermissionManager {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the person who completed it or a manager can undo this"})
	}

	if err := c.DB.Unscoped().Delete(&completion).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to undo completion"})
	}
	return ctx.JSON(fiber.Map{"message": "Completion removed"})
}
