package Controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// JobRunner runs a background job by name; CronJobs.Scheduler implements it
type JobRunner interface {
	RunNow(ctx context.Context, job string) (interface{}, error)
}

type JobController struct {
	Runner JobRunner
}

func NewJobController(runner JobRunner) *JobController {
	return &JobController{Runner: runner}
}

// RunJob triggers the :name job immediately
func (c *JobController) RunJob(ctx *fiber.Ctx) error {
	report, err := c.Runner.RunNow(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"job": ctx.Params("name"), "report": report})
}
