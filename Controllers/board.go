package Controllers

import (
	"Dashspect/Reports"
	"Dashspect/TaskEngine"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
)

type boardRow struct {
	Key      string
	Title    string
	Due      string
	Status   string
	Scope    string
	Assigned string
}

type boardSection struct {
	Label string
	Rows  []boardRow
}

func boardRows(items []TaskEngine.TaskWithCoverage) []boardRow {
	rows := make([]boardRow, 0, len(items))
	for _, item := range items {
		assigned := item.Labels.Employee
		if assigned == "" {
			assigned = item.Labels.Role
		}
		rows = append(rows, boardRow{
			Key:      item.Key,
			Title:    item.Title,
			Due:      item.Deadline.Format("15:04"),
			Status:   Reports.Status(item),
			Scope:    Reports.ScopeText(item),
			Assigned: assigned,
		})
	}
	return rows
}

// Board renders the ?date (default today) board grouped by location
func (c *OccurrenceController) Board(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	now, today := c.clock()

	day, err := dateParam(ctx, "date", today, c.Location)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	result, _, err := c.run(TaskEngine.SingleDay(day), user.Identity(), TaskEngine.GroupByLocation)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).SendString("Failed to load the board")
	}

	sections := make([]boardSection, 0, len(result.Groups))
	for _, g := range result.Groups {
		sections = append(sections, boardSection{Label: g.Label, Rows: boardRows(g.Items)})
	}

	return ctx.Render("board", fiber.Map{
		"Title":    day.Format("Monday, January 2, 2006"),
		"Date":     day.Format("2006-01-02"),
		"Updated":  now.Format("15:04"),
		"Viewer":   user.Name,
		"Summary":  result.Summary(),
		"Sections": sections,
	})
}
