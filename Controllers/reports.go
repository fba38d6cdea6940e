package Controllers

import (
	"fmt"
	"log"

	"Dashspect/Reports"
	"Dashspect/TaskEngine"
	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
)

// ExportOccurrences downloads the caller's occurrences between ?start and
// ?end as a spreadsheet
func (c *OccurrenceController) ExportOccurrences(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	rng, err := c.dateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, input, err := c.run(rng, user.Identity(), TaskEngine.GroupByDay)
	if err != nil {
		log.Printf("Error building occurrence report: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list occurrences"})
	}

	excelBuffer, err := Reports.OccurrenceWorkbook(result, input.Directory.Employees)
	if err != nil {
		log.Printf("Error writing occurrence report: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate report"})
	}

	filename := fmt.Sprintf("occurrences_%s_%s.xlsx", rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Set("Content-Length", fmt.Sprintf("%d", excelBuffer.Len()))
	return ctx.Send(excelBuffer.Bytes())
}
