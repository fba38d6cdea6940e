package Reports

import (
	"bytes"
	"fmt"
	"strings"

	"Dashspect/TaskEngine"

	"github.com/xuri/excelize/v2"
)

const (
	OccurrenceSheet = "Occurrences"
	SummarySheet    = "Summary"
)

var occurrenceHeaders = []string{
	"Group", "Date", "Task", "Scope", "Location", "Assigned",
	"Start", "Deadline", "Covered By", "Status", "Completed By", "Completed At",
}

// Status is the single word shown for an occurrence on boards and reports
func Status(item TaskEngine.TaskWithCoverage) string {
	switch {
	case item.Completed != nil:
		return "completed"
	case item.Coverage.IsLate:
		return "late"
	case item.Coverage.IsOverdue:
		return "overdue"
	case !item.Coverage.IsCovered:
		return "uncovered"
	default:
		return "pending"
	}
}

// ScopeText describes who an occurrence is meant for
func ScopeText(item TaskEngine.TaskWithCoverage) string {
	switch item.Labels.Kind {
	case TaskEngine.ScopeKindEmployee:
		return "employee"
	case TaskEngine.ScopeKindRole:
		return "role: " + item.Labels.Role
	case TaskEngine.ScopeKindLocation:
		return "location"
	default:
		return "everyone"
	}
}

func names(ids []uint, dir map[uint]string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := dir[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("#%d", id))
		}
	}
	return strings.Join(out, ", ")
}

// OccurrenceWorkbook writes result as an xlsx file with one row per
// occurrence and a summary sheet
func OccurrenceWorkbook(result TaskEngine.Result, employees map[uint]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(OccurrenceSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range occurrenceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(OccurrenceSheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(OccurrenceSheet, 1, 1, headerStyle)
	}
	overdueStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	row := 2
	for _, g := range result.Groups {
		for _, item := range g.Items {
			start := ""
			if item.Start != nil {
				start = item.Start.Format("15:04")
			}
			completedBy, completedAt := "", ""
			if item.Completed != nil {
				completedBy = names([]uint{item.Completed.CompletedBy}, employees)
				completedAt = item.Completed.CompletedAt.Format("2006-01-02 15:04")
			}
			values := []interface{}{
				g.Label,
				item.Date.Format("2006-01-02"),
				item.Title,
				ScopeText(item),
				item.Labels.Location,
				item.Labels.Employee,
				start,
				item.Deadline.Format("2006-01-02 15:04"),
				names(item.Coverage.CoveringEmployeeIDs, employees),
				Status(item),
				completedBy,
				completedAt,
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(OccurrenceSheet, cell, value)
			}
			if item.Coverage.IsOverdue && overdueStyle != 0 {
				f.SetRowStyle(OccurrenceSheet, row, row, overdueStyle)
			}
			row++
		}
	}

	last, _ := excelize.ColumnNumberToName(len(occurrenceHeaders))
	f.SetColWidth(OccurrenceSheet, "A", last, 18)
	f.SetColWidth(OccurrenceSheet, "C", "C", 32)

	if err := writeSummary(f, result.Summary()); err != nil {
		return nil, err
	}

	if f.GetSheetName(0) != OccurrenceSheet {
		f.DeleteSheet("Sheet1")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %w", err)
	}
	return &buf, nil
}

func writeSummary(f *excelize.File, s TaskEngine.Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Total", s.Total},
		{"Completed", s.Completed},
		{"Overdue", s.Overdue},
		{"Late", s.Late},
		{"Uncovered", s.Uncovered},
	}
	for i, r := range rows {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return err
		}
	}
	f.SetColWidth(SummarySheet, "A", "A", 15)
	return nil
}
