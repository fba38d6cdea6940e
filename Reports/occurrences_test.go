package Reports

import (
	"testing"
	"time"

	"Dashspect/TaskEngine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResult() TaskEngine.Result {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	start := day.Add(9 * time.Hour)
	return TaskEngine.Result{
		GroupBy: TaskEngine.GroupByLocation,
		Groups: []TaskEngine.Group{{
			Key:   "location:0000000001",
			Label: "Downtown",
			Items: []TaskEngine.TaskWithCoverage{
				{
					Occurrence: TaskEngine.Occurrence{Key: "3:2024-01-02", Title: "Count stock", Date: day, Start: &start, Deadline: start.Add(time.Hour)},
					Labels:     TaskEngine.ScopeLabels{Kind: TaskEngine.ScopeKindEmployee, Location: "Downtown", Employee: "Amira"},
					Coverage:   TaskEngine.CoverageResult{IsCovered: true, CoveringEmployeeIDs: []uint{10}, IsOverdue: true},
				},
				{
					Occurrence: TaskEngine.Occurrence{Key: "1:2024-01-02", Title: "Open registers", Date: day, Deadline: day.AddDate(0, 0, 1)},
					Labels:     TaskEngine.ScopeLabels{Kind: TaskEngine.ScopeKindRole, Role: "cashier", Location: "Downtown"},
					Coverage:   TaskEngine.CoverageResult{IsCovered: true, CoveringEmployeeIDs: []uint{10, 11}},
					Completed:  &TaskEngine.Completion{Key: "1:2024-01-02", CompletedBy: 11, CompletedAt: day.Add(8 * time.Hour)},
				},
			},
		}},
	}
}

func TestStatus(t *testing.T) {
	items := sampleResult().Items()
	assert.Equal(t, "overdue", Status(items[0]))
	assert.Equal(t, "completed", Status(items[1]))
	assert.Equal(t, "uncovered", Status(TaskEngine.TaskWithCoverage{}))

	late := items[0]
	late.Coverage.IsLate = true
	assert.Equal(t, "late", Status(late))
}

func TestOccurrenceWorkbook(t *testing.T) {
	buf, err := OccurrenceWorkbook(sampleResult(), map[uint]string{10: "Amira", 11: "Omar"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OccurrenceSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(OccurrenceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, occurrenceHeaders, rows[0])
	assert.Equal(t, []string{"Downtown", "2024-01-02", "Count stock", "employee", "Downtown", "Amira", "09:00", "2024-01-02 10:00", "Amira", "overdue"}, rows[1])
	assert.Equal(t, "role: cashier", rows[2][3])
	assert.Equal(t, "Amira, Omar", rows[2][8])
	assert.Equal(t, "Omar", rows[2][10])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "2"}, summary[0])
	assert.Equal(t, []string{"Completed", "1"}, summary[1])
}
