package Models

import (
	"fmt"
	"time"

	"Dashspect/TaskEngine"

	"gorm.io/gorm"
)

// VisibilityInput is everything the pipeline needs from the database for one
// date range
type VisibilityInput struct {
	Definitions []TaskEngine.TaskDefinition
	Shifts      []TaskEngine.Shift
	Completions map[string]TaskEngine.Completion
	Directory   TaskEngine.Directory
}

// LoadVisibilityInput reads active tasks, the shifts and completions inside
// rng, and the location and employee names
func LoadVisibilityInput(db *gorm.DB, rng TaskEngine.DateRange, loc *time.Location) (VisibilityInput, error) {
	input := VisibilityInput{
		Completions: map[string]TaskEngine.Completion{},
		Directory: TaskEngine.Directory{
			Locations: map[uint]string{},
			Employees: map[uint]string{},
		},
	}
	start, end := StorageDate(rng.Start), StorageDate(rng.End)

	var tasks []Task
	if err := db.Where("status <> ?", TaskStatusArchived).Order("id").Find(&tasks).Error; err != nil {
		return input, fmt.Errorf("failed to load tasks: %w", err)
	}
	for _, t := range tasks {
		input.Definitions = append(input.Definitions, t.ToDefinition(loc))
	}

	var shifts []Shift
	if err := db.Preload("Employee").
		Where("shift_date BETWEEN ? AND ?", start, end).
		Order("shift_date, id").
		Find(&shifts).Error; err != nil {
		return input, fmt.Errorf("failed to load shifts: %w", err)
	}
	for _, s := range shifts {
		input.Shifts = append(input.Shifts, s.ToEngine(loc))
	}

	var completions []TaskCompletion
	if err := db.Where("occurrence_date BETWEEN ? AND ?", start, end).Find(&completions).Error; err != nil {
		return input, fmt.Errorf("failed to load completions: %w", err)
	}
	for _, c := range completions {
		input.Completions[c.OccurrenceKey] = c.ToEngine()
	}

	var locations []Location
	if err := db.Find(&locations).Error; err != nil {
		return input, fmt.Errorf("failed to load locations: %w", err)
	}
	for _, l := range locations {
		input.Directory.Locations[l.ID] = l.Name
	}

	employees, err := EmployeeNames(db)
	if err != nil {
		return input, fmt.Errorf("failed to load users: %w", err)
	}
	input.Directory.Employees = employees
	return input, nil
}

// Request builds a pipeline request for viewer over rng
func (in VisibilityInput) Request(rng TaskEngine.DateRange, now time.Time, viewer TaskEngine.Identity, by TaskEngine.GroupKey) TaskEngine.Request {
	return TaskEngine.Request{
		Definitions: in.Definitions,
		Shifts:      in.Shifts,
		Completions: in.Completions,
		Directory:   in.Directory,
		Range:       rng,
		Now:         now,
		Viewer:      viewer,
		GroupBy:     by,
	}
}

// Visible runs the pipeline against the database in one call
func Visible(db *gorm.DB, p *TaskEngine.Pipeline, rng TaskEngine.DateRange, now time.Time, viewer TaskEngine.Identity, by TaskEngine.GroupKey) (TaskEngine.Result, error) {
	input, err := LoadVisibilityInput(db, rng, now.Location())
	if err != nil {
		return TaskEngine.Result{}, err
	}
	return p.Run(input.Request(rng, now, viewer, by))
}
