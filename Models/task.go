package Models

import (
	"fmt"
	"time"

	"Dashspect/TaskEngine"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TaskStatusActive   = "active"
	TaskStatusArchived = "archived"
)

// Task is the stored task definition. Occurrences are never stored; they
// are expanded from this row by TaskEngine.
type Task struct {
	gorm.Model
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`

	Pattern    string          `json:"pattern" gorm:"not null;default:once"`
	Date       *datatypes.Date `json:"date"`
	StartDate  *datatypes.Date `json:"start_date"`
	EndDate    *datatypes.Date `json:"end_date"`
	DayOfWeek  *int            `json:"day_of_week"`
	DayOfMonth int             `json:"day_of_month"`

	// StartTime is "HH:MM" or empty for tasks due any time of the day
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`

	ScopeType  string `json:"scope_type" gorm:"not null;default:shared"`
	LocationID *uint  `json:"location_id" gorm:"index"`
	Role       string `json:"role"`
	EmployeeID *uint  `json:"employee_id" gorm:"index"`

	LockMode            string `json:"lock_mode" gorm:"default:anytime"`
	UnlockWindowMinutes int    `json:"unlock_window_minutes" gorm:"default:30"`

	Status    string `json:"status" gorm:"default:active;index"`
	CreatedBy uint   `json:"created_by"`
}

// StorageDate keeps the calendar date of t as midnight UTC, the form every
// date column is written in
func StorageDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// CalendarDate reads a stored date back as midnight in loc
func CalendarDate(d datatypes.Date, loc *time.Location) time.Time {
	y, m, day := time.Time(d).UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// ParseStorageDate reads an optional "YYYY-MM-DD" value
func ParseStorageDate(s string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d := StorageDate(t)
	return &d, nil
}

func optionalDate(d *datatypes.Date, loc *time.Location) time.Time {
	if d == nil {
		return time.Time{}
	}
	return CalendarDate(*d, loc)
}

// ParseClock turns "HH:MM" into minutes after midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func uintValue(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}

// ToDefinition converts the row for the engine. An unparsable start time or
// unknown scope is passed on in a form the engine rejects and reports.
func (t Task) ToDefinition(loc *time.Location) TaskEngine.TaskDefinition {
	def := TaskEngine.TaskDefinition{
		ID:                  t.ID,
		Title:               t.Title,
		Pattern:             TaskEngine.Pattern(t.Pattern),
		Date:                optionalDate(t.Date, loc),
		StartDate:           optionalDate(t.StartDate, loc),
		EndDate:             optionalDate(t.EndDate, loc),
		DayOfMonth:          t.DayOfMonth,
		DurationMinutes:     t.DurationMinutes,
		LockMode:            TaskEngine.LockMode(t.LockMode),
		UnlockWindowMinutes: t.UnlockWindowMinutes,
		Archived:            t.Status == TaskStatusArchived,
	}
	if t.DayOfWeek != nil {
		w := time.Weekday(*t.DayOfWeek)
		def.DayOfWeek = &w
	}
	if t.StartTime != "" {
		minute, err := ParseClock(t.StartTime)
		if err != nil {
			minute = -1
		}
		def.StartMinute = &minute
	}
	if scope, ok := TaskEngine.NewScope(TaskEngine.ScopeKind(t.ScopeType), uintValue(t.LocationID), t.Role, uintValue(t.EmployeeID)); ok {
		def.Scope = scope
	}
	return def
}
