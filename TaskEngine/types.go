package TaskEngine

import (
	"errors"
	"time"
)

// Pattern is the scheduling mode of a task definition
type Pattern string

const (
	PatternOnce    Pattern = "once"
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
)

// LockMode controls when an occurrence may be marked complete
type LockMode string

const (
	LockAnytime   LockMode = "anytime"
	LockScheduled LockMode = "scheduled"
)

const (
	DefaultUnlockWindowMinutes = 30
	DefaultDurationMinutes     = 60
	DefaultGraceWindow         = 15 * time.Minute
)

var (
	ErrInvalidRange        = errors.New("invalid date range: end is before start")
	ErrMalformedDefinition = errors.New("malformed task definition")
	ErrInvalidOccurrence   = errors.New("invalid occurrence key")
	ErrUnknownGroupKey     = errors.New("unknown group key")
	ErrMissingNow          = errors.New("reference time is required")
	ErrNotYetUnlocked      = errors.New("task is not yet unlocked")
	ErrWindowClosed        = errors.New("task completion window is closed")
)

// TaskDefinition is the stored template a set of occurrences is derived from.
// The engine never mutates it.
type TaskDefinition struct {
	ID    uint
	Title string

	Pattern Pattern
	// Date is the calendar date of a one-off task
	Date time.Time
	// StartDate and EndDate bound a recurring task; a zero EndDate means open ended
	StartDate  time.Time
	EndDate    time.Time
	DayOfWeek  *time.Weekday
	DayOfMonth int

	// StartMinute is the start time-of-day in minutes after midnight, nil when the task has no start time
	StartMinute     *int
	DurationMinutes int

	Scope               Scope
	LockMode            LockMode
	UnlockWindowMinutes int
	Archived            bool
}

// Occurrence is a TaskDefinition projected onto one calendar date
type Occurrence struct {
	Key          string        `json:"key"`
	TaskID       uint          `json:"task_id"`
	Title        string        `json:"title"`
	Date         time.Time     `json:"date"`
	Start        *time.Time    `json:"start,omitempty"`
	Deadline     time.Time     `json:"deadline"`
	Scope        Scope         `json:"-"`
	LockMode     LockMode      `json:"lock_mode"`
	UnlockWindow time.Duration `json:"-"`
}

// Shift assigns an employee to a location and role for a date and time range
type Shift struct {
	ID         uint
	EmployeeID uint
	Role       string
	LocationID uint
	Date       time.Time
	Start      time.Time
	End        time.Time
}

type CoverageResult struct {
	IsCovered           bool   `json:"is_covered"`
	CoveringEmployeeIDs []uint `json:"covering_employee_ids"`
	IsOverdue           bool   `json:"is_overdue"`
	IsLate              bool   `json:"is_late"`
}

// Completion records that an occurrence was done
type Completion struct {
	Key         string    `json:"key"`
	CompletedBy uint      `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}

// ScopeLabels carries the display names resolved for an occurrence's scope
type ScopeLabels struct {
	Kind       ScopeKind `json:"kind"`
	LocationID uint      `json:"location_id,omitempty"`
	Location   string    `json:"location,omitempty"`
	Role       string    `json:"role,omitempty"`
	EmployeeID uint      `json:"employee_id,omitempty"`
	Employee   string    `json:"employee,omitempty"`
}

// TaskWithCoverage is the unit handed to every rendering surface
type TaskWithCoverage struct {
	Occurrence
	Labels    ScopeLabels    `json:"labels"`
	Coverage  CoverageResult `json:"coverage"`
	Completed *Completion    `json:"completed,omitempty"`
}

// Identity is the requesting user as seen by the permission filter
type Identity struct {
	EmployeeID  uint
	Role        string
	LocationIDs []uint
	IsAdmin     bool
	IsManager   bool
}

// Directory resolves ids to display names
type Directory struct {
	Locations map[uint]string
	Employees map[uint]string
}

func (d Directory) location(id uint) string {
	if id == 0 || d.Locations == nil {
		return ""
	}
	return d.Locations[id]
}

func (d Directory) employee(id uint) string {
	if id == 0 || d.Employees == nil {
		return ""
	}
	return d.Employees[id]
}
