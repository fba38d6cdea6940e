package Models

import (
	"time"

	"Dashspect/TaskEngine"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Shift puts an employee on duty at a location for a date
type Shift struct {
	gorm.Model
	EmployeeID uint           `json:"employee_id" gorm:"not null;index"`
	Employee   User           `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	LocationID uint           `json:"location_id" gorm:"not null;index"`
	Role       string         `json:"role"`
	ShiftDate  datatypes.Date `json:"shift_date" gorm:"not null;index"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Notes      string         `json:"notes"`
}

// ToEngine converts the row. An empty shift role falls back to the
// employee's role when the employee was preloaded.
func (s Shift) ToEngine(loc *time.Location) TaskEngine.Shift {
	date := CalendarDate(s.ShiftDate, loc)
	shift := TaskEngine.Shift{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Role:       s.Role,
		LocationID: s.LocationID,
		Date:       date,
		Start:      date,
		End:        date.AddDate(0, 0, 1),
	}
	if shift.Role == "" {
		shift.Role = s.Employee.Role
	}
	if m, err := ParseClock(s.StartTime); err == nil {
		shift.Start = date.Add(time.Duration(m) * time.Minute)
	}
	if m, err := ParseClock(s.EndTime); err == nil {
		shift.End = date.Add(time.Duration(m) * time.Minute)
		if !shift.End.After(shift.Start) {
			// overnight shift
			shift.End = shift.End.AddDate(0, 0, 1)
		}
	}
	return shift
}
