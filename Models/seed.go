package Models

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedData is the layout of the seed file. JSON5 so comments and trailing
// commas are allowed.
type SeedData struct {
	Locations []Location  `json:"locations"`
	Users     []SeedUser  `json:"users"`
	Tasks     []SeedTask  `json:"tasks"`
	Shifts    []SeedShift `json:"shifts"`
}

type SeedUser struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Permission int      `json:"permission"`
	Role       string   `json:"role"`
	Phone      string   `json:"phone"`
	Locations  []string `json:"locations"`
}

type SeedTask struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Pattern             string `json:"pattern"`
	Date                string `json:"date"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	DayOfWeek           *int   `json:"day_of_week"`
	DayOfMonth          int    `json:"day_of_month"`
	StartTime           string `json:"start_time"`
	DurationMinutes     int    `json:"duration_minutes"`
	ScopeType           string `json:"scope_type"`
	Location            string `json:"location"`
	Role                string `json:"role"`
	Employee            string `json:"employee"`
	LockMode            string `json:"lock_mode"`
	UnlockWindowMinutes int    `json:"unlock_window_minutes"`
}

type SeedShift struct {
	Employee  string `json:"employee"`
	Location  string `json:"location"`
	Role      string `json:"role"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ParseSeed decodes a JSON5 seed document
func ParseSeed(data []byte) (SeedData, error) {
	var seed SeedData
	if err := json5.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("invalid seed file: %w", err)
	}
	return seed, nil
}

// SeedFromFile loads path into an empty database. A database that already
// has users is left alone.
func SeedFromFile(db *gorm.DB, path string) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Skipping seed, database already has %d users", count)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return err
	}
	if err := Seed(db, seed); err != nil {
		return err
	}
	log.Printf("Seeded %d locations, %d users, %d tasks, %d shifts from %s",
		len(seed.Locations), len(seed.Users), len(seed.Tasks), len(seed.Shifts), path)
	return nil
}

// Seed writes seed in one transaction; names are resolved to ids
func Seed(db *gorm.DB, seed SeedData) error {
	return db.Transaction(func(tx *gorm.DB) error {
		locations := map[string]Location{}
		for _, l := range seed.Locations {
			location := l
			if err := tx.Create(&location).Error; err != nil {
				return fmt.Errorf("failed to seed location %q: %w", l.Name, err)
			}
			locations[location.Name] = location
		}

		users := map[string]User{}
		for _, u := range seed.Users {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user := User{
				Name:       u.Name,
				Email:      u.Email,
				Password:   hash,
				Permission: u.Permission,
				Role:       u.Role,
				Phone:      u.Phone,
				IsActive:   true,
			}
			if user.Permission == 0 {
				user.Permission = PermissionEmployee
			}
			for _, name := range u.Locations {
				l, ok := locations[name]
				if !ok {
					return fmt.Errorf("user %q: unknown location %q", u.Email, name)
				}
				user.Locations = append(user.Locations, l)
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to seed user %q: %w", u.Email, err)
			}
			users[user.Email] = user
		}

		for _, t := range seed.Tasks {
			task, err := t.toTask(locations, users)
			if err != nil {
				return err
			}
			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("failed to seed task %q: %w", t.Title, err)
			}
		}

		for _, s := range seed.Shifts {
			employee, ok := users[s.Employee]
			if !ok {
				return fmt.Errorf("shift: unknown employee %q", s.Employee)
			}
			location, ok := locations[s.Location]
			if !ok {
				return fmt.Errorf("shift: unknown location %q", s.Location)
			}
			date, err := time.Parse("2006-01-02", s.Date)
			if err != nil {
				return fmt.Errorf("shift for %q: %w", s.Employee, err)
			}
			shift := Shift{
				EmployeeID: employee.ID,
				LocationID: location.ID,
				Role:       s.Role,
				ShiftDate:  StorageDate(date),
				StartTime:  s.StartTime,
				EndTime:    s.EndTime,
			}
			if err := tx.Create(&shift).Error; err != nil {
				return fmt.Errorf("failed to seed shift: %w", err)
			}
		}
		return nil
	})
}

func (t SeedTask) toTask(locations map[string]Location, users map[string]User) (Task, error) {
	task := Task{
		Title:               t.Title,
		Description:         t.Description,
		Pattern:             t.Pattern,
		DayOfWeek:           t.DayOfWeek,
		DayOfMonth:          t.DayOfMonth,
		StartTime:           t.StartTime,
		DurationMinutes:     t.DurationMinutes,
		ScopeType:           t.ScopeType,
		Role:                t.Role,
		LockMode:            t.LockMode,
		UnlockWindowMinutes: t.UnlockWindowMinutes,
		Status:              TaskStatusActive,
	}
	var err error
	if task.Date, err = ParseStorageDate(t.Date); err != nil {
		return task, fmt.Errorf("task %q: %w", t.Title, err)
	}
	if task.StartDate, err = ParseStorageDate(t.StartDate); err != nil {
		return task, fmt.Errorf("task %q: %w", t.Title, err)
	}
	if task.EndDate, err = ParseStorageDate(t.EndDate); err != nil {
		return task, fmt.Errorf("task %q: %w", t.Title, err)
	}
	if t.Location != "" {
		l, ok := locations[t.Location]
		if !ok {
			return task, fmt.Errorf("task %q: unknown location %q", t.Title, t.Location)
		}
		task.LocationID = &l.ID
	}
	if t.Employee != "" {
		u, ok := users[t.Employee]
		if !ok {
			return task, fmt.Errorf("task %q: unknown employee %q", t.Title, t.Employee)
		}
		task.EmployeeID = &u.ID
	}
	return task, nil
}
