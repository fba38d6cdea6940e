package Models

import (
	"Dashspect/TaskEngine"

	"gorm.io/gorm"
)

const (
	PermissionEmployee = 1
	PermissionManager  = 2
	PermissionAdmin    = 3
)

// User is an employee account; Permission decides what the API lets them do
type User struct {
	gorm.Model
	Name       string     `json:"name" gorm:"not null"`
	Email      string     `json:"email" gorm:"uniqueIndex;not null"`
	Password   []byte     `json:"-"`
	Permission int        `json:"permission" gorm:"default:1"`
	Role       string     `json:"role"`
	Phone      string     `json:"phone"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	Locations  []Location `json:"locations,omitempty" gorm:"many2many:user_locations;"`
}

func (u User) LocationIDs() []uint {
	ids := make([]uint, 0, len(u.Locations))
	for _, l := range u.Locations {
		ids = append(ids, l.ID)
	}
	return ids
}

// Identity is the view of the user the task pipeline filters by
func (u User) Identity() TaskEngine.Identity {
	return TaskEngine.Identity{
		EmployeeID:  u.ID,
		Role:        u.Role,
		LocationIDs: u.LocationIDs(),
		IsAdmin:     u.Permission >= PermissionAdmin,
		IsManager:   u.Permission >= PermissionManager,
	}
}

// EmployeeNames maps every user id to its display name
func EmployeeNames(db *gorm.DB) (map[uint]string, error) {
	var users []User
	if err := db.Select("id", "name").Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
