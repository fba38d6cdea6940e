package TaskEngine

// ScopeKind names the four targeting rules a task can carry
type ScopeKind string

const (
	ScopeKindEmployee ScopeKind = "employee"
	ScopeKindRole     ScopeKind = "role"
	ScopeKindLocation ScopeKind = "location"
	ScopeKindShared   ScopeKind = "shared"
)

// Scope is a closed set: ScopeEmployee, ScopeRole, ScopeLocation or ScopeShared.
// A zero LocationID means the location is unknown.
type Scope interface {
	Kind() ScopeKind
	Location() uint
	isScope()
}

type ScopeEmployee struct {
	EmployeeID uint
	LocationID uint
}

type ScopeRole struct {
	Role       string
	LocationID uint
}

type ScopeLocation struct {
	LocationID uint
}

// ScopeShared is a broadcast task; LocationID optionally pins it to one site
type ScopeShared struct {
	LocationID uint
}

func (ScopeEmployee) Kind() ScopeKind { return ScopeKindEmployee }
func (ScopeRole) Kind() ScopeKind     { return ScopeKindRole }
func (ScopeLocation) Kind() ScopeKind { return ScopeKindLocation }
func (ScopeShared) Kind() ScopeKind   { return ScopeKindShared }

func (s ScopeEmployee) Location() uint { return s.LocationID }
func (s ScopeRole) Location() uint     { return s.LocationID }
func (s ScopeLocation) Location() uint { return s.LocationID }
func (s ScopeShared) Location() uint   { return s.LocationID }

func (ScopeEmployee) isScope() {}
func (ScopeRole) isScope()     {}
func (ScopeLocation) isScope() {}
func (ScopeShared) isScope()   {}

// NewScope builds the variant named by kind. It returns false for an unknown
// kind or when the field the kind depends on is missing.
func NewScope(kind ScopeKind, locationID uint, role string, employeeID uint) (Scope, bool) {
	switch kind {
	case ScopeKindEmployee:
		if employeeID == 0 {
			return nil, false
		}
		return ScopeEmployee{EmployeeID: employeeID, LocationID: locationID}, true
	case ScopeKindRole:
		if role == "" {
			return nil, false
		}
		return ScopeRole{Role: role, LocationID: locationID}, true
	case ScopeKindLocation:
		if locationID == 0 {
			return nil, false
		}
		return ScopeLocation{LocationID: locationID}, true
	case ScopeKindShared:
		return ScopeShared{LocationID: locationID}, true
	default:
		return nil, false
	}
}
