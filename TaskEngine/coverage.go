package TaskEngine

import (
	"sort"
	"time"
)

// Coverage is the shift-matching half of a CoverageResult
type Coverage struct {
	IsCovered           bool
	CoveringEmployeeIDs []uint
}

// ShiftCovers reports whether shift makes someone responsible for occ.
// The location must be known and equal on both sides.
func ShiftCovers(occ Occurrence, shift Shift) bool {
	if occ.Scope == nil {
		return false
	}
	location := occ.Scope.Location()
	if location == 0 || shift.LocationID != location {
		return false
	}
	if !dateIn(shift.Date, occ.Date.Location()).Equal(occ.Date) {
		return false
	}

	switch s := occ.Scope.(type) {
	case ScopeEmployee:
		return shift.EmployeeID == s.EmployeeID
	case ScopeRole:
		return shift.Role == s.Role
	case ScopeLocation, ScopeShared:
		return true
	default:
		return false
	}
}

// CoverShifts collects the employees whose shifts cover occ, sorted and unique
func CoverShifts(occ Occurrence, shifts []Shift) Coverage {
	seen := make(map[uint]bool)
	var ids []uint
	for _, shift := range shifts {
		if !ShiftCovers(occ, shift) || seen[shift.EmployeeID] {
			continue
		}
		seen[shift.EmployeeID] = true
		ids = append(ids, shift.EmployeeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Coverage{IsCovered: len(ids) > 0, CoveringEmployeeIDs: ids}
}

// ComputeStatus decides overdue and late. An uncovered occurrence is never
// overdue. Late is overdue by no more than grace.
func ComputeStatus(occ Occurrence, covered, completed bool, now time.Time, grace time.Duration) (overdue, late bool) {
	if !covered || completed || !now.After(occ.Deadline) {
		return false, false
	}
	return true, now.Sub(occ.Deadline) <= grace
}

// ResolveCoverage runs shift matching and status computation in one step
func ResolveCoverage(occ Occurrence, shifts []Shift, completed bool, now time.Time, grace time.Duration) CoverageResult {
	coverage := CoverShifts(occ, shifts)
	overdue, late := ComputeStatus(occ, coverage.IsCovered, completed, now, grace)
	return CoverageResult{
		IsCovered:           coverage.IsCovered,
		CoveringEmployeeIDs: coverage.CoveringEmployeeIDs,
		IsOverdue:           overdue,
		IsLate:              late,
	}
}
