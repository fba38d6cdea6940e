package TaskEngine

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"
)

type GroupKey string

const (
	GroupByDay      GroupKey = "day"
	GroupByEmployee GroupKey = "employee"
	GroupByLocation GroupKey = "location"
)

const unassignedGroup = "unassigned"

// StageGenerate names the stage that reports skipped definitions
const StageGenerate = "generate"

// Request carries everything one pipeline run needs. Nothing is read from
// the wall clock: Now is explicit.
type Request struct {
	Definitions []TaskDefinition
	Shifts      []Shift
	Completions map[string]Completion
	Directory   Directory
	Range       DateRange
	Now         time.Time
	Viewer      Identity
	GroupBy     GroupKey
}

// Diagnostic reports a definition the pipeline skipped or degraded
type Diagnostic struct {
	TaskID  uint   `json:"task_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type Group struct {
	Key   string             `json:"key"`
	Label string             `json:"label"`
	Items []TaskWithCoverage `json:"items"`
}

type Result struct {
	Range       DateRange    `json:"-"`
	GroupBy     GroupKey     `json:"group_by"`
	Groups      []Group      `json:"groups"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Late      int `json:"late"`
	Uncovered int `json:"uncovered"`
}

// Items flattens the groups back into one slice in group order
func (r Result) Items() []TaskWithCoverage {
	var items []TaskWithCoverage
	for _, g := range r.Groups {
		items = append(items, g.Items...)
	}
	return items
}

func (r Result) Summary() Summary {
	var s Summary
	for _, item := range r.Items() {
		s.Total++
		if item.Completed != nil {
			s.Completed++
		}
		if item.Coverage.IsOverdue {
			s.Overdue++
		}
		if item.Coverage.IsLate {
			s.Late++
		}
		if !item.Coverage.IsCovered {
			s.Uncovered++
		}
	}
	return s
}

// Pipeline is the single entry point every surface uses to list tasks.
// It holds configuration only, so one value may serve concurrent runs.
type Pipeline struct {
	Grace  time.Duration
	Logger *log.Logger
}

func NewPipeline(grace time.Duration) *Pipeline {
	if grace < 0 {
		grace = DefaultGraceWindow
	}
	return &Pipeline{Grace: grace, Logger: log.Default()}
}

// Run executes generate, dedupe, scope, coverage, permission, status and
// grouping in that order. Only caller bugs are returned as errors; bad
// definitions are skipped and reported in Result.Diagnostics.
func (p *Pipeline) Run(req Request) (Result, error) {
	if req.Range.Start.IsZero() || req.Range.End.Before(req.Range.Start) {
		return Result{}, ErrInvalidRange
	}
	if req.Now.IsZero() {
		return Result{}, ErrMissingNow
	}
	if req.GroupBy == "" {
		req.GroupBy = GroupByDay
	}
	if !validGroupKey(req.GroupBy) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownGroupKey, req.GroupBy)
	}

	result := Result{Range: req.Range, GroupBy: req.GroupBy}

	occurrences := p.generate(req, &result)
	occurrences = dedupe(occurrences)
	items := attachScope(occurrences, req.Directory)
	for i := range items {
		coverage := CoverShifts(items[i].Occurrence, req.Shifts)
		items[i].Coverage.IsCovered = coverage.IsCovered
		items[i].Coverage.CoveringEmployeeIDs = coverage.CoveringEmployeeIDs
	}

	visible := items[:0]
	for _, item := range items {
		if req.Viewer.CanSee(item.Occurrence) {
			visible = append(visible, item)
		}
	}

	for i := range visible {
		if completion, ok := req.Completions[visible[i].Key]; ok {
			c := completion
			visible[i].Completed = &c
		}
		visible[i].Coverage.IsOverdue, visible[i].Coverage.IsLate = ComputeStatus(
			visible[i].Occurrence, visible[i].Coverage.IsCovered, visible[i].Completed != nil, req.Now, p.Grace)
	}

	result.Groups = group(visible, req.GroupBy, req.Directory)
	return result, nil
}

func (p *Pipeline) generate(req Request, result *Result) []Occurrence {
	var occurrences []Occurrence
	for _, def := range req.Definitions {
		if def.Archived {
			continue
		}
		if def.Scope == nil {
			p.diagnose(result, Diagnostic{TaskID: def.ID, Stage: StageGenerate, Message: "task has no scope"})
			continue
		}
		expanded, err := Expand(def, req.Range)
		if err != nil {
			p.diagnose(result, Diagnostic{TaskID: def.ID, Stage: StageGenerate, Message: err.Error()})
			continue
		}
		occurrences = append(occurrences, expanded...)
	}
	return occurrences
}

func (p *Pipeline) diagnose(result *Result, d Diagnostic) {
	result.Diagnostics = append(result.Diagnostics, d)
	if p.Logger != nil {
		p.Logger.Printf("TaskEngine: %s stage skipped task %d: %s", d.Stage, d.TaskID, d.Message)
	}
}

// dedupe keeps the first occurrence of every key
func dedupe(occurrences []Occurrence) []Occurrence {
	seen := make(map[string]bool, len(occurrences))
	out := make([]Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if seen[occ.Key] {
			continue
		}
		seen[occ.Key] = true
		out = append(out, occ)
	}
	return out
}

func attachScope(occurrences []Occurrence, dir Directory) []TaskWithCoverage {
	items := make([]TaskWithCoverage, 0, len(occurrences))
	for _, occ := range occurrences {
		labels := ScopeLabels{
			Kind:       occ.Scope.Kind(),
			LocationID: occ.Scope.Location(),
			Location:   dir.location(occ.Scope.Location()),
		}
		switch s := occ.Scope.(type) {
		case ScopeEmployee:
			labels.EmployeeID = s.EmployeeID
			labels.Employee = dir.employee(s.EmployeeID)
		case ScopeRole:
			labels.Role = s.Role
		}
		items = append(items, TaskWithCoverage{Occurrence: occ, Labels: labels})
	}
	return items
}

// CanSee applies the visibility rules. Admins see everything and managers see
// everything at their locations. Others see their own, role and location
// occurrences, plus shared ones that are unlocated or at one of their
// locations.
func (id Identity) CanSee(occ Occurrence) bool {
	if id.IsAdmin {
		return true
	}
	if occ.Scope == nil {
		return false
	}
	if id.IsManager && id.AssignedTo(occ.Scope.Location()) {
		return true
	}

	switch s := occ.Scope.(type) {
	case ScopeEmployee:
		return id.EmployeeID != 0 && s.EmployeeID == id.EmployeeID
	case ScopeRole:
		return id.Role != "" && s.Role == id.Role && (s.LocationID == 0 || id.AssignedTo(s.LocationID))
	case ScopeLocation:
		return id.AssignedTo(s.LocationID)
	case ScopeShared:
		return s.LocationID == 0 || id.AssignedTo(s.LocationID)
	default:
		return false
	}
}

// AssignedTo reports whether the identity works at location
func (id Identity) AssignedTo(location uint) bool {
	if location == 0 {
		return false
	}
	for _, l := range id.LocationIDs {
		if l == location {
			return true
		}
	}
	return false
}

func validGroupKey(k GroupKey) bool {
	switch k {
	case GroupByDay, GroupByEmployee, GroupByLocation:
		return true
	}
	return false
}

// group partitions items; every item lands in exactly one group
func group(items []TaskWithCoverage, by GroupKey, dir Directory) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, item := range items {
		key, label := groupKeyFor(item, by, dir)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: label})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a == unassignedGroup || b == unassignedGroup {
			return b == unassignedGroup && a != unassignedGroup
		}
		return a < b
	})
	for _, g := range groups {
		sortItems(g.Items)
	}
	return groups
}

func groupKeyFor(item TaskWithCoverage, by GroupKey, dir Directory) (string, string) {
	switch by {
	case GroupByEmployee:
		id := responsibleEmployee(item)
		if id == 0 {
			return unassignedGroup, "Unassigned"
		}
		label := dir.employee(id)
		if label == "" {
			label = "Employee #" + strconv.FormatUint(uint64(id), 10)
		}
		return fmt.Sprintf("employee:%010d", id), label
	case GroupByLocation:
		id := item.Scope.Location()
		if id == 0 {
			return unassignedGroup, "Unassigned"
		}
		label := dir.location(id)
		if label == "" {
			label = "Location #" + strconv.FormatUint(uint64(id), 10)
		}
		return fmt.Sprintf("location:%010d", id), label
	default:
		return item.Date.Format(dateLayout), item.Date.Format("Mon, Jan 2 2006")
	}
}

// responsibleEmployee is the targeted employee, else the first covering one
func responsibleEmployee(item TaskWithCoverage) uint {
	if s, ok := item.Scope.(ScopeEmployee); ok {
		return s.EmployeeID
	}
	if len(item.Coverage.CoveringEmployeeIDs) > 0 {
		return item.Coverage.CoveringEmployeeIDs[0]
	}
	return 0
}

func sortItems(items []TaskWithCoverage) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Key < b.Key
	})
}
