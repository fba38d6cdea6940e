package TaskEngine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive span of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both ends to midnight in start's location.
// An end before start is a caller bug and fails with ErrInvalidRange.
func NewDateRange(start, end time.Time) (DateRange, error) {
	loc := start.Location()
	r := DateRange{Start: dateIn(start, loc), End: dateIn(end, loc)}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start.Format(dateLayout), r.End.Format(dateLayout))
	}
	return r, nil
}

// SingleDay returns the range covering only day
func SingleDay(day time.Time) DateRange {
	d := dateIn(day, day.Location())
	return DateRange{Start: d, End: d}
}

func (r DateRange) Contains(day time.Time) bool {
	d := dateIn(day, r.Start.Location())
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns every date of the range in ascending order
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// dateIn keeps t's calendar date and moves it to midnight in loc
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OccurrenceKey is the virtual id of a task on a date: "<taskID>:<YYYY-MM-DD>"
func OccurrenceKey(taskID uint, date time.Time) string {
	return strconv.FormatUint(uint64(taskID), 10) + ":" + date.Format(dateLayout)
}

// ParseOccurrenceKey splits a virtual id back into its task id and date in loc
func ParseOccurrenceKey(key string, loc *time.Location) (uint, time.Time, error) {
	idPart, datePart, ok := strings.Cut(key, ":")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidOccurrence, key)
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidOccurrence, key)
	}
	date, err := time.ParseInLocation(dateLayout, datePart, loc)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidOccurrence, key)
	}
	return uint(id), date, nil
}

// ValidateRecurrence checks that the recurrence fields agree with the declared pattern
func ValidateRecurrence(def TaskDefinition) error {
	malformed := func(reason string) error {
		return fmt.Errorf("%w: task %d: %s", ErrMalformedDefinition, def.ID, reason)
	}

	if def.StartMinute != nil && (*def.StartMinute < 0 || *def.StartMinute >= 24*60) {
		return malformed("start time outside the day")
	}
	if def.DurationMinutes < 0 {
		return malformed("negative duration")
	}

	switch def.Pattern {
	case PatternOnce:
		if def.Date.IsZero() {
			return malformed("one-off pattern without a date")
		}
		return nil
	case PatternDaily, PatternWeekly, PatternMonthly:
	default:
		return malformed(fmt.Sprintf("unknown pattern %q", def.Pattern))
	}

	if def.StartDate.IsZero() {
		return malformed("recurring pattern without start date")
	}
	if !def.EndDate.IsZero() && dateIn(def.EndDate, time.UTC).Before(dateIn(def.StartDate, time.UTC)) {
		return malformed("end date before start date")
	}
	if def.Pattern == PatternWeekly && (def.DayOfWeek == nil || *def.DayOfWeek < time.Sunday || *def.DayOfWeek > time.Saturday) {
		return malformed("weekly pattern without a valid day of week")
	}
	if def.Pattern == PatternMonthly && (def.DayOfMonth < 1 || def.DayOfMonth > 31) {
		return malformed("monthly pattern without a valid day of month")
	}
	return nil
}

// Expand projects def onto every matching date of window, ascending.
// Archived definitions are the caller's concern.
func Expand(def TaskDefinition, window DateRange) ([]Occurrence, error) {
	if err := ValidateRecurrence(def); err != nil {
		return nil, err
	}
	loc := window.Start.Location()

	var dates []time.Time
	switch def.Pattern {
	case PatternOnce:
		if d := dateIn(def.Date, loc); window.Contains(d) {
			dates = append(dates, d)
		}

	case PatternDaily:
		from, to, ok := recurrenceBounds(def, window)
		if !ok {
			break
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}

	case PatternWeekly:
		from, to, ok := recurrenceBounds(def, window)
		if !ok {
			break
		}
		offset := (int(*def.DayOfWeek) - int(from.Weekday()) + 7) % 7
		for d := from.AddDate(0, 0, offset); !d.After(to); d = d.AddDate(0, 0, 7) {
			dates = append(dates, d)
		}

	case PatternMonthly:
		from, to, ok := recurrenceBounds(def, window)
		if !ok {
			break
		}
		for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, loc); !month.After(to); month = month.AddDate(0, 1, 0) {
			day := def.DayOfMonth
			if last := daysInMonth(month.Year(), month.Month()); day > last {
				day = last
			}
			d := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, loc)
			if d.Before(from) || d.After(to) {
				continue
			}
			dates = append(dates, d)
		}
	}

	occurrences := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		occurrences = append(occurrences, project(def, d))
	}
	return occurrences, nil
}

// recurrenceBounds intersects the definition's active span with the window
func recurrenceBounds(def TaskDefinition, window DateRange) (time.Time, time.Time, bool) {
	loc := window.Start.Location()
	from, to := window.Start, window.End
	if start := dateIn(def.StartDate, loc); start.After(from) {
		from = start
	}
	if !def.EndDate.IsZero() {
		if end := dateIn(def.EndDate, loc); end.Before(to) {
			to = end
		}
	}
	return from, to, !to.Before(from)
}

func project(def TaskDefinition, date time.Time) Occurrence {
	occ := Occurrence{
		Key:          OccurrenceKey(def.ID, date),
		TaskID:       def.ID,
		Title:        def.Title,
		Date:         date,
		Scope:        def.Scope,
		LockMode:     def.LockMode,
		UnlockWindow: time.Duration(def.UnlockWindowMinutes) * time.Minute,
	}
	if occ.LockMode == "" {
		occ.LockMode = LockAnytime
	}
	if def.UnlockWindowMinutes <= 0 {
		occ.UnlockWindow = DefaultUnlockWindowMinutes * time.Minute
	}

	duration := def.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if def.StartMinute == nil {
		occ.Deadline = date.AddDate(0, 0, 1)
		return occ
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, *def.StartMinute, 0, 0, date.Location())
	occ.Start = &start
	occ.Deadline = start.Add(time.Duration(duration) * time.Minute)
	return occ
}

// OccurrenceOn returns def's occurrence on date, if the recurrence produces one
func OccurrenceOn(def TaskDefinition, date time.Time) (Occurrence, bool, error) {
	occurrences, err := Expand(def, SingleDay(date))
	if err != nil {
		return Occurrence{}, false, err
	}
	if len(occurrences) == 0 {
		return Occurrence{}, false, nil
	}
	return occurrences[0], true, nil
}
