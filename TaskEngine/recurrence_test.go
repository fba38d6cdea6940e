package TaskEngine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	r, err := NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func weekday(w time.Weekday) *time.Weekday { return &w }

func minutes(m int) *int { return &m }

func dates(occurrences []Occurrence) []string {
	out := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o.Date.Format("2006-01-02"))
	}
	return out
}

func TestNewDateRange_EndBeforeStart(t *testing.T) {
	_, err := NewDateRange(day(2024, 1, 10), day(2024, 1, 9))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestExpand_OneOffInsideAndOutsideWindow(t *testing.T) {
	def := TaskDefinition{ID: 1, Pattern: PatternOnce, Date: day(2024, 3, 5), Scope: ScopeShared{}}

	inside, err := Expand(def, mustRange(t, day(2024, 3, 1), day(2024, 3, 5)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-05"}, dates(inside))

	outside, err := Expand(def, mustRange(t, day(2024, 3, 6), day(2024, 3, 31)))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestExpand_OneOffWithoutDateIsMalformed(t *testing.T) {
	def := TaskDefinition{ID: 42, Pattern: PatternOnce, Scope: ScopeShared{}}

	var keys []string
	for d := 1; d <= 3; d++ {
		got, err := Expand(def, SingleDay(day(2024, 1, d)))
		assert.ErrorIs(t, err, ErrMalformedDefinition)
		for _, occ := range got {
			keys = append(keys, occ.Key)
		}
	}
	assert.Empty(t, keys)
}

func TestExpand_DailyStartsAtLaterOfTaskAndWindow(t *testing.T) {
	def := TaskDefinition{ID: 3, Pattern: PatternDaily, StartDate: day(2024, 1, 3), Scope: ScopeShared{}}

	got, err := Expand(def, mustRange(t, day(2024, 1, 1), day(2024, 1, 5)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-03", "2024-01-04", "2024-01-05"}, dates(got))
}

func TestExpand_DailyStopsAtEndDate(t *testing.T) {
	def := TaskDefinition{ID: 3, Pattern: PatternDaily, StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2), Scope: ScopeShared{}}

	got, err := Expand(def, mustRange(t, day(2024, 1, 1), day(2024, 1, 5)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, dates(got))
}

func TestExpand_WeeklyMondays(t *testing.T) {
	def := TaskDefinition{ID: 4, Pattern: PatternWeekly, DayOfWeek: weekday(time.Monday), StartDate: day(2024, 1, 1), Scope: ScopeShared{}}

	got, err := Expand(def, mustRange(t, day(2024, 1, 1), day(2024, 1, 22)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}, dates(got))
}

func TestExpand_WeeklyAnchorOutsideWindow(t *testing.T) {
	def := TaskDefinition{ID: 4, Pattern: PatternWeekly, DayOfWeek: weekday(time.Sunday), StartDate: day(2024, 1, 1), Scope: ScopeShared{}}

	// Monday to Saturday never hits a Sunday
	got, err := Expand(def, mustRange(t, day(2024, 1, 1), day(2024, 1, 6)))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_MonthlyClampsToMonthLength(t *testing.T) {
	def := TaskDefinition{ID: 5, Pattern: PatternMonthly, DayOfMonth: 31, StartDate: day(2024, 1, 1), Scope: ScopeShared{}}

	got, err := Expand(def, mustRange(t, day(2024, 1, 1), day(2024, 4, 30)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, dates(got))

	got, err = Expand(def, mustRange(t, day(2023, 2, 1), day(2023, 2, 28)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-02-28"}, dates(got))
}

func TestExpand_MalformedDefinitions(t *testing.T) {
	window := mustRange(t, day(2024, 1, 1), day(2024, 1, 31))
	cases := map[string]TaskDefinition{
		"weekly without day":    {ID: 6, Pattern: PatternWeekly, StartDate: day(2024, 1, 1)},
		"monthly day zero":      {ID: 7, Pattern: PatternMonthly, StartDate: day(2024, 1, 1)},
		"monthly day 32":        {ID: 8, Pattern: PatternMonthly, DayOfMonth: 32, StartDate: day(2024, 1, 1)},
		"recurring no start":    {ID: 9, Pattern: PatternDaily},
		"unknown pattern":       {ID: 10, Pattern: "hourly", StartDate: day(2024, 1, 1)},
		"start minute overflow": {ID: 11, Pattern: PatternOnce, StartMinute: minutes(24 * 60)},
	}
	for name, def := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Expand(def, window)
			assert.True(t, errors.Is(err, ErrMalformedDefinition), "got %v", err)
		})
	}
}

func TestExpand_IsRestartable(t *testing.T) {
	def := TaskDefinition{ID: 12, Pattern: PatternWeekly, DayOfWeek: weekday(time.Friday), StartDate: day(2024, 1, 1), Scope: ScopeShared{}}
	window := mustRange(t, day(2024, 1, 1), day(2024, 2, 29))

	first, err := Expand(def, window)
	require.NoError(t, err)
	second, err := Expand(def, window)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProject_StartAndDeadline(t *testing.T) {
	def := TaskDefinition{ID: 13, Pattern: PatternOnce, Date: day(2024, 5, 1), StartMinute: minutes(14 * 60), DurationMinutes: 45, Scope: ScopeShared{}}

	occ, ok, err := OccurrenceOn(def, day(2024, 5, 1))
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, occ.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), *occ.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 45, 0, 0, time.UTC), occ.Deadline)
	assert.Equal(t, "13:2024-05-01", occ.Key)
	assert.Equal(t, LockAnytime, occ.LockMode)
	assert.Equal(t, 30*time.Minute, occ.UnlockWindow)
}

func TestProject_NoStartTimeDeadlineIsEndOfDay(t *testing.T) {
	def := TaskDefinition{ID: 14, Pattern: PatternOnce, Date: day(2024, 5, 1), Scope: ScopeShared{}}

	occ, ok, err := OccurrenceOn(def, day(2024, 5, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, occ.Start)
	assert.Equal(t, day(2024, 5, 2), occ.Deadline)
}

func TestParseOccurrenceKey(t *testing.T) {
	id, date, err := ParseOccurrenceKey("42:2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, day(2024, 2, 29), date)
	assert.Equal(t, "42:2024-02-29", OccurrenceKey(id, date))

	for _, bad := range []string{"", "42", "x:2024-01-01", "0:2024-01-01", "42:2024-13-01"} {
		_, _, err := ParseOccurrenceKey(bad, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidOccurrence, bad)
	}
}
