package TaskEngine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateLock_ScheduledWindow(t *testing.T) {
	def := TaskDefinition{
		ID:                  1,
		Pattern:             PatternOnce,
		Date:                day(2024, 6, 3),
		StartMinute:         minutes(14 * 60),
		DurationMinutes:     60,
		LockMode:            LockScheduled,
		UnlockWindowMinutes: 30,
		Scope:               ScopeShared{LocationID: 1},
	}
	occ, ok, err := OccurrenceOn(def, day(2024, 6, 3))
	require.NoError(t, err)
	require.True(t, ok)

	at := func(h, m int) time.Time { return time.Date(2024, 6, 3, h, m, 0, 0, time.UTC) }

	d := EvaluateLock(occ, at(13, 29))
	assert.False(t, d.Completable)
	assert.Equal(t, LockReasonNotYetUnlocked, d.Reason)
	assert.ErrorIs(t, d.Err(), ErrNotYetUnlocked)

	d = EvaluateLock(occ, at(13, 30))
	assert.True(t, d.Completable)
	assert.NoError(t, d.Err())

	d = EvaluateLock(occ, at(15, 0))
	assert.True(t, d.Completable, "deadline is inclusive")

	d = EvaluateLock(occ, at(15, 1))
	assert.False(t, d.Completable)
	assert.Equal(t, LockReasonWindowClosed, d.Reason)
	assert.ErrorIs(t, d.Err(), ErrWindowClosed)

	// still overdue when someone is on shift
	shifts := []Shift{{ID: 1, EmployeeID: 7, LocationID: 1, Date: day(2024, 6, 3)}}
	res := ResolveCoverage(occ, shifts, false, at(15, 1), DefaultGraceWindow)
	assert.True(t, res.IsOverdue)
}

func TestEvaluateLock_AnytimeAndNoStart(t *testing.T) {
	start := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	anytime := Occurrence{LockMode: LockAnytime, Start: &start, Deadline: start.Add(time.Hour)}
	assert.True(t, EvaluateLock(anytime, start.Add(-10*time.Hour)).Completable)

	noStart := Occurrence{LockMode: LockScheduled, Deadline: day(2024, 6, 4)}
	assert.True(t, EvaluateLock(noStart, day(2024, 6, 10)).Completable)
}
