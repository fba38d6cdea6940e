package CronJobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"Dashspect/Models"
	"Dashspect/Notifications"
	"Dashspect/TaskEngine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingDigest struct {
	name    string
	err     error
	results []TaskEngine.Result
	days    []time.Time
}

func (r *recordingDigest) Name() string { return r.name }

func (r *recordingDigest) SendDigest(ctx context.Context, result TaskEngine.Result, day time.Time) error {
	r.results = append(r.results, result)
	r.days = append(r.days, day)
	return r.err
}

type recordingMessenger struct {
	to []string
}

func (m *recordingMessenger) SendMessage(ctx context.Context, phone, message string) error {
	m.to = append(m.to, phone)
	return nil
}

func seededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, Models.Seed(db, Models.SeedData{
		Locations: []Models.Location{{Name: "Downtown"}},
		Users: []Models.SeedUser{
			{Name: "Amira", Email: "amira@example.com", Password: "secret", Role: "cook", Phone: "+201000000001", Locations: []string{"Downtown"}},
		},
		Tasks: []Models.SeedTask{
			{Title: "Open registers", Pattern: "daily", StartDate: "2024-01-01", StartTime: "08:00", ScopeType: "location", Location: "Downtown"},
		},
		Shifts: []Models.SeedShift{
			{Employee: "amira@example.com", Location: "Downtown", Date: "2024-01-02", StartTime: "07:00", EndTime: "15:00"},
		},
	}))
	return db
}

func newTestScheduler(t *testing.T, dispatcher *Notifications.Dispatcher, digests ...DigestSender) *Scheduler {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	db := seededDB(t)
	if dispatcher != nil {
		dispatcher.DB = db
	}
	p := TaskEngine.NewPipeline(TaskEngine.DefaultGraceWindow)
	p.Logger = log.New(io.Discard, "", 0)
	s := NewScheduler(db, p, time.UTC, dispatcher, digests...)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestRunDigest_SendsTodayGroupedByLocation(t *testing.T) {
	slack := &recordingDigest{name: "slack"}
	mail := &recordingDigest{name: "email"}
	s := newTestScheduler(t, nil, slack, mail)

	require.NoError(t, s.RunDigest(context.Background()))

	require.Len(t, slack.results, 1)
	require.Len(t, mail.results, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), slack.days[0])

	res := slack.results[0]
	assert.Equal(t, TaskEngine.GroupByLocation, res.GroupBy)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "Downtown", res.Groups[0].Label)
	require.Len(t, res.Items(), 1)
	assert.True(t, res.Items()[0].Coverage.IsOverdue)
}

func TestRunDigest_ReportsFailedSenders(t *testing.T) {
	broken := &recordingDigest{name: "slack", err: errors.New("channel_not_found")}
	ok := &recordingDigest{name: "email"}
	s := newTestScheduler(t, nil, broken, ok)

	err := s.RunDigest(context.Background())
	assert.ErrorContains(t, err, "1 of 2")
	assert.Len(t, ok.results, 1)
}

func TestRunOverdueSweep(t *testing.T) {
	messenger := &recordingMessenger{}
	s := newTestScheduler(t, Notifications.NewDispatcher(nil, messenger, nil))

	report, err := s.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	// Monday had nobody on shift, so only Tuesday's registers are overdue
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"+201000000001"}, messenger.to)

	report, err = s.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, report.Skipped)
}

func TestSchedules(t *testing.T) {
	s := newTestScheduler(t, nil)

	assert.Error(t, s.UpdateSweepSchedule("every five minutes"))
	require.NoError(t, s.Start("0 */5 * * * *", "0 0 6 * * *"))
	defer s.Stop()

	first := s.sweepID
	require.NoError(t, s.UpdateSweepSchedule("0 */10 * * * *"))
	assert.NotEqual(t, first, s.sweepID)
	assert.Len(t, s.cronScheduler.Entries(), 2)
}

func TestRunNow(t *testing.T) {
	digest := &recordingDigest{name: "slack"}
	s := newTestScheduler(t, nil, digest)

	_, err := s.RunNow(context.Background(), JobDigest)
	require.NoError(t, err)
	assert.Len(t, digest.results, 1)

	report, err := s.RunNow(context.Background(), JobOverdueSweep)
	require.NoError(t, err)
	assert.Equal(t, Notifications.Report{}, report)

	_, err = s.RunNow(context.Background(), "backup")
	assert.Error(t, err)
}
