package Notifications

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"Dashspect/Models"
	"Dashspect/TaskEngine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMessage struct {
	To   string
	Body string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeMessenger) SendMessage(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{To: phone, Body: message})
	return nil
}

type fakePusher struct {
	tokens []string
	data   []map[string]string
}

func (f *fakePusher) Push(ctx context.Context, token string, title, body string, data map[string]string) error {
	f.tokens = append(f.tokens, token)
	f.data = append(f.data, data)
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db     *gorm.DB
	amira  Models.User
	omar   Models.User
	result TaskEngine.Result
}

func setup(t *testing.T) fixture {
	db := testDB(t)
	location := Models.Location{Name: "Downtown", WhatsappGroup: "group-downtown"}
	require.NoError(t, db.Create(&location).Error)
	amira := Models.User{Name: "Amira", Email: "amira@example.com", Phone: "+201000000001", Permission: Models.PermissionEmployee, IsActive: true}
	omar := Models.User{Name: "Omar", Email: "omar@example.com", Permission: Models.PermissionEmployee, IsActive: true}
	require.NoError(t, db.Create(&amira).Error)
	require.NoError(t, db.Create(&omar).Error)
	require.NoError(t, db.Create(&Models.FCMToken{UserID: amira.ID, Value: "tok-amira"}).Error)

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	item := func(key, title string, deadlineHour int, scope TaskEngine.Scope, covering []uint, overdue bool) TaskEngine.TaskWithCoverage {
		return TaskEngine.TaskWithCoverage{
			Occurrence: TaskEngine.Occurrence{
				Key:      key,
				Title:    title,
				Date:     date,
				Deadline: date.Add(time.Duration(deadlineHour) * time.Hour),
				Scope:    scope,
			},
			Labels:   TaskEngine.ScopeLabels{LocationID: location.ID, Location: location.Name},
			Coverage: TaskEngine.CoverageResult{IsCovered: true, CoveringEmployeeIDs: covering, IsOverdue: overdue},
		}
	}

	result := TaskEngine.Result{Groups: []TaskEngine.Group{{
		Key: "2024-01-02",
		Items: []TaskEngine.TaskWithCoverage{
			item("1:2024-01-02", "Open registers", 9, TaskEngine.ScopeLocation{LocationID: location.ID}, []uint{amira.ID, omar.ID}, true),
			item("3:2024-01-02", "Count stock", 10, TaskEngine.ScopeEmployee{EmployeeID: amira.ID, LocationID: location.ID}, []uint{amira.ID}, true),
			item("5:2024-01-02", "Close registers", 22, TaskEngine.ScopeLocation{LocationID: location.ID}, []uint{amira.ID, omar.ID}, false),
		},
	}}}
	return fixture{db: db, amira: amira, omar: omar, result: result}
}

func TestMostOverduePerEmployee(t *testing.T) {
	f := setup(t)
	picked := MostOverduePerEmployee(f.result.Items())

	require.Len(t, picked, 2)
	assert.Equal(t, "1:2024-01-02", picked[f.amira.ID].Key)
	assert.Equal(t, "1:2024-01-02", picked[f.omar.ID].Key)
}

func TestOverdueByEmployee(t *testing.T) {
	f := setup(t)
	queues := OverdueByEmployee(f.result.Items())

	keys := func(items []TaskEngine.TaskWithCoverage) []string {
		var out []string
		for _, item := range items {
			out = append(out, item.Key)
		}
		return out
	}
	assert.Equal(t, []string{"1:2024-01-02", "3:2024-01-02"}, keys(queues[f.amira.ID]))
	assert.Equal(t, []string{"1:2024-01-02"}, keys(queues[f.omar.ID]))
}

func TestNotifyOverdue_SendsMostOverdueAndEscalates(t *testing.T) {
	f := setup(t)
	messenger := &fakeMessenger{}
	pusher := &fakePusher{}
	d := NewDispatcher(f.db, messenger, pusher)
	now := time.Date(2024, 1, 2, 13, 30, 0, 0, time.UTC)

	report, err := d.NotifyOverdue(context.Background(), f.result, now)
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 3}, report)

	require.Len(t, messenger.sent, 2)
	assert.Equal(t, f.amira.Phone, messenger.sent[0].To)
	assert.Contains(t, messenger.sent[0].Body, "Open registers")
	// only the 09:00 deadline is more than four hours late
	assert.Equal(t, "group-downtown", messenger.sent[1].To)
	assert.Contains(t, messenger.sent[1].Body, "Open registers")

	assert.Equal(t, []string{"tok-amira"}, pusher.tokens)
	assert.Equal(t, "1:2024-01-02", pusher.data[0]["occurrence_key"])

	var logged int64
	f.db.Model(&Models.NotificationLog{}).Count(&logged)
	assert.Equal(t, int64(3), logged)
}

func TestNotifyOverdue_WorksThroughBacklog(t *testing.T) {
	f := setup(t)
	messenger := &fakeMessenger{}
	pusher := &fakePusher{}
	d := NewDispatcher(f.db, messenger, pusher)
	start := time.Date(2024, 1, 2, 13, 30, 0, 0, time.UTC)

	var reports []Report
	for i := 0; i < 5; i++ {
		report, err := d.NotifyOverdue(context.Background(), f.result, start.Add(time.Duration(i)*5*time.Minute))
		require.NoError(t, err)
		reports = append(reports, report)
	}

	assert.Equal(t, Report{Sent: 3}, reports[0])
	// the escalated item is skipped while Amira's own task goes out
	assert.Equal(t, Report{Sent: 2, Skipped: 1}, reports[1])
	for _, report := range reports[2:] {
		assert.Equal(t, Report{Skipped: 3}, report)
	}

	var toAmira []string
	for _, m := range messenger.sent {
		if m.To == f.amira.Phone {
			toAmira = append(toAmira, m.Body)
		}
	}
	require.Len(t, toAmira, 2)
	assert.Contains(t, toAmira[0], "Open registers")
	assert.Contains(t, toAmira[1], "Count stock")

	require.Len(t, pusher.data, 2)
	assert.Equal(t, "1:2024-01-02", pusher.data[0]["occurrence_key"])
	assert.Equal(t, "3:2024-01-02", pusher.data[1]["occurrence_key"])

	var logged int64
	f.db.Model(&Models.NotificationLog{}).Count(&logged)
	assert.Equal(t, int64(5), logged)
}

func TestNotifyOverdue_NothingOverdue(t *testing.T) {
	f := setup(t)
	messenger := &fakeMessenger{}
	d := NewDispatcher(f.db, messenger, nil)

	res := TaskEngine.Result{Groups: []TaskEngine.Group{{Items: f.result.Items()[2:]}}}
	report, err := d.NotifyOverdue(context.Background(), res, time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, messenger.sent)
}
