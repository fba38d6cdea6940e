package Slack

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"Dashspect/TaskEngine"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	history  []slack.Message
	pins     []slack.Item
	posted   []string
	deleted  []string
	pinned   []string
	unpinned []string
}

func (f *fakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.com/api/", options...)
	if err != nil {
		return "", "", err
	}
	f.posted = append(f.posted, values.Get("text"))
	return channelID, "1700000000.000200", nil
}

func (f *fakeAPI) DeleteMessageContext(ctx context.Context, channel, ts string) (string, string, error) {
	f.deleted = append(f.deleted, ts)
	return channel, ts, nil
}

func (f *fakeAPI) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	return &slack.GetConversationHistoryResponse{Messages: f.history}, nil
}

func (f *fakeAPI) AddPinContext(ctx context.Context, channel string, item slack.ItemRef) error {
	f.pinned = append(f.pinned, item.Timestamp)
	return nil
}

func (f *fakeAPI) RemovePinContext(ctx context.Context, channel string, item slack.ItemRef) error {
	f.unpinned = append(f.unpinned, item.Timestamp)
	return nil
}

func (f *fakeAPI) ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error) {
	return f.pins, nil, nil
}

func botMessage(ts, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{Timestamp: ts, Text: text, BotID: "B1"}}
}

var day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func board() TaskEngine.Result {
	return TaskEngine.Result{Groups: []TaskEngine.Group{{
		Label: "Downtown",
		Items: []TaskEngine.TaskWithCoverage{
			{
				Occurrence: TaskEngine.Occurrence{Key: "1:2024-01-02", Title: "Open registers", Date: day, Deadline: day.Add(9 * time.Hour)},
				Labels:     TaskEngine.ScopeLabels{Location: "Downtown", Role: "cashier"},
				Coverage:   TaskEngine.CoverageResult{IsCovered: true, IsOverdue: true},
			},
			{
				Occurrence: TaskEngine.Occurrence{Key: "3:2024-01-02", Title: "Count stock", Date: day, Deadline: day.Add(10 * time.Hour)},
				Labels:     TaskEngine.ScopeLabels{Location: "Downtown", Employee: "Amira"},
				Coverage:   TaskEngine.CoverageResult{IsCovered: true},
				Completed:  &TaskEngine.Completion{Key: "3:2024-01-02"},
			},
		},
	}}}
}

func TestDigestText(t *testing.T) {
	text := DigestText(board(), day, day.Add(6*time.Hour))

	assert.True(t, strings.HasPrefix(text, "*Tasks for Tuesday, January 2, 2024*\n"))
	assert.Contains(t, text, "2 total | 1 done | 1 overdue | 0 uncovered")
	assert.Contains(t, text, ":red_circle: Open registers, due 09:00 (cashier)")
	assert.Contains(t, text, ":white_check_mark: Count stock, due 10:00 (Amira)")
	assert.Contains(t, text, "*Last Updated:* 06:00")
}

func TestMessagesAreEqualIgnoresUpdateTime(t *testing.T) {
	a := DigestText(board(), day, day.Add(6*time.Hour))
	b := DigestText(board(), day, day.Add(7*time.Hour))
	assert.True(t, messagesAreEqual(a, b))
	assert.False(t, messagesAreEqual(a, DigestText(TaskEngine.Result{}, day, day)))
}

func TestSendAndPinWithCleanup(t *testing.T) {
	api := &fakeAPI{
		history: []slack.Message{
			{Msg: slack.Msg{Timestamp: "3", Text: "hello", User: "U1"}},
			botMessage("2", "old digest"),
			botMessage("1", "older digest"),
		},
		pins: []slack.Item{{Type: "message", Message: &slack.Message{Msg: slack.Msg{Timestamp: "2"}}}},
	}
	d := &Digest{API: api, Channel: "C1", now: func() time.Time { return day.Add(6 * time.Hour) }}

	require.NoError(t, d.SendDigest(context.Background(), board(), day))

	assert.Equal(t, []string{"2", "1"}, api.deleted)
	assert.Equal(t, []string{"2"}, api.unpinned)
	require.Len(t, api.posted, 1)
	assert.Contains(t, api.posted[0], "Open registers")
	assert.Equal(t, []string{"1700000000.000200"}, api.pinned)
}

func TestSendAndPinWithCleanup_UnchangedDigestIsSkipped(t *testing.T) {
	current := DigestText(board(), day, day.Add(6*time.Hour))
	api := &fakeAPI{history: []slack.Message{botMessage("2", current)}}
	d := &Digest{API: api, Channel: "C1", now: func() time.Time { return day.Add(8 * time.Hour) }}

	require.NoError(t, d.SendDigest(context.Background(), board(), day))
	assert.Empty(t, api.posted)
	assert.Empty(t, api.deleted)
}

func TestCommands(t *testing.T) {
	c := NewCommands(func(ctx context.Context) (TaskEngine.Result, time.Time, error) {
		return board(), day, nil
	})
	c.now = func() time.Time { return day.Add(12 * time.Hour) }
	ctx := context.Background()

	reply, err := c.Process(ctx, "!status")
	require.NoError(t, err)
	assert.Contains(t, reply, "*Downtown*")

	reply, err = c.Process(ctx, "!OVERDUE")
	require.NoError(t, err)
	assert.Equal(t, "*1 overdue*\n- Open registers at Downtown, due 09:00 (overdue)", reply)

	reply, err = c.Process(ctx, "!help")
	require.NoError(t, err)
	assert.Contains(t, reply, "`!overdue`")

	_, err = c.Process(ctx, "!launch")
	assert.Error(t, err)
}

func TestCommands_BoardError(t *testing.T) {
	c := NewCommands(func(ctx context.Context) (TaskEngine.Result, time.Time, error) {
		return TaskEngine.Result{}, time.Time{}, errors.New("db down")
	})
	reply, err := c.Process(context.Background(), "!status")
	assert.Error(t, err)
	assert.Equal(t, "Error loading today's tasks", reply)
}
