package Slack

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"Dashspect/TaskEngine"

	"github.com/slack-go/slack"
)

// API is the part of the slack-go client the digest uses
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	AddPinContext(ctx context.Context, channel string, item slack.ItemRef) error
	RemovePinContext(ctx context.Context, channel string, item slack.ItemRef) error
	ListPinsContext(ctx context.Context, channel string) ([]slack.Item, *slack.Paging, error)
}

// Digest posts the day's board to a channel and keeps it pinned
type Digest struct {
	API     API
	Channel string
	now     func() time.Time
}

// NewDigest needs a bot token with chat:write, pins:write, pins:read and
// channels:history
func NewDigest(botToken, channel string) *Digest {
	return &Digest{
		API:     slack.New(botToken),
		Channel: channel,
		now:     time.Now,
	}
}

func (d *Digest) Name() string { return "slack" }

func (d *Digest) SendDigest(ctx context.Context, result TaskEngine.Result, day time.Time) error {
	return d.SendAndPinWithCleanup(ctx, DigestText(result, day, d.now()))
}

func statusEmoji(item TaskEngine.TaskWithCoverage) string {
	switch {
	case item.Completed != nil:
		return ":white_check_mark:"
	case item.Coverage.IsLate:
		return ":hourglass:"
	case item.Coverage.IsOverdue:
		return ":red_circle:"
	case !item.Coverage.IsCovered:
		return ":grey_question:"
	default:
		return ":large_blue_circle:"
	}
}

// DigestText renders result as Slack mrkdwn, one section per group
func DigestText(result TaskEngine.Result, day, now time.Time) string {
	var message strings.Builder
	s := result.Summary()

	message.WriteString(fmt.Sprintf("*Tasks for %s*\n", day.Format("Monday, January 2, 2006")))
	message.WriteString(fmt.Sprintf("%d total | %d done | %d overdue | %d uncovered\n", s.Total, s.Completed, s.Overdue, s.Uncovered))

	if len(result.Groups) == 0 {
		message.WriteString("\n_No tasks scheduled._\n")
	}
	for _, g := range result.Groups {
		message.WriteString(fmt.Sprintf("\n*%s*\n", g.Label))
		for _, item := range g.Items {
			line := fmt.Sprintf("%s %s, due %s", statusEmoji(item), item.Title, item.Deadline.Format("15:04"))
			if item.Labels.Employee != "" {
				line += " (" + item.Labels.Employee + ")"
			} else if item.Labels.Role != "" {
				line += " (" + item.Labels.Role + ")"
			}
			message.WriteString(line + "\n")
		}
	}

	message.WriteString(fmt.Sprintf("\n*Last Updated:* %s\n", now.Format("15:04")))
	message.WriteString("Commands: `!status`, `!overdue`, `!help`")
	return message.String()
}

// SendAndPinWithCleanup replaces the bot's previous digest with message and
// pins it. Nothing is posted when only the update time changed.
func (d *Digest) SendAndPinWithCleanup(ctx context.Context, message string) error {
	history, err := d.API.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: d.Channel,
		Limit:     100,
	})
	if err != nil {
		log.Printf("Warning: Could not get channel history: %v", err)
	} else {
		var botMessages []slack.Message
		for _, msg := range history.Messages {
			if msg.BotID != "" {
				botMessages = append(botMessages, msg)
			}
		}
		if len(botMessages) > 0 && messagesAreEqual(botMessages[0].Text, message) {
			return nil
		}
		for _, msg := range botMessages {
			if _, _, err := d.API.DeleteMessageContext(ctx, d.Channel, msg.Timestamp); err != nil {
				log.Printf("Could not delete message %s: %v", msg.Timestamp, err)
			}
		}
	}

	pins, _, err := d.API.ListPinsContext(ctx, d.Channel)
	if err != nil {
		log.Printf("Warning: Could not get pinned messages: %v", err)
	}
	for _, pin := range pins {
		if pin.Message == nil {
			continue
		}
		if err := d.API.RemovePinContext(ctx, d.Channel, slack.NewRefToMessage(d.Channel, pin.Message.Timestamp)); err != nil {
			log.Printf("Could not unpin message %s: %v", pin.Message.Timestamp, err)
		}
	}

	_, timestamp, err := d.API.PostMessageContext(ctx, d.Channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	if err := d.API.AddPinContext(ctx, d.Channel, slack.NewRefToMessage(d.Channel, timestamp)); err != nil {
		log.Printf("Warning: Message sent but pinning failed: %v", err)
	}
	return nil
}

// messagesAreEqual compares two digests ignoring the update time line
func messagesAreEqual(oldMessage, newMessage string) bool {
	return strings.TrimSpace(removeTimestampLines(oldMessage)) == strings.TrimSpace(removeTimestampLines(newMessage))
}

func removeTimestampLines(message string) string {
	lines := strings.Split(message, "\n")
	filtered := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, "*Last Updated:*") {
			filtered = append(filtered, line)
		}
	}
	return strings.Join(filtered, "\n")
}
