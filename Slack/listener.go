package Slack

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"Dashspect/Reports"
	"Dashspect/TaskEngine"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// BoardFunc lists today's occurrences for every location
type BoardFunc func(ctx context.Context) (TaskEngine.Result, time.Time, error)

// Commands answers the `!` commands typed in the task channel
type Commands struct {
	Board BoardFunc
	now   func() time.Time
}

func NewCommands(board BoardFunc) *Commands {
	return &Commands{Board: board, now: time.Now}
}

// Process returns the reply for command, or an error for unknown commands
func (c *Commands) Process(ctx context.Context, command string) (string, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty command")
	}

	switch strings.ToLower(parts[0]) {
	case "!status":
		result, day, err := c.Board(ctx)
		if err != nil {
			return "Error loading today's tasks", err
		}
		return DigestText(result, day, c.now()), nil
	case "!overdue":
		result, _, err := c.Board(ctx)
		if err != nil {
			return "Error loading today's tasks", err
		}
		return overdueText(result), nil
	case "!help":
		return helpText(), nil
	default:
		return "", fmt.Errorf("unknown command %q", parts[0])
	}
}

func overdueText(result TaskEngine.Result) string {
	var lines []string
	for _, item := range result.Items() {
		if !item.Coverage.IsOverdue {
			continue
		}
		line := fmt.Sprintf("- %s at %s, due %s (%s)", item.Title, item.Labels.Location, item.Deadline.Format("15:04"), Reports.Status(item))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ":white_check_mark: Nothing is overdue."
	}
	return fmt.Sprintf("*%d overdue*\n%s", len(lines), strings.Join(lines, "\n"))
}

func helpText() string {
	help := "*Dashspect task bot*\n\n"
	help += "`!status` - Today's tasks by location\n"
	help += "`!overdue` - Only what is past its deadline\n"
	help += "`!help` - Show this help message\n\n"
	help += "Tasks are completed from the Dashspect app; the pinned digest refreshes every morning."
	return help
}

// Listen runs the socket mode loop until ctx is cancelled, answering
// commands posted in channel
func Listen(ctx context.Context, botToken, appToken, channel string, commands *Commands) error {
	if botToken == "" || appToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_APP_TOKEN must be set")
	}

	api := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
		slack.OptionDebug(false),
	)
	socketClient := socketmode.New(api)

	go func() {
		for envelope := range socketClient.Events {
			if envelope.Type != socketmode.EventTypeEventsAPI {
				continue
			}
			eventsAPIEvent, ok := envelope.Data.(slackevents.EventsAPIEvent)
			if !ok {
				log.Printf("Unexpected event type: %s", envelope.Type)
				continue
			}
			socketClient.Ack(*envelope.Request)

			if eventsAPIEvent.Type != slackevents.CallbackEvent {
				continue
			}
			ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent)
			if !ok || ev.BotID != "" || ev.Channel != channel || !strings.HasPrefix(ev.Text, "!") {
				continue
			}

			response, err := commands.Process(ctx, ev.Text)
			if err != nil {
				log.Printf("Error processing command: %v", err)
			}
			if response == "" {
				continue
			}
			if _, _, err := api.PostMessageContext(ctx, ev.Channel, slack.MsgOptionText(response, false)); err != nil {
				log.Printf("Error sending response: %v", err)
			}
		}
	}()

	log.Println("Starting Slack task listener...")
	return socketClient.RunContext(ctx)
}
