package Notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"Dashspect/Models"
	"Dashspect/TaskEngine"
	"Dashspect/Whatsapp"

	"gorm.io/gorm"
)

// Messenger sends a WhatsApp text to a phone number or group
type Messenger interface {
	SendMessage(ctx context.Context, phone, message string) error
}

// Dispatcher alerts employees about overdue occurrences. Every message is
// recorded in NotificationLog and never repeated for the same occurrence,
// channel and recipient.
type Dispatcher struct {
	DB        *gorm.DB
	Messenger Messenger
	Pusher    Pusher
}

// Report counts what one NotifyOverdue call did
type Report struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// EscalateAfter is how long past the deadline an occurrence is also posted to
// its location's WhatsApp group
const EscalateAfter = 4 * time.Hour

func NewDispatcher(db *gorm.DB, messenger Messenger, pusher Pusher) *Dispatcher {
	return &Dispatcher{DB: db, Messenger: messenger, Pusher: pusher}
}

// OverdueByEmployee lists every responsible employee's overdue occurrences,
// most overdue first. The responsible employees are the targeted employee
// or, failing that, everyone covering the occurrence.
func OverdueByEmployee(items []TaskEngine.TaskWithCoverage) map[uint][]TaskEngine.TaskWithCoverage {
	queues := make(map[uint][]TaskEngine.TaskWithCoverage)
	for _, item := range items {
		if !item.Coverage.IsOverdue {
			continue
		}
		var responsible []uint
		if s, ok := item.Scope.(TaskEngine.ScopeEmployee); ok {
			responsible = []uint{s.EmployeeID}
		} else {
			responsible = item.Coverage.CoveringEmployeeIDs
		}
		for _, id := range responsible {
			queues[id] = append(queues[id], item)
		}
	}
	for _, queue := range queues {
		sort.SliceStable(queue, func(i, j int) bool {
			if !queue[i].Deadline.Equal(queue[j].Deadline) {
				return queue[i].Deadline.Before(queue[j].Deadline)
			}
			return queue[i].Key < queue[j].Key
		})
	}
	return queues
}

// MostOverduePerEmployee picks the head of every employee's overdue queue
func MostOverduePerEmployee(items []TaskEngine.TaskWithCoverage) map[uint]TaskEngine.TaskWithCoverage {
	picked := make(map[uint]TaskEngine.TaskWithCoverage)
	for id, queue := range OverdueByEmployee(items) {
		picked[id] = queue[0]
	}
	return picked
}

// NotifyOverdue sends every employee one alert per channel for their most
// overdue occurrence that has not been sent to that recipient yet
func (d *Dispatcher) NotifyOverdue(ctx context.Context, result TaskEngine.Result, now time.Time) (Report, error) {
	var report Report
	items := result.Items()
	queues := OverdueByEmployee(items)
	if len(queues) == 0 {
		return report, nil
	}

	ids := make([]uint, 0, len(queues))
	for id := range queues {
		ids = append(ids, id)
	}
	var users []Models.User
	if err := d.DB.Where("id IN ? AND is_active = ?", ids, true).Order("id").Find(&users).Error; err != nil {
		return report, fmt.Errorf("failed to load employees: %w", err)
	}

	for _, user := range users {
		queue := queues[user.ID]

		if d.Messenger != nil && user.Phone != "" {
			phone := user.Phone
			d.deliverNext(ctx, &report, queue, Models.ChannelWhatsapp, phone, now, func(item TaskEngine.TaskWithCoverage) error {
				return d.Messenger.SendMessage(ctx, phone, Whatsapp.OverdueMessage(item, now))
			})
		}

		if d.Pusher != nil {
			tokens, err := Models.TokensFor(d.DB, []uint{user.ID})
			if err != nil {
				log.Printf("Failed to load push tokens for user %d: %v", user.ID, err)
				continue
			}
			for _, token := range tokens {
				value := token.Value
				d.deliverNext(ctx, &report, queue, Models.ChannelPush, value, now, func(item TaskEngine.TaskWithCoverage) error {
					return d.Pusher.Push(ctx, value, "Overdue task", pushBody(item, now), pushData(item))
				})
			}
		}
	}

	if d.Messenger != nil {
		d.escalate(ctx, &report, items, now)
	}
	return report, nil
}

// escalate posts long overdue occurrences to the location group
func (d *Dispatcher) escalate(ctx context.Context, report *Report, items []TaskEngine.TaskWithCoverage, now time.Time) {
	groups := map[uint]string{}
	for _, item := range items {
		if !item.Coverage.IsOverdue || now.Sub(item.Deadline) < EscalateAfter {
			continue
		}
		locationID := item.Labels.LocationID
		if locationID == 0 {
			continue
		}
		group, ok := groups[locationID]
		if !ok {
			var location Models.Location
			if err := d.DB.Select("id", "whatsapp_group").First(&location, locationID).Error; err == nil {
				group = location.WhatsappGroup
			}
			groups[locationID] = group
		}
		if group == "" {
			continue
		}
		occurrence := item
		d.deliver(ctx, report, occurrence, Models.ChannelWhatsapp, group, now, func() error {
			return d.Messenger.SendMessage(ctx, group, Whatsapp.CompactOverdueMessage(occurrence, now))
		})
	}
}

// deliverNext sends the first queued occurrence recipient has not had on
// channel yet
func (d *Dispatcher) deliverNext(ctx context.Context, report *Report, queue []TaskEngine.TaskWithCoverage, channel, recipient string, now time.Time, send func(TaskEngine.TaskWithCoverage) error) {
	for _, item := range queue {
		sent, err := Models.AlreadyNotified(d.DB, item.Key, channel, recipient)
		if err != nil {
			log.Printf("Failed to check notification log for %s: %v", item.Key, err)
			report.Failed++
			return
		}
		if sent {
			continue
		}
		occurrence := item
		d.deliver(ctx, report, occurrence, channel, recipient, now, func() error {
			return send(occurrence)
		})
		return
	}
	report.Skipped++
}

func (d *Dispatcher) deliver(ctx context.Context, report *Report, item TaskEngine.TaskWithCoverage, channel, recipient string, now time.Time, send func() error) {
	sent, err := Models.AlreadyNotified(d.DB, item.Key, channel, recipient)
	if err != nil {
		log.Printf("Failed to check notification log for %s: %v", item.Key, err)
		report.Failed++
		return
	}
	if sent {
		report.Skipped++
		return
	}

	if err := send(); err != nil {
		log.Printf("Error sending %s notification for %s to %s: %v", channel, item.Key, recipient, err)
		report.Failed++
		return
	}

	payload, _ := json.Marshal(pushData(item))
	entry := Models.NotificationLog{
		OccurrenceKey: item.Key,
		Channel:       channel,
		Recipient:     recipient,
		SentAt:        now,
		Payload:       payload,
	}
	if err := d.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("Failed to record %s notification for %s: %v", channel, item.Key, err)
	}
	report.Sent++
}

func pushBody(item TaskEngine.TaskWithCoverage, now time.Time) string {
	body := fmt.Sprintf("%s was due at %s", item.Title, item.Deadline.Format("15:04"))
	if item.Labels.Location != "" {
		body += " at " + item.Labels.Location
	}
	minutes := int(now.Sub(item.Deadline) / time.Minute)
	return fmt.Sprintf("%s (%s)", body, Whatsapp.SeverityLevel(minutes))
}

func pushData(item TaskEngine.TaskWithCoverage) map[string]string {
	return map[string]string{
		"occurrence_key": item.Key,
		"task_id":        strconv.FormatUint(uint64(item.TaskID), 10),
		"date":           item.Date.Format("2006-01-02"),
		"deadline":       item.Deadline.Format(time.RFC3339),
	}
}
