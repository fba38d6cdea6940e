package Whatsapp

import (
	"fmt"
	"strings"
	"time"

	"Dashspect/TaskEngine"
)

// OverdueMessage is the full alert sent to the employee responsible for an
// overdue occurrence
func OverdueMessage(item TaskEngine.TaskWithCoverage, now time.Time) string {
	overdueBy := minutesOverdue(item, now)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *OVERDUE TASK*\n\n", severityIcon(overdueBy)))
	b.WriteString(fmt.Sprintf("📋 *Task:* %s\n", item.Title))
	if item.Labels.Location != "" {
		b.WriteString(fmt.Sprintf("📍 *Location:* %s\n", item.Labels.Location))
	}
	b.WriteString(fmt.Sprintf("📅 *Date:* %s\n", item.Date.Format("2006-01-02")))
	if item.Start != nil {
		b.WriteString(fmt.Sprintf("🕐 *Scheduled:* %s\n", item.Start.Format("15:04")))
	}
	b.WriteString(fmt.Sprintf("⏰ *Due:* %s\n\n", item.Deadline.Format("15:04")))

	b.WriteString(fmt.Sprintf("- Overdue by: %s\n", formatMinutes(overdueBy)))
	b.WriteString(fmt.Sprintf("- Severity: %s\n\n", SeverityLevel(overdueBy)))
	b.WriteString(actionRequired(overdueBy))
	return b.String()
}

// CompactOverdueMessage is the one-line form used for location groups
func CompactOverdueMessage(item TaskEngine.TaskWithCoverage, now time.Time) string {
	overdueBy := minutesOverdue(item, now)
	message := fmt.Sprintf("%s *OVERDUE* | %s | Due: %s | Late by: %s | Severity: %s",
		severityIcon(overdueBy),
		item.Title,
		item.Deadline.Format("15:04"),
		formatMinutes(overdueBy),
		SeverityLevel(overdueBy))
	if item.Labels.Employee != "" {
		message += fmt.Sprintf(" | Assigned: %s", item.Labels.Employee)
	}
	return message
}

func minutesOverdue(item TaskEngine.TaskWithCoverage, now time.Time) int {
	if !now.After(item.Deadline) {
		return 0
	}
	return int(now.Sub(item.Deadline) / time.Minute)
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

func severityIcon(overdueBy int) string {
	switch {
	case overdueBy >= 240:
		return "🚨"
	case overdueBy >= 60:
		return "⚠️"
	case overdueBy >= 15:
		return "🔸"
	default:
		return "⏳"
	}
}

// SeverityLevel grades how far past its deadline an occurrence is
func SeverityLevel(overdueBy int) string {
	switch {
	case overdueBy >= 240:
		return "CRITICAL"
	case overdueBy >= 60:
		return "HIGH"
	case overdueBy >= 15:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func actionRequired(overdueBy int) string {
	switch {
	case overdueBy >= 240:
		return "🚨 *ESCALATED*\n- Your manager has been notified\n- Complete the task or report why it cannot be done"
	case overdueBy >= 60:
		return "⚠️ *HIGH PRIORITY*\n- Complete the task now"
	default:
		return "🔸 *REMINDER*\n- Mark the task done in Dashspect once finished"
	}
}
