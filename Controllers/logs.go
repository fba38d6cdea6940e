package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"Dashspect/middleware"

	"github.com/gofiber/fiber/v2"
)

// LogGroup is every logged request to one method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MinLatency  float64              `json:"min_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// LogsController reads back the JSON request log written by
// middleware.RequestLogger
type LogsController struct {
	Path string
	now  func() time.Time
}

func NewLogsController(path string) *LogsController {
	return &LogsController{Path: path, now: time.Now}
}

// window reads ?date_from and ?date_to; no dates means today
func (c *LogsController) window(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	now := c.now()
	dateFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dateTo := dateFrom.AddDate(0, 0, 1)

	if s := ctx.Query("date_from"); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return dateFrom, dateTo, errors.New("invalid date_from format, use YYYY-MM-DD")
		}
		dateFrom = parsed
		if ctx.Query("date_to") == "" {
			dateTo = now
		}
	}
	if s := ctx.Query("date_to"); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return dateFrom, dateTo, errors.New("invalid date_to format, use YYYY-MM-DD")
		}
		dateTo = parsed.AddDate(0, 0, 1)
	}
	return dateFrom, dateTo, nil
}

// GetLogs groups logged requests by method and path, busiest first
func (c *LogsController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	dateFrom, dateTo, err := c.window(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogs(c.Path, dateFrom, dateTo)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}
	logs = filterLogs(logs, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	groups := groupLogsByPath(logs)

	totalGroups := len(groups)
	startIndex := (page - 1) * pageSize
	if startIndex > totalGroups {
		startIndex = totalGroups
	}
	endIndex := startIndex + pageSize
	if endIndex > totalGroups {
		endIndex = totalGroups
	}

	return ctx.JSON(LogsResponse{
		Groups:      groups[startIndex:endIndex],
		TotalLogs:   len(logs),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (totalGroups + pageSize - 1) / pageSize,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// GetLogStats summarises the logged requests in the window
func (c *LogsController) GetLogStats(ctx *fiber.Ctx) error {
	dateFrom, dateTo, err := c.window(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogs(c.Path, dateFrom, dateTo)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var successful, failed int
	var totalLatency time.Duration
	methodStats := map[string]int{}
	statusStats := map[int]int{}
	for _, entry := range logs {
		switch {
		case entry.Status >= 200 && entry.Status < 300:
			successful++
		case entry.Status >= 400:
			failed++
		}
		totalLatency += entry.Latency
		methodStats[entry.Method]++
		statusStats[entry.Status]++
	}

	var avgLatency float64
	if len(logs) > 0 {
		avgLatency = float64(totalLatency.Microseconds()) / 1000.0 / float64(len(logs))
	}
	return ctx.JSON(fiber.Map{
		"total_requests":      len(logs),
		"successful_requests": successful,
		"error_requests":      failed,
		"avg_latency_ms":      avgLatency,
		"methods":             methodStats,
		"statuses":            statusStats,
		"date_from":           dateFrom,
		"date_to":             dateTo,
	})
}

// readLogs returns the entries logged in [dateFrom, dateTo). Lines that are
// not JSON entries are skipped.
func readLogs(path string, dateFrom, dateTo time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var logs []middleware.LogData
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if !entry.Timestamp.Before(dateFrom) && entry.Timestamp.Before(dateTo) {
			logs = append(logs, entry)
		}
	}
	return logs, scanner.Err()
}

func filterLogs(logs []middleware.LogData, pathFilter, methodFilter, statusFilter string) []middleware.LogData {
	status, statusErr := strconv.Atoi(statusFilter)
	var filtered []middleware.LogData
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		if statusFilter != "" && statusErr == nil && entry.Status != status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func groupLogsByPath(logs []middleware.LogData) []LogGroup {
	groupMap := make(map[string]*LogGroup)
	var order []string

	for _, entry := range logs {
		key := entry.Method + " " + entry.Path
		latencyMs := float64(entry.Latency.Microseconds()) / 1000.0
		success := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			success = 1.0
		}

		group, exists := groupMap[key]
		if !exists {
			groupMap[key] = &LogGroup{
				Path:        entry.Path,
				Method:      entry.Method,
				Count:       1,
				AvgLatency:  latencyMs,
				MinLatency:  latencyMs,
				MaxLatency:  latencyMs,
				SuccessRate: success,
				Logs:        []middleware.LogData{entry},
			}
			order = append(order, key)
			continue
		}

		group.Count++
		n := float64(group.Count)
		group.AvgLatency = (group.AvgLatency*(n-1) + latencyMs) / n
		group.SuccessRate = (group.SuccessRate*(n-1) + success) / n
		if latencyMs < group.MinLatency {
			group.MinLatency = latencyMs
		}
		if latencyMs > group.MaxLatency {
			group.MaxLatency = latencyMs
		}
		group.Logs = append(group.Logs, entry)
	}

	groups := make([]LogGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *groupMap[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}
