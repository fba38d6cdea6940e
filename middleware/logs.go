package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	Console bool
	// File appends every entry to LogFilePath
	File        bool
	LogFilePath string
	// Format is "json" or "text"
	Format      string
	IncludeBody bool
	SkipPaths   []string
}

// LogData is one request log entry
type LogData struct {
	Timestamp    time.Time     `json:"timestamp"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	URL          string        `json:"url"`
	Status       int           `json:"status"`
	Latency      time.Duration `json:"latency"`
	IP           string        `json:"ip"`
	UserAgent    string        `json:"user_agent"`
	RequestID    string        `json:"request_id,omitempty"`
	RequestBody  interface{}   `json:"request_body,omitempty"`
	Error        string        `json:"error,omitempty"`
	UserID       uint          `json:"user_id,omitempty"`
	Username     string        `json:"username,omitempty"`
	ResponseSize int           `json:"response_size"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:     true,
		File:        true,
		LogFilePath: "logs/requests.log",
		Format:      "json",
		SkipPaths:   []string{"/health"},
	}
}

var fileMu sync.Mutex

// LoggingMiddleware logs every request after the handler chain has run
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.File {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
			cfg.File = false
		}
	}

	return func(c *fiber.Ctx) error {
		for _, skipPath := range cfg.SkipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		start := time.Now()

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet {
			if body := c.Body(); len(body) > 0 {
				var jsonData interface{}
				if err := json.Unmarshal(body, &jsonData); err == nil {
					requestBody = jsonData
				} else {
					requestBody = string(body)
				}
			}
		}

		err := c.Next()

		data := LogData{
			Timestamp:    start,
			Method:       c.Method(),
			Path:         c.Path(),
			URL:          c.OriginalURL(),
			Status:       c.Response().StatusCode(),
			Latency:      time.Since(start),
			IP:           c.IP(),
			UserAgent:    c.Get(fiber.HeaderUserAgent),
			RequestID:    c.Get(fiber.HeaderXRequestID),
			RequestBody:  requestBody,
			ResponseSize: len(c.Response().Body()),
		}
		// Verify runs inside c.Next, so the user is known by now
		if user, ok := CurrentUser(c); ok {
			data.UserID = user.ID
			data.Username = user.Name
		}
		if err != nil {
			data.Error = err.Error()
		}

		logRequest(cfg, data)
		return err
	}
}

// RequestLogger builds the middleware from LOG_FORMAT and LOG_FILE
func RequestLogger(format, path string) fiber.Handler {
	cfg := DefaultLogConfig()
	cfg.Format = format
	cfg.LogFilePath = path
	cfg.File = path != ""
	return LoggingMiddleware(cfg)
}

func logRequest(cfg LogConfig, data LogData) {
	var message string
	if cfg.Format == "json" {
		jsonData, _ := json.Marshal(data)
		message = string(jsonData)
	} else {
		message = formatTextLog(data)
	}

	if cfg.Console {
		log.Println(message)
	}
	if cfg.File {
		logToFile(cfg.LogFilePath, message)
	}
}

func formatTextLog(data LogData) string {
	user := ""
	if data.UserID != 0 {
		user = fmt.Sprintf(" user:%d(%s)", data.UserID, data.Username)
	}
	return fmt.Sprintf(
		"[%s] %s %s %s %d %s %s%s",
		data.Timestamp.Format("2006-01-02 15:04:05"),
		data.Method,
		data.Path,
		statusMarker(data.Status),
		data.Status,
		data.Latency,
		data.IP,
		user,
	)
}

func statusMarker(status int) string {
	switch {
	case status >= 500:
		return "ERR"
	case status >= 400:
		return "WARN"
	default:
		return "OK"
	}
}

func logToFile(filePath, message string) {
	fileMu.Lock()
	defer fileMu.Unlock()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}
	if _, err = file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}

// ErrorLogger appends failed requests (error or status >= 400) to path
func ErrorLogger(path string) fiber.Handler {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		if err == nil && c.Response().StatusCode() < 400 {
			return nil
		}
		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			URL:       c.OriginalURL(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}
		if user, ok := CurrentUser(c); ok {
			data.UserID = user.ID
			data.Username = user.Name
		}
		if err != nil {
			data.Error = err.Error()
		}

		jsonData, _ := json.Marshal(data)
		logToFile(path, string(jsonData))
		return err
	}
}
