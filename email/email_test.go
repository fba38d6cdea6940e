package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"
	"time"

	"Dashspect/TaskEngine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{SMTPServer: "smtp.example.com", SMTPPort: 587, FromEmail: "ops@example.com", FromName: "Dashspect"}

func TestBuild_PlainMessage(t *testing.T) {
	raw, err := Build(testConfig, Message{To: []string{"a@example.com"}, Subject: "Hello", Body: "hi there"}, time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.Header.Get("To"))
	assert.Equal(t, "text/plain; charset=UTF-8", msg.Header.Get("Content-Type"))
	body, _ := io.ReadAll(msg.Body)
	assert.Equal(t, "hi there", string(body))
}

func TestBuild_WithAttachment(t *testing.T) {
	data := bytes.Repeat([]byte("xlsx"), 100)
	raw, err := Build(testConfig, Message{
		To:          []string{"a@example.com"},
		Subject:     "Report",
		Body:        "<p>attached</p>",
		IsHTML:      true,
		Attachments: []Attachment{{Filename: "report.xlsx", Data: data}},
	}, time.Now())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])
	first, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=UTF-8", first.Header.Get("Content-Type"))

	second, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", second.FileName())
	encoded, err := io.ReadAll(second)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(string(bytes.ReplaceAll(encoded, []byte("\r\n"), nil)))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDigestMailer(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	result := TaskEngine.Result{Groups: []TaskEngine.Group{{
		Key:   "location:0000000001",
		Label: "Downtown",
		Items: []TaskEngine.TaskWithCoverage{{
			Occurrence: TaskEngine.Occurrence{Key: "1:2024-01-02", Title: "Open registers", Date: day, Deadline: day.Add(9 * time.Hour)},
			Coverage:   TaskEngine.CoverageResult{IsCovered: true, IsOverdue: true},
		}},
	}}}

	var sent []Message
	mailer := NewDigestMailer(testConfig, []string{"boss@example.com"}, nil)
	mailer.Send = func(c Config, m Message) error {
		sent = append(sent, m)
		return nil
	}

	require.NoError(t, mailer.SendDigest(context.Background(), result, day))
	require.Len(t, sent, 1)
	assert.Equal(t, "Dashspect digest for 2024-01-02", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "<h3>Downtown</h3>")
	assert.Contains(t, sent[0].Body, "<td>Open registers</td><td>09:00</td><td></td><td>overdue</td>")
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "occurrences-2024-01-02.xlsx", sent[0].Attachments[0].Filename)
	assert.NotEmpty(t, sent[0].Attachments[0].Data)
}
