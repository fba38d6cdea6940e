package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"Dashspect/Reports"
	"Dashspect/TaskEngine"
)

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"status": Reports.Status,
	"clock":  func(t time.Time) string { return t.Format("15:04") },
}).Parse(`<h2>Tasks for {{.Day}}</h2>
<p>{{.Summary.Total}} tasks, {{.Summary.Completed}} completed, {{.Summary.Overdue}} overdue, {{.Summary.Uncovered}} without coverage.</p>
{{range .Groups}}<h3>{{.Label}}</h3>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Task</th><th>Due</th><th>Assigned</th><th>Status</th></tr>
{{range .Items}}<tr><td>{{.Title}}</td><td>{{clock .Deadline}}</td><td>{{.Labels.Employee}}</td><td>{{status .}}</td></tr>
{{end}}</table>
{{end}}`))

// DigestMailer emails the daily digest with the xlsx report attached
type DigestMailer struct {
	Config    Config
	To        []string
	Employees func() map[uint]string
	Send      func(Config, Message) error
}

func NewDigestMailer(config Config, to []string, employees func() map[uint]string) *DigestMailer {
	return &DigestMailer{Config: config, To: to, Employees: employees, Send: SendEmail}
}

func (d *DigestMailer) Name() string { return "email" }

// DigestMessage renders the digest for day
func (d *DigestMailer) DigestMessage(result TaskEngine.Result, day time.Time) (Message, error) {
	var body bytes.Buffer
	err := digestTemplate.Execute(&body, map[string]interface{}{
		"Day":     day.Format("Monday, Jan 2 2006"),
		"Summary": result.Summary(),
		"Groups":  result.Groups,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render digest: %w", err)
	}

	var employees map[uint]string
	if d.Employees != nil {
		employees = d.Employees()
	}
	workbook, err := Reports.OccurrenceWorkbook(result, employees)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      d.To,
		Subject: fmt.Sprintf("Dashspect digest for %s", day.Format("2006-01-02")),
		Body:    body.String(),
		IsHTML:  true,
		Attachments: []Attachment{{
			Filename:    fmt.Sprintf("occurrences-%s.xlsx", day.Format("2006-01-02")),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        workbook.Bytes(),
		}},
	}, nil
}

func (d *DigestMailer) SendDigest(ctx context.Context, result TaskEngine.Result, day time.Time) error {
	message, err := d.DigestMessage(result, day)
	if err != nil {
		return err
	}
	return d.Send(d.Config, message)
}
