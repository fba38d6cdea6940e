package email

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

// Config holds the SMTP account mail is sent from
type Config struct {
	SMTPServer   string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	IsHTML      bool
	Attachments []Attachment
}

func (m Message) recipients() []string {
	var recipients []string
	recipients = append(recipients, m.To...)
	recipients = append(recipients, m.CC...)
	recipients = append(recipients, m.BCC...)
	return recipients
}

// Build renders the message as RFC 5322 bytes. Messages with attachments
// are sent as multipart/mixed.
func Build(config Config, message Message, now time.Time) ([]byte, error) {
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", config.FromName), config.FromEmail),
		"To":           strings.Join(message.To, ", "),
		"Subject":      mime.QEncoding.Encode("utf-8", message.Subject),
		"Date":         now.Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}
	if len(message.CC) > 0 {
		headers["Cc"] = strings.Join(message.CC, ", ")
	}

	bodyType := "text/plain; charset=UTF-8"
	if message.IsHTML {
		bodyType = "text/html; charset=UTF-8"
	}

	var body bytes.Buffer
	if len(message.Attachments) == 0 {
		headers["Content-Type"] = bodyType
		body.WriteString(message.Body)
	} else {
		writer := multipart.NewWriter(&body)
		headers["Content-Type"] = "multipart/mixed; boundary=" + writer.Boundary()

		part, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {bodyType}})
		if err != nil {
			return nil, err
		}
		part.Write([]byte(message.Body))

		for _, a := range message.Attachments {
			contentType := a.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			part, err := writer.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {contentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
			})
			if err != nil {
				return nil, err
			}
			if err := writeBase64(part, a.Data); err != nil {
				return nil, err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out bytes.Buffer
	for _, k := range keys {
		out.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// writeBase64 wraps encoded data at 76 columns
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := w.Write([]byte(encoded + "\r\n"))
	return err
}

// SendEmail sends message through the configured SMTP server
func SendEmail(config Config, message Message) error {
	raw, err := Build(config, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
	recipients := message.recipients()
	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if !config.TLSEnabled {
		return smtp.SendMail(serverAddr, auth, config.FromEmail, recipients, raw)
	}

	tlsConfig := &tls.Config{
		ServerName:         config.SMTPServer,
		InsecureSkipVerify: config.SkipTLSCheck,
	}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}
