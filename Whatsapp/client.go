package Whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the WhatsApp gateway service
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// Service is the gateway the handlers and notifiers use; main points it at
// WHATSAPP_SERVICE_URL
var Service = NewClient("http://localhost:3000")

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func Configure(baseURL string) {
	Service = NewClient(baseURL)
}

type devicesResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Results []struct {
		Name   string `json:"name"`
		Device string `json:"device"`
	} `json:"results"`
}

type loginResponse struct {
	Results struct {
		QRLink string `json:"qr_link"`
	} `json:"results"`
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("whatsapp gateway returned %d: %s", res.StatusCode, body)
	}
	return body, nil
}

// LoggedIn reports whether a device is paired with the gateway
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	body, err := c.get(ctx, c.BaseURL+"/app/devices")
	if err != nil {
		return false, err
	}
	var output devicesResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return false, fmt.Errorf("failed to parse devices response: %w", err)
	}
	return len(output.Results) > 0, nil
}

// QRCode fetches the pairing QR image
func (c *Client) QRCode(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, c.BaseURL+"/app/login")
	if err != nil {
		return nil, err
	}
	var output loginResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if output.Results.QRLink == "" {
		return nil, fmt.Errorf("gateway returned no QR link")
	}
	return c.get(ctx, output.Results.QRLink)
}

// SendMessage delivers message to a phone number or group id
func (c *Client) SendMessage(ctx context.Context, phone, message string) error {
	data, err := json.Marshal(map[string]string{"phone": phone, "message": message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/send/message", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("send to %s failed with %d: %s", phone, res.StatusCode, body)
	}
	return nil
}
