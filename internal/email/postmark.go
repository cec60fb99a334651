// Package email sends parent notices through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
)

const postmarkURL = "https://api.postmarkapp.com/email"

var ErrNotConfigured = errors.New("email: postmark server token not set")

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	stream      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMessageStream selects a Postmark message stream other than "outbound".
func WithMessageStream(stream string) Option {
	return func(cl *Client) { cl.stream = stream }
}

// NewClient creates a Postmark client. baseURL is the public address of the
// app and is linked from every message.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		stream:      "outbound",
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type message struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	Tag           string `json:"Tag,omitempty"`
	MessageStream string `json:"MessageStream"`
}

// APIError is a rejection reported by Postmark.
type APIError struct {
	Status    int
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postmark: status %d, code %d: %s", e.Status, e.ErrorCode, e.Message)
}

// SendNotice emails one ledger notice with a link back to the app. tag is
// the notice type and lets Postmark group deliveries.
func (c *Client) SendNotice(ctx context.Context, toEmail, subject, text, tag string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return c.send(ctx, message{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		TextBody: fmt.Sprintf("%s\n\nOpen KidBank: %s", text, c.baseURL),
		HtmlBody: fmt.Sprintf(`<p>%s</p><p><a href="%s">Open KidBank</a></p>`,
			html.EscapeString(text), html.EscapeString(c.baseURL)),
		Tag:           tag,
		MessageStream: c.stream,
	})
}

func (c *Client) send(ctx context.Context, m message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	// best effort; an undecodable body still yields the status
	json.NewDecoder(resp.Body).Decode(apiErr)
	return apiErr
}
