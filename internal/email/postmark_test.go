package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testClient points a client at srv by rewriting every request's host.
func testClient(srv *httptest.Server, token string, opts ...Option) *Client {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = strings.TrimPrefix(srv.URL, "http://")
		return http.DefaultTransport.RoundTrip(req)
	})
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	return NewClient(token, "noreply@example.com", "https://kidbank.test", opts...)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSendNotice(t *testing.T) {
	var got message
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"MessageID":"abc","ErrorCode":0}`))
	}))
	defer srv.Close()

	c := testClient(srv, "test-token")
	if err := c.SendNotice(context.Background(), "pat@example.com", "Goal achieved", "Sam reached <Bike>", "goal_achieved"); err != nil {
		t.Fatalf("send notice: %v", err)
	}

	if token != "test-token" {
		t.Errorf("server token = %q, want %q", token, "test-token")
	}
	if got.To != "pat@example.com" || got.From != "noreply@example.com" {
		t.Errorf("To/From = %q/%q", got.To, got.From)
	}
	if got.Tag != "goal_achieved" {
		t.Errorf("Tag = %q, want %q", got.Tag, "goal_achieved")
	}
	if got.MessageStream != "outbound" {
		t.Errorf("MessageStream = %q, want %q", got.MessageStream, "outbound")
	}
	if !strings.Contains(got.HtmlBody, "&lt;Bike&gt;") {
		t.Errorf("HtmlBody not escaped: %q", got.HtmlBody)
	}
	if !strings.Contains(got.TextBody, "https://kidbank.test") {
		t.Errorf("TextBody missing link: %q", got.TextBody)
	}
}

func TestSendNoticeMessageStream(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := testClient(srv, "test-token", WithMessageStream("notices"))
	if err := c.SendNotice(context.Background(), "pat@example.com", "s", "m", ""); err != nil {
		t.Fatalf("send notice: %v", err)
	}
	if got.MessageStream != "notices" {
		t.Errorf("MessageStream = %q, want %q", got.MessageStream, "notices")
	}
}

func TestSendNoticeNotConfigured(t *testing.T) {
	c := NewClient("", "noreply@example.com", "https://kidbank.test")
	if c.Configured() {
		t.Error("expected Configured() = false")
	}
	if err := c.SendNotice(context.Background(), "pat@example.com", "s", "m", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSendNoticeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid 'To' address"}`))
	}))
	defer srv.Close()

	err := testClient(srv, "test-token").SendNotice(context.Background(), "bad", "s", "m", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.ErrorCode != 300 {
		t.Errorf("APIError = %+v, want status 422 code 300", apiErr)
	}
}
