// Package client is the Go client for the portal action API. It owns the
// client-side state the browser pages used to keep in local and session
// storage: the stored principal, the cached passcode, and the expiry
// countdown.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIError is a business-rule rejection from the backend; Message is
// surfaced to the user verbatim.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// TransportError wraps network and decoding failures. The caller should
// suggest a retry and must not commit partial state.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("request failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Client calls the single portal endpoint with tagged action requests.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

// New creates a client with a bounded transport timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer token sent with authenticated actions.
// Tokens travel only in the Authorization header, never in query strings.
func (c *Client) SetToken(token string) { c.token = token }

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Do sends one action request and decodes the response data into out
// (which may be nil). The success message is returned for display.
func (c *Client) Do(ctx context.Context, action string, fields map[string]any, out any) (string, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["action"] = action

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", &TransportError{Err: err}
	}
	if env.Status != "success" {
		msg := env.Message
		if msg == "" {
			msg = "the server rejected the request"
		}
		return "", &APIError{Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &TransportError{Err: err}
		}
	}
	return env.Message, nil
}
