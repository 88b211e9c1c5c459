package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error reports a non-2xx response from the receiving endpoint. The upstream
// status and response body are preserved for the caller's error message.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
}

// Payload is the envelope posted to the receiving endpoint.
type Payload struct {
	Trigger   string `json:"trigger"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

type Client struct {
	httpClient *http.Client
	source     string
}

func NewClient(timeout time.Duration, source string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		source:     source,
	}
}

// Trigger posts a trigger event to url. Any response outside the 2xx range
// is an *Error carrying the upstream status and body.
func (c *Client) Trigger(ctx context.Context, url, trigger string) error {
	payload := Payload{
		Trigger:   trigger,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    c.source,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}
