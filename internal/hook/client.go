package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// ErrUnexpectedStatus is returned when the backend answers with anything
// other than 200 or 201.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client delivers hook payloads to the insights backend.
type Client struct {
	http   *http.Client
	apiKey string
}

// NewClient creates a Client. A non-empty apiKey is sent as x-api-key.
func NewClient(apiKey string) *Client {
	return &Client{
		http:   &http.Client{},
		apiKey: apiKey,
	}
}

// Send encodes payload as JSON and sends it with method to url, giving up
// after timeout. No retry is attempted.
func (c *Client) Send(ctx context.Context, method, url string, payload any, timeout time.Duration) error {
	body, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, url, resp.StatusCode)
	}
	return nil
}
