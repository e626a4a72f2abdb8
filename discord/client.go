// Package discord implements core.WebhookClient against a Discord-compatible
// webhook endpoint. Deliveries go through the transport adapter so the
// client never touches net/http directly.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-commit-relay/core"
	"github.com/goliatone/go-commit-relay/transport"
)

const defaultRequestTimeout = 15 * time.Second

type Client struct {
	URL     string
	Adapter core.TransportAdapter
	Timeout time.Duration
}

func NewClient(url string, adapter core.TransportAdapter) *Client {
	if adapter == nil {
		adapter = transport.NewHTTPAdapter(nil)
	}
	return &Client{
		URL:     strings.TrimSpace(url),
		Adapter: adapter,
		Timeout: defaultRequestTimeout,
	}
}

type executePayload struct {
	Content string `json:"content"`
}

type modifyPayload struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Send posts one message. Any failure, transport-level or HTTP-level, comes
// back as a delivery error; the relay loop decides what to do with it.
func (c *Client) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("discord: message content is required")
	}
	body, err := json.Marshal(executePayload{Content: content})
	if err != nil {
		return fmt.Errorf("discord: encode payload: %w", err)
	}
	res, err := c.do(ctx, http.MethodPost, body)
	if err != nil {
		return core.NewDeliveryError(err, "discord: deliver message")
	}
	if res.StatusCode == http.StatusTooManyRequests {
		return core.NewRateLimitedError(
			fmt.Errorf("discord: webhook returned status %d", res.StatusCode),
			"discord: deliver message",
			retryAfter(res.Headers),
		)
	}
	if !accepted(res.StatusCode) {
		return core.NewDeliveryError(
			fmt.Errorf("discord: webhook returned status %d", res.StatusCode),
			"discord: deliver message",
		)
	}
	return nil
}

// retryAfter reads the server-requested delay from a 429 response. Discord
// sends whole seconds in the header.
func retryAfter(headers map[string]string) time.Duration {
	raw := strings.TrimSpace(headers["Retry-After"])
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Modify updates the webhook's posting identity. A nil avatar leaves the
// current one untouched.
func (c *Client) Modify(ctx context.Context, name string, avatar []byte) error {
	payload := modifyPayload{Name: strings.TrimSpace(name)}
	if len(avatar) > 0 {
		payload.Avatar = DataURI(avatar)
	}
	if payload.Name == "" && payload.Avatar == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: encode modify payload: %w", err)
	}
	res, err := c.do(ctx, http.MethodPatch, body)
	if err != nil {
		return core.NewDeliveryError(err, "discord: modify webhook profile")
	}
	if !accepted(res.StatusCode) {
		return core.NewDeliveryError(
			fmt.Errorf("discord: webhook returned status %d", res.StatusCode),
			"discord: modify webhook profile",
		)
	}
	return nil
}

// Ping fetches the webhook object to prove the endpoint exists and the
// token is valid. Used once at startup; failure is fatal to the process.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return core.NewConnectError(err, core.RelayErrorWebhookConnect, "discord: webhook unreachable")
	}
	if res.StatusCode != http.StatusOK {
		return core.NewConnectError(
			fmt.Errorf("discord: webhook returned status %d", res.StatusCode),
			core.RelayErrorWebhookConnect,
			"discord: webhook rejected connection probe",
		)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte) (core.TransportResponse, error) {
	if c == nil || c.Adapter == nil {
		return core.TransportResponse{}, fmt.Errorf("discord: client requires a transport adapter")
	}
	if strings.TrimSpace(c.URL) == "" {
		return core.TransportResponse{}, fmt.Errorf("discord: webhook url is required")
	}
	headers := map[string]string{}
	if len(body) > 0 {
		headers["Content-Type"] = "application/json"
	}
	return c.Adapter.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     c.URL,
		Headers: headers,
		Body:    body,
		Timeout: c.Timeout,
	})
}

func accepted(status int) bool {
	return status >= 200 && status < 300
}

var (
	_ core.WebhookClient        = (*Client)(nil)
	_ core.WebhookProfileClient = (*Client)(nil)
	_ core.WebhookPinger        = (*Client)(nil)
)
