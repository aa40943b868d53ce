// Package webhook relays chat messages to a remote automation webhook and
// normalizes whatever the webhook sends back into a display-ready reply.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// outboundEnvelope is the only shape ever sent upstream.
type outboundEnvelope struct {
	Message string `json:"message"`
}

// RawResponse is the unparsed result of one webhook exchange.
type RawResponse struct {
	Status int
	OK     bool // status in the 2xx range
	Body   string
}

// Client posts messages to a single fixed webhook endpoint. It imposes no
// timeout of its own; callers bound the exchange through ctx. Safe for
// concurrent use.
type Client struct {
	endpoint string
	httpc    *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{},
	}
}

// Endpoint returns the configured webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts the message and captures the raw response. Empty-message
// validation belongs to the caller; Send forwards whatever it is given.
func (c *Client) Send(ctx context.Context, message string) (RawResponse, error) {
	payload, err := json.Marshal(outboundEnvelope{Message: message})
	if err != nil {
		return RawResponse{}, fmt.Errorf("webhook: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return RawResponse{}, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return RawResponse{}, &Failure{Kind: FailureNetwork, Detail: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawResponse{}, &Failure{Kind: FailureUnreadableBody, Detail: err.Error(), cause: err}
	}

	return RawResponse{
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:   string(body),
	}, nil
}

// Ask sends the message and normalizes the response in one step.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	resp, err := c.Send(ctx, message)
	if err != nil {
		return "", err
	}
	return Normalize(resp)
}
