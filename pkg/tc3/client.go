package tc3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gitlab.bluewillows.net/root/ddns6/pkg/httputil"
)

// Client sends signed JSON requests to a single TC3 endpoint.
// It is safe for concurrent use; nothing is mutated after construction.
type Client struct {
	signer     *Signer
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEndpoint overrides the URL requests are sent to (useful for testing).
// The signed Host stays the signer's host.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithClock overrides the time source used for request timestamps.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client that signs with signer and posts to
// https://<signer host>.
func NewClient(signer *Signer, opts ...ClientOption) *Client {
	c := &Client{
		signer:     signer,
		endpoint:   "https://" + signer.Host(),
		httpClient: httputil.DefaultClient(),
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call marshals payload, signs and sends it as action, and returns the raw
// response body. Failures to build, send or read the request are returned as
// *TransportError; the body is not inspected for application errors (see Decode).
func (c *Client) Call(ctx context.Context, action, version string, payload any) ([]byte, error) {
	body, err := marshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling payload: %w", action, err)
	}
	return c.CallRaw(ctx, action, version, body)
}

// CallRaw is Call with a pre-serialized JSON payload.
func (c *Client) CallRaw(ctx context.Context, action, version string, payload []byte) ([]byte, error) {
	req, signed, err := c.signer.NewRequest(ctx, c.endpoint, action, version, payload, c.now())
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}

	c.logger.Debug("making API request",
		slog.String("action", action),
		slog.String("version", version),
		slog.String("host", signed.Host),
		slog.Int64("timestamp", signed.Timestamp),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Action: action, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Action: action, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Prefer the provider's own error if the body carries one
		if apiErr, ok := IsAPIError(Decode(respBody, nil)); ok {
			apiErr.Action = action
			return nil, apiErr
		}
		return nil, &TransportError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(respBody, 256)),
		}
	}

	return respBody, nil
}

func marshalPayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(payload)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
