// Package httputil provides the shared HTTP client used for provider API calls.
package httputil

import (
	"log/slog"
	"net/http"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "ddns6/1.0"

	// NoTimeout disables the client timeout.
	NoTimeout time.Duration = -1
)

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout bounds each request including reading the body.
	// Zero selects DefaultTimeout; NoTimeout (or any negative value)
	// disables it.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	// Defaults to DefaultUserAgent if not specified.
	UserAgent string

	// Logger enables debug logging of each round trip.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

// loggingTransport sets the User-Agent and logs round trips at debug level.
// Request bodies and headers are never logged; they carry signatures.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	if t.logger != nil {
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("host", req.Host),
			slog.Duration("duration", time.Since(start)),
		}
		if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		t.logger.Debug("HTTP round trip", attrs...)
	}

	return resp, err
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
			logger:    cfg.Logger,
		},
	}
}

// DefaultClient returns a new HTTP client with default settings.
// Equivalent to NewClient(nil).
func DefaultClient() *http.Client {
	return NewClient(nil)
}
