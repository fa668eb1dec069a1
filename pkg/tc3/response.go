package tc3

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when a body is not a TC3 response envelope.
var ErrMalformedResponse = errors.New("tc3: malformed response")

// APIError is an application-level error reported in Response.Error.
type APIError struct {
	Action    string
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %s (request %s)", e.Action, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (request %s)", e.Code, e.Message, e.RequestID)
}

// HasPrefix reports whether the error code is prefix or a sub-code of it,
// e.g. HasPrefix("AuthFailure") matches "AuthFailure.SignatureFailure".
func (e *APIError) HasPrefix(prefix string) bool {
	return e.Code == prefix || strings.HasPrefix(e.Code, prefix+".")
}

// TransportError wraps failures to reach the API or read its response.
type TransportError struct {
	Action     string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http status %d: %v", e.Action, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAPIError returns the *APIError in err's chain, if any.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransportError reports whether err is a transport failure.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

type envelope struct {
	Response json.RawMessage `json:"Response"`
}

type responseMeta struct {
	RequestID string `json:"RequestId"`
	Error     *struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Error"`
}

// Decode unwraps the {"Response": {...}} envelope. It returns *APIError when
// Response.Error is present; otherwise the Response object is decoded into
// out (which may be nil to only check for errors).
func Decode(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return fmt.Errorf("%w: missing Response object", ErrMalformedResponse)
	}

	var meta responseMeta
	if err := json.Unmarshal(env.Response, &meta); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if meta.Error != nil {
		return &APIError{
			Code:      meta.Error.Code,
			Message:   meta.Error.Message,
			RequestID: meta.RequestID,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
