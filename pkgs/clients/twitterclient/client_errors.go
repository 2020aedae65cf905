package twitterclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

////////////////////////////////////////////////////////////////////////////////

// Error classes surfaced by the API client. Use errors.Is against them.
var (
	ErrResourceGone       = errors.New("resource gone")
	ErrAccessDenied       = errors.New("access denied")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrTransientFault     = errors.New("transient backend fault")
	ErrEmptyResponse      = errors.New("empty response")
	ErrMissingCredentials = errors.New("missing consumer key or secret")
)

////////////////////////////////////////////////////////////////////////////////

// APIError is a non-2xx answer from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter api %s: http %d (code %d): %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the HTTP status onto one of the error classes. Statuses without
// a class unwrap to nil.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrResourceGone
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrTransientFault
	}
	return nil
}

func newAPIError(endpoint string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Code:       -1,
		Message:    http.StatusText(statusCode),
	}

	first := gjson.GetBytes(body, "errors.0")
	if first.Exists() {
		if code := first.Get("code"); code.Exists() {
			apiErr.Code = int(code.Int())
		}
		if msg := first.Get("message"); msg.Exists() {
			apiErr.Message = msg.String()
		}
	}
	return apiErr
}

// classifyTransportError turns a connection closed before any response byte
// into ErrEmptyResponse.
func classifyTransportError(endpoint string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w: %w", endpoint, ErrEmptyResponse, err)
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}

////////////////////////////////////////////////////////////////////////////////

// IsRetryable reports whether err is a fault worth retrying without a budget refresh.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientFault) || errors.Is(err, ErrEmptyResponse)
}

// IsUnreachable reports whether err means the user cannot be crawled at all.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrResourceGone) || errors.Is(err, ErrAccessDenied)
}
