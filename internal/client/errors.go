package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrMissingAPIKey is returned by NewClient when no API key is supplied.
var ErrMissingAPIKey = errors.New("API key required: set OILPRICEAPI_KEY or pass one to NewClient")

// ErrorKind classifies a non-2xx API response.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"       // 401, 403
	KindNotFound  ErrorKind = "not_found"  // 404
	KindRateLimit ErrorKind = "rate_limit" // 429
	KindClient    ErrorKind = "client"     // other 4xx
	KindServer    ErrorKind = "server"     // 5xx
)

// RateLimitInfo carries the X-RateLimit-* headers of a 429 response.
type RateLimitInfo struct {
	Limit     string
	Remaining string
	Reset     string
}

// APIError represents a non-2xx response from the OilPriceAPI service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	RequestID  string
	RateLimit  *RateLimitInfo // set for 429 only
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s (endpoint: %s)", e.StatusCode, e.Message, e.Endpoint)
}

// Kind returns the error class derived from the status code.
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return KindAuth
	case e.StatusCode == http.StatusNotFound:
		return KindNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return KindRateLimit
	case e.StatusCode >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// TransportError wraps a failure to obtain any HTTP response.
type TransportError struct {
	Method   string
	Endpoint string
	Timeout  bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: request timed out: %v", e.Method, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsAuthError reports whether err is a 401/403 from the API.
func IsAuthError(err error) bool {
	return hasKind(err, KindAuth)
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	return hasKind(err, KindRateLimit)
}

// IsServerError reports whether err is a 5xx from the API.
func IsServerError(err error) bool {
	return hasKind(err, KindServer)
}

// IsTimeout reports whether err is a request that ran past its deadline.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout
}

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind() == kind
}

// maxMessageLen bounds the raw body kept as an error message, in bytes.
const maxMessageLen = 512

// newAPIError builds an APIError from a failed response and its body.
func newAPIError(resp *http.Response, body []byte, endpoint, requestID string) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.StatusCode, body),
		Endpoint:   endpoint,
		RequestID:  requestID,
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		e.RateLimit = &RateLimitInfo{
			Limit:     resp.Header.Get("X-RateLimit-Limit"),
			Remaining: resp.Header.Get("X-RateLimit-Remaining"),
			Reset:     resp.Header.Get("X-RateLimit-Reset"),
		}
	}
	return e
}

// errorMessage extracts "error" or "message" from a JSON body, else the
// trimmed body text, else the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	if text == "" {
		return http.StatusText(status)
	}
	return text
}
