package client

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Common errors returned by the client.
var (
	// ErrEmptyUserAgent is returned by New when no User-Agent is configured.
	// The API rejects requests without one, so the client refuses to be
	// created at all rather than fail on the first request.
	ErrEmptyUserAgent = errors.New("user agent must not be empty")
)

// AboveLimitError reports a request parameter exceeding a hard server-side
// ceiling, e.g. a page size above the listing cap. It is detected before any
// network I/O.
type AboveLimitError struct {
	Option string
	Value  uint64
	Max    uint64
}

// Error implements the error interface.
func (e *AboveLimitError) Error() string {
	return fmt.Sprintf("%s:%d is above the maximum value allowed in this context (%d)",
		e.Option, e.Value, e.Max)
}

// HTTPError is a non-2xx response. Reason carries the "reason" field of the
// JSON error body when the server sent one, else a description of well-known
// status codes. The client never retries on its own; whether a 503 deserves
// another attempt is the caller's policy, not the transport's.
type HTTPError struct {
	StatusCode int
	Reason     string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// TransportError wraps a failure of the underlying send: DNS, TLS, connection
// reset and friends. The request may or may not have reached the server.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("couldn't send request: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a 2xx response body that did not decode into the
// expected record shape.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("couldn't decode response: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errorReason extracts the reason for a failed request: the "reason" field of
// the JSON error body when present, else the static table of status codes the
// API is known to use.
func errorReason(status int, body []byte) string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Reason != "" {
		return payload.Reason
	}
	return statusReason(status)
}

// statusReason describes status codes the API documents, for error bodies
// that carry no reason of their own.
func statusReason(status int) string {
	switch status {
	case 403:
		return "Forbidden: Access denied. May indicate that your request lacks a User-Agent header."
	case 404:
		return "Not Found"
	case 412:
		return "Precondition failed"
	case 420:
		return "Invalid Record: Record could not be saved"
	case 421:
		return "User Throttled: User is throttled, try again later"
	case 422:
		return "Locked: The resource is locked and cannot be modified"
	case 423:
		return "Already Exists: Resource already exists"
	case 424:
		return "Invalid Parameters: The given parameters were invalid"
	case 500:
		return "Internal Server Error: Some unknown error occurred on the server"
	case 502:
		return "Bad Gateway: A gateway server received an invalid response from the upstream servers"
	case 503:
		return "Service Unavailable: Server cannot currently handle the request or you have exceeded the request rate limit. Try again later or decrease your rate of requests."
	case 520:
		return "Unknown Error: Unexpected server response which violates protocol"
	case 522:
		return "Origin Connection Time-out: CloudFlare's attempt to connect to the upstream servers timed out"
	case 524:
		return "Origin Connection Time-out: A connection was established between CloudFlare and the upstream servers, but it timed out before an HTTP response was received"
	case 525:
		return "SSL Handshake Failed: The SSL handshake between CloudFlare and the upstream servers failed"
	default:
		return ""
	}
}
