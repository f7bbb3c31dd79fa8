package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable means the request could not complete at the transport level.
	ErrUnavailable = errors.New("server unavailable")
	// ErrMalformedResponse means a 2xx response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("request rejected")
)

// APIError is a non-2xx answer from the server. Message holds the text the
// server supplied in its body, or "" if it supplied none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match the failure class with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrRejected
	}
}

// errorBody is the error shape the API uses: {error?, message?}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// newAPIError extracts the most specific message from body: the "error"
// field, then "message". Unparseable bodies yield an empty Message.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return e
	}
	if msg := strings.TrimSpace(eb.Error); msg != "" {
		e.Message = msg
	} else {
		e.Message = strings.TrimSpace(eb.Message)
	}
	return e
}

// MessageOr returns the server-supplied message carried by err, or fallback
// when err is not an *APIError or has no message.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
