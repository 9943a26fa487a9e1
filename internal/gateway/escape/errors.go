package escape

import (
	"errors"
	"fmt"
	"strings"
)

const maxErrorBodyPreview = 800

// ErrUpstream indicates a directory backend failure.
var ErrUpstream = errors.New("error when trying to get response from the directory backend")

// UpstreamRequestError carries HTTP context for failed backend calls.
type UpstreamRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamRequestError) Error() string {
	parts := []string{ErrUpstream.Error()}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	method := strings.TrimSpace(e.Method)
	url := strings.TrimSpace(e.URL)
	if method != "" || url != "" {
		parts = append(parts, strings.TrimSpace(method+" "+url))
	}
	if trimmed := compactBodyPreview(e.Body); trimmed != "" {
		parts = append(parts, fmt.Sprintf("body=%q", trimmed))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	return strings.Join(parts, "; ")
}

func (e *UpstreamRequestError) Unwrap() error {
	return ErrUpstream
}

// APIError is a non-success response envelope from the backend.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func compactBodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	body = strings.ReplaceAll(body, "\n", " ")
	body = strings.ReplaceAll(body, "\r", " ")
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxErrorBodyPreview {
		return body[:maxErrorBodyPreview] + "..."
	}
	return body
}
