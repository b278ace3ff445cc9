package httpclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const maxErrorBody = 2048

// APIError is returned for every non-2xx backend response.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusCode extracts the HTTP status from err when it wraps an *APIError.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// errorMessage pulls a human readable message out of an error body.
// The backends use {"message": ...}; some proxies answer {"error": ...} or plain text.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error", "data.message"} {
			if res := gjson.GetBytes(body, path); res.Type == gjson.String && res.Str != "" {
				return strings.TrimSpace(res.Str)
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
