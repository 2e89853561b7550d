package sheetapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned before any network call is attempted when
// the web-app URL is missing or still holds the setup placeholder.
var ErrNotConfigured = errors.New("the data service is not yet configured; set webapp_url to the deployed script URL")

// APIError represents a failure reported by the sheet script endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return fmt.Sprintf("sheet api error: %s", e.Message)
	}
	return fmt.Sprintf("sheet api error: status %d", e.StatusCode)
}

// parseAPIError builds the error for a >=400 response: the envelope message
// when present, otherwise a snippet of the already-read body, otherwise the
// HTTP status line.
func parseAPIError(statusCode int, status, message string, body []byte) *APIError {
	if message == "" {
		message = strings.TrimSpace(string(body))
		if len(message) > 512 {
			message = message[:512]
		}
	}
	if message == "" {
		message = status
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
	}
}
