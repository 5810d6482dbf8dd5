package shark

import (
	"errors"
	"fmt"
	"time"
)

const maxBodySnippet = 200

// ErrTimeout is wrapped by FetchError when the request deadline passed
var ErrTimeout = errors.New("request timed out")

// FetchError is returned when a JSON document could not be fetched or parsed
type FetchError struct {
	URL        string
	StatusCode int
	Body       string
	Timeout    time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && !isSuccess(e.StatusCode):
		if e.Body == "" {
			return fmt.Sprintf("GET %s failed: HTTP %d", e.URL, e.StatusCode)
		}
		return fmt.Sprintf("GET %s failed: HTTP %d - %s", e.URL, e.StatusCode, e.Body)
	case errors.Is(e.Err, ErrTimeout):
		return fmt.Sprintf("GET %s timed out after %dms", e.URL, e.Timeout.Milliseconds())
	case e.StatusCode != 0:
		return fmt.Sprintf("GET %s returned invalid JSON: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet])
	}
	return string(body)
}
