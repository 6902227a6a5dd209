package customvision

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
)

// Error is a non-2xx answer from the training API.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("custom vision: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("custom vision: %d: %s", e.StatusCode, e.Message)
}

// Retryable is true for throttling and server-side failures.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// notHandled reports whether the service certainly did not act on the request:
// it was throttled or the connection was refused.
func notHandled(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Message = string(body)
		}
	}
	return apiErr
}
