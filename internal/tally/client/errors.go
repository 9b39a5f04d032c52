package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
)

// HTTPError is the transport-level failure kept as the internal cause of a
// normalized gateway error.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// StatusCode reports the backend HTTP status behind err, or 0 when the call
// never got a response.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

var aiUnavailableMarkers = []string{"AI service unavailable", "Returning basic query"}

// IsDegradedAnswer reports whether the assistant returned a placeholder
// instead of a real answer.
func IsDegradedAnswer(answer string) bool {
	if strings.TrimSpace(answer) == "" {
		return true
	}
	for _, marker := range aiUnavailableMarkers {
		if strings.Contains(answer, marker) {
			return true
		}
	}
	return false
}

// normalize builds the user-facing error for a failed call. The message is the
// server's detail when present, then the transport error text, then the
// sentinel's own message.
func normalize(sentinel *apperror.Error, cause error, body []byte) *apperror.Error {
	if msg := detailMessage(body); msg != "" {
		return apperror.WithMessage(sentinel, msg, cause)
	}
	if cause != nil && cause.Error() != "" {
		return apperror.WithMessage(sentinel, cause.Error(), cause)
	}
	return apperror.Wrap(cause, sentinel)
}

// detailMessage extracts FastAPI-style {"detail": ...} bodies. A validation
// list yields the first entry's msg.
func detailMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(resp.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(resp.Detail, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0].Msg)
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Detail, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
