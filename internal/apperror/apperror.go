// Package apperror defines the coded errors shared by the CLI and the web
// dashboard.
package apperror

import (
	"errors"
	"net/http"
)

// Error is a failure with a stable machine code and a message safe to
// show to users. Internal holds the cause for logs only.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Internal   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

var (
	ErrNotFound = &Error{
		Code:       "not_found",
		Message:    "The requested resource was not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &Error{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidFile = &Error{
		Code:       "invalid_file",
		Message:    "Please select a CSV file",
		StatusCode: http.StatusBadRequest,
	}

	ErrUploadFailed = &Error{
		Code:       "upload_failed",
		Message:    "Error uploading file",
		StatusCode: http.StatusBadGateway,
	}

	ErrBackend = &Error{
		Code:       "backend_error",
		Message:    "The analytics backend request failed",
		StatusCode: http.StatusBadGateway,
	}

	ErrAIUnavailable = &Error{
		Code:       "ai_unavailable",
		Message:    "AI service is not available. Please check API configuration.",
		StatusCode: http.StatusServiceUnavailable,
	}

	ErrNoDataset = &Error{
		Code:       "no_dataset",
		Message:    "No dataset loaded. Upload a CSV file first",
		StatusCode: http.StatusNotFound,
	}

	ErrChatBusy = &Error{
		Code:       "chat_busy",
		Message:    "Wait for the current answer before sending another message",
		StatusCode: http.StatusConflict,
	}

	ErrEmptyMessage = &Error{
		Code:       "empty_message",
		Message:    "Message must not be empty",
		StatusCode: http.StatusBadRequest,
	}

	ErrConfirmationRequired = &Error{
		Code:       "confirmation_required",
		Message:    "Clearing chat history requires confirmation",
		StatusCode: http.StatusPreconditionRequired,
	}

	ErrInternal = &Error{
		Code:       "internal_error",
		Message:    "An unexpected error occurred. Please try again later",
		StatusCode: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &Error{
		Code:       "service_unavailable",
		Message:    "Service temporarily unavailable. Please try again later",
		StatusCode: http.StatusServiceUnavailable,
	}
)

// Wrap attaches err as the internal cause of a copy of appErr.
func Wrap(err error, appErr *Error) *Error {
	return WithMessage(appErr, appErr.Message, err)
}

// WithMessage copies appErr with a different user-facing message.
func WithMessage(appErr *Error, message string, internal error) *Error {
	return &Error{
		Code:       appErr.Code,
		Message:    message,
		StatusCode: appErr.StatusCode,
		Internal:   internal,
	}
}

// lookup finds the outermost *Error in err's chain, falling back to
// ErrInternal for anything else.
func lookup(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return ErrInternal, false
}

func Is(err error, target *Error) bool {
	appErr, ok := lookup(err)
	return ok && appErr.Code == target.Code
}

func StatusCode(err error) int {
	appErr, _ := lookup(err)
	return appErr.StatusCode
}

// SafeMessage is the message that may be shown to a user. Errors that are
// not an *Error never leak their text.
func SafeMessage(err error) string {
	appErr, _ := lookup(err)
	return appErr.Message
}

func Code(err error) string {
	appErr, _ := lookup(err)
	return appErr.Code
}
