package apperror

import (
	"encoding/json"
	"net/http"

	"github.com/abdul-hamid-achik/tally/internal/logger"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func from(err error) *Error {
	if appErr, ok := lookup(err); ok {
		return appErr
	}
	return Wrap(err, ErrInternal)
}

func logRequestError(r *http.Request, appErr *Error) {
	log := logger.FromContext(r.Context())
	if appErr.Internal != nil {
		log.Error("request error",
			"code", appErr.Code,
			"internal_error", appErr.Internal.Error(),
		)
		return
	}
	log.Warn("request error", "code", appErr.Code)
}

func WriteJSON(w http.ResponseWriter, r *http.Request, err error) {
	appErr := from(err)
	logRequestError(r, appErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     appErr.Code,
		Message:   appErr.Message,
		RequestID: logger.RequestID(r.Context()),
	})
}

func WriteHTTP(w http.ResponseWriter, r *http.Request, err error) {
	appErr := from(err)
	logRequestError(r, appErr)
	http.Error(w, appErr.Message, appErr.StatusCode)
}
