package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abdul-hamid-achik/tally/internal/logger"
)

func TestWriteJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), logger.NewTestLogger()))
	req = req.WithContext(logger.WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()

	WriteJSON(rec, req, ErrNoDataset)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "no_dataset" {
		t.Errorf("error = %q, want %q", body.Error, "no_dataset")
	}
	if body.RequestID != "req-1" {
		t.Errorf("request_id = %q, want %q", body.RequestID, "req-1")
	}
}

func TestWriteJSON_PlainError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), logger.NewTestLogger()))
	rec := httptest.NewRecorder()

	WriteJSON(rec, req, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestWriteHTTP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), logger.NewTestLogger()))
	rec := httptest.NewRecorder()

	WriteHTTP(rec, req, Wrap(errors.New("in flight"), ErrChatBusy))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
