package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, ErrBackend)

	assert.Equal(t, ErrBackend.Message, err.Error())
	assert.Equal(t, ErrBackend.StatusCode, err.StatusCode)
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, ErrBackend))
	assert.Nil(t, ErrBackend.Internal, "sentinel is never mutated")
}

func TestWithMessage(t *testing.T) {
	cause := errors.New("404 from backend")
	err := WithMessage(ErrBackend, "Dataset not found", cause)

	assert.Equal(t, "Dataset not found", err.Message)
	assert.True(t, Is(err, ErrBackend))
	assert.ErrorIs(t, err, cause)
	assert.NotEqual(t, ErrBackend.Message, err.Message)
}

func TestLookupThroughChains(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", Wrap(errors.New("eof"), ErrNoDataset))
	plain := errors.New("something broke")

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{"sentinel", ErrChatBusy, "chat_busy", http.StatusConflict, ErrChatBusy.Message},
		{"fmt wrapped", wrapped, "no_dataset", http.StatusNotFound, ErrNoDataset.Message},
		{"plain error", plain, "internal_error", http.StatusInternalServerError, ErrInternal.Message},
		{"nil", nil, "internal_error", http.StatusInternalServerError, ErrInternal.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, Code(tt.err))
			assert.Equal(t, tt.wantStatus, StatusCode(tt.err))
			assert.Equal(t, tt.wantMsg, SafeMessage(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	assert.True(t, Is(ErrNotFound, ErrNotFound))
	assert.True(t, Is(fmt.Errorf("outer: %w", ErrAIUnavailable), ErrAIUnavailable))
	assert.False(t, Is(ErrNotFound, ErrBadRequest))
	assert.False(t, Is(errors.New("not_found"), ErrNotFound))
	assert.False(t, Is(nil, ErrInternal))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []*Error{
		ErrNotFound, ErrBadRequest, ErrInvalidFile, ErrUploadFailed,
		ErrBackend, ErrAIUnavailable, ErrNoDataset, ErrChatBusy,
		ErrEmptyMessage, ErrConfirmationRequired, ErrInternal, ErrServiceUnavailable,
	}

	seen := make(map[string]bool)
	for _, s := range sentinels {
		assert.NotEmpty(t, s.Message, s.Code)
		assert.GreaterOrEqual(t, s.StatusCode, 400, s.Code)
		assert.False(t, seen[s.Code], "duplicate code %s", s.Code)
		seen[s.Code] = true
	}
	assert.Equal(t, http.StatusPreconditionRequired, ErrConfirmationRequired.StatusCode)
	assert.Equal(t, http.StatusBadGateway, ErrUploadFailed.StatusCode)
}
