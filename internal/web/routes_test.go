package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/tally/internal/analytics"
	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/dashboard"
	"github.com/abdul-hamid-achik/tally/internal/format"
	"github.com/abdul-hamid-achik/tally/internal/tally/client"
)

type testServer struct {
	router  http.Handler
	backend *client.MockClient
	shell   *dashboard.Shell
	chat    *chat.Session
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	m := new(client.MockClient)
	revenue := client.Payload{
		"total_revenue":     500.0,
		"transaction_count": 5.0,
		"revenue_by_date":   []any{map[string]any{"date": "2024-01-01", "revenue": 500.0}},
	}
	m.On("Revenue", mock.Anything).Return(revenue, nil).Maybe()
	for _, method := range []string{"Channels", "Retention", "ROI", "Recommendations"} {
		m.On(method, mock.Anything).Return(client.Payload{}, nil).Maybe()
	}
	m.On("Suspicious", mock.Anything, mock.Anything).Return(client.Payload{}, nil).Maybe()
	m.On("Forecast", mock.Anything, mock.Anything).Return(client.Payload{}, nil).Maybe()
	m.On("CancellationProbability", mock.Anything, mock.Anything).Return(client.Payload{}, nil).Maybe()

	shell := dashboard.New(m)
	session := chat.NewSession(m, chat.NewMemoryStore())

	return &testServer{
		router: NewRouter(&Config{
			Shell:     shell,
			Chat:      session,
			Formatter: format.New("en"),
		}),
		backend: m,
		shell:   shell,
		chat:    session,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperror.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/health/live"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := s.do(req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestViewBeforeUpload(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/view", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_dataset", errorCode(t, rec))

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshAndView(t *testing.T) {
	s := newTestServer(t)
	s.shell.SetDataset("ds-1")

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/view", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view analytics.AnalyticsView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, 500.0, view.Summary.TotalRevenue)
	assert.Len(t, view.RevenueTrend, 1)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("UploadReader", mock.Anything, mock.Anything, "tx.csv").
		Return(&client.UploadResponse{FileID: "ds-9", Message: "ok"}, nil)

	body, contentType := multipartBody(t, "tx.csv", "id,amount\n1,10\n")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := s.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ds-9", resp.FileID)
	assert.Equal(t, "ds-9", s.shell.DatasetID())
	assert.Equal(t, "ds-9", s.chat.DatasetID())
	assert.NotNil(t, s.shell.View())
}

func TestUploadRejectsNonCSV(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "tx.xlsx", "binary")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_file", errorCode(t, rec))
	s.backend.AssertNotCalled(t, "UploadReader", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadWithoutForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorCode(t, rec))
}

func TestChatRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("Chat", mock.Anything, "What grew?", mock.Anything).Return("QR payments", nil)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"What grew?"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply chatReply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal(t, "QR payments", reply.Reply.Content)
	assert.Len(t, reply.Messages, 3)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state chatState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Len(t, state.Messages, 3)
	assert.False(t, state.Busy)
}

func TestChatErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"blank message", `{"message":"   "}`, http.StatusBadRequest, "empty_message"},
		{"invalid json", `{`, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
	assert.Len(t, s.chat.Messages(), 1)
}

func TestClearChat(t *testing.T) {
	s := newTestServer(t)
	s.backend.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("answer", nil)
	_, err := s.chat.Send(t.Context(), "hello")
	require.NoError(t, err)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/chat", nil))
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Len(t, s.chat.Messages(), 3)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/chat?confirm=true", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, s.chat.Messages(), 1)
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t)
	s.shell.SetDataset("ds-1")
	s.shell.Refresh(t.Context())

	rec := s.do(httptest.NewRequest(http.MethodGet, "/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="analytics_report_`)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>"))
	assert.Contains(t, rec.Body.String(), "ds-1")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodPut, "/api/view", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
