package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8000/")
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("baseURL = %s, want http://localhost:8000 (without trailing slash)", c.BaseURL())
	}
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c := New("http://x", WithHTTPClient(hc), WithTimeout(3*time.Second))
	if c.httpClient != hc {
		t.Error("WithHTTPClient should replace the HTTP client")
	}
	if hc.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", hc.Timeout)
	}
}

func TestClient_AnalyticsEndpoints(t *testing.T) {
	tests := []struct {
		path string
		call func(c *Client) (Payload, error)
	}{
		{PathRevenue, func(c *Client) (Payload, error) { return c.Revenue(context.Background()) }},
		{PathChannels, func(c *Client) (Payload, error) { return c.Channels(context.Background()) }},
		{PathRetention, func(c *Client) (Payload, error) { return c.Retention(context.Background()) }},
		{PathROI, func(c *Client) (Payload, error) { return c.ROI(context.Background()) }},
		{PathRecommendations, func(c *Client) (Payload, error) { return c.Recommendations(context.Background()) }},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				if r.URL.Path != tt.path {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("unexpected content type: %s", ct)
				}
				if !strings.HasPrefix(r.Header.Get("User-Agent"), "tally-cli/") {
					t.Errorf("unexpected user agent: %s", r.Header.Get("User-Agent"))
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != "{}" {
					t.Errorf("request body = %s, want {}", body)
				}
				_, _ = w.Write([]byte(`{"total_revenue": 1500.5}`))
			}))
			defer server.Close()

			p, err := tt.call(New(server.URL))
			if err != nil {
				t.Fatalf("call error = %v", err)
			}
			if p["total_revenue"] != 1500.5 {
				t.Errorf("total_revenue = %v, want 1500.5", p["total_revenue"])
			}
		})
	}
}

func TestClient_Suspicious_SendsNullFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathSuspicious {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		for _, key := range []string{"start_date", "end_date", "region", "city", "merchant_category", "channel"} {
			v, ok := body[key]
			if !ok {
				t.Errorf("body missing %q", key)
			}
			if v != nil {
				t.Errorf("body[%q] = %v, want null", key, v)
			}
		}
		_, _ = w.Write([]byte(`{"suspicious_transactions": []}`))
	}))
	defer server.Close()

	if _, err := New(server.URL).Suspicious(context.Background(), SuspiciousFilter{}); err != nil {
		t.Fatalf("Suspicious error = %v", err)
	}
}

func TestClient_ForecastAndCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case PathForecast:
			if body["days_ahead"] != float64(30) {
				t.Errorf("days_ahead = %v, want 30", body["days_ahead"])
			}
			if _, ok := body["start_date"]; !ok {
				t.Error("start_date should be sent as null")
			}
			_, _ = w.Write([]byte(`{"predicted_volume": [{"date": "2024-02-01", "predicted_revenue": 100}]}`))
		case PathCancellation:
			if body["channel"] != "Kaspi QR" || body["amount_kzt"] != float64(1000) {
				t.Errorf("unexpected cancellation body: %v", body)
			}
			_, _ = w.Write([]byte(`{"cancellation_probability": 0.1234}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.Forecast(context.Background(), ForecastRequest{DaysAhead: 30}); err != nil {
		t.Fatalf("Forecast error = %v", err)
	}
	p, err := c.CancellationProbability(context.Background(), RepresentativeTransaction())
	if err != nil {
		t.Fatalf("CancellationProbability error = %v", err)
	}
	if p["cancellation_probability"] != 0.1234 {
		t.Errorf("cancellation_probability = %v", p["cancellation_probability"])
	}
}

func TestClient_NullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	p, err := New(server.URL).Revenue(context.Background())
	if err != nil {
		t.Fatalf("Revenue error = %v", err)
	}
	if p != nil {
		t.Errorf("payload = %v, want nil", p)
	}
}

func TestClient_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantStatus int
	}{
		{"string detail", http.StatusNotFound, `{"detail": "No data uploaded yet"}`, "No data uploaded yet", 404},
		{"validation list", http.StatusUnprocessableEntity, `{"detail": [{"loc": ["body"], "msg": "field required"}]}`, "field required", 422},
		{"no detail", http.StatusInternalServerError, `Internal Server Error`, "request failed with status code 500", 500},
		{"empty detail", http.StatusBadGateway, `{"detail": ""}`, "request failed with status code 502", 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL).Channels(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if !apperror.Is(err, apperror.ErrBackend) {
				t.Errorf("error should be ErrBackend, got code %q", apperror.Code(err))
			}
			if StatusCode(err) != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", StatusCode(err), tt.wantStatus)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Revenue(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport errors", StatusCode(err))
	}
	if err.Error() == "" || err.Error() == apperror.ErrBackend.Message {
		t.Errorf("message should carry the transport error, got %q", err.Error())
	}
}

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathUpload {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("failed to get file: %v", err)
			return
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "sales.csv" {
			t.Errorf("filename = %s, want sales.csv", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if !strings.HasPrefix(string(data), "date,amount") {
			t.Errorf("unexpected file content: %q", data)
		}
		_ = json.NewEncoder(w).Encode(UploadResponse{FileID: "file-42", Message: "uploaded"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte("date,amount\n2024-01-01,100\n"), 0600); err != nil {
		t.Fatal(err)
	}

	resp, err := New(server.URL).Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if resp.FileID != "file-42" {
		t.Errorf("FileID = %s, want file-42", resp.FileID)
	}
}

func TestClient_Upload_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "CSV is missing required columns"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).UploadReader(context.Background(), strings.NewReader("a,b\n"), "bad.csv")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperror.Is(err, apperror.ErrUploadFailed) {
		t.Errorf("code = %q, want upload_failed", apperror.Code(err))
	}
	if err.Error() != "CSV is missing required columns" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestClient_Upload_MissingFile(t *testing.T) {
	_, err := New("http://unused").Upload(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !apperror.Is(err, apperror.ErrInvalidFile) {
		t.Errorf("Upload(missing) code = %q, want invalid_file", apperror.Code(err))
	}
}

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name        string
		chatStatus  int
		chatBody    string
		askBody     string
		wantAnswer  string
		wantErrCode string
		wantAskHits int32
	}{
		{"answer from chat", 200, `{"answer": "Revenue grew 12%"}`, "", "Revenue grew 12%", "", 0},
		{"fallback to ask explanation", 500, `{"detail": "boom"}`, `{"explanation": "Top channel is Kaspi QR"}`, "Top channel is Kaspi QR", "", 1},
		{"fallback to sql query", 404, ``, `{"sql_query": "SELECT 1"}`, "SELECT 1", "", 1},
		{"degraded marker", 200, `{"answer": "AI service unavailable. Returning basic query"}`, "", "", "ai_unavailable", 0},
		{"empty answer", 200, `{}`, "", "", "ai_unavailable", 0},
		{"both fail", 500, `{"detail": "chat down"}`, "", "", "backend_error", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var askHits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req chatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Question != "how is revenue?" {
					t.Errorf("question = %q", req.Question)
				}
				switch r.URL.Path {
				case PathChat:
					w.WriteHeader(tt.chatStatus)
					_, _ = w.Write([]byte(tt.chatBody))
				case PathAsk:
					atomic.AddInt32(&askHits, 1)
					if tt.askBody == "" {
						w.WriteHeader(http.StatusInternalServerError)
						_, _ = w.Write([]byte(`{"detail": "ask down"}`))
						return
					}
					_, _ = w.Write([]byte(tt.askBody))
				}
			}))
			defer server.Close()

			answer, err := New(server.URL).Chat(context.Background(), "how is revenue?", nil)
			if tt.wantErrCode != "" {
				if err == nil {
					t.Fatalf("expected %s error, got answer %q", tt.wantErrCode, answer)
				}
				if apperror.Code(err) != tt.wantErrCode {
					t.Errorf("code = %q, want %q", apperror.Code(err), tt.wantErrCode)
				}
			} else {
				if err != nil {
					t.Fatalf("Chat error = %v", err)
				}
				if answer != tt.wantAnswer {
					t.Errorf("answer = %q, want %q", answer, tt.wantAnswer)
				}
			}
			if got := atomic.LoadInt32(&askHits); got != tt.wantAskHits {
				t.Errorf("ask hits = %d, want %d", got, tt.wantAskHits)
			}
		})
	}
}

func TestClient_Chat_UnavailableMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": ""}`))
	}))
	defer server.Close()

	_, err := New(server.URL).Chat(context.Background(), "q", nil)
	want := "AI service is not available. Please check API configuration."
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if err := New(server.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v, want nil for 404", err)
	}
}

func TestIsDegradedAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"AI service unavailable", true},
		{"Returning basic query results", true},
		{"Revenue is up", false},
	}

	for _, tt := range tests {
		if got := IsDegradedAnswer(tt.in); got != tt.want {
			t.Errorf("IsDegradedAnswer(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
