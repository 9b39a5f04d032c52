package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tally/version"
)

const (
	PathUpload          = "/api/upload"
	PathRevenue         = "/analytics/revenue"
	PathChannels        = "/analytics/channels"
	PathRetention       = "/analytics/retention"
	PathROI             = "/analytics/roi"
	PathRecommendations = "/analytics/recommendations"
	PathSuspicious      = "/predict/suspicious"
	PathForecast        = "/predict/transactions"
	PathCancellation    = "/predict/cancellation"
	PathChat            = "/chat"
	PathAsk             = "/ask"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// Client is the only code path that talks to the analytics backend. It does
// not retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tally-cli/"+version.Short())

	return c.httpClient.Do(req)
}

// call issues one request and decodes a JSON body into out. Failures are
// normalized against sentinel.
func (c *Client) call(ctx context.Context, path string, body io.Reader, contentType string, out any, sentinel *apperror.Error) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordBackendCall(path, err, time.Since(start))
		if err != nil {
			logger.FromContext(ctx).Warn("backend call failed",
				"endpoint", path,
				"status", StatusCode(err),
				"error", err.Error(),
			)
		}
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return normalize(sentinel, err, nil)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return normalize(sentinel, &HTTPError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(data)}, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return normalize(sentinel, fmt.Errorf("decode %s response: %w", path, err), nil)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, out any, sentinel *apperror.Error) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrInternal)
	}
	return c.call(ctx, path, bytes.NewReader(data), "application/json", out, sentinel)
}

func (c *Client) postPayload(ctx context.Context, path string, reqBody any) (Payload, error) {
	var p Payload
	if err := c.postJSON(ctx, path, reqBody, &p, apperror.ErrBackend); err != nil {
		return nil, err
	}
	return p, nil
}

var emptyBody = struct{}{}

// Upload sends a CSV file as multipart field "file".
func (c *Client) Upload(ctx context.Context, filePath string) (*UploadResponse, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, apperror.WithMessage(apperror.ErrInvalidFile, fmt.Sprintf("failed to open file: %v", err), err)
	}
	defer func() { _ = file.Close() }()

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	resp, err := c.UploadReader(ctx, file, filepath.Base(filePath))
	metrics.RecordUpload(err, size)
	return resp, err
}

func (c *Client) UploadReader(ctx context.Context, r io.Reader, filename string) (*UploadResponse, error) {
	// Stream the multipart body instead of buffering the whole file.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	var resp UploadResponse
	if err := c.call(ctx, PathUpload, pr, writer.FormDataContentType(), &resp, apperror.ErrUploadFailed); err != nil {
		_ = pr.Close()
		return nil, err
	}
	if resp.FileID == "" {
		return nil, apperror.WithMessage(apperror.ErrUploadFailed, "upload response did not include a file_id", nil)
	}
	return &resp, nil
}

func (c *Client) Revenue(ctx context.Context) (Payload, error) {
	return c.postPayload(ctx, PathRevenue, emptyBody)
}

func (c *Client) Channels(ctx context.Context) (Payload, error) {
	return c.postPayload(ctx, PathChannels, emptyBody)
}

func (c *Client) Retention(ctx context.Context) (Payload, error) {
	return c.postPayload(ctx, PathRetention, emptyBody)
}

func (c *Client) ROI(ctx context.Context) (Payload, error) {
	return c.postPayload(ctx, PathROI, emptyBody)
}

func (c *Client) Recommendations(ctx context.Context) (Payload, error) {
	return c.postPayload(ctx, PathRecommendations, emptyBody)
}

func (c *Client) Suspicious(ctx context.Context, filter SuspiciousFilter) (Payload, error) {
	return c.postPayload(ctx, PathSuspicious, filter)
}

func (c *Client) Forecast(ctx context.Context, req ForecastRequest) (Payload, error) {
	return c.postPayload(ctx, PathForecast, req)
}

func (c *Client) CancellationProbability(ctx context.Context, req CancellationRequest) (Payload, error) {
	return c.postPayload(ctx, PathCancellation, req)
}

// Chat asks the assistant a question, falling back to /ask when /chat fails.
// history is accepted for interface stability and is not sent.
func (c *Client) Chat(ctx context.Context, question string, history []ChatTurn) (string, error) {
	var resp ChatResponse
	err := c.postJSON(ctx, PathChat, chatRequest{Question: question}, &resp, apperror.ErrBackend)
	if err != nil {
		logger.FromContext(ctx).Warn("chat endpoint failed, trying /ask", "error", err.Error())
		resp = ChatResponse{}
		if err := c.postJSON(ctx, PathAsk, chatRequest{Question: question}, &resp, apperror.ErrBackend); err != nil {
			return "", err
		}
	}

	answer := resp.Text()
	if IsDegradedAnswer(answer) {
		return "", apperror.Wrap(fmt.Errorf("degraded answer: %q", truncate(answer, 80)), apperror.ErrAIUnavailable)
	}
	return answer, nil
}

// Ping checks that the backend answers HTTP at all. Any status below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &HTTPError{Endpoint: "/", StatusCode: resp.StatusCode}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
