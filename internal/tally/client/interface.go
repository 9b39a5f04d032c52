package client

import (
	"context"
	"io"
)

// ClientInterface defines all gateway operations for mocking in tests.
type ClientInterface interface {
	Upload(ctx context.Context, filePath string) (*UploadResponse, error)
	UploadReader(ctx context.Context, r io.Reader, filename string) (*UploadResponse, error)

	Revenue(ctx context.Context) (Payload, error)
	Channels(ctx context.Context) (Payload, error)
	Retention(ctx context.Context) (Payload, error)
	ROI(ctx context.Context) (Payload, error)
	Recommendations(ctx context.Context) (Payload, error)
	Suspicious(ctx context.Context, filter SuspiciousFilter) (Payload, error)
	Forecast(ctx context.Context, req ForecastRequest) (Payload, error)
	CancellationProbability(ctx context.Context, req CancellationRequest) (Payload, error)

	Chat(ctx context.Context, question string, history []ChatTurn) (string, error)
	Ping(ctx context.Context) error
}

// Ensure Client implements ClientInterface at compile time
var _ ClientInterface = (*Client)(nil)
