package client

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of ClientInterface for testing.
type MockClient struct {
	mock.Mock
}

var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) Upload(ctx context.Context, filePath string) (*UploadResponse, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadResponse), args.Error(1)
}

func (m *MockClient) UploadReader(ctx context.Context, r io.Reader, filename string) (*UploadResponse, error) {
	args := m.Called(ctx, r, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UploadResponse), args.Error(1)
}

func (m *MockClient) payload(args mock.Arguments) (Payload, error) {
	p, _ := args.Get(0).(Payload)
	return p, args.Error(1)
}

func (m *MockClient) Revenue(ctx context.Context) (Payload, error) {
	return m.payload(m.Called(ctx))
}

func (m *MockClient) Channels(ctx context.Context) (Payload, error) {
	return m.payload(m.Called(ctx))
}

func (m *MockClient) Retention(ctx context.Context) (Payload, error) {
	return m.payload(m.Called(ctx))
}

func (m *MockClient) ROI(ctx context.Context) (Payload, error) {
	return m.payload(m.Called(ctx))
}

func (m *MockClient) Recommendations(ctx context.Context) (Payload, error) {
	return m.payload(m.Called(ctx))
}

func (m *MockClient) Suspicious(ctx context.Context, filter SuspiciousFilter) (Payload, error) {
	return m.payload(m.Called(ctx, filter))
}

func (m *MockClient) Forecast(ctx context.Context, req ForecastRequest) (Payload, error) {
	return m.payload(m.Called(ctx, req))
}

func (m *MockClient) CancellationProbability(ctx context.Context, req CancellationRequest) (Payload, error) {
	return m.payload(m.Called(ctx, req))
}

func (m *MockClient) Chat(ctx context.Context, question string, history []ChatTurn) (string, error) {
	args := m.Called(ctx, question, history)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
