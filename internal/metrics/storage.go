package metrics

import (
	"context"
	"io"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/storage"
)

// InstrumentedStorage records operation counts and latency for a report store.
type InstrumentedStorage struct {
	storage.Storage
}

func NewInstrumentedStorage(s storage.Storage) *InstrumentedStorage {
	return &InstrumentedStorage{Storage: s}
}

// timed runs fn as storage operation op.
func timed[T any](op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	StorageOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
	StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return v, err
}

func (s *InstrumentedStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string, size int64) error {
	_, err := timed("upload", func() (struct{}, error) {
		return struct{}{}, s.Storage.Upload(ctx, key, r, contentType, size)
	})
	if err == nil {
		StorageBytesTotal.WithLabelValues("upload").Add(float64(size))
	}
	return err
}

func (s *InstrumentedStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := timed("download", func() (io.ReadCloser, error) {
		return s.Storage.Download(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return &meteredBody{ReadCloser: rc}, nil
}

func (s *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	_, err := timed("delete", func() (struct{}, error) {
		return struct{}{}, s.Storage.Delete(ctx, key)
	})
	return err
}

func (s *InstrumentedStorage) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return timed("presign", func() (string, error) {
		return s.Storage.GetPresignedURL(ctx, key, expiry)
	})
}

// meteredBody adds the bytes read to the download counter on Close.
type meteredBody struct {
	io.ReadCloser
	n int64
}

func (b *meteredBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *meteredBody) Close() error {
	StorageBytesTotal.WithLabelValues("download").Add(float64(b.n))
	return b.ReadCloser.Close()
}
