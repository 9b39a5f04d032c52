package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMemoryStorage_Upload(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		content     string
		contentType string
		wantErr     error
	}{
		{"html report", "reports/file-1/analytics_report_2024-05-01.html", "<html></html>", "text/html; charset=utf-8", nil},
		{"empty content", "reports/empty.html", "", "text/html", nil},
		{"empty key", "", "content", "text/html", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStorage()
			err := s.Upload(context.Background(), tt.key, strings.NewReader(tt.content), tt.contentType, int64(len(tt.content)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			r, err := s.Download(context.Background(), tt.key)
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			defer func() { _ = r.Close() }()
			data, _ := io.ReadAll(r)
			if string(data) != tt.content {
				t.Errorf("content = %q, want %q", data, tt.content)
			}
			if ct, _ := s.ContentType(tt.key); ct != tt.contentType {
				t.Errorf("content type = %q, want %q", ct, tt.contentType)
			}
		})
	}
}

func TestMemoryStorage_DownloadMissing(t *testing.T) {
	s := NewMemoryStorage()
	if _, err := s.Download(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorage_ContextCanceled(t *testing.T) {
	s := NewMemoryStorage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Upload(ctx, "k", strings.NewReader("x"), "text/plain", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() error = %v, want context.Canceled", err)
	}
	if err := s.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestMemoryStorage_List(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	for _, key := range []string{"reports/b/2.html", "reports/a/1.html", "other/x.html"} {
		if err := s.Upload(ctx, key, strings.NewReader("x"), "text/html", 1); err != nil {
			t.Fatalf("Upload(%q) error = %v", key, err)
		}
	}

	objs, err := s.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("List() returned %d objects, want 2", len(objs))
	}
	if objs[0].Key != "reports/a/1.html" || objs[1].Key != "reports/b/2.html" {
		t.Errorf("List() keys = %q, %q; want sorted report keys", objs[0].Key, objs[1].Key)
	}
}

func TestMemoryStorage_DeleteAndPresign(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	_ = s.Upload(ctx, "reports/r.html", strings.NewReader("x"), "text/html", 1)

	url, err := s.GetPresignedURL(ctx, "reports/r.html", time.Hour)
	if err != nil {
		t.Fatalf("GetPresignedURL() error = %v", err)
	}
	if !strings.Contains(url, "reports/r.html") || !strings.Contains(url, "expires=3600") {
		t.Errorf("GetPresignedURL() = %q", url)
	}

	if err := s.Delete(ctx, "reports/r.html"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.GetPresignedURL(ctx, "reports/r.html", time.Hour); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPresignedURL() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorage_Concurrent(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "reports/" + string(rune('a'+i%26))
			_ = s.Upload(ctx, key, strings.NewReader("x"), "text/html", 1)
			_, _ = s.List(ctx, "reports/")
		}(i)
	}
	wg.Wait()

	if s.Count() != 26 {
		t.Errorf("Count() = %d, want 26", s.Count())
	}
}

func TestMinIOStorage_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("TALLY_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TALLY_TEST_MINIO_ENDPOINT not set, skipping MinIO integration test")
	}

	s, err := NewMinIOStorage(&Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "tally-test",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinIOStorage() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket() error = %v", err)
	}

	key := "reports/test/analytics_report_2024-01-01.html"
	content := "<html><body>report</body></html>"
	if err := s.Upload(ctx, key, strings.NewReader(content), "text/html", int64(len(content))); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	defer func() { _ = s.Delete(ctx, key) }()

	objs, err := s.List(ctx, "reports/test/")
	if err != nil || len(objs) == 0 {
		t.Fatalf("List() = %v, %v", objs, err)
	}

	if _, err := s.Download(ctx, "reports/test/missing.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Download(missing) error = %v, want ErrNotFound", err)
	}
}
