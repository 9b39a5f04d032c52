package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/storage"
)

const (
	archiveRoot     = "reports/"
	unscopedDataset = "unscoped"
)

// ErrNotArchived is returned when a key does not name an archived report.
var ErrNotArchived = apperror.WithMessage(apperror.ErrNotFound, "No archived report with that key", nil)

// Archive uploads a rendered report under key and returns a link to it.
func Archive(ctx context.Context, store storage.Storage, key string, html []byte, expiry time.Duration) (string, error) {
	if err := store.Upload(ctx, key, bytes.NewReader(html), contentType, int64(len(html))); err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	metrics.RecordReport("storage")

	url, err := store.GetPresignedURL(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign report: %w", err)
	}
	return url, nil
}

// ArchiveKey namespaces archived reports by dataset.
func ArchiveKey(datasetID string, t time.Time) string {
	return archivePrefix(datasetID) + Filename(t)
}

func archivePrefix(datasetID string) string {
	if datasetID == "" {
		datasetID = unscopedDataset
	}
	return archiveRoot + datasetID + "/"
}

// Archives lists archived reports, newest first. An empty datasetID lists
// every dataset.
func Archives(ctx context.Context, store storage.Storage, datasetID string) ([]storage.Object, error) {
	prefix := archiveRoot
	if datasetID != "" {
		prefix = archivePrefix(datasetID)
	}
	objs, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].LastModified.After(objs[j].LastModified)
	})
	return objs, nil
}

// Fetch downloads the archived report at key into dir and returns the path
// of the written file.
func Fetch(ctx context.Context, store storage.Storage, key, dir string) (string, error) {
	if !strings.HasPrefix(key, archiveRoot) || strings.HasSuffix(key, "/") {
		return "", ErrNotArchived
	}

	body, err := store.Download(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrNotArchived
	}
	if err != nil {
		return "", fmt.Errorf("download report: %w", err)
	}
	defer body.Close()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	dst := filepath.Join(dir, path.Base(key))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return dst, nil
}

// Prune deletes archived reports last modified before cutoff and returns
// their keys. An empty datasetID prunes every dataset. Deletion stops at
// the first failure.
func Prune(ctx context.Context, store storage.Storage, datasetID string, cutoff time.Time) ([]string, error) {
	objs, err := Archives(ctx, store, datasetID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	var removed []string
	for _, obj := range objs {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := store.Delete(ctx, obj.Key); err != nil {
			return removed, fmt.Errorf("delete report %s: %w", obj.Key, err)
		}
		log.Debug("archived report pruned", "key", obj.Key, "modified", obj.LastModified)
		removed = append(removed, obj.Key)
	}
	return removed, nil
}
