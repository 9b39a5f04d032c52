// Package logger carries a structured slog logger through contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRequestID
	keyDatasetID
)

var current atomic.Pointer[slog.Logger]

// Init installs a JSON logger on stderr so command output on stdout stays
// machine-readable.
func Init(level string) {
	InitWriter(os.Stderr, level)
}

func InitWriter(w io.Writer, level string) {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
	current.Store(l)
	slog.SetDefault(l)
}

// parseLevel accepts slog level names plus "warning". Anything else is info.
func parseLevel(level string) slog.Level {
	name := strings.TrimSpace(level)
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func Default() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init("warn")
	return current.Load()
}

func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
		return l
	}
	return Default()
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, l)
}

// WithRequestID tags the context and its logger with a request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return tag(ctx, keyRequestID, "request_id", id)
}

// WithDatasetID tags the context and its logger with the dataset in use.
func WithDatasetID(ctx context.Context, id string) context.Context {
	return tag(ctx, keyDatasetID, "dataset_id", id)
}

func tag(ctx context.Context, key ctxKey, attr, value string) context.Context {
	l := FromContext(ctx).With(attr, value)
	return WithLogger(context.WithValue(ctx, key, value), l)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

func DatasetID(ctx context.Context) string {
	id, _ := ctx.Value(keyDatasetID).(string)
	return id
}

// NewTestLogger discards everything it is given.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
