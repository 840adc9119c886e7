// Package logging configures the process-wide structured logger: a
// TTY-aware text/JSON switch driven by LOG_FORMAT/LOG_LEVEL, plus
// context-scoped job-id/request-id attribute injection.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	jobIDKey     ctxKey = "job_id"
	requestIDKey ctxKey = "request_id"
)

// WithJobID returns a context carrying jobID for later log attribute
// injection.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// GetJobID returns the job id stored on ctx, if any.
func GetJobID(ctx context.Context) string {
	v, _ := ctx.Value(jobIDKey).(string)
	return v
}

// WithRequestID returns a context carrying requestID for later log
// attribute injection.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id stored on ctx, if any.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// contextHandler wraps an slog.Handler, attaching job_id/request_id
// attributes pulled from the record's context at emit time.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetJobID(ctx); id != "" {
		r.AddAttrs(slog.String("job_id", id))
	}
	if id := GetRequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// New builds a logger per LOG_LEVEL/LOG_FORMAT env vars, defaulting to
// JSON output unless stdout is a TTY and LOG_FORMAT is unset (in which
// case it defaults to a human-readable text handler).
func New() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if format == "" {
		if isatty(os.Stdout) {
			format = "text"
		} else {
			format = "json"
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	switch format {
	case "text":
		base = slog.NewTextHandler(os.Stdout, opts)
	default:
		base = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(contextHandler{base})
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs l as slog's package-level default logger.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

func isatty(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
