// Package logging provides structured logging for docservice.
//
// It wraps log/slog so every component logs through the same handler. Output
// is text or JSON, the level comes from configuration, and component loggers
// carry a "component" attribute.
//
// Usage:
//
//	logging.Init(slog.LevelInfo, false)
//
//	log := logging.Component("docservice")
//	log.Info("version stored", "key", key, "id", id)
//
//	logging.WithContext(ctx).Warn("read failed", "error", err)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger writing to stdout.
func Init(level slog.Level, jsonFormat bool) {
	InitWriter(os.Stdout, level, jsonFormat)
}

// InitWriter initializes the global logger writing to w.
func InitWriter(w io.Writer, level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	InitWithHandler(handler)
}

// InitWithHandler initializes the global logger with a custom handler.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// ParseLevel converts a configured level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func base() *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger
}

// Component returns a logger for a specific component.
//
//	log := logging.Component("store")
//	log.Info("schema ready") // time=... level=INFO component=store msg="schema ready"
//
// The returned logger follows later calls to Init, so package-level component
// loggers created before startup configuration still honour it.
func Component(name string) *slog.Logger {
	return slog.New(&componentHandler{name: name})
}

// componentHandler resolves the global handler lazily on every record.
type componentHandler struct {
	name  string
	attrs []slog.Attr
	group string
}

func (h *componentHandler) target() slog.Handler {
	hd := base().Handler().WithAttrs([]slog.Attr{slog.String("component", h.name)})
	if h.group != "" {
		hd = hd.WithGroup(h.group)
	}
	if len(h.attrs) > 0 {
		hd = hd.WithAttrs(h.attrs)
	}
	return hd
}

func (h *componentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return base().Handler().Enabled(ctx, level)
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}

// WithContext returns a logger that includes request-scoped values.
func WithContext(ctx context.Context) *slog.Logger {
	logger := base()

	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		logger = logger.With("request_id", requestID)
	}
	if key, ok := ctx.Value(contextKeyDocKey).(string); ok {
		logger = logger.With("key", key)
	}

	return logger
}

type contextKey int

const (
	contextKeyRequestID contextKey = iota
	contextKeyDocKey
)

// ContextWithRequestID adds a request ID to the context for logging.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// ContextWithDocKey adds the document key being served to the context.
func ContextWithDocKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKeyDocKey, key)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}
