// Package logging builds the process slog.Logger: JSON to a writer plus a copy of each record
// on an OpenTelemetry LoggerProvider.
package logging

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
)

const scopeName = "user-registry"

// New returns a logger writing JSON lines at level to w. When provider is non-nil, records are also
// emitted as OTel log records.
func New(w io.Writer, level slog.Level, provider otellog.LoggerProvider) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if provider == nil {
		return slog.New(jsonHandler)
	}
	return slog.New(NewFanoutHandler(jsonHandler, NewOTelHandler(provider.Logger(scopeName), level)))
}

// NewStdLogger adapts logger for APIs that still take a *log.Logger (e.g. http.Server.ErrorLog).
func NewStdLogger(logger *slog.Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(logger.Handler(), level)
}

// FanoutHandler forwards each record to every handler that is enabled for its level.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler returns a handler writing to all of handlers.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: next}
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &FanoutHandler{handlers: next}
}
