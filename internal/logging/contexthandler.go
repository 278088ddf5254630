package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes read at the moment a record is handled,
// such as the running tick.
type ContextProvider func() []slog.Attr

// ContextHandler appends the provider's attributes to every record.
type ContextHandler struct {
	next  slog.Handler
	stamp ContextProvider
}

func NewContextHandler(next slog.Handler, stamp ContextProvider) *ContextHandler {
	return &ContextHandler{next: next, stamp: stamp}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.stamp != nil {
		r.AddAttrs(h.stamp()...)
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), stamp: h.stamp}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{next: h.next.WithGroup(name), stamp: h.stamp}
}
