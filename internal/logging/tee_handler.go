package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes each record to every sink whose level admits it. The run
// uses one console sink and one JSON file sink, each with its own level.
type teeHandler struct {
	sinks []slog.Handler
}

// TeeHandler combines handlers into one. Nil handlers are dropped; a single
// survivor is returned as is.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	var sinks []slog.Handler
	for _, h := range handlers {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	switch len(sinks) {
	case 0:
		return NoopHandler{}
	case 1:
		return sinks[0]
	}
	return &teeHandler{sinks: sinks}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range t.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	enabled := make([]slog.Handler, 0, len(t.sinks))
	for _, sink := range t.sinks {
		if sink.Enabled(ctx, record.Level) {
			enabled = append(enabled, sink)
		}
	}
	var errs []error
	for i, sink := range enabled {
		rec := record
		if i < len(enabled)-1 {
			// handlers may retain attrs, so only the last sink gets the original
			rec = record.Clone()
		}
		if err := sink.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t *teeHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, sink := range t.sinks {
		sinks[i] = fn(sink)
	}
	return &teeHandler{sinks: sinks}
}
