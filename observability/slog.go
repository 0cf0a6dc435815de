package observability

import (
	"context"
	"log/slog"
	"sort"
)

// SlogObserver writes form events as log records: the event type is the
// message, the form ID goes under "form" and the event data follows in key
// order, so the same event always logs the same line.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver logs to logger, or to slog.Default() when it is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	lvl := event.Level.SlogLevel()
	if !o.logger.Enabled(ctx, lvl) {
		return
	}
	keys := make([]string, 0, len(event.Data))
	for k := range event.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("form", event.Source))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, event.Data[k]))
	}
	o.logger.LogAttrs(ctx, lvl, string(event.Type), attrs...)
}
