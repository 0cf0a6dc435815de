// Package observability carries the events a form emits while it processes
// host notifications: focus changes, blur decisions, validation passes,
// submit status transitions and submissions.
//
// Levels follow the OpenTelemetry severity ranges so that an event can be
// forwarded to a collector unchanged; the default sink is log/slog.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event, e.g. "form.status".
type EventType string

const (
	EventFocus        EventType = "form.focus"
	EventChange       EventType = "form.change"
	EventBlurLeft     EventType = "form.blur.left"
	EventBlurAbsorbed EventType = "form.blur.absorbed"
	EventValidate     EventType = "form.validate"
	EventStatus       EventType = "form.status"
	EventSubmit       EventType = "form.submit"
	EventFieldAdded   EventType = "form.field.registered"
	EventFieldRemoved EventType = "form.field.unregistered"
	EventFailure      EventType = "form.failure"
)

// Event is emitted by a form. Source carries the form ID.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives form events.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
