package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goform/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  string
	}{
		{level: 1, want: "TRACE"},
		{level: observability.LevelVerbose, want: "DEBUG"},
		{level: observability.LevelInfo, want: "INFO"},
		{level: observability.LevelWarning, want: "WARN"},
		{level: observability.LevelError, want: "ERROR"},
		{level: 21, want: "FATAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
	assert.Equal(t, slog.LevelWarn, observability.LevelWarning.SlogLevel())
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := observability.NewSlogObserver(logger)

	obs.OnEvent(context.Background(), observability.Event{
		Type:      observability.EventStatus,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "form-1",
		Data:      map[string]any{"from": "READY", "to": "SUBMIT"},
	})

	out := buf.String()
	assert.Contains(t, out, `"msg":"form.status"`)
	assert.Contains(t, out, `"form":"form-1","from":"READY","to":"SUBMIT"`)

	buf.Reset()
	quiet := observability.NewSlogObserver(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	quiet.OnEvent(context.Background(), observability.Event{Type: observability.EventFocus, Level: observability.LevelVerbose})
	assert.Empty(t, buf.String())
}

func TestMultiObserverAndRecorder(t *testing.T) {
	a, b := &observability.Recorder{}, &observability.Recorder{}
	m := observability.NewMultiObserver(a, nil, b)

	m.OnEvent(context.Background(), observability.Event{Type: observability.EventFocus})
	m.OnEvent(context.Background(), observability.Event{Type: observability.EventSubmit})

	require.Len(t, a.Events(), 2)
	require.Len(t, b.OfType(observability.EventSubmit), 1)

	a.Reset()
	assert.Empty(t, a.Events())
	observability.NoOpObserver{}.OnEvent(context.Background(), observability.Event{})
}
