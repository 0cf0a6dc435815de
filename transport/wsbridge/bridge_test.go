package wsbridge_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goform/formdef"
	"github.com/reoring/goform/transport/wsbridge"
)

const definition = `
name: contact
initial:
  email: ""
  terms: false
fields:
  - name: email
    rules:
      - type: required
  - name: terms
    kind: toggle
    rules:
      - type: accepted
`

func dial(t *testing.T) (*websocket.Conn, context.Context) {
	t.Helper()
	def, err := formdef.Parse([]byte(definition), formdef.FormatYAML)
	require.NoError(t, err)

	srv := httptest.NewServer(wsbridge.New(def))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) wsbridge.Frame {
	t.Helper()
	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	var fr wsbridge.Frame
	require.NoError(t, json.Unmarshal(msg, &fr))
	return fr
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(msg)))
}

func TestBridge_InitialState(t *testing.T) {
	conn, ctx := dial(t)
	fr := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameState, fr.Type)
	assert.NotEmpty(t, fr.Session)
	assert.Equal(t, "", fr.Values["email"])
	assert.Empty(t, fr.Errors)
	require.NotNil(t, fr.Valid)
	assert.True(t, *fr.Valid)
}

func TestBridge_BlurValidates(t *testing.T) {
	conn, ctx := dial(t)
	first := read(t, ctx, conn)

	send(t, ctx, conn, `[{"type":"focus","control":"email"},{"type":"blur","control":"email"}]`)
	fr := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameState, fr.Type)
	assert.Equal(t, first.Session, fr.Session)
	assert.Greater(t, fr.Version, first.Version)
	assert.Equal(t, []any{"Email is required"}, fr.Errors["email"])
	assert.False(t, *fr.Valid)
}

func TestBridge_Submit(t *testing.T) {
	conn, ctx := dial(t)
	read(t, ctx, conn)

	send(t, ctx, conn, `{"type":"change","control":"email","value":"a@b.c"}`)
	read(t, ctx, conn)
	send(t, ctx, conn, `[{"type":"change","control":"terms","value":true},{"type":"submit"}]`)

	sub := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameSubmit, sub.Type)
	require.NotNil(t, sub.Valid)
	assert.True(t, *sub.Valid)
	assert.Equal(t, "a@b.c", sub.Values["email"])
	assert.Equal(t, true, sub.Values["terms"])

	state := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameState, state.Type)
}

func TestBridge_ErrorsKeepSessionOpen(t *testing.T) {
	conn, ctx := dial(t)
	read(t, ctx, conn)

	send(t, ctx, conn, `not json`)
	fr := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameError, fr.Type)

	send(t, ctx, conn, `{"type":"hover"}`)
	fr = read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameError, fr.Type)
	assert.Contains(t, fr.Message, "unknown event type")
	assert.Equal(t, wsbridge.FrameState, read(t, ctx, conn).Type)

	send(t, ctx, conn, `{"type":"flush"}`)
	fr = read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameState, fr.Type)
}

func TestBridge_FailedEventStillFlushes(t *testing.T) {
	conn, ctx := dial(t)
	read(t, ctx, conn)

	send(t, ctx, conn, `[{"type":"focus","control":"email"},{"type":"blur","control":"email"},{"type":"focus","control":"a..b"}]`)
	fr := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameError, fr.Type)
	assert.Contains(t, fr.Message, "event 2 (focus)")

	state := read(t, ctx, conn)
	assert.Equal(t, wsbridge.FrameState, state.Type)
	assert.Equal(t, []any{"Email is required"}, state.Errors["email"])
}

func TestBridge_BlurAndSubmitInOneMessage(t *testing.T) {
	conn, ctx := dial(t)
	read(t, ctx, conn)

	send(t, ctx, conn, `[{"type":"focus","control":"email"},{"type":"change","control":"email","value":"a@b.c"},{"type":"blur","control":"email"},{"type":"submit"}]`)
	sub := read(t, ctx, conn)
	require.Equal(t, wsbridge.FrameSubmit, sub.Type)
	assert.False(t, *sub.Valid)
	assert.Equal(t, []any{"Terms must be accepted"}, sub.Errors["terms"])
	assert.NotContains(t, sub.Errors, "email")
}

func TestBridge_StateFrameFields(t *testing.T) {
	conn, ctx := dial(t)
	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msg, &raw))
	for _, key := range []string{"type", "session", "version", "values", "errors", "valid"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, map[string]any{}, raw["errors"])
}

func TestBridge_SessionsAreIsolated(t *testing.T) {
	a, ctx := dial(t)
	b, _ := dial(t)
	fa := read(t, ctx, a)
	fb := read(t, ctx, b)
	assert.NotEqual(t, fa.Session, fb.Session)

	send(t, ctx, a, `{"type":"change","control":"email","value":"x"}`)
	assert.Equal(t, "x", read(t, ctx, a).Values["email"])

	send(t, ctx, b, `{"type":"flush"}`)
	assert.Equal(t, "", read(t, ctx, b).Values["email"])
}
