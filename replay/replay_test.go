package replay_test

import (
	"bytes"
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/formdef"
	"github.com/reoring/goform/observability"
	"github.com/reoring/goform/replay"
	"github.com/reoring/goform/tree"
)

func runner(t *testing.T, opts ...goform.Option) *replay.Runner {
	t.Helper()
	def, err := formdef.Load("testdata/signup.yaml")
	require.NoError(t, err)
	return &replay.Runner{Def: def, Options: opts}
}

func TestRun_FixEmail(t *testing.T) {
	events, err := replay.LoadScript("testdata/fix_email.yaml")
	require.NoError(t, err)
	require.Len(t, events, 11)

	res, err := runner(t).Run(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, res.Frames, 3)

	assert.Equal(t, 3, res.Frames[0].Step)
	assert.Equal(t, []string{"Email must be a valid email address"}, res.Frames[0].View.Messages("email"))
	assert.Empty(t, res.Frames[1].View.Messages("email"), "focus on an erroneous field re-validates on change")

	require.Len(t, res.Submissions, 1)
	sub := res.Submissions[0]
	assert.True(t, sub.Valid())
	assert.Equal(t, "a@b.c", sub.Values["email"])
	assert.Equal(t, true, sub.Values["terms"])
	assert.True(t, res.Final.Valid())
}

func TestRun_IntraFieldMoves(t *testing.T) {
	events, err := replay.LoadScript("testdata/date_move.jsonl")
	require.NoError(t, err)
	require.Len(t, events, 8)

	rec := &observability.Recorder{}
	res, err := runner(t, goform.WithObserver(rec)).Run(context.Background(), events)
	require.NoError(t, err)

	require.Len(t, res.Frames, 2)
	for _, fr := range res.Frames {
		assert.Empty(t, fr.View.Errors)
	}
	absorbed := rec.OfType(observability.EventBlurAbsorbed)
	require.Len(t, absorbed, 2)
	assert.Equal(t, "refocused", absorbed[0].Data["reason"])
	assert.Equal(t, "pointer_pressed", absorbed[1].Data["reason"])
	assert.Empty(t, rec.OfType(observability.EventValidate))
}

func TestRun_AutoFlushAndTrailingFlush(t *testing.T) {
	events := []replay.Event{
		{Type: replay.TypeChange, Control: "terms", Value: false},
		{Type: replay.TypeSubmit},
	}

	r := runner(t)
	res, err := r.Run(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, res.Frames, 1, "pending work is flushed at the end")
	require.Len(t, res.Submissions, 1)
	assert.Equal(t, tree.Tree{
		"email": []string{"Email is required", "Email must be a valid email address"},
		"terms": []string{"Please accept the terms"},
	}, res.Submissions[0].Errors)

	r.AutoFlush = true
	res, err = r.Run(context.Background(), events)
	require.NoError(t, err)
	assert.Len(t, res.Frames, 2)
	assert.Equal(t, "change", res.Frames[0].Event)
	assert.Equal(t, []string{"Please accept the terms"}, res.Frames[0].View.Messages("terms"))
}

func TestRun_ValidateEvent(t *testing.T) {
	res, err := runner(t).Run(context.Background(), []replay.Event{
		{Type: replay.TypeValidate, Fields: []string{"terms"}},
		{Type: replay.TypeFlush},
		{Type: replay.TypeValidate},
		{Type: replay.TypeFlush},
	})
	require.NoError(t, err)
	require.Len(t, res.Frames, 2)
	assert.Nil(t, res.Frames[0].View.Messages("email"))
	assert.NotNil(t, res.Frames[1].View.Messages("email"))
}

func TestRun_Errors(t *testing.T) {
	_, err := runner(t).Run(context.Background(), []replay.Event{{Type: "hover"}})
	require.ErrorIs(t, err, replay.ErrUnknownEvent)

	_, err = runner(t).Run(context.Background(), []replay.Event{{Type: replay.TypeFocus, Control: "a..b"}})
	require.ErrorIs(t, err, goform.ErrInvalidPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner(t).Run(ctx, []replay.Event{{Type: replay.TypeSubmit}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseScript(t *testing.T) {
	arr := []byte(`[{"type":"focus","control":"email"},{"type":"flush"}]`)
	events, err := replay.ParseScript(arr, formdef.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []replay.Event{{Type: "focus", Control: "email"}, {Type: "flush"}}, events)

	_, err = replay.ParseScript([]byte("{\"type\":\"focus\"}\n{oops"), formdef.FormatJSON)
	require.Error(t, err)

	_, err = replay.ParseScript([]byte("- {type: focus, colour: red}"), formdef.FormatYAML)
	require.Error(t, err, "unknown keys are rejected")

	events, err = replay.ParseScript(nil, formdef.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestResult_WriteJSON(t *testing.T) {
	res, err := runner(t).Run(context.Background(), []replay.Event{{Type: replay.TypeSubmit}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteJSON(&buf))
	var decoded struct {
		Frames      []map[string]any `json:"frames"`
		Submissions []struct {
			Errors map[string]any `json:"errors"`
		} `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Frames, 1)
	require.Len(t, decoded.Submissions, 1)
	assert.Contains(t, decoded.Submissions[0].Errors, "email")
}
