// Package wsbridge serves forms over WebSocket. Each connection gets its own
// form built from a definition; the browser (or any other host) sends UI
// events and receives the read view after every batch.
//
// Client messages are one event object or an array of them, in the replay
// event format:
//
//	[{"type":"blur","control":"date.day"},{"type":"focus","control":"date.month"}]
//
// A message is one tick: its events are applied in order and the form is
// flushed once afterwards, even when one of them fails. The server answers
// with the submit frames of that flush, an error frame per failure and one
// state frame. A message that cannot be decoded gets only an error frame.
package wsbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/formdef"
	"github.com/reoring/goform/replay"
	"github.com/reoring/goform/tree"
)

// Frame types sent by the server.
const (
	FrameState  = "state"
	FrameSubmit = "submit"
	FrameError  = "error"
)

// Frame is one server message as a client decodes it. State and submit
// frames always carry version, values, errors and valid; error frames carry
// message.
type Frame struct {
	Type    string    `json:"type"`
	Session string    `json:"session,omitempty"`
	Version uint64    `json:"version,omitempty"`
	Values  tree.Tree `json:"values,omitempty"`
	Errors  tree.Tree `json:"errors,omitempty"`
	Valid   *bool     `json:"valid,omitempty"`
	Message string    `json:"message,omitempty"`
}

// treeFrame is the encoding of state and submit frames.
type treeFrame struct {
	Type    string    `json:"type"`
	Session string    `json:"session"`
	Version uint64    `json:"version"`
	Values  tree.Tree `json:"values"`
	Errors  tree.Tree `json:"errors"`
	Valid   bool      `json:"valid"`
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger for connection lifecycle messages.
func WithLogger(l *slog.Logger) Option { return func(h *Handler) { h.logger = l } }

// WithFormOptions passes options to every form the handler builds.
func WithFormOptions(opts ...goform.Option) Option {
	return func(h *Handler) { h.formOpts = append(h.formOpts, opts...) }
}

// WithOriginPatterns sets the accepted Origin host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Handler) { h.origins = patterns }
}

// WithReadLimit caps the size of one client message in bytes.
func WithReadLimit(n int64) Option { return func(h *Handler) { h.readLimit = n } }

// Handler is an http.Handler upgrading requests to form sessions.
type Handler struct {
	def       *formdef.Definition
	logger    *slog.Logger
	formOpts  []goform.Option
	origins   []string
	readLimit int64
}

// New returns a handler serving forms built from def.
func New(def *formdef.Definition, opts ...Option) *Handler {
	h := &Handler{def: def, logger: slog.Default(), readLimit: 64 << 10}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.origins,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(h.readLimit)

	s := &session{id: uuid.NewString(), conn: conn, def: h.def, logger: h.logger}
	h.logger.Info("form session opened", "session", s.id, "remote", r.RemoteAddr)
	err = s.run(r.Context(), h.formOpts)
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.logger.Info("form session closed", "session", s.id)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, context.Canceled):
		h.logger.Info("form session cancelled", "session", s.id)
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	default:
		h.logger.Warn("form session failed", "session", s.id, "error", err)
		_ = conn.Close(websocket.StatusInternalError, "session failed")
	}
}

// session owns one form. All form access happens on the goroutine running
// run.
type session struct {
	id     string
	conn   *websocket.Conn
	def    *formdef.Definition
	logger *slog.Logger

	submitted []goform.Submission
}

func (s *session) run(ctx context.Context, formOpts []goform.Option) error {
	opts := append(append([]goform.Option(nil), formOpts...),
		goform.WithID(s.id),
		goform.WithOnSubmit(func(_ context.Context, sub goform.Submission) error {
			s.submitted = append(s.submitted, goform.Submission{
				Errors: tree.Clone(sub.Errors),
				Values: tree.Clone(sub.Values),
			})
			return nil
		}),
	)
	f, err := s.def.Build(opts...)
	if err != nil {
		return fmt.Errorf("wsbridge: build form: %w", err)
	}
	if err := s.writeState(ctx, f); err != nil {
		return err
	}

	for {
		typ, msg, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			if err := s.writeError(ctx, "binary messages are not supported"); err != nil {
				return err
			}
			continue
		}
		if err := s.tick(ctx, f, msg); err != nil {
			return err
		}
	}
}

// tick applies one client message and reports the outcome. Only write
// failures end the session; event and flush errors go back as error frames.
// When an event fails the events before it stay applied, so the form is
// flushed and its state sent as usual.
func (s *session) tick(ctx context.Context, f *goform.Form, msg []byte) error {
	events, err := decodeEvents(msg)
	if err != nil {
		return s.writeError(ctx, err.Error())
	}
	var applyErr error
	for i, ev := range events {
		if err := replay.Apply(f, s.def, ev); err != nil {
			applyErr = fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
			break
		}
	}
	flushErr := f.Flush(ctx)

	subs := s.submitted
	s.submitted = nil
	for _, sub := range subs {
		if err := s.writeTrees(ctx, FrameSubmit, f.Version(), sub.Values, sub.Errors); err != nil {
			return err
		}
	}
	for _, e := range []error{applyErr, flushErr} {
		if e == nil {
			continue
		}
		s.logger.Warn("form event failed", "session", s.id, "error", e)
		if err := s.writeError(ctx, e.Error()); err != nil {
			return err
		}
	}
	return s.writeState(ctx, f)
}

func (s *session) writeState(ctx context.Context, f *goform.Form) error {
	v := f.State()
	return s.writeTrees(ctx, FrameState, f.Version(), v.Values, v.Errors)
}

func (s *session) writeTrees(ctx context.Context, typ string, version uint64, values, errs tree.Tree) error {
	if values == nil {
		values = tree.Tree{}
	}
	if errs == nil {
		errs = tree.Tree{}
	}
	return s.write(ctx, treeFrame{
		Type:    typ,
		Session: s.id,
		Version: version,
		Values:  values,
		Errors:  errs,
		Valid:   len(errs) == 0,
	})
}

func (s *session) writeError(ctx context.Context, msg string) error {
	return s.write(ctx, Frame{Type: FrameError, Session: s.id, Message: msg})
}

func (s *session) write(ctx context.Context, fr any) error {
	b, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("wsbridge: encode frame: %w", err)
	}
	return s.conn.Write(ctx, websocket.MessageText, b)
}

func decodeEvents(msg []byte) ([]replay.Event, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) > 0 && msg[0] == '{' {
		var ev replay.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		return []replay.Event{ev}, nil
	}
	var events []replay.Event
	if err := json.Unmarshal(msg, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}
