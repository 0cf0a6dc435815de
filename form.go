package goform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/goform/field"
	"github.com/reoring/goform/internal/engine"
	"github.com/reoring/goform/observability"
	"github.com/reoring/goform/tree"
)

// SubmitFunc receives the validated snapshot. It is called even when the
// snapshot has errors; deciding what to do with an invalid form is up to it.
type SubmitFunc func(ctx context.Context, s Submission) error

// Option configures a Form.
type Option func(*Form)

// WithOnSubmit sets the submit callback.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(f *Form) { f.onSubmit = fn }
}

// WithObserver adds an event observer.
func WithObserver(obs observability.Observer) Option {
	return func(f *Form) {
		if obs != nil {
			f.observers = append(f.observers, obs)
		}
	}
}

// WithLogger logs every form event through logger.
func WithLogger(logger *slog.Logger) Option {
	return WithObserver(observability.NewSlogObserver(logger))
}

// WithDebug writes the indented JSON read view to w after every Flush.
func WithDebug(w io.Writer) Option {
	return func(f *Form) { f.debug = w }
}

// WithID overrides the generated form ID.
func WithID(id string) Option {
	return func(f *Form) { f.id = id }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// Form is one form instance. It is not safe for concurrent use: the host
// dispatches notifications from a single goroutine and calls Flush after
// each interaction, the way a UI event loop runs deferred work on the next
// tick.
type Form struct {
	id       string
	fields   *field.Registry
	queue    engine.Queue
	coord    *engine.Coordinator
	st       state
	onSubmit SubmitFunc

	observers []observability.Observer
	observer  observability.Observer
	debug     io.Writer
	now       func() time.Time

	reconcileQueued bool
}

// New creates a form whose value tree starts as a copy of initial.
func New(initial tree.Tree, opts ...Option) *Form {
	initial = tree.Clone(initial)
	if initial == nil {
		initial = tree.Tree{}
	}
	f := &Form{
		id:     uuid.NewString(),
		fields: field.NewRegistry(),
		st:     state{values: initial, errors: tree.Tree{}, status: StatusReady},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	switch len(f.observers) {
	case 0:
		f.observer = observability.NoOpObserver{}
	case 1:
		f.observer = f.observers[0]
	default:
		f.observer = observability.NewMultiObserver(f.observers...)
	}
	f.coord = engine.NewCoordinator(coordHost{f}, &f.queue)
	return f
}

// ID returns the form instance ID used as event source.
func (f *Form) ID() string { return f.id }

// State returns the consumer read view. The trees are copies; changing them
// does not affect the form.
func (f *Form) State() View {
	return View{Values: tree.Clone(f.st.values), Errors: tree.Clone(f.st.errors)}
}

// Version increases with every state transition.
func (f *Form) Version() uint64 { return f.st.version }

// Fields returns the registered field names in registration order.
func (f *Form) Fields() []string { return f.fields.Names() }

// Pending reports whether deferred steps are waiting for Flush.
func (f *Form) Pending() bool { return f.queue.Len() > 0 }

// RegisterField stores the descriptor for name, replacing an earlier one.
func (f *Form) RegisterField(name string, d field.Descriptor) error {
	if err := f.fields.Register(name, d); err != nil {
		return err
	}
	f.emit(context.Background(), observability.EventFieldAdded, observability.LevelVerbose, map[string]any{"field": name})
	return nil
}

// UnregisterField removes the descriptor for name. Removing a name that is
// not registered is a no-op.
func (f *Form) UnregisterField(name string) error {
	if _, err := tree.ParsePath(name); err != nil {
		return fmt.Errorf("field: unregister %q: %w", name, err)
	}
	if f.fields.Unregister(name) {
		f.emit(context.Background(), observability.EventFieldRemoved, observability.LevelVerbose, map[string]any{"field": name})
	}
	return nil
}

// Focus notifies that control gained focus.
func (f *Form) Focus(c Control) error {
	if err := c.check(); err != nil {
		return err
	}
	f.coord.Focus(c.target())
	f.emit(context.Background(), observability.EventFocus, observability.LevelVerbose, map[string]any{
		"control":            c.Name,
		"field":              c.OwnerName(),
		"validate_on_change": f.st.validateOnChange,
	})
	return nil
}

// Blur notifies that control lost focus. Whether the logical field was left
// is decided on the next Flush.
func (f *Form) Blur(c Control) error {
	if err := c.check(); err != nil {
		return err
	}
	f.coord.Blur(c.target())
	return nil
}

// PointerDown notifies that label, associated with target, was pressed.
func (f *Form) PointerDown(label string, target Control) error {
	if err := target.check(); err != nil {
		return err
	}
	f.coord.PointerDown(target.target())
	f.emit(context.Background(), observability.EventFocus, observability.LevelVerbose, map[string]any{
		"label":   label,
		"control": target.Name,
		"pressed": true,
	})
	return nil
}

// Change writes value at the control's path. Toggle controls, and any
// control of a field that had errors when it was focused, request
// validation of their logical field.
func (f *Form) Change(c Control, value any) error {
	if err := c.check(); err != nil {
		return err
	}
	p := tree.MustParsePath(c.Name)
	f.transition(func(s state) state {
		s.values = tree.SetPath(s.values, p, value)
		return s
	})
	revalidate := f.st.validateOnChange || c.Kind == KindToggle
	f.emit(context.Background(), observability.EventChange, observability.LevelVerbose, map[string]any{
		"control":    c.Name,
		"field":      c.OwnerName(),
		"revalidate": revalidate,
	})
	if revalidate {
		f.requestValidation([]string{c.OwnerName()})
	}
	return nil
}

// Validate requests validation of the given fields on the next Flush,
// replacing any request not yet processed.
func (f *Form) Validate(names ...string) {
	if names == nil {
		names = []string{}
	}
	f.requestValidation(append([]string(nil), names...))
}

// Flush runs the deferred steps queued by earlier notifications: blur
// checks, validation and submission. Contract violations and OnSubmit
// failures are returned; steps after a failing one remain queued.
func (f *Form) Flush(ctx context.Context) error {
	err := f.queue.Drain(ctx)
	if err != nil {
		f.emit(ctx, observability.EventFailure, observability.LevelError, map[string]any{"error": err.Error()})
	}
	if f.debug != nil {
		if derr := f.writeDebug(); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func (f *Form) emit(ctx context.Context, t observability.EventType, lvl observability.Level, data map[string]any) {
	f.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     lvl,
		Timestamp: f.now(),
		Source:    f.id,
		Data:      data,
	})
}

// coordHost keeps the coordinator callbacks off the public Form API.
type coordHost struct{ f *Form }

func (h coordHost) HasErrors(owner string) bool {
	return len(h.f.State().Messages(owner)) > 0
}

func (h coordHost) SetValidateOnChange(on bool) {
	h.f.transition(func(s state) state {
		s.validateOnChange = on
		return s
	})
}

func (h coordHost) RequestValidation(names []string) {
	h.f.emit(context.Background(), observability.EventBlurLeft, observability.LevelVerbose, map[string]any{"field": names[0]})
	h.f.requestValidation(names)
}

func (h coordHost) BlurAbsorbed(owner, reason string) {
	h.f.emit(context.Background(), observability.EventBlurAbsorbed, observability.LevelVerbose, map[string]any{
		"field":  owner,
		"reason": reason,
	})
}
