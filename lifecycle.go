package goform

import (
	"context"
	"fmt"

	"github.com/reoring/goform/internal/engine"
	"github.com/reoring/goform/observability"
	"github.com/reoring/goform/tree"
)

// state is one immutable snapshot. Transitions copy it; trees inside are
// persistent, so an older snapshot keeps describing the form as it was.
type state struct {
	version          uint64
	values           tree.Tree
	errors           tree.Tree
	validateOnChange bool
	pending          []string // nil: nothing pending
	status           Status
}

func (f *Form) transition(fn func(s state) state) {
	next := fn(f.st)
	next.version = f.st.version + 1
	f.st = next
}

func (f *Form) setStatus(ctx context.Context, to Status) {
	from := f.st.status
	if from == to {
		return
	}
	f.transition(func(s state) state {
		s.status = to
		return s
	})
	f.emit(ctx, observability.EventStatus, observability.LevelInfo, map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
}

// SubmitForm requests validation of every registered field followed by
// OnSubmit. Calling it again before Flush restarts the cycle.
func (f *Form) SubmitForm() {
	names := f.fields.Names()
	if names == nil {
		names = []string{}
	}
	f.requestValidation(names)
	if f.st.status == StatusValidateThenSubmit {
		// restart: every field is pending again
		return
	}
	f.setStatus(context.Background(), StatusValidateThenSubmit)
}

// requestValidation replaces the pending set and makes sure one reconcile
// step is queued. A request made before that step runs supersedes this one,
// except during VALIDATE_THEN_SUBMIT: then requests are merged into the
// pending set so a blur check cannot narrow a submit's validation.
func (f *Form) requestValidation(names []string) {
	f.transition(func(s state) state {
		if s.status == StatusValidateThenSubmit && s.pending != nil {
			s.pending = union(s.pending, names)
		} else {
			s.pending = names
		}
		return s
	})
	if f.reconcileQueued {
		return
	}
	f.reconcileQueued = true
	f.queue.Schedule("reconcile", f.reconcile)
}

func (f *Form) reconcile(ctx context.Context) error {
	f.reconcileQueued = false
	names := f.st.pending
	if names == nil {
		return nil
	}

	errs, err := engine.ComputeErrors(f.st.errors, f.st.values, f.fields, names)
	if err != nil {
		f.transition(func(s state) state {
			s.pending = nil
			return s
		})
		if f.st.status != StatusReady {
			f.setStatus(ctx, StatusReady)
		}
		return err
	}

	f.transition(func(s state) state {
		s.errors = errs
		s.pending = nil
		return s
	})
	f.emit(ctx, observability.EventValidate, observability.LevelVerbose, map[string]any{
		"fields": names,
		"issues": len(IssuesOf(errs)),
	})
	if f.st.status == StatusValidateThenSubmit {
		f.setStatus(ctx, StatusSubmit)
	}
	if f.st.status == StatusSubmit {
		return f.submit(ctx)
	}
	return nil
}

func (f *Form) submit(ctx context.Context) error {
	sub := Submission{Errors: tree.Clone(f.st.errors), Values: tree.Clone(f.st.values)}
	var err error
	if f.onSubmit != nil {
		err = f.onSubmit(ctx, sub)
	}
	data := map[string]any{"valid": sub.Valid()}
	if err != nil {
		data["error"] = err.Error()
	}
	f.emit(ctx, observability.EventSubmit, observability.LevelInfo, data)
	// OnSubmit may have called SubmitForm to start a new cycle.
	if f.st.status == StatusSubmit {
		f.setStatus(ctx, StatusReady)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmitCallback, err)
	}
	return nil
}

// union returns a followed by the names of b not in a.
func union(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]bool, len(a))
	for _, n := range a {
		seen[n] = true
	}
	for _, n := range b {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
