package goform

import (
	"fmt"

	"github.com/reoring/goform/internal/engine"
	"github.com/reoring/goform/tree"
)

// Status is the submit lifecycle state.
type Status int

const (
	StatusReady              Status = iota // No submit in flight.
	StatusValidateThenSubmit               // Submit requested; validation pending.
	StatusSubmit                           // Validated; OnSubmit is due.
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "READY"
	case StatusValidateThenSubmit:
		return "VALIDATE_THEN_SUBMIT"
	case StatusSubmit:
		return "SUBMIT"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Kind distinguishes controls with special change semantics.
type Kind int

const (
	KindInput  Kind = iota // Text-like input.
	KindToggle             // Checkbox-like control; every change revalidates.
)

// ParseKind maps "toggle"/"checkbox" to KindToggle and anything else to KindInput.
func ParseKind(s string) Kind {
	switch s {
	case "toggle", "checkbox":
		return KindToggle
	default:
		return KindInput
	}
}

func (k Kind) String() string {
	if k == KindToggle {
		return "toggle"
	}
	return "input"
}

// Control is the host's reference to one interactive control.
type Control struct {
	Name  string // value path written on change
	Owner string // logical field; empty means Name
	Kind  Kind
}

// OwnerName returns the logical field name the control belongs to.
func (c Control) OwnerName() string {
	if c.Owner == "" {
		return c.Name
	}
	return c.Owner
}

func (c Control) target() engine.Target {
	return engine.Target{Name: c.Name, Owner: c.Owner}
}

func (c Control) check() error {
	if _, err := tree.ParsePath(c.Name); err != nil {
		return fmt.Errorf("goform: control name: %w", err)
	}
	if c.Owner != "" {
		if _, err := tree.ParsePath(c.Owner); err != nil {
			return fmt.Errorf("goform: control owner: %w", err)
		}
	}
	return nil
}

// View is the read-only state exposed to the form's consumer.
type View struct {
	Values tree.Tree `json:"values"`
	Errors tree.Tree `json:"errors"`
}

// Messages returns the error messages stored at path.
func (v View) Messages(path string) []string {
	got, ok, err := tree.Get(v.Errors, path)
	if err != nil || !ok {
		return nil
	}
	msgs, _ := got.([]string)
	return msgs
}

// Value returns the value stored at path.
func (v View) Value(path string) (any, bool) {
	got, ok, err := tree.Get(v.Values, path)
	if err != nil {
		return nil, false
	}
	return got, ok
}

// Valid reports whether the error tree is empty.
func (v View) Valid() bool { return len(v.Errors) == 0 }

// Submission is the snapshot handed to OnSubmit.
type Submission struct {
	Errors tree.Tree `json:"errors"`
	Values tree.Tree `json:"values"`
}

// Valid reports whether the submission carries no errors.
func (s Submission) Valid() bool { return len(s.Errors) == 0 }

// Err returns the errors as Issues, or nil when the submission is valid.
func (s Submission) Err() error {
	if s.Valid() {
		return nil
	}
	return IssuesOf(s.Errors)
}
