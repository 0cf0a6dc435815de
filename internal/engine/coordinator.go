package engine

import "context"

// Target identifies an interactive control by its own name and the logical
// field that owns it. An empty Owner means the control is its own field.
type Target struct {
	Name  string
	Owner string
}

// OwnerName returns the logical field name of the control.
func (t Target) OwnerName() string {
	if t.Owner == "" {
		return t.Name
	}
	return t.Owner
}

// Host is the form side of the coordinator.
type Host interface {
	// HasErrors reports whether the logical field currently has messages.
	HasErrors(owner string) bool
	SetValidateOnChange(on bool)
	// RequestValidation replaces the pending validation set.
	RequestValidation(names []string)
	// BlurAbsorbed is told when a blur turned out to be an intra-field move.
	BlurAbsorbed(owner, reason string)
}

// Reasons passed to Host.BlurAbsorbed.
const (
	AbsorbedRefocused = "refocused"
	AbsorbedPressed   = "pointer_pressed"
)

// Coordinator tells a control-to-sibling transition inside one logical field
// apart from focus actually leaving that field. The final decision for a blur
// is deferred to the queue so that a focus notification dispatched right after
// the blur is seen first.
type Coordinator struct {
	host  Host
	queue *Queue

	lastFocused string
	focused     bool
	pressed     *Target
}

// NewCoordinator returns a coordinator scheduling its checks on q.
func NewCoordinator(host Host, q *Queue) *Coordinator {
	return &Coordinator{host: host, queue: q}
}

// Focus records the owning field as focused and re-arms validate-on-change.
func (c *Coordinator) Focus(t Target) {
	owner := t.OwnerName()
	c.lastFocused = owner
	c.focused = true
	c.host.SetValidateOnChange(c.host.HasErrors(owner))
}

// PointerDown records the control associated with a pressed label.
func (c *Coordinator) PointerDown(t Target) {
	c.pressed = &t
}

// Blur clears the focus record and schedules the group-exit check.
func (c *Coordinator) Blur(t Target) {
	owner := t.OwnerName()
	c.lastFocused = ""
	c.focused = false
	if c.pressed != nil && *c.pressed == t {
		c.pressed = nil
	}
	c.queue.Schedule("blur-check:"+owner, func(context.Context) error {
		c.check(owner)
		return nil
	})
}

func (c *Coordinator) check(owner string) {
	if c.focused && c.lastFocused == owner {
		c.host.BlurAbsorbed(owner, AbsorbedRefocused)
		return
	}
	if c.pressed != nil && c.pressed.OwnerName() == owner {
		c.host.BlurAbsorbed(owner, AbsorbedPressed)
		return
	}
	c.host.RequestValidation([]string{owner})
}

// LastFocused returns the owner recorded by the latest Focus, if focus has
// not been lost since.
func (c *Coordinator) LastFocused() (string, bool) {
	return c.lastFocused, c.focused
}

// Pressed returns the control recorded by the latest PointerDown.
func (c *Coordinator) Pressed() (Target, bool) {
	if c.pressed == nil {
		return Target{}, false
	}
	return *c.pressed, true
}
