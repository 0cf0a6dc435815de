package field

import (
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/reoring/goform/tree"
)

// ErrUnknownField is matched (via errors.Is) by every *UnknownFieldError.
var ErrUnknownField = errors.New("field: unknown field")

// UnknownFieldError is returned when a name without a live descriptor is
// validated. It signals a wiring bug between the host UI and the form.
type UnknownFieldError struct {
	Name       string
	Suggestion string // closest registered name, if any is close enough
}

func (e *UnknownFieldError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("field: unknown field %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("field: unknown field %q", e.Name)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

type entry struct {
	path tree.Path
	desc Descriptor
}

// Registry maps field names to descriptors. Names are kept in first
// registration order so that "validate everything" is deterministic.
type Registry struct {
	entries map[string]entry
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register stores d under name, replacing any earlier descriptor.
func (r *Registry) Register(name string, d Descriptor) error {
	p, err := tree.ParsePath(name)
	if err != nil {
		return fmt.Errorf("field: register %q: %w", name, err)
	}
	if _, ok := r.entries[name]; !ok {
		r.order = append(r.order, name)
	}
	r.entries[name] = entry{path: p, desc: d}
	return nil
}

// Unregister removes name. It reports whether a descriptor was present.
func (r *Registry) Unregister(name string) bool {
	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the descriptor and parsed path registered for name.
func (r *Registry) Lookup(name string) (Descriptor, tree.Path, bool) {
	e, ok := r.entries[name]
	return e.desc, e.path, ok
}

// Resolve is Lookup returning *UnknownFieldError on a miss.
func (r *Registry) Resolve(name string) (Descriptor, tree.Path, error) {
	d, p, ok := r.Lookup(name)
	if !ok {
		return Descriptor{}, nil, &UnknownFieldError{Name: name, Suggestion: r.suggest(name)}
	}
	return d, p, nil
}

// Names returns the registered names in first registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered fields.
func (r *Registry) Len() int { return len(r.order) }

const _maxSuggestDistance = 3

func (r *Registry) suggest(name string) string {
	best, bestDist := "", _maxSuggestDistance+1
	for _, n := range r.order {
		if d := levenshtein.ComputeDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
