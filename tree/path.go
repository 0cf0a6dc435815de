package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is matched (via errors.Is) by every *InvalidPathError.
var ErrInvalidPath = errors.New("tree: invalid path")

// InvalidPathError reports a malformed dotted path.
type InvalidPathError struct {
	Path    string
	Segment int // index of the offending segment (-1 when the whole path is empty)
}

func (e *InvalidPathError) Error() string {
	if e.Segment < 0 {
		return "tree: invalid path: empty"
	}
	return fmt.Sprintf("tree: invalid path %q: segment %d is empty", e.Path, e.Segment)
}

// Is makes errors.Is(err, ErrInvalidPath) succeed.
func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

// Path is a parsed dotted path. Segments are never empty.
type Path []string

// ParsePath splits s on '.' and rejects empty segments.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, &InvalidPathError{Path: s, Segment: -1}
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		if p == "" {
			return nil, &InvalidPathError{Path: s, Segment: i}
		}
	}
	return Path(parts), nil
}

// MustParsePath is ParsePath for literals; it panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String joins the segments back into dotted form.
func (p Path) String() string { return strings.Join(p, ".") }

// Parent returns the path without its last segment (nil for single-segment paths).
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// HasPrefix reports whether q is a (non-strict) prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}
