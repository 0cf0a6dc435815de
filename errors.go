package goform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/goform/field"
	"github.com/reoring/goform/internal/engine"
	"github.com/reoring/goform/tree"
)

// Contract violations. Each one is matched with errors.Is against the typed
// error actually returned.
var (
	ErrInvalidPath     = tree.ErrInvalidPath
	ErrUnknownField    = field.ErrUnknownField
	ErrAmbiguousResult = engine.ErrAmbiguousResult
)

// ErrSubmitCallback wraps an error returned by OnSubmit.
var ErrSubmitCallback = errors.New("goform: submit callback failed")

// Issue is one validation message at a field path.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Issues is a flat view of an error tree that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s: %s", iss[i].Path, iss[i].Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Paths returns the distinct paths, in order.
func (iss Issues) Paths() []string {
	var out []string
	for i, it := range iss {
		if i == 0 || iss[i-1].Path != it.Path {
			out = append(out, it.Path)
		}
	}
	return out
}

// IssuesOf flattens an error tree. Issues are sorted by path; messages keep
// their order within a path.
func IssuesOf(errs tree.Tree) Issues {
	var iss Issues
	for _, p := range tree.Leaves(errs) {
		v, _, _ := tree.Get(errs, p)
		msgs, _ := v.([]string)
		for _, m := range msgs {
			iss = append(iss, Issue{Path: p, Message: m})
		}
	}
	sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
	return iss
}

// AsIssues extracts Issues from an error using errors.As.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
