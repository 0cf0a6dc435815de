package engine

import (
	"errors"
	"fmt"

	"github.com/reoring/goform/field"
	"github.com/reoring/goform/tree"
)

// ErrAmbiguousResult is matched by every *ResultError.
var ErrAmbiguousResult = errors.New("engine: ambiguous validator result")

// ResultError reports a validator that returned something other than a
// message, a message list or a falsy value.
type ResultError struct {
	Name   string
	Result any
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("engine: validator for %q returned %T; want string, []string or nil", e.Name, e.Result)
}

func (e *ResultError) Is(target error) bool { return target == ErrAmbiguousResult }

// Descriptors resolves field names. *field.Registry implements it.
type Descriptors interface {
	Resolve(name string) (field.Descriptor, tree.Path, error)
}

// ComputeErrors folds names over prev, replacing or clearing the error entry
// of each name according to its descriptor. On failure prev is returned
// unchanged together with the error.
func ComputeErrors(prev, values tree.Tree, fields Descriptors, names []string) (tree.Tree, error) {
	errs := prev
	for _, name := range names {
		msgs, p, err := ValidateField(values, fields, name)
		if err != nil {
			return prev, err
		}
		if msgs == nil {
			errs = tree.DeletePath(errs, p)
		} else {
			errs = tree.SetPath(errs, p, msgs)
		}
	}
	return errs, nil
}

// ValidateField returns the messages for a single field, or nil when it has
// no error (including when validation is skipped).
func ValidateField(values tree.Tree, fields Descriptors, name string) ([]string, tree.Path, error) {
	d, p, err := fields.Resolve(name)
	if err != nil {
		return nil, nil, err
	}
	value, _ := tree.GetPath(values, p)
	if d.Skipped(value) || d.Validate == nil {
		return nil, p, nil
	}
	res := d.Validate(value, d.Data)
	msgs, ok := Messages(res)
	if !ok {
		return nil, nil, &ResultError{Name: name, Result: res}
	}
	return msgs, p, nil
}

// Messages normalizes a validator result. ok is false for results that are
// neither messages nor falsy.
func Messages(res any) (msgs []string, ok bool) {
	switch v := res.(type) {
	case nil:
		return nil, true
	case string:
		if v == "" {
			return nil, true
		}
		return []string{v}, true
	case []string:
		if len(v) == 0 {
			return nil, true
		}
		return append([]string(nil), v...), true
	case []any:
		if len(v) == 0 {
			return nil, true
		}
		out := make([]string, 0, len(v))
		for _, it := range v {
			s, isString := it.(string)
			if !isString {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case bool:
		if !v {
			return nil, true
		}
		return nil, false
	default:
		return nil, false
	}
}
