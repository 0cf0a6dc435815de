// Package tree implements persistent nested mappings addressed by dotted
// paths. It backs both the value tree and the error tree of a form.
//
// Trees are treated as immutable: Set and Delete copy the maps along the
// addressed path and share every other branch with the input, so a previous
// tree stays valid for comparison.
package tree

import (
	"reflect"
	"sort"
)

// Tree is a nested mapping. Nested objects are map[string]any.
type Tree = map[string]any

// Get returns the value at path.
func Get(t Tree, path string) (any, bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := GetPath(t, p)
	return v, ok, nil
}

// Set returns a new tree with v stored at path.
func Set(t Tree, path string, v any) (Tree, error) {
	p, err := ParsePath(path)
	if err != nil {
		return t, err
	}
	return SetPath(t, p, v), nil
}

// Delete returns a new tree without path. Deleting a missing path returns t.
func Delete(t Tree, path string) (Tree, error) {
	p, err := ParsePath(path)
	if err != nil {
		return t, err
	}
	return DeletePath(t, p), nil
}

// GetPath is Get for an already parsed path.
func GetPath(t Tree, p Path) (any, bool) {
	if len(p) == 0 {
		return t, t != nil
	}
	var cur any = t
	for _, seg := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath is Set for an already parsed path. A non-map value found on the way
// is replaced by a fresh map.
func SetPath(t Tree, p Path, v any) Tree {
	if len(p) == 0 {
		if m, ok := v.(map[string]any); ok {
			return m
		}
		return t
	}
	return setIn(t, p, v)
}

func setIn(m map[string]any, p Path, v any) map[string]any {
	out := shallowCopy(m, 1)
	if len(p) == 1 {
		out[p[0]] = v
		return out
	}
	child, _ := m[p[0]].(map[string]any)
	out[p[0]] = setIn(child, p[1:], v)
	return out
}

// DeletePath is Delete for an already parsed path. Parent maps emptied by the
// removal are removed as well.
func DeletePath(t Tree, p Path) Tree {
	if len(p) == 0 {
		return t
	}
	out, _ := deleteIn(t, p)
	return out
}

func deleteIn(m map[string]any, p Path) (map[string]any, bool) {
	cur, ok := m[p[0]]
	if !ok {
		return m, false
	}
	if len(p) == 1 {
		out := shallowCopy(m, 0)
		delete(out, p[0])
		return out, true
	}
	child, ok := cur.(map[string]any)
	if !ok {
		return m, false
	}
	nc, changed := deleteIn(child, p[1:])
	if !changed {
		return m, false
	}
	out := shallowCopy(m, 0)
	if len(nc) == 0 {
		delete(out, p[0])
	} else {
		out[p[0]] = nc
	}
	return out, true
}

func shallowCopy(m map[string]any, extra int) map[string]any {
	out := make(map[string]any, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone deep-copies every nested map and []string leaf. Other leaves are
// copied by value.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	return cloneMap(t)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case map[string]any:
			out[k] = cloneMap(x)
		case []string:
			out[k] = append([]string(nil), x...)
		default:
			out[k] = v
		}
	}
	return out
}

// Equal reports whether a and b hold the same content. A nil tree equals an
// empty one.
func Equal(a, b Tree) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Leaves returns the dotted paths of all non-map values, sorted.
func Leaves(t Tree) []string {
	var out []string
	var walk func(m map[string]any, prefix string)
	walk = func(m map[string]any, prefix string) {
		for k, v := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(child, p)
				continue
			}
			out = append(out, p)
		}
	}
	walk(t, "")
	sort.Strings(out)
	return out
}
