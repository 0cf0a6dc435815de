// Package formdef loads declarative form definitions from YAML or JSON and
// turns them into registered goform fields.
//
// A definition looks like:
//
//	name: signup
//	initial:
//	  email: ""
//	  terms: false
//	fields:
//	  - name: email
//	    rules:
//	      - type: required
//	      - type: email
//	  - name: date
//	    controls: [date.day, date.month]
//	    optional: true
//	  - name: terms
//	    kind: toggle
//	    rules:
//	      - type: accepted
package formdef

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/tree"
)

// Format selects the decoder used by Parse.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatOf picks the format from a file extension; anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ErrInvalidDefinition is wrapped by every definition validation error.
var ErrInvalidDefinition = errors.New("formdef: invalid definition")

// Definition describes a whole form.
type Definition struct {
	Name     string         `yaml:"name" json:"name"`
	Language string         `yaml:"language,omitempty" json:"language,omitempty"`
	Initial  map[string]any `yaml:"initial" json:"initial"`
	Fields   []Field        `yaml:"fields" json:"fields"`
}

// Field describes one logical field.
type Field struct {
	Name     string   `yaml:"name" json:"name"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Kind     string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Optional bool     `yaml:"optional,omitempty" json:"optional,omitempty"`
	Disabled bool     `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Controls []string `yaml:"controls,omitempty" json:"controls,omitempty"`
	Rules    []Rule   `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Rule configures one built-in validator.
type Rule struct {
	Type    string     `yaml:"type" json:"type"`
	Value   any        `yaml:"value,omitempty" json:"value,omitempty"`
	Message string     `yaml:"message,omitempty" json:"message,omitempty"`
	When    *Condition `yaml:"when,omitempty" json:"when,omitempty"`
}

// Condition gates a rule on another field's value.
type Condition struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op,omitempty" json:"op,omitempty"`
	Value any    `yaml:"value" json:"value"`
}

// Parse decodes and checks a definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("formdef: decode json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("formdef: decode yaml: %w", err)
		}
	}
	def.Initial = normalizeMap(def.Initial)
	for i := range def.Fields {
		for j := range def.Fields[i].Rules {
			r := &def.Fields[i].Rules[j]
			r.Value = normalize(r.Value)
			if r.When != nil {
				r.When.Value = normalize(r.When.Value)
			}
		}
	}
	if err := def.Check(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	return Parse(data, FormatOf(path))
}

// Check validates names, rule types and rule parameters.
func (d *Definition) Check() error {
	seen := map[string]bool{}
	controls := map[string]string{}
	for _, f := range d.Fields {
		if _, err := tree.ParsePath(f.Name); err != nil {
			return fmt.Errorf("%w: field name: %w", ErrInvalidDefinition, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidDefinition, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case "", "input", "text", "toggle", "checkbox":
		default:
			return fmt.Errorf("%w: field %q: unknown kind %q", ErrInvalidDefinition, f.Name, f.Kind)
		}
		for _, c := range f.Controls {
			if _, err := tree.ParsePath(c); err != nil {
				return fmt.Errorf("%w: field %q control: %w", ErrInvalidDefinition, f.Name, err)
			}
			if owner, dup := controls[c]; dup {
				return fmt.Errorf("%w: control %q belongs to both %q and %q", ErrInvalidDefinition, c, owner, f.Name)
			}
			controls[c] = f.Name
		}
		for i, r := range f.Rules {
			if _, err := compileRule(r, f, nil, nil); err != nil {
				return fmt.Errorf("%w: field %q rule %d: %w", ErrInvalidDefinition, f.Name, i, err)
			}
		}
	}
	return nil
}

// Control resolves a control name to the goform.Control the host should
// report: sub-controls listed under a field get that field as owner, and
// the field's kind applies to all its controls.
func (d *Definition) Control(name string) goform.Control {
	for _, f := range d.Fields {
		if f.Name == name {
			return goform.Control{Name: name, Kind: goform.ParseKind(f.Kind)}
		}
		for _, c := range f.Controls {
			if c == name {
				return goform.Control{Name: name, Owner: f.Name, Kind: goform.ParseKind(f.Kind)}
			}
		}
	}
	return goform.Control{Name: name}
}

// normalize converts map[any]any produced by some YAML shapes into
// map[string]any so the value tree only holds string-keyed maps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
