package formdef

import (
	"errors"
	"fmt"
	"regexp"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/field"
	"github.com/reoring/goform/i18n"
	"github.com/reoring/goform/rules"
	"github.com/reoring/goform/tree"
)

// Build creates a form from the definition and registers every field.
func (d *Definition) Build(opts ...goform.Option) (*goform.Form, error) {
	f := goform.New(tree.Clone(d.Initial), opts...)
	if err := d.Register(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Register adds the definition's fields to an existing form.
func (d *Definition) Register(f *goform.Form) error {
	values := func() tree.Tree { return f.State().Values }
	tr := d.Translator()
	for _, fd := range d.Fields {
		desc, err := fd.Descriptor(values, tr)
		if err != nil {
			return err
		}
		if err := f.RegisterField(fd.Name, desc); err != nil {
			return err
		}
	}
	return nil
}

// Translator returns the message translator for the definition's language,
// or nil to use the process-wide one of package i18n.
func (d *Definition) Translator() i18n.Translator {
	if d.Language == "" {
		return nil
	}
	return i18n.ForLanguage(d.Language)
}

// Descriptor compiles the field's rules. values feeds conditional rules; a
// nil tr uses the process-wide translator.
func (fd Field) Descriptor(values rules.Values, tr i18n.Translator) (field.Descriptor, error) {
	var fns []field.ValidateFunc
	for i, r := range fd.Rules {
		fn, err := compileRule(r, fd, values, tr)
		if err != nil {
			return field.Descriptor{}, fmt.Errorf("%w: field %q rule %d: %w", ErrInvalidDefinition, fd.Name, i, err)
		}
		fns = append(fns, fn)
	}
	// Data doubles as the emptiness check for optional fields.
	d := field.Descriptor{
		Disabled: fd.Disabled,
		Optional: fd.Optional,
		Data:     fd,
	}
	if len(fns) > 0 {
		d.Validate = rules.All(fns...)
	}
	return d, nil
}

// IsEmpty lets a Field used as descriptor data answer emptiness for
// composite values: a map is empty when all its leaves are.
func (fd Field) IsEmpty(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return rules.IsEmpty(v)
	}
	for _, leaf := range tree.Leaves(m) {
		x, _, _ := tree.Get(m, leaf)
		if !rules.IsEmpty(x) {
			return false
		}
	}
	return true
}

func compileRule(r Rule, fd Field, values rules.Values, tr i18n.Translator) (field.ValidateFunc, error) {
	label := fd.Label
	if label == "" {
		label = rules.LabelFor(fd.Name)
	}
	opts := []rules.Option{rules.Label(label)}
	if tr != nil {
		opts = append(opts, rules.Translator(tr))
	}
	if r.Message != "" {
		opts = append(opts, rules.Message(r.Message))
	}

	var fn field.ValidateFunc
	switch r.Type {
	case "required":
		fn = rules.Required(opts...)
	case "email":
		fn = rules.Email(opts...)
	case "accepted":
		fn = rules.Accepted(opts...)
	case "min_length", "max_length":
		n, ok := toInt(r.Value)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%s needs a non-negative integer value, got %v", r.Type, r.Value)
		}
		if r.Type == "min_length" {
			fn = rules.MinLength(n, opts...)
		} else {
			fn = rules.MaxLength(n, opts...)
		}
	case "pattern":
		expr, ok := r.Value.(string)
		if !ok {
			return nil, errors.New("pattern needs a string value")
		}
		if _, err := regexp.Compile(expr); err != nil {
			return nil, err
		}
		fn = rules.Pattern(expr, opts...)
	case "one_of":
		allowed, ok := r.Value.([]any)
		if !ok || len(allowed) == 0 {
			return nil, errors.New("one_of needs a non-empty list value")
		}
		fn = rules.OneOf(allowed, opts...)
	default:
		return nil, fmt.Errorf("unknown rule type %q", r.Type)
	}

	if r.When == nil {
		return fn, nil
	}
	if _, err := tree.ParsePath(r.When.Field); err != nil {
		return nil, fmt.Errorf("when: %w", err)
	}
	opName := r.When.Op
	if opName == "" {
		opName = "eq"
	}
	op, ok := rules.ParseOp(opName)
	if !ok {
		return nil, fmt.Errorf("when: unknown op %q", r.When.Op)
	}
	return rules.When(values, r.When.Field, op, r.When.Value).Then(fn), nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
