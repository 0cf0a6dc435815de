// Package rules provides ready-made field validators. Each constructor
// returns a field.ValidateFunc whose messages come from package i18n.
package rules

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/goform/field"
	"github.com/reoring/goform/i18n"
)

// Option customizes a built-in validator.
type Option func(*options)

type options struct {
	label   string
	message string
	tr      i18n.Translator
}

// Label sets the human-readable field label used in messages.
func Label(label string) Option { return func(o *options) { o.label = label } }

// Named derives the label from a field path: "billing.first_name" becomes
// "First Name".
func Named(path string) Option { return Label(LabelFor(path)) }

// Message replaces the translated message with a fixed one.
func Message(msg string) Option { return func(o *options) { o.message = msg } }

// Translator makes the validator use tr instead of the process-wide
// translator of package i18n.
func Translator(tr i18n.Translator) Option { return func(o *options) { o.tr = tr } }

// LabelFor turns the last segment of a dotted path into a title-cased label.
func LabelFor(path string) string {
	last := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		last = path[i+1:]
	}
	last = strings.NewReplacer("_", " ", "-", " ").Replace(last)
	// a Caser keeps state, so build one per call
	return cases.Title(language.English).String(last)
}

func build(opts []Option) options {
	o := options{label: "This field"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) msg(code string, data map[string]string) string {
	if o.message != "" {
		return o.message
	}
	if data == nil {
		data = map[string]string{}
	}
	data["label"] = o.label
	if o.tr != nil {
		return o.tr.Message(code, data)
	}
	return i18n.T(code, data)
}

// IsEmpty reports whether v is nil, a blank string, or an empty
// slice/map. It is the default emptiness check for optional fields.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// Required rejects empty values.
func Required(opts ...Option) field.ValidateFunc {
	o := build(opts)
	return func(v, _ any) any {
		if IsEmpty(v) {
			return o.msg(i18n.CodeRequired, nil)
		}
		return nil
	}
}

// MinLength rejects strings shorter than n runes. Non-strings pass.
func MinLength(n int, opts ...Option) field.ValidateFunc {
	o := build(opts)
	return func(v, _ any) any {
		s, ok := v.(string)
		if ok && utf8.RuneCountInString(s) < n {
			return o.msg(i18n.CodeTooShort, map[string]string{"min": strconv.Itoa(n)})
		}
		return nil
	}
}

// MaxLength rejects strings longer than n runes. Non-strings pass.
func MaxLength(n int, opts ...Option) field.ValidateFunc {
	o := build(opts)
	return func(v, _ any) any {
		s, ok := v.(string)
		if ok && utf8.RuneCountInString(s) > n {
			return o.msg(i18n.CodeTooLong, map[string]string{"max": strconv.Itoa(n)})
		}
		return nil
	}
}

// Pattern rejects strings not matching expr. It panics if expr does not
// compile, like regexp.MustCompile.
func Pattern(expr string, opts ...Option) field.ValidateFunc {
	re := regexp.MustCompile(expr)
	o := build(opts)
	return func(v, _ any) any {
		s, ok := v.(string)
		if ok && !re.MatchString(s) {
			return o.msg(i18n.CodePattern, map[string]string{"pattern": expr})
		}
		return nil
	}
}

// Email rejects strings that are not a bare address (no display name).
func Email(opts ...Option) field.ValidateFunc {
	o := build(opts)
	return func(v, _ any) any {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return o.msg(i18n.CodeInvalidEmail, nil)
		}
		return nil
	}
}

// OneOf rejects values not equal to one of allowed.
func OneOf(allowed []any, opts ...Option) field.ValidateFunc {
	o := build(opts)
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	list := strings.Join(names, ", ")
	return func(v, _ any) any {
		for _, a := range allowed {
			if reflect.DeepEqual(v, a) {
				return nil
			}
		}
		return o.msg(i18n.CodeInvalidEnum, map[string]string{"allowed": list})
	}
}

// Accepted requires a toggle to be true.
func Accepted(opts ...Option) field.ValidateFunc {
	o := build(opts)
	return func(v, _ any) any {
		if b, _ := v.(bool); b {
			return nil
		}
		return o.msg(i18n.CodeMustAccept, nil)
	}
}
