// Package field defines field descriptors and the per-form field registry.
package field

// ValidateFunc checks a field value. data is the descriptor's Data payload.
//
// The result is interpreted by the validation engine: a non-empty string is a
// single message, a non-empty []string (or []any of strings) is used as the
// message list, and nil, "", false or an empty list mean "no error". Any other
// result is rejected as ambiguous.
type ValidateFunc func(value, data any) any

// Emptier is implemented by Data payloads that know when a value counts as
// empty (for example a date picker whose value is {day:"",month:""}).
type Emptier interface {
	IsEmpty(value any) bool
}

// Descriptor describes how a registered field is validated.
type Descriptor struct {
	Disabled bool
	Optional bool
	Data     any

	// Validate may be nil; such a field always validates.
	Validate ValidateFunc
	// IsEmpty may be nil; Data implementing Emptier is used instead.
	IsEmpty func(value any) bool
}

// Empty reports whether value counts as empty for this field. The second
// result is false when the descriptor has no emptiness check at all.
func (d Descriptor) Empty(value any) (empty bool, known bool) {
	if d.IsEmpty != nil {
		return d.IsEmpty(value), true
	}
	if e, ok := d.Data.(Emptier); ok {
		return e.IsEmpty(value), true
	}
	return false, false
}

// Skipped reports whether validation must be skipped for value: the field is
// disabled, or it is optional and value is empty.
func (d Descriptor) Skipped(value any) bool {
	if d.Disabled {
		return true
	}
	if !d.Optional {
		return false
	}
	empty, known := d.Empty(value)
	return known && empty
}
