package rules

import (
	"reflect"

	"github.com/reoring/goform/field"
	"github.com/reoring/goform/internal/engine"
	"github.com/reoring/goform/tree"
)

// All runs every rule and concatenates their messages. A rule returning an
// unsupported result makes All return that result unchanged, so the form
// still reports it as ambiguous.
func All(rules ...field.ValidateFunc) field.ValidateFunc {
	return func(v, data any) any {
		var out []string
		for _, r := range rules {
			if r == nil {
				continue
			}
			res := r(v, data)
			msgs, ok := engine.Messages(res)
			if !ok {
				return res
			}
			out = append(out, msgs...)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
}

// First runs rules in order and returns the messages of the first failing one.
func First(rules ...field.ValidateFunc) field.ValidateFunc {
	return func(v, data any) any {
		for _, r := range rules {
			if r == nil {
				continue
			}
			res := r(v, data)
			if msgs, ok := engine.Messages(res); !ok || len(msgs) > 0 {
				return res
			}
		}
		return nil
	}
}

// Any passes when one rule passes. When all fail it returns the messages of
// the rule with the fewest.
func Any(rules ...field.ValidateFunc) field.ValidateFunc {
	return func(v, data any) any {
		var best []string
		bestSet := false
		for _, r := range rules {
			if r == nil {
				continue
			}
			res := r(v, data)
			msgs, ok := engine.Messages(res)
			if !ok {
				return res
			}
			if len(msgs) == 0 {
				return nil
			}
			if !bestSet || len(msgs) < len(best) {
				best, bestSet = msgs, true
			}
		}
		if !bestSet {
			return nil
		}
		return best
	}
}

// Op defines comparison operators for When(...).Then(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// ParseOp maps "eq", "ne", "lt", "le", "gt", "ge" (or ==, !=, <, <=, >, >=)
// to an Op.
func ParseOp(s string) (Op, bool) {
	switch s {
	case "eq", "==":
		return Eq, true
	case "ne", "!=":
		return Ne, true
	case "lt", "<":
		return Lt, true
	case "le", "<=":
		return Le, true
	case "gt", ">":
		return Gt, true
	case "ge", ">=":
		return Ge, true
	default:
		return Eq, false
	}
}

// Values returns the current value tree, typically Form.State().Values.
type Values func() tree.Tree

// Conditional gates rules on the value of another field.
type Conditional struct {
	values Values
	path   string
	op     Op
	want   any
	all    []Conditional
	any    []Conditional
}

// When builds a condition comparing the value at path with want.
func When(values Values, path string, op Op, want any) Conditional {
	return Conditional{values: values, path: path, op: op, want: want}
}

// WhenAll holds when every condition holds.
func WhenAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// WhenAny holds when at least one condition holds.
func WhenAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// Then runs rules (as All) only while the condition holds.
func (c Conditional) Then(rules ...field.ValidateFunc) field.ValidateFunc {
	inner := All(rules...)
	return func(v, data any) any {
		if !c.holds() {
			return nil
		}
		return inner(v, data)
	}
}

func (c Conditional) holds() bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.holds() {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.holds() {
				return true
			}
		}
		return false
	}
	if c.values == nil {
		return false
	}
	cur, ok, err := tree.Get(c.values(), c.path)
	if err != nil || !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	default:
		return false
	}
}

func compareOrdered(cur any, op Op, want any) bool {
	a, okA := toFloat64(reflect.ValueOf(cur))
	b, okB := toFloat64(reflect.ValueOf(want))
	if !okA || !okB {
		return false
	}
	switch op {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

func toFloat64(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
