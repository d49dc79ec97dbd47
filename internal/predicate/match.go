package predicate

import (
	"reflect"
	"strings"
)

// Match evaluates p against a flat document keyed by stored field names.
func (p Predicate) Match(doc map[string]any) bool {
	switch p.Op {
	case OpAll:
		return true
	case OpEquals:
		v, ok := doc[p.Field]
		if p.Value == nil {
			return !ok || v == nil
		}
		return ok && equalValues(v, p.Value)
	case OpIn:
		v, ok := doc[p.Field]
		for _, want := range p.Values {
			if want == nil && (!ok || v == nil) {
				return true
			}
			if ok && equalValues(v, want) {
				return true
			}
		}
		return false
	case OpExists:
		_, ok := doc[p.Field]
		want, _ := p.Value.(bool)
		return ok == want
	case OpContains:
		s, ok := doc[p.Field].(string)
		if !ok {
			return false
		}
		needle, _ := p.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case OpAnd:
		for _, c := range p.Children {
			if !c.Match(doc) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range p.Children {
			if c.Match(doc) {
				return true
			}
		}
		return false
	case OpNot:
		if len(p.Children) != 1 {
			return false
		}
		return !p.Children[0].Match(doc)
	default:
		return false
	}
}

// Equal compares stored values the way the document store does: numbers by
// value regardless of width, everything else by deep equality.
func Equal(a, b any) bool {
	return equalValues(a, b)
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.String && vb.Kind() == reflect.String {
		return va.String() == vb.String()
	}
	if va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool {
		return va.Bool() == vb.Bool()
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
