// Package predicate defines the store-neutral filter tree built from facets.
// Store adapters lower it into their own query language; Match is the
// reference evaluation used by the in-memory store and by tests.
package predicate

import (
	"fmt"
	"strings"
)

// Op tags the variant held by a Predicate.
type Op int

const (
	OpAll Op = iota
	OpEquals
	OpIn
	OpExists
	OpContains
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAll:
		return "all"
	case OpEquals:
		return "eq"
	case OpIn:
		return "in"
	case OpExists:
		return "exists"
	case OpContains:
		return "contains"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Predicate is a node of the filter tree.
//
// Equals with a nil Value matches documents where the field is null or
// absent, which is how document stores treat a null comparison.
type Predicate struct {
	Op       Op
	Field    string
	Value    any
	Values   []any
	Children []Predicate
}

// All matches every document.
func All() Predicate {
	return Predicate{Op: OpAll}
}

// Equals matches documents whose field equals value.
func Equals(field string, value any) Predicate {
	return Predicate{Op: OpEquals, Field: field, Value: value}
}

// In matches documents whose field equals any of values.
func In(field string, values ...any) Predicate {
	return Predicate{Op: OpIn, Field: field, Values: values}
}

// Exists matches documents that carry the field, whatever its value.
func Exists(field string) Predicate {
	return Predicate{Op: OpExists, Field: field, Value: true}
}

// Missing matches documents that do not carry the field.
func Missing(field string) Predicate {
	return Predicate{Op: OpExists, Field: field, Value: false}
}

// Contains is a case-insensitive substring match on a string field.
func Contains(field, needle string) Predicate {
	return Predicate{Op: OpContains, Field: field, Value: needle}
}

// And combines children; zero children match everything and a single child is returned as is.
func And(children ...Predicate) Predicate {
	children = dropAll(children)
	switch len(children) {
	case 0:
		return All()
	case 1:
		return children[0]
	default:
		return Predicate{Op: OpAnd, Children: children}
	}
}

// Or matches when any child matches. A single child is returned as is;
// an empty group matches nothing.
func Or(children ...Predicate) Predicate {
	if len(children) == 1 {
		return children[0]
	}
	return Predicate{Op: OpOr, Children: children}
}

// Not negates child.
func Not(child Predicate) Predicate {
	return Predicate{Op: OpNot, Children: []Predicate{child}}
}

// Blank matches documents where field is absent, null or the empty string.
func Blank(field string) Predicate {
	return Or(Missing(field), Equals(field, nil), Equals(field, ""))
}

// Present is the complement of Blank.
func Present(field string) Predicate {
	return Not(Blank(field))
}

// IsAll reports whether p matches every document.
func (p Predicate) IsAll() bool {
	return p.Op == OpAll
}

func (p Predicate) String() string {
	switch p.Op {
	case OpAll:
		return "all"
	case OpEquals, OpContains:
		return fmt.Sprintf("%s(%s, %v)", p.Op, p.Field, p.Value)
	case OpExists:
		return fmt.Sprintf("exists(%s, %v)", p.Field, p.Value)
	case OpIn:
		return fmt.Sprintf("in(%s, %v)", p.Field, p.Values)
	default:
		parts := make([]string, 0, len(p.Children))
		for _, c := range p.Children {
			parts = append(parts, c.String())
		}
		return fmt.Sprintf("%s(%s)", p.Op, strings.Join(parts, ", "))
	}
}

func dropAll(children []Predicate) []Predicate {
	out := children[:0:0]
	for _, c := range children {
		if c.IsAll() {
			continue
		}
		out = append(out, c)
	}
	return out
}
