// Package value defines the closed set of attribute values that can be persisted
// and the classifier that decides how each one is stored.
//
// Every attribute of a measurement is one of:
//
//   - Array: a typed n-dimensional array declared with a dimension-name tuple
//   - Mapping: string keys to values, nested to any depth
//   - Sequence: an ordered list of scalars, possibly empty
//   - Scalar: Null, Bool, Int, Float or Text
//
// The variant is closed: Value has an unexported marker method, so a type
// switch over the kinds below is exhaustive.
package value

import (
	"math"
	"slices"

	"github.com/arloliu/measio/array"
)

// Kind identifies the concrete variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota + 1
	KindBool
	KindInt
	KindFloat
	KindText
	KindSequence
	KindMapping
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a persistable attribute value.
type Value interface {
	Kind() Kind
	value()
}

type (
	// Null is the absent value.
	Null struct{}
	// Bool is a boolean scalar.
	Bool bool
	// Int is an integer scalar.
	Int int64
	// Float is a floating point scalar.
	Float float64
	// Text is a string scalar.
	Text string
	// Sequence is an ordered list of scalars.
	Sequence []Value
	// Mapping maps string keys to values.
	Mapping map[string]Value
)

// Array is a typed array declared with one dimension name per axis.
type Array struct {
	Data *array.Array
	Dims []string
}

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Float) Kind() Kind    { return KindFloat }
func (Text) Kind() Kind     { return KindText }
func (Sequence) Kind() Kind { return KindSequence }
func (Mapping) Kind() Kind  { return KindMapping }
func (Array) Kind() Kind    { return KindArray }

func (Null) value()     {}
func (Bool) value()     {}
func (Int) value()      {}
func (Float) value()    {}
func (Text) value()     {}
func (Sequence) value() {}
func (Mapping) value()  {}
func (Array) value()    {}

// NewArray pairs data with its dimension names.
func NewArray(data *array.Array, dims ...string) Array {
	return Array{Data: data, Dims: slices.Clone(dims)}
}

// Keys returns the mapping keys in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

// IsScalar reports whether v is a Null, Bool, Int, Float or Text.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Null, Bool, Int, Float, Text:
		return true
	default:
		return false
	}
}

// Equal reports whether a and b hold the same value. Comparison is deep for
// sequences and mappings, elementwise for arrays, and treats NaN as equal to
// NaN. Int and Float are distinct kinds and never compare equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && (x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y))))
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Sequence:
		y, ok := b.(Sequence)
		return ok && slices.EqualFunc(x, y, Equal)
	case Mapping:
		y, ok := b.(Mapping)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}

		return true
	case Array:
		y, ok := b.(Array)
		return ok && slices.Equal(x.Dims, y.Dims) && x.Data.Equal(y.Data)
	default:
		return false
	}
}
