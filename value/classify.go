package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/errs"
)

// Class is the storage decision for a value.
type Class uint8

const (
	ClassScalar Class = iota + 1
	ClassSequence
	ClassMapping
	ClassArray
)

func (c Class) String() string {
	switch c {
	case ClassScalar:
		return "scalar"
	case ClassSequence:
		return "sequence"
	case ClassMapping:
		return "mapping"
	case ClassArray:
		return "array"
	default:
		return "unknown"
	}
}

// Classify buckets v using the precedence array, mapping, sequence, scalar.
func Classify(v Value) Class {
	switch v.(type) {
	case Array:
		return ClassArray
	case Mapping:
		return ClassMapping
	case Sequence:
		return ClassSequence
	default:
		return ClassScalar
	}
}

// Of converts a native Go value into a Value.
//
// Accepted inputs are nil, bool, every integer and float type, string, values
// that already implement Value, slices and arrays of accepted inputs,
// string-keyed maps of accepted inputs, and one-dimensional *array.Array
// (which becomes a Sequence, since it carries no dimension names). Anything
// else, including complex scalars, returns errs.ErrUnserializableValue.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case *array.Array:
		return arraySequence(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint: exhaustive
	case reflect.Slice, reflect.Array:
		seq := make(Sequence, rv.Len())
		for i := range seq {
			elem, err := Of(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			seq[i] = elem
		}

		return seq, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s is not string", errs.ErrUnserializableValue, rv.Type().Key())
		}
		m := make(Mapping, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := Of(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = elem
		}

		return m, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}

		return Of(rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("%w: %T", errs.ErrUnserializableValue, v)
	}
}

// MustOf is like Of but panics on error. It is intended for literals in tests.
func MustOf(v any) Value {
	val, err := Of(v)
	if err != nil {
		panic(err)
	}

	return val
}

// Native converts v back into plain Go values: nil, bool, int64, float64,
// string, []any, map[string]any and *array.Array for declared arrays.
func Native(v Value) any {
	switch x := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case Float:
		return float64(x)
	case Text:
		return string(x)
	case Sequence:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Native(e)
		}

		return out
	case Mapping:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Native(e)
		}

		return out
	case Array:
		return x.Data
	default:
		return nil
	}
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", errs.ErrUnserializableValue, u)
	}

	return Int(u), nil
}

func arraySequence(a *array.Array) (Value, error) {
	if a.Rank() != 1 {
		return nil, fmt.Errorf("%w: %s without dimension names must be one-dimensional", errs.ErrUnserializableValue, a)
	}

	return Of(a.Data())
}

// ElemType is the uniform element type inferred for a sequence.
type ElemType uint8

const (
	ElemEmpty ElemType = iota + 1
	ElemBool
	ElemInt
	ElemFloat
	ElemText
)

func (e ElemType) String() string {
	switch e {
	case ElemEmpty:
		return "empty"
	case ElemBool:
		return "bool"
	case ElemInt:
		return "int"
	case ElemFloat:
		return "float"
	case ElemText:
		return "text"
	default:
		return "unknown"
	}
}

// Infer inspects seq for a uniform element type and returns the sequence coerced
// to that type.
//
// The rules follow the usual numeric promotion: booleans alone stay boolean;
// booleans mixed with numbers become integers (false=0, true=1); integers mixed
// with floats become floats; any text element turns every element into text.
// Such coercion is lossy and the returned flag reports when it happened: a
// mixed sequence does not read back as the sequence that was written.
//
// Sequences holding nulls, nested sequences or mappings cannot be stored as a
// single typed column and return errs.ErrUnserializableValue.
func Infer(seq Sequence) (ElemType, Sequence, bool, error) {
	if len(seq) == 0 {
		return ElemEmpty, Sequence{}, false, nil
	}

	var bools, ints, floats, texts int
	for i, e := range seq {
		switch e.(type) {
		case Bool:
			bools++
		case Int:
			ints++
		case Float:
			floats++
		case Text:
			texts++
		default:
			return 0, nil, false, fmt.Errorf("%w: sequence element %d is %s", errs.ErrUnserializableValue, i, e.Kind())
		}
	}

	n := len(seq)
	switch {
	case bools == n:
		return ElemBool, seq, false, nil
	case ints == n:
		return ElemInt, seq, false, nil
	case floats == n:
		return ElemFloat, seq, false, nil
	case texts == n:
		return ElemText, seq, false, nil
	case texts > 0:
		return ElemText, coerce(seq, toText), true, nil
	case floats > 0:
		return ElemFloat, coerce(seq, toFloat), true, nil
	default:
		return ElemInt, coerce(seq, toInt), true, nil
	}
}

func coerce(seq Sequence, fn func(Value) Value) Sequence {
	out := make(Sequence, len(seq))
	for i, e := range seq {
		out[i] = fn(e)
	}

	return out
}

func toText(v Value) Value {
	switch x := v.(type) {
	case Bool:
		if x {
			return Text("True")
		}

		return Text("False")
	case Int:
		return Text(strconv.FormatInt(int64(x), 10))
	case Float:
		return Text(FormatFloat(float64(x)))
	default:
		return v
	}
}

func toFloat(v Value) Value {
	switch x := v.(type) {
	case Bool:
		if x {
			return Float(1)
		}

		return Float(0)
	case Int:
		return Float(x)
	default:
		return v
	}
}

func toInt(v Value) Value {
	if b, ok := v.(Bool); ok {
		if b {
			return Int(1)
		}

		return Int(0)
	}

	return v
}

// FormatFloat formats f so that it always reads back as a float: integral
// values keep a trailing ".0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		switch c {
		case '.', 'e', 'E', 'N', 'I':
			return s
		}
	}

	return s + ".0"
}
