package backend

import "github.com/arloliu/measio/value"

// Sentinel strings stand in for the scalars a physical attribute store cannot
// represent natively.
const (
	NoneSentinel  = "_None"
	TrueSentinel  = "_True"
	FalseSentinel = "_False"
)

// EncodeSentinel returns the sentinel text for Null, Bool(true) and
// Bool(false). Any other value is returned unchanged with ok false.
func EncodeSentinel(v value.Value) (value.Value, bool) {
	switch x := v.(type) {
	case value.Null:
		return value.Text(NoneSentinel), true
	case value.Bool:
		if x {
			return value.Text(TrueSentinel), true
		}

		return value.Text(FalseSentinel), true
	default:
		return v, false
	}
}

// DecodeSentinel is the inverse of EncodeSentinel.
func DecodeSentinel(v value.Value) (value.Value, bool) {
	t, ok := v.(value.Text)
	if !ok {
		return v, false
	}

	switch string(t) {
	case NoneSentinel:
		return value.Null{}, true
	case TrueSentinel:
		return value.Bool(true), true
	case FalseSentinel:
		return value.Bool(false), true
	default:
		return v, false
	}
}

// DecodeSentinels decodes every element of seq when all of them are
// sentinels, as for a stored boolean sequence. Otherwise seq is returned as is.
func DecodeSentinels(seq value.Sequence) value.Sequence {
	if len(seq) == 0 {
		return seq
	}

	out := make(value.Sequence, len(seq))
	for i, e := range seq {
		d, ok := DecodeSentinel(e)
		if !ok {
			return seq
		}
		out[i] = d
	}

	return out
}
