package columnar

import (
	"fmt"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
)

// sequenceArray converts a sequence already coerced to elem into the
// one-dimensional column it is stored as. Booleans are stored as sentinel text.
func sequenceArray(elem value.ElemType, seq value.Sequence) *array.Array {
	switch elem {
	case value.ElemInt:
		out := make([]int64, len(seq))
		for i, e := range seq {
			out[i] = int64(e.(value.Int)) //nolint:forcetypeassert
		}

		return array.MustNew(out)
	case value.ElemFloat:
		out := make([]float64, len(seq))
		for i, e := range seq {
			out[i] = float64(e.(value.Float)) //nolint:forcetypeassert
		}

		return array.MustNew(out)
	case value.ElemText, value.ElemBool:
		out := make([]string, len(seq))
		for i, e := range seq {
			if s, ok := backend.EncodeSentinel(e); ok {
				e = s
			}
			out[i] = string(e.(value.Text)) //nolint:forcetypeassert
		}

		return array.MustNew(out)
	default:
		return array.MustNew([]float64{})
	}
}

// columnSequence is the inverse of sequenceArray.
func columnSequence(a *array.Array) (value.Sequence, error) {
	if a.Rank() != 1 {
		return nil, fmt.Errorf("%w: sequence column has rank %d", errs.ErrCorruptedRecord, a.Rank())
	}
	if a.Len() == 0 {
		return value.Sequence{}, nil
	}

	v, err := value.Of(a.Data())
	if err != nil {
		return nil, err
	}
	seq, ok := v.(value.Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: sequence column decoded as %s", errs.ErrCorruptedRecord, v.Kind())
	}

	return backend.DecodeSentinels(seq), nil
}
