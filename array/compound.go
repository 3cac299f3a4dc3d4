package array

import (
	"fmt"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
)

// CompoundFields names the members of the record a complex element is stored as.
var CompoundFields = [2]string{"real", "imag"}

// SplitComplex returns the {real, imag} record view of a complex array: a float
// array with one extra trailing axis of length 2. Non-complex arrays are
// returned unchanged.
func SplitComplex(a *Array) *Array {
	shape := append(a.Shape(), 2)

	switch x := a.data.(type) {
	case []complex64:
		out := make([]float32, 0, 2*len(x))
		for _, c := range x {
			out = append(out, real(c), imag(c))
		}

		return &Array{dtype: format.DTypeFloat32, shape: shape, data: out}
	case []complex128:
		out := make([]float64, 0, 2*len(x))
		for _, c := range x {
			out = append(out, real(c), imag(c))
		}

		return &Array{dtype: format.DTypeFloat64, shape: shape, data: out}
	default:
		return a
	}
}

// JoinComplex is the inverse of SplitComplex: it folds a trailing {real, imag}
// axis back into complex elements of the given complex type.
func JoinComplex(a *Array, dtype format.DType) (*Array, error) {
	if a.Rank() == 0 || a.shape[a.Rank()-1] != 2 {
		return nil, fmt.Errorf("%w: compound view needs a trailing axis of 2, got %v", errs.ErrInvalidShape, a.shape)
	}
	shape := a.Shape()[:a.Rank()-1]

	switch dtype {
	case format.DTypeComplex64:
		x, ok := a.data.([]float32)
		if !ok {
			return nil, fmt.Errorf("%w: complex64 record needs float32 members, got %s", errs.ErrUnsupportedDType, a.dtype)
		}
		out := make([]complex64, len(x)/2)
		for i := range out {
			out[i] = complex(x[2*i], x[2*i+1])
		}

		return &Array{dtype: dtype, shape: shape, data: out}, nil
	case format.DTypeComplex128:
		x, ok := a.data.([]float64)
		if !ok {
			return nil, fmt.Errorf("%w: complex128 record needs float64 members, got %s", errs.ErrUnsupportedDType, a.dtype)
		}
		out := make([]complex128, len(x)/2)
		for i := range out {
			out[i] = complex(x[2*i], x[2*i+1])
		}

		return &Array{dtype: dtype, shape: shape, data: out}, nil
	default:
		return nil, fmt.Errorf("%w: %s is not complex", errs.ErrUnsupportedDType, dtype)
	}
}
