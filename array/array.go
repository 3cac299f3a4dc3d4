// Package array implements the n-dimensional homogeneous arrays stored by the backends.
//
// An Array owns a flat, row-major Go slice of one of the supported element
// types together with its shape. Arrays carry no dimension names: naming axes
// is the concern of the value and backend packages, which pair an Array with an
// ordered tuple of dimension names.
package array

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
)

// Element lists the Go types an Array may hold.
type Element interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		complex64 | complex128 |
		string
}

// Array is an n-dimensional, row-major array of a single element type.
type Array struct {
	dtype format.DType
	shape []int
	data  any
}

// New creates an Array that takes ownership of data.
//
// When shape is omitted the array is one-dimensional with len(data) elements.
// Otherwise the product of shape must equal len(data).
func New[T Element](data []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}

	return &Array{dtype: dtypeOf[T](), shape: slices.Clone(shape), data: data}, nil
}

// MustNew is like New but panics on an invalid shape. It is intended for tests
// and literals whose shape is known to be valid.
func MustNew[T Element](data []T, shape ...int) *Array {
	a, err := New(data, shape...)
	if err != nil {
		panic(err)
	}

	return a
}

// Zeros allocates a zero-filled Array of the given element type and shape.
func Zeros(dtype format.DType, shape ...int) (*Array, error) {
	if err := checkShape(shape, -1); err != nil {
		return nil, err
	}
	n := product(shape)

	var data any
	switch dtype {
	case format.DTypeInt8:
		data = make([]int8, n)
	case format.DTypeInt16:
		data = make([]int16, n)
	case format.DTypeInt32:
		data = make([]int32, n)
	case format.DTypeInt64:
		data = make([]int64, n)
	case format.DTypeUint8:
		data = make([]uint8, n)
	case format.DTypeUint16:
		data = make([]uint16, n)
	case format.DTypeUint32:
		data = make([]uint32, n)
	case format.DTypeUint64:
		data = make([]uint64, n)
	case format.DTypeFloat32:
		data = make([]float32, n)
	case format.DTypeFloat64:
		data = make([]float64, n)
	case format.DTypeComplex64:
		data = make([]complex64, n)
	case format.DTypeComplex128:
		data = make([]complex128, n)
	case format.DTypeString:
		data = make([]string, n)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedDType, dtype)
	}

	return &Array{dtype: dtype, shape: slices.Clone(shape), data: data}, nil
}

// DType returns the element type.
func (a *Array) DType() format.DType {
	return a.dtype
}

// Shape returns a copy of the array shape.
func (a *Array) Shape() []int {
	return slices.Clone(a.shape)
}

// Rank returns the number of axes.
func (a *Array) Rank() int {
	return len(a.shape)
}

// Axis returns the length of axis i.
func (a *Array) Axis(i int) int {
	return a.shape[i]
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	return product(a.shape)
}

// Data returns the underlying flat slice, e.g. []float64. The slice is shared, not copied.
func (a *Array) Data() any {
	return a.data
}

// Values returns the flat data of a as []T when the element type matches.
func Values[T Element](a *Array) ([]T, bool) {
	v, ok := a.data.([]T)
	return v, ok
}

// Reshape returns an Array sharing a's data with a new shape of equal size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if err := checkShape(shape, a.Len()); err != nil {
		return nil, err
	}

	return &Array{dtype: a.dtype, shape: slices.Clone(shape), data: a.data}, nil
}

// Equal reports whether a and b have the same element type, shape and elements.
// NaN elements compare equal to NaN, so arrays read back from storage compare
// equal to the arrays that were written.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || !slices.Equal(a.shape, b.shape) {
		return false
	}

	switch x := a.data.(type) {
	case []float32:
		return slices.EqualFunc(x, b.data.([]float32), func(p, q float32) bool {
			return floatEqual(float64(p), float64(q))
		})
	case []float64:
		return slices.EqualFunc(x, b.data.([]float64), floatEqual)
	case []complex64:
		return slices.EqualFunc(x, b.data.([]complex64), func(p, q complex64) bool {
			return complexEqual(complex128(p), complex128(q))
		})
	case []complex128:
		return slices.EqualFunc(x, b.data.([]complex128), complexEqual)
	case []int8:
		return slices.Equal(x, b.data.([]int8))
	case []int16:
		return slices.Equal(x, b.data.([]int16))
	case []int32:
		return slices.Equal(x, b.data.([]int32))
	case []int64:
		return slices.Equal(x, b.data.([]int64))
	case []uint8:
		return slices.Equal(x, b.data.([]uint8))
	case []uint16:
		return slices.Equal(x, b.data.([]uint16))
	case []uint32:
		return slices.Equal(x, b.data.([]uint32))
	case []uint64:
		return slices.Equal(x, b.data.([]uint64))
	case []string:
		return slices.Equal(x, b.data.([]string))
	default:
		return false
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(%s%v)", a.dtype, a.shape)
}

func dtypeOf[T Element]() format.DType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return format.DTypeInt8
	case int16:
		return format.DTypeInt16
	case int32:
		return format.DTypeInt32
	case int64:
		return format.DTypeInt64
	case uint8:
		return format.DTypeUint8
	case uint16:
		return format.DTypeUint16
	case uint32:
		return format.DTypeUint32
	case uint64:
		return format.DTypeUint64
	case float32:
		return format.DTypeFloat32
	case float64:
		return format.DTypeFloat64
	case complex64:
		return format.DTypeComplex64
	case complex128:
		return format.DTypeComplex128
	default:
		return format.DTypeString
	}
}

// Size returns the number of elements an array of the given shape holds. It
// fails with errs.ErrInvalidShape for negative axis lengths and for element
// counts that overflow int.
func Size(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative axis length in %v", errs.ErrInvalidShape, shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: element count of %v overflows", errs.ErrInvalidShape, shape)
		}
		n *= d
	}

	return n, nil
}

// checkShape validates axis lengths and, when n >= 0, the element count.
func checkShape(shape []int, n int) error {
	size, err := Size(shape)
	if err != nil {
		return err
	}
	if n >= 0 && size != n {
		return fmt.Errorf("%w: shape %v does not hold %d elements", errs.ErrInvalidShape, shape, n)
	}

	return nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

func floatEqual(p, q float64) bool {
	return p == q || (math.IsNaN(p) && math.IsNaN(q))
}

func complexEqual(p, q complex128) bool {
	return floatEqual(real(p), real(q)) && floatEqual(imag(p), imag(q))
}
