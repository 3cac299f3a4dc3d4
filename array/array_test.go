package array

import (
	"math"
	"testing"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Default shape is one-dimensional", func(t *testing.T) {
		a, err := New([]float64{1, 2, 3})
		require.NoError(t, err)
		require.Equal(t, format.DTypeFloat64, a.DType())
		require.Equal(t, []int{3}, a.Shape())
		require.Equal(t, 1, a.Rank())
		require.Equal(t, 3, a.Len())
	})

	t.Run("Explicit shape", func(t *testing.T) {
		a, err := New([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, a.Shape())
		require.Equal(t, 3, a.Axis(1))
	})

	t.Run("Shape mismatch", func(t *testing.T) {
		_, err := New([]int32{1, 2, 3}, 2, 2)
		require.ErrorIs(t, err, errs.ErrInvalidShape)
	})

	t.Run("Negative axis", func(t *testing.T) {
		_, err := New([]int32{}, -1)
		require.ErrorIs(t, err, errs.ErrInvalidShape)
	})

	t.Run("Shape is copied", func(t *testing.T) {
		shape := []int{2}
		a := MustNew([]string{"a", "b"}, shape...)
		shape[0] = 7
		require.Equal(t, []int{2}, a.Shape())
		require.Equal(t, format.DTypeString, a.DType())
	})
}

func TestZeros(t *testing.T) {
	a, err := Zeros(format.DTypeComplex64, 2, 2)
	require.NoError(t, err)
	v, ok := Values[complex64](a)
	require.True(t, ok)
	require.Len(t, v, 4)

	_, err = Zeros(format.DTypeInvalid, 1)
	require.ErrorIs(t, err, errs.ErrUnsupportedDType)
}

func TestSize(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		want  int
		err   error
	}{
		{name: "scalar", shape: nil, want: 1},
		{name: "matrix", shape: []int{2, 3, 4}, want: 24},
		{name: "zero axis before huge axis", shape: []int{0, math.MaxInt}, want: 0},
		{name: "max", shape: []int{math.MaxInt}, want: math.MaxInt},
		{name: "negative", shape: []int{2, -1}, err: errs.ErrInvalidShape},
		{name: "wraps to zero", shape: []int{math.MaxInt/2 + 1, 4}, err: errs.ErrInvalidShape},
		{name: "overflow", shape: []int{math.MaxInt, 2}, err: errs.ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Size(tt.shape)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, n)
		})
	}

	_, err := Zeros(format.DTypeFloat64, math.MaxInt/2+1, 4)
	require.ErrorIs(t, err, errs.ErrInvalidShape)
}

func TestEqual(t *testing.T) {
	nan := math.NaN()

	a := MustNew([]float64{1, nan, 3})
	b := MustNew([]float64{1, nan, 3})
	require.True(t, a.Equal(b))

	c := MustNew([]float64{1, 2, 3})
	require.False(t, a.Equal(c))

	d := MustNew([]float32{1, 2, 3})
	require.False(t, c.Equal(d))

	e := MustNew([]float64{1, 2, 3, 4}, 2, 2)
	f := MustNew([]float64{1, 2, 3, 4}, 4)
	require.False(t, e.Equal(f))

	z1 := MustNew([]complex128{complex(nan, 1), 2i})
	z2 := MustNew([]complex128{complex(nan, 1), 2i})
	require.True(t, z1.Equal(z2))

	var nilArray *Array
	require.True(t, nilArray.Equal(nil))
	require.False(t, a.Equal(nil))
}

func TestReshape(t *testing.T) {
	a := MustNew([]uint8{1, 2, 3, 4})
	b, err := a.Reshape(2, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, b.Shape())

	_, err = a.Reshape(3)
	require.ErrorIs(t, err, errs.ErrInvalidShape)
}

func TestComplexView(t *testing.T) {
	t.Run("complex128", func(t *testing.T) {
		a := MustNew([]complex128{1 + 2i, 3 - 4i, 5, 6, 7i, 8}, 2, 3)
		view := SplitComplex(a)
		require.Equal(t, format.DTypeFloat64, view.DType())
		require.Equal(t, []int{2, 3, 2}, view.Shape())
		floats, _ := Values[float64](view)
		require.Equal(t, []float64{1, 2, 3, -4}, floats[:4])

		back, err := JoinComplex(view, format.DTypeComplex128)
		require.NoError(t, err)
		require.True(t, a.Equal(back))
	})

	t.Run("complex64", func(t *testing.T) {
		a := MustNew([]complex64{1 + 1i, 2 + 2i})
		view := SplitComplex(a)
		require.Equal(t, format.DTypeFloat32, view.DType())

		back, err := JoinComplex(view, format.DTypeComplex64)
		require.NoError(t, err)
		require.True(t, a.Equal(back))
	})

	t.Run("Real arrays pass through", func(t *testing.T) {
		a := MustNew([]float64{1})
		require.Same(t, a, SplitComplex(a))
	})

	t.Run("Invalid view", func(t *testing.T) {
		_, err := JoinComplex(MustNew([]float64{1, 2, 3}), format.DTypeComplex128)
		require.ErrorIs(t, err, errs.ErrInvalidShape)

		_, err = JoinComplex(MustNew([]float64{1, 2}), format.DTypeFloat64)
		require.ErrorIs(t, err, errs.ErrUnsupportedDType)
	})
}

func TestFromFortranOrder(t *testing.T) {
	// [[1 2 3] [4 5 6]] stored column-major is 1 4 2 5 3 6
	f := MustNew([]int64{1, 4, 2, 5, 3, 6}, 2, 3)
	c := FromFortranOrder(f)
	v, _ := Values[int64](c)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, v)
	require.Equal(t, []int{2, 3}, c.Shape())

	one := MustNew([]int64{1, 2})
	require.Same(t, one, FromFortranOrder(one))
}
