package array

import "slices"

// FromFortranOrder reorders a column-major (Fortran order) flat array of the
// given shape into the row-major layout Array uses.
func FromFortranOrder(a *Array) *Array {
	if a.Rank() < 2 {
		return a
	}

	shape := a.shape
	n := a.Len()
	idx := make([]int, n)
	index := make([]int, len(shape))
	for c := range n {
		// column-major offset of the current row-major multi-index
		off, stride := 0, 1
		for k := range shape {
			off += index[k] * stride
			stride *= shape[k]
		}
		idx[c] = off

		for k := len(shape) - 1; k >= 0; k-- {
			index[k]++
			if index[k] < shape[k] {
				break
			}
			index[k] = 0
		}
	}

	return &Array{dtype: a.dtype, shape: slices.Clone(shape), data: gather(a.data, idx)}
}

func gather(data any, idx []int) any {
	switch x := data.(type) {
	case []int8:
		return gatherSlice(x, idx)
	case []int16:
		return gatherSlice(x, idx)
	case []int32:
		return gatherSlice(x, idx)
	case []int64:
		return gatherSlice(x, idx)
	case []uint8:
		return gatherSlice(x, idx)
	case []uint16:
		return gatherSlice(x, idx)
	case []uint32:
		return gatherSlice(x, idx)
	case []uint64:
		return gatherSlice(x, idx)
	case []float32:
		return gatherSlice(x, idx)
	case []float64:
		return gatherSlice(x, idx)
	case []complex64:
		return gatherSlice(x, idx)
	case []complex128:
		return gatherSlice(x, idx)
	case []string:
		return gatherSlice(x, idx)
	default:
		return data
	}
}

func gatherSlice[T Element](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}

	return out
}
