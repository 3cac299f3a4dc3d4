package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/internal/pool"
)

// AppendRaw appends the raw element payload of a to dst.
func AppendRaw(dst []byte, engine endian.EndianEngine, a *array.Array) ([]byte, error) {
	if size := a.DType().Size(); size > 0 {
		if need := len(dst) + size*a.Len(); cap(dst) < need {
			grown := make([]byte, len(dst), need)
			copy(grown, dst)
			dst = grown
		}
	}

	switch x := a.Data().(type) {
	case []int8:
		for _, v := range x {
			dst = append(dst, byte(v))
		}
	case []uint8:
		dst = append(dst, x...)
	case []int16:
		for _, v := range x {
			dst = engine.AppendUint16(dst, uint16(v)) //nolint:gosec
		}
	case []uint16:
		for _, v := range x {
			dst = engine.AppendUint16(dst, v)
		}
	case []int32:
		for _, v := range x {
			dst = engine.AppendUint32(dst, uint32(v)) //nolint:gosec
		}
	case []uint32:
		for _, v := range x {
			dst = engine.AppendUint32(dst, v)
		}
	case []int64:
		for _, v := range x {
			dst = engine.AppendUint64(dst, uint64(v)) //nolint:gosec
		}
	case []uint64:
		for _, v := range x {
			dst = engine.AppendUint64(dst, v)
		}
	case []float32:
		for _, v := range x {
			dst = engine.AppendUint32(dst, math.Float32bits(v))
		}
	case []float64:
		for _, v := range x {
			dst = engine.AppendUint64(dst, math.Float64bits(v))
		}
	case []complex64:
		for _, v := range x {
			dst = engine.AppendUint32(dst, math.Float32bits(real(v)))
			dst = engine.AppendUint32(dst, math.Float32bits(imag(v)))
		}
	case []complex128:
		for _, v := range x {
			dst = engine.AppendUint64(dst, math.Float64bits(real(v)))
			dst = engine.AppendUint64(dst, math.Float64bits(imag(v)))
		}
	case []string:
		for _, v := range x {
			dst = binary.AppendUvarint(dst, uint64(len(v)))
			dst = append(dst, v...)
		}
	default:
		return nil, fmt.Errorf("%w: %T", errs.ErrUnsupportedDType, x)
	}

	return dst, nil
}

// EncodeRaw returns the raw element payload of a in a new slice.
func EncodeRaw(engine endian.EndianEngine, a *array.Array) ([]byte, error) {
	bb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(bb)

	out, err := AppendRaw(bb.B, engine, a)
	if err != nil {
		return nil, err
	}
	bb.B = out

	return append([]byte(nil), out...), nil
}

// DecodeRaw rebuilds an array of the given type and shape from a raw payload.
func DecodeRaw(engine endian.EndianEngine, dtype format.DType, shape []int, data []byte) (*array.Array, error) {
	a, err := array.Zeros(dtype, shape...)
	if err != nil {
		return nil, err
	}
	n := a.Len()

	if size := dtype.Size(); size > 0 && len(data) != size*n {
		return nil, fmt.Errorf("%w: %d bytes for %d elements of %s", errs.ErrCorruptedRecord, len(data), n, dtype)
	}

	switch x := a.Data().(type) {
	case []int8:
		for i := range x {
			x[i] = int8(data[i]) //nolint:gosec
		}
	case []uint8:
		copy(x, data)
	case []int16:
		for i := range x {
			x[i] = int16(engine.Uint16(data[2*i:])) //nolint:gosec
		}
	case []uint16:
		for i := range x {
			x[i] = engine.Uint16(data[2*i:])
		}
	case []int32:
		for i := range x {
			x[i] = int32(engine.Uint32(data[4*i:])) //nolint:gosec
		}
	case []uint32:
		for i := range x {
			x[i] = engine.Uint32(data[4*i:])
		}
	case []int64:
		for i := range x {
			x[i] = int64(engine.Uint64(data[8*i:])) //nolint:gosec
		}
	case []uint64:
		for i := range x {
			x[i] = engine.Uint64(data[8*i:])
		}
	case []float32:
		for i := range x {
			x[i] = math.Float32frombits(engine.Uint32(data[4*i:]))
		}
	case []float64:
		for i := range x {
			x[i] = math.Float64frombits(engine.Uint64(data[8*i:]))
		}
	case []complex64:
		for i := range x {
			re := math.Float32frombits(engine.Uint32(data[8*i:]))
			im := math.Float32frombits(engine.Uint32(data[8*i+4:]))
			x[i] = complex(re, im)
		}
	case []complex128:
		for i := range x {
			re := math.Float64frombits(engine.Uint64(data[16*i:]))
			im := math.Float64frombits(engine.Uint64(data[16*i+8:]))
			x[i] = complex(re, im)
		}
	case []string:
		if err := decodeStrings(x, data); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func decodeStrings(dst []string, data []byte) error {
	off := 0
	for i := range dst {
		l, n := binary.Uvarint(data[off:])
		if n <= 0 || uint64(len(data)-off-n) < l {
			return fmt.Errorf("%w: truncated string %d", errs.ErrCorruptedRecord, i)
		}
		off += n
		dst[i] = string(data[off : off+int(l)]) //nolint:gosec
		off += int(l) //nolint:gosec
	}
	if off != len(data) {
		return fmt.Errorf("%w: %d trailing bytes after strings", errs.ErrCorruptedRecord, len(data)-off)
	}

	return nil
}
