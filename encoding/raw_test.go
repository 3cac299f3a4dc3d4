package encoding

import (
	"math"
	"testing"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/stretchr/testify/require"
)

func sampleArrays() map[string]*array.Array {
	return map[string]*array.Array{
		"int8":       array.MustNew([]int8{-128, 0, 127}),
		"int16":      array.MustNew([]int16{-2, 300, math.MaxInt16}),
		"int32":      array.MustNew([]int32{1, -1, math.MinInt32, 7}, 2, 2),
		"int64":      array.MustNew([]int64{math.MaxInt64, math.MinInt64}),
		"uint8":      array.MustNew([]uint8{0, 255}),
		"uint16":     array.MustNew([]uint16{65535}),
		"uint32":     array.MustNew([]uint32{1, 2, 3, 4, 5, 6}, 3, 2),
		"uint64":     array.MustNew([]uint64{math.MaxUint64, 0}),
		"float32":    array.MustNew([]float32{1.5, float32(math.Inf(-1))}),
		"float64":    array.MustNew([]float64{math.Pi, math.NaN(), 0, -0.5}, 2, 2),
		"complex64":  array.MustNew([]complex64{1 + 2i, -3i}),
		"complex128": array.MustNew([]complex128{complex(math.E, -1), 0}),
		"string":     array.MustNew([]string{"", "alpha", "ünïcode"}),
		"empty":      array.MustNew([]float64{}),
	}
}

func TestRawRoundTrip(t *testing.T) {
	engines := map[string]endian.EndianEngine{
		"little": endian.GetLittleEndianEngine(),
		"big":    endian.GetBigEndianEngine(),
	}

	for ename, engine := range engines {
		for name, a := range sampleArrays() {
			t.Run(ename+"/"+name, func(t *testing.T) {
				data, err := EncodeRaw(engine, a)
				require.NoError(t, err)

				if size := a.DType().Size(); size > 0 {
					require.Len(t, data, size*a.Len())
				}

				got, err := DecodeRaw(engine, a.DType(), a.Shape(), data)
				require.NoError(t, err)
				require.True(t, a.Equal(got), "got %v", got.Data())
			})
		}
	}
}

func TestRawByteOrder(t *testing.T) {
	a := array.MustNew([]uint16{0x0102})

	little, err := EncodeRaw(endian.GetLittleEndianEngine(), a)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x01}, little)

	big, err := EncodeRaw(endian.GetBigEndianEngine(), a)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, big)
}

func TestAppendRawKeepsPrefix(t *testing.T) {
	out, err := AppendRaw([]byte{0xAA}, endian.GetLittleEndianEngine(), array.MustNew([]int8{1, 2}))
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 1, 2}, out)
}

func TestDecodeRawCorrupted(t *testing.T) {
	engine := endian.GetLittleEndianEngine()

	_, err := DecodeRaw(engine, format.DTypeFloat64, []int{2}, make([]byte, 15))
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)

	_, err = DecodeRaw(engine, format.DTypeString, []int{2}, []byte{3, 'a', 'b', 'c'})
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)

	_, err = DecodeRaw(engine, format.DTypeString, []int{1}, []byte{1, 'a', 'b'})
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)

	_, err = DecodeRaw(engine, format.DTypeInvalid, []int{1}, nil)
	require.ErrorIs(t, err, errs.ErrUnsupportedDType)
}
