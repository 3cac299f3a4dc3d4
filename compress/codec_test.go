package compress

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/stretchr/testify/require"
)

func allTypes() []format.CompressionType {
	return []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allTypes() {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0x7F))
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
}

func TestCodecRoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	payloads := map[string][]byte{
		"repetitive": bytes.Repeat([]byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, 1024),
		"random":     random,
		"tiny":       {42},
	}

	for _, ct := range allTypes() {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for name, payload := range payloads {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				restored, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, payload, restored)
			})
		}
	}
}

func TestEmptyPayload(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		restored, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, restored)
	}
}

func TestCompressionShrinksRepetitiveData(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 512)
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, _ := GetCodec(ct)
		compressed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload), ct.String())
	}
}

func TestCorruptedInput(t *testing.T) {
	_, err := NewZstdCompressor().Decompress([]byte{1, 2, 3, 4, 5})
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)

	// an S2 block header claiming more than the decode limit
	oversized := binary.AppendUvarint(nil, maxDecodedSize+1)
	oversized = append(oversized, 0, 0, 0, 0)
	_, err = NewS2Compressor().Decompress(oversized)
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)

	// a truncated S2 block
	compressed, err := NewS2Compressor().Compress(bytes.Repeat([]byte("measio"), 100))
	require.NoError(t, err)
	_, err = NewS2Compressor().Decompress(compressed[:len(compressed)/2])
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)
}
