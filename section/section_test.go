package section

import (
	"testing"
	"time"

	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/stretchr/testify/require"
)

func TestFileHeader(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Little endian", func(t *testing.T) {
		h := NewFileHeader(created, format.CompressionZstd)
		require.False(t, h.IsBigEndian())
		require.Equal(t, endian.GetLittleEndianEngine(), h.Engine())

		parsed, err := ParseFileHeader(h.Bytes())
		require.NoError(t, err)
		require.Equal(t, h, parsed)
		require.Equal(t, created, parsed.CreatedTime().UTC())
	})

	t.Run("Big endian", func(t *testing.T) {
		h := NewFileHeader(created, format.CompressionNone)
		h.WithBigEndian()

		parsed, err := ParseFileHeader(h.Bytes())
		require.NoError(t, err)
		require.True(t, parsed.IsBigEndian())
		require.Equal(t, h.CreatedAt, parsed.CreatedAt)
	})

	t.Run("Too short", func(t *testing.T) {
		_, err := ParseFileHeader([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("Bad magic", func(t *testing.T) {
		_, err := ParseFileHeader(make([]byte, FileHeaderSize))
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("Future version", func(t *testing.T) {
		h := NewFileHeader(created, format.CompressionNone)
		h.Version = FormatVersion + 1
		_, err := ParseFileHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	})

	t.Run("Bad compression", func(t *testing.T) {
		h := NewFileHeader(created, format.CompressionType(0x9))
		_, err := ParseFileHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidCompression)
	})
}

func TestRecordHeader(t *testing.T) {
	meta := []byte("/measurement\x00data")
	data := []byte{1, 2, 3, 4}

	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		h := RecordHeader{
			Kind:        RecordVariable,
			Compression: format.CompressionS2,
			Flags:       FlagCompound,
			MetaLength:  uint32(len(meta)),
			DataLength:  uint32(len(data)),
			RawLength:   16,
		}
		h.Seal(meta, data)

		parsed, err := ParseRecordHeader(h.Bytes(engine), engine)
		require.NoError(t, err)
		require.Equal(t, h, parsed)
		require.True(t, parsed.IsCompound())
		require.Equal(t, int64(len(meta)+len(data)), parsed.BodyLength())
		require.NoError(t, parsed.Verify(meta, data))
		require.ErrorIs(t, parsed.Verify(meta, []byte{1, 2, 3, 5}), errs.ErrCorruptedRecord)
	}

	t.Run("Invalid kind", func(t *testing.T) {
		b := RecordHeader{Kind: RecordGroup, Compression: format.CompressionNone}.Bytes(endian.GetLittleEndianEngine())
		b[0] = 0x7F
		_, err := ParseRecordHeader(b, endian.GetLittleEndianEngine())
		require.ErrorIs(t, err, errs.ErrCorruptedRecord)
	})

	t.Run("Too short", func(t *testing.T) {
		_, err := ParseRecordHeader(make([]byte, 3), endian.GetLittleEndianEngine())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	require.Equal(t, "Attribute", RecordAttribute.String())
	require.Equal(t, "Unknown", RecordKind(0).String())
}
