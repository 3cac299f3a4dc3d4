package section

import (
	"fmt"
	"time"

	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
)

// FileHeader is the fixed-size header at the start of a container file.
type FileHeader struct {
	// Options packs the magic number (bits 4-15) and the endianness flag (bit 1).
	// It is always stored little-endian so the byte order can be detected.
	Options uint16 // byte offset 0-1
	// Version is the container format version.
	Version uint8 // byte offset 2
	// Compression is the default payload compression for new variables.
	Compression format.CompressionType // byte offset 3
	// CreatedAt is the creation time in unix microseconds.
	CreatedAt int64 // byte offset 4-11
	// Reserved for future use, must be zero.
	Reserved uint32 // byte offset 12-15
}

// NewFileHeader creates a little-endian header with the given default compression.
func NewFileHeader(createdAt time.Time, compression format.CompressionType) FileHeader {
	return FileHeader{
		Options:     MagicContainerV1Opt,
		Version:     FormatVersion,
		Compression: compression,
		CreatedAt:   createdAt.UnixMicro(),
	}
}

// WithBigEndian switches numeric fields after the options to big-endian.
func (h *FileHeader) WithBigEndian() {
	h.Options |= EndiannessMask
}

// IsBigEndian reports whether numeric fields are big-endian.
func (h FileHeader) IsBigEndian() bool {
	return h.Options&EndiannessMask != 0
}

// Engine returns the byte order engine used by the whole file.
func (h FileHeader) Engine() endian.EndianEngine {
	if h.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// CreatedTime returns CreatedAt as a time.Time.
func (h FileHeader) CreatedTime() time.Time {
	return time.UnixMicro(h.CreatedAt)
}

// Bytes serializes the header.
func (h FileHeader) Bytes() []byte {
	b := make([]byte, FileHeaderSize)
	engine := h.Engine()

	b[0] = byte(h.Options)
	b[1] = byte(h.Options >> 8)
	b[2] = h.Version
	b[3] = uint8(h.Compression)
	engine.PutUint64(b[4:12], uint64(h.CreatedAt)) //nolint:gosec
	engine.PutUint32(b[12:16], h.Reserved)

	return b
}

// ParseFileHeader parses and validates a header from the start of data.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, errs.ErrInvalidHeaderSize
	}

	h := FileHeader{
		Options:     uint16(data[0]) | uint16(data[1])<<8,
		Version:     data[2],
		Compression: format.CompressionType(data[3]),
	}
	if h.Options&MagicNumberMask != MagicContainerV1Opt {
		return FileHeader{}, fmt.Errorf("%w: 0x%04x", errs.ErrInvalidMagicNumber, h.Options&MagicNumberMask)
	}
	if h.Version == 0 || h.Version > FormatVersion {
		return FileHeader{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}
	if !h.Compression.Valid() {
		return FileHeader{}, fmt.Errorf("%w: %d", errs.ErrInvalidCompression, data[3])
	}

	engine := h.Engine()
	h.CreatedAt = int64(engine.Uint64(data[4:12])) //nolint:gosec
	h.Reserved = engine.Uint32(data[12:16])

	return h, nil
}
