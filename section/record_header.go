package section

import (
	"fmt"

	"github.com/arloliu/measio/endian"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/internal/hash"
)

// RecordHeader is the fixed-size header in front of every record.
type RecordHeader struct {
	Kind        RecordKind             // byte offset 0
	Compression format.CompressionType // byte offset 1, codec of the data block
	Flags       uint16                 // byte offset 2-3
	MetaLength  uint32                 // byte offset 4-7
	DataLength  uint32                 // byte offset 8-11, stored (compressed) size
	RawLength   uint32                 // byte offset 12-15, size after decompression
	Checksum    uint64                 // byte offset 16-23, xxHash64 of meta and stored data
}

// IsCompound reports whether the variable stores complex elements as {real, imag} records.
func (h RecordHeader) IsCompound() bool {
	return h.Flags&FlagCompound != 0
}

// BodyLength returns the number of bytes following the header.
func (h RecordHeader) BodyLength() int64 {
	return int64(h.MetaLength) + int64(h.DataLength)
}

// Seal computes the checksum over meta and data.
func (h *RecordHeader) Seal(meta, data []byte) {
	h.Checksum = hash.ChecksumParts(meta, data)
}

// Verify checks meta and data against the stored checksum.
func (h RecordHeader) Verify(meta, data []byte) error {
	if got := hash.ChecksumParts(meta, data); got != h.Checksum {
		return fmt.Errorf("%w: checksum 0x%016x, want 0x%016x", errs.ErrCorruptedRecord, got, h.Checksum)
	}

	return nil
}

// Bytes serializes the header using engine.
func (h RecordHeader) Bytes(engine endian.EndianEngine) []byte {
	b := make([]byte, RecordHeaderSize)

	b[0] = uint8(h.Kind)
	b[1] = uint8(h.Compression)
	engine.PutUint16(b[2:4], h.Flags)
	engine.PutUint32(b[4:8], h.MetaLength)
	engine.PutUint32(b[8:12], h.DataLength)
	engine.PutUint32(b[12:16], h.RawLength)
	engine.PutUint64(b[16:24], h.Checksum)

	return b
}

// ParseRecordHeader parses a record header with engine.
func ParseRecordHeader(data []byte, engine endian.EndianEngine) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, errs.ErrInvalidHeaderSize
	}

	h := RecordHeader{
		Kind:        RecordKind(data[0]),
		Compression: format.CompressionType(data[1]),
		Flags:       engine.Uint16(data[2:4]),
		MetaLength:  engine.Uint32(data[4:8]),
		DataLength:  engine.Uint32(data[8:12]),
		RawLength:   engine.Uint32(data[12:16]),
		Checksum:    engine.Uint64(data[16:24]),
	}
	if !h.Kind.Valid() {
		return RecordHeader{}, fmt.Errorf("%w: unknown record kind %d", errs.ErrCorruptedRecord, data[0])
	}
	if !h.Compression.Valid() {
		return RecordHeader{}, fmt.Errorf("%w: unknown compression %d", errs.ErrCorruptedRecord, data[1])
	}

	return h, nil
}
