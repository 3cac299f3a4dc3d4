package compress

import (
	"fmt"

	"github.com/arloliu/measio/errs"
	"github.com/klauspost/compress/s2"
)

// S2Compressor compresses payloads as S2 blocks.
//
// Blocks are written with the "better" encoder: variables are written once and
// read many times, so the slower encode pays for itself. The block header
// carries the decoded length, which is checked against maxDecodedSize before
// any output is allocated.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor returns the S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress implements Compressor.
func (S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress implements Decompressor.
func (S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 block: %w", errs.ErrCorruptedRecord, err)
	}
	if n > maxDecodedSize {
		return nil, fmt.Errorf("%w: s2 block decodes to %d bytes", errs.ErrCorruptedRecord, n)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 block: %w", errs.ErrCorruptedRecord, err)
	}

	return out, nil
}
