//go:build cgozstd

package compress

import (
	"fmt"

	"github.com/arloliu/measio/errs"
	"github.com/valyala/gozstd"
)

// Compress implements Compressor through libzstd.
func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress implements Decompressor through libzstd.
func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd frame: %w", errs.ErrCorruptedRecord, err)
	}
	if len(out) > maxDecodedSize {
		return nil, fmt.Errorf("%w: zstd frame decodes to %d bytes", errs.ErrCorruptedRecord, len(out))
	}

	return out, nil
}
