//go:build !cgozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/arloliu/measio/errs"
	"github.com/klauspost/compress/zstd"
)

// Encoders and decoders are reusable after warm-up, so both are pooled.
var (
	zstdEncoders = sync.Pool{
		New: func() any {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel)),
				zstd.WithEncoderCRC(false), // records carry their own xxHash64 checksum
			)
			if err != nil {
				panic(fmt.Sprintf("zstd encoder: %v", err))
			}

			return enc
		},
	}

	zstdDecoders = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(maxDecodedSize),
			)
			if err != nil {
				panic(fmt.Sprintf("zstd decoder: %v", err))
			}

			return dec
		},
	}
)

// Compress implements Compressor.
func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	enc, _ := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

// Decompress implements Decompressor.
func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec, _ := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd frame: %w", errs.ErrCorruptedRecord, err)
	}

	return out, nil
}
