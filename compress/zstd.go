package compress

// zstdLevel is the compression level of both zstd builds.
const zstdLevel = 3

// ZstdCompressor compresses payloads as single zstd frames.
//
// The pure Go encoder is used by default. Building with the cgozstd tag links
// libzstd instead. Both write standard frames at the same level, so files are
// interchangeable between builds.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor returns the zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
