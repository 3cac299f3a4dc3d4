// Package compress provides the payload codecs of the columnar container.
//
// Every variable record in a container file stores its data payload through
// one of these codecs; the codec identifier is written into the record header,
// so a reader never needs to be told which codec was used:
//   - None: payload stored as-is
//   - Zstd: best ratio, moderate speed (pure Go, or cgo with the cgozstd build tag)
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression
//
// Compression is opaque to the rest of the library: arrays are encoded to raw
// bytes first and compressed afterwards.
package compress
