package directory

import (
	"log/slog"

	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/value"
)

// Options configures a directory backend.
type Options struct {
	backend.Config

	// MemoryMap reads arrays through read-only memory mappings.
	MemoryMap bool
}

// Option configures a directory backend.
type Option = options.Option[*Options]

// WithMemoryMap reads .npy files through memory mappings instead of reading
// them into memory. Mappings are released when the array is decoded, when a
// MappedArray is closed, or at the latest when the backend is closed.
func WithMemoryMap() Option {
	return options.NoError(func(o *Options) {
		o.MemoryMap = true
	})
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(o *Options) {
		o.Logger = logger
	})
}

// WithMetadata sets the metadata stored when a new store is created.
func WithMetadata(metadata value.Mapping) Option {
	return options.NoError(func(o *Options) {
		o.Metadata = metadata
	})
}
