package columnar

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/format"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/value"
)

// Options configures a columnar backend.
type Options struct {
	backend.Config

	// Compression is the codec for variable payloads. Zero selects the
	// default stored in the file header, or CompressionNone for new files.
	Compression format.CompressionType
	// BigEndian writes new files in big-endian byte order.
	BigEndian bool
	// ReadOnly opens the file without write access.
	ReadOnly bool
}

// Option configures a columnar backend.
type Option = options.Option[*Options]

// WithCompression sets the codec for variable payloads.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(o *Options) error {
		if !compression.Valid() {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compression)
		}
		o.Compression = compression

		return nil
	})
}

// WithBigEndian writes new files in big-endian byte order. It has no effect
// when an existing file is opened.
func WithBigEndian() Option {
	return options.NoError(func(o *Options) {
		o.BigEndian = true
	})
}

// WithReadOnly opens an existing file read-only. Writes fail with errs.ErrReadOnly.
func WithReadOnly() Option {
	return options.NoError(func(o *Options) {
		o.ReadOnly = true
	})
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(o *Options) {
		o.Logger = logger
	})
}

// WithMetadata sets the metadata stored when a new file is created.
func WithMetadata(metadata value.Mapping) Option {
	return options.NoError(func(o *Options) {
		o.Metadata = metadata
	})
}
