package store

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/measurement"
)

// Options configures a Store.
type Options struct {
	Registry *measurement.Registry
	Logger   *slog.Logger
}

// Option configures a Store.
type Option = options.Option[*Options]

// WithRegistry sets the registry that stored types are checked against.
// The default is measurement.DefaultRegistry.
func WithRegistry(r *measurement.Registry) Option {
	return options.New(func(o *Options) error {
		if r == nil {
			return fmt.Errorf("%w: nil registry", errs.ErrInvalidOperation)
		}
		o.Registry = r

		return nil
	})
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(o *Options) {
		o.Logger = logger
	})
}

type readOptions struct {
	force bool
}

// ReadOption configures a single Read.
type ReadOption = options.Option[*readOptions]

// WithForce reads measurements whose type is not registered or whose stored
// version or dimensions disagree with the registered schema.
func WithForce() ReadOption {
	return options.NoError(func(o *readOptions) {
		o.force = true
	})
}
