package backend

import (
	"log/slog"

	"github.com/arloliu/measio/value"
)

// Config holds the settings every backend accepts. Backends embed it in their
// own option structs.
type Config struct {
	// Logger receives debug events for open, create and close, and warnings
	// for lossy sequence coercion. Nil discards.
	Logger *slog.Logger
	// Metadata is persisted under the reserved metadata name when a store is
	// created. It is ignored when an existing store is opened.
	Metadata value.Mapping
}

// Log returns the configured logger or one that discards every record.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return c.Logger
}
