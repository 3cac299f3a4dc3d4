// Package measio persists hierarchical, self-describing measurement objects to
// tree-structured storage.
//
// A measurement is a typed, versioned record of declared arrays (typed n-d
// arrays with one dimension name per axis), other values (scalars, sequences
// and string-keyed mappings) and nested measurements. The store maps such an
// object graph onto a tree of nodes and rebuilds it on read.
//
// # Core Features
//
//   - Two interchangeable physical encodings: a single-file columnar container
//     and a directory of NPY and JSON files
//   - Dimension sharing: arrays in a node that name the same dimension must agree on its length
//   - Name mangling for mappings (".dict") and undeclared sequences (".list")
//   - Reserved "_"-prefixed names for the class tag, version, dimension table and metadata
//   - Optional payload compression in the columnar container (Zstd, S2, LZ4)
//   - xxHash64 checksums on every container record
//   - Memory-mapped array reads in the directory format
//
// # Basic Usage
//
// Writing a measurement:
//
//	import "github.com/arloliu/measio"
//
//	st, _ := measio.CreateColumnar("sweep.mcf")
//	defer st.Close()
//
//	sweep := measurement.New("FrequencySweep", 0)
//	sweep.SetArray("frequency", array.MustNew([]float64{1e9, 2e9}), "frequency")
//	sweep.SetArray("data", array.MustNew([]complex128{1 + 1i, -1i}), "frequency")
//	sweep.Set("gain", 2.5)
//	_ = st.Write(sweep, "sweep")
//
// Reading it back:
//
//	measio.Register(measurement.Schema{Type: "FrequencySweep"})
//	st, _ := measio.OpenColumnar("sweep.mcf")
//	sweep, _ := st.Read("sweep")
//
// # Package Structure
//
// This package provides convenient top-level constructors around the store
// and backend packages. For custom registries, loggers or backends, use
// store.New with a backend from backend/columnar, backend/directory or
// backend/memory directly.
package measio

import (
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/backend/columnar"
	"github.com/arloliu/measio/backend/directory"
	"github.com/arloliu/measio/backend/memory"
	"github.com/arloliu/measio/measurement"
	"github.com/arloliu/measio/store"
)

// CreateColumnar creates a new columnar container file and returns a store over it.
//
// Available options:
//   - columnar.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
//   - columnar.WithBigEndian()
//   - columnar.WithMetadata(value.Mapping)
//   - columnar.WithLogger(*slog.Logger)
//
// Returns errs.ErrAlreadyExists if path exists.
//
// Example:
//
//	st, err := measio.CreateColumnar("run.mcf",
//	    columnar.WithCompression(format.CompressionZstd),
//	)
func CreateColumnar(path string, opts ...columnar.Option) (*store.Store, error) {
	b, err := columnar.Create(path, opts...)
	if err != nil {
		return nil, err
	}

	return wrap(b)
}

// OpenColumnar opens an existing columnar container file.
//
// Pass columnar.WithReadOnly() to reject every write with errs.ErrReadOnly.
func OpenColumnar(path string, opts ...columnar.Option) (*store.Store, error) {
	b, err := columnar.Open(path, opts...)
	if err != nil {
		return nil, err
	}

	return wrap(b)
}

// CreateDirectory creates a new store directory and returns a store over it.
//
// Returns errs.ErrAlreadyExists if root exists.
func CreateDirectory(root string, opts ...directory.Option) (*store.Store, error) {
	b, err := directory.Create(root, opts...)
	if err != nil {
		return nil, err
	}

	return wrap(b)
}

// OpenDirectory opens an existing store directory.
//
// Pass directory.WithMemoryMap() to read arrays through memory mappings.
//
// Example:
//
//	st, err := measio.OpenDirectory("run.npj", directory.WithMemoryMap())
func OpenDirectory(root string, opts ...directory.Option) (*store.Store, error) {
	b, err := directory.Open(root, opts...)
	if err != nil {
		return nil, err
	}

	return wrap(b)
}

// NewMemory returns a store over an empty in-memory backend.
func NewMemory(opts ...memory.Option) (*store.Store, error) {
	b, err := memory.New(opts...)
	if err != nil {
		return nil, err
	}

	return wrap(b)
}

func wrap(b backend.Backend) (*store.Store, error) {
	st, err := store.New(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	return st, nil
}

// Register adds a schema to measurement.DefaultRegistry, which every store
// created by this package checks reads against.
func Register(s measurement.Schema) error {
	return measurement.DefaultRegistry.Register(s)
}
