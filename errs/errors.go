// Package errs defines the sentinel errors returned by measio packages.
//
// Call sites wrap these values with additional context using fmt.Errorf and the
// %w verb, so callers should always test with errors.Is:
//
//	if errors.Is(err, errs.ErrDimensionMismatch) {
//	    // shape disagreement on a shared dimension
//	}
package errs

import "errors"

// Node addressing errors.
var (
	// ErrInvalidPath is returned when a node path is malformed.
	ErrInvalidPath = errors.New("invalid node path")
	// ErrInvalidOperation is returned for operations that are never valid, such as creating the root node.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrMissingParent is returned when creating a node whose parent does not exist.
	ErrMissingParent = errors.New("parent node does not exist")
	// ErrNodeNotFound is returned when a node path does not resolve to an existing node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrAlreadyExists is returned when a node, array, value or store already exists.
	ErrAlreadyExists = errors.New("already exists")
)

// Value and array errors.
var (
	// ErrDimensionMismatch is returned when an axis length disagrees with the length bound to its dimension name.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrUnserializableValue is returned when a value cannot be represented by the physical encoder.
	ErrUnserializableValue = errors.New("unserializable value")
	// ErrNameNotFound is returned when reading an attribute that was never written.
	ErrNameNotFound = errors.New("name not found")
	// ErrUnsupportedDType is returned for element types an array or codec cannot handle.
	ErrUnsupportedDType = errors.New("unsupported dtype")
	// ErrInvalidShape is returned when an array shape does not match its element count.
	ErrInvalidShape = errors.New("invalid shape")
)

// Lifecycle errors.
var (
	// ErrClosedResource is returned by every operation on a closed backend.
	ErrClosedResource = errors.New("operation on closed resource")
	// ErrReadOnly is returned when writing through a backend opened read-only.
	ErrReadOnly = errors.New("backend is read-only")
)

// Physical format errors.
var (
	// ErrInvalidHeaderSize is returned when a header is shorter than its fixed size.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidMagicNumber is returned when a file does not start with the expected magic number.
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	// ErrUnsupportedVersion is returned for container files written by a newer format version.
	ErrUnsupportedVersion = errors.New("unsupported format version")
	// ErrCorruptedRecord is returned when a record is truncated or fails its checksum.
	ErrCorruptedRecord = errors.New("corrupted record")
	// ErrInvalidCompression is returned for unknown compression types.
	ErrInvalidCompression = errors.New("invalid compression type")
)

// Measurement errors.
var (
	// ErrUnknownType is returned when a stored type tag is not registered.
	ErrUnknownType = errors.New("unknown measurement type")
	// ErrVersionMismatch is returned when a stored version is newer than the registered one.
	ErrVersionMismatch = errors.New("measurement version mismatch")
)
