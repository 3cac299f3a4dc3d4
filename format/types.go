// Package format defines the element types and compression identifiers shared
// by the physical encodings.
package format

type (
	DType           uint8
	CompressionType uint8
)

const (
	DTypeInvalid    DType = 0x00 // DTypeInvalid marks an unset element type.
	DTypeInt8       DType = 0x01 // DTypeInt8 represents signed 8-bit integers.
	DTypeInt16      DType = 0x02 // DTypeInt16 represents signed 16-bit integers.
	DTypeInt32      DType = 0x03 // DTypeInt32 represents signed 32-bit integers.
	DTypeInt64      DType = 0x04 // DTypeInt64 represents signed 64-bit integers.
	DTypeUint8      DType = 0x05 // DTypeUint8 represents unsigned 8-bit integers.
	DTypeUint16     DType = 0x06 // DTypeUint16 represents unsigned 16-bit integers.
	DTypeUint32     DType = 0x07 // DTypeUint32 represents unsigned 32-bit integers.
	DTypeUint64     DType = 0x08 // DTypeUint64 represents unsigned 64-bit integers.
	DTypeFloat32    DType = 0x09 // DTypeFloat32 represents IEEE-754 single precision floats.
	DTypeFloat64    DType = 0x0A // DTypeFloat64 represents IEEE-754 double precision floats.
	DTypeComplex64  DType = 0x0B // DTypeComplex64 represents pairs of float32.
	DTypeComplex128 DType = 0x0C // DTypeComplex128 represents pairs of float64.
	DTypeString     DType = 0x0D // DTypeString represents variable-length UTF-8 strings.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Size returns the fixed element size in bytes, or 0 for variable-length types.
func (d DType) Size() int {
	switch d {
	case DTypeInt8, DTypeUint8:
		return 1
	case DTypeInt16, DTypeUint16:
		return 2
	case DTypeInt32, DTypeUint32, DTypeFloat32:
		return 4
	case DTypeInt64, DTypeUint64, DTypeFloat64, DTypeComplex64:
		return 8
	case DTypeComplex128:
		return 16
	default:
		return 0
	}
}

// IsComplex reports whether d is a complex type.
func (d DType) IsComplex() bool {
	return d == DTypeComplex64 || d == DTypeComplex128
}

// ComponentType returns the real component type of a complex type, or d itself.
func (d DType) ComponentType() DType {
	switch d {
	case DTypeComplex64:
		return DTypeFloat32
	case DTypeComplex128:
		return DTypeFloat64
	default:
		return d
	}
}

// Valid reports whether d is a known element type.
func (d DType) Valid() bool {
	return d >= DTypeInt8 && d <= DTypeString
}

func (d DType) String() string {
	switch d {
	case DTypeInt8:
		return "int8"
	case DTypeInt16:
		return "int16"
	case DTypeInt32:
		return "int32"
	case DTypeInt64:
		return "int64"
	case DTypeUint8:
		return "uint8"
	case DTypeUint16:
		return "uint16"
	case DTypeUint32:
		return "uint32"
	case DTypeUint64:
		return "uint64"
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	case DTypeComplex64:
		return "complex64"
	case DTypeComplex128:
		return "complex128"
	case DTypeString:
		return "string"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression type.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
