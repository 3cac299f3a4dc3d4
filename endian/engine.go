// Package endian provides byte order engines for the binary encodings.
//
// An EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so the
// array payload codec can both decode in place and append without temporary
// buffers. The container format and the NPY codec record the byte order they
// were written with, so readers pick the matching engine through FromMarker.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Byte order markers, as used by NPY dtype descriptors.
const (
	LittleMarker = '<'
	BigMarker    = '>'
	NoneMarker   = '|' // single-byte types have no byte order
)

// CheckEndianness determines the host's byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == EndianEngine(binary.BigEndian)
}

// Marker returns the NPY-style byte order marker for engine.
func Marker(engine EndianEngine) byte {
	if IsBigEndian(engine) {
		return BigMarker
	}

	return LittleMarker
}

// FromMarker returns the engine for an NPY-style byte order marker.
// The "not applicable" marker and '=' (native) resolve to the host order.
func FromMarker(marker byte) (EndianEngine, bool) {
	switch marker {
	case LittleMarker:
		return GetLittleEndianEngine(), true
	case BigMarker:
		return GetBigEndianEngine(), true
	case NoneMarker, '=':
		if IsNativeLittleEndian() {
			return GetLittleEndianEngine(), true
		}

		return GetBigEndianEngine(), true
	default:
		return nil, false
	}
}
