package directory

import (
	"fmt"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/encoding"
	"github.com/arloliu/measio/errs"
)

// MappedArray is a memory-mapped .npy file. It must be closed to release the
// mapping; closing the backend releases every mapping it still owns.
type MappedArray struct {
	owner   *Backend
	name    string
	header  encoding.NPYHeader
	data    []byte
	release func([]byte) error
}

// Name returns the array name.
func (m *MappedArray) Name() string {
	return m.name
}

// Header returns the parsed NPY header.
func (m *MappedArray) Header() encoding.NPYHeader {
	return m.header
}

// Bytes returns the mapped element data. The slice is only valid until Close.
func (m *MappedArray) Bytes() []byte {
	if m.data == nil {
		return nil
	}

	return m.data[m.header.DataOffset:]
}

// Array decodes the mapped file into a new array that does not reference the mapping.
func (m *MappedArray) Array() (*array.Array, error) {
	if m.data == nil {
		return nil, fmt.Errorf("%w: mapped array %q", errs.ErrClosedResource, m.name)
	}

	return encoding.DecodeNPY(m.data)
}

// Closed reports whether the mapping has been released.
func (m *MappedArray) Closed() bool {
	return m.data == nil
}

// Close releases the mapping. It is idempotent.
func (m *MappedArray) Close() error {
	if m.data == nil {
		return nil
	}

	data := m.data
	m.data = nil
	if m.owner != nil {
		delete(m.owner.mapped, m)
	}

	return m.release(data)
}
