// Package encoding implements the physical encodings of arrays and other values.
//
//   - Raw: the element payload of a typed array, in a chosen byte order. Fixed
//     size elements are packed back to back; strings are uvarint length
//     prefixed. Used by the columnar container.
//   - NPY: the self-describing NumPy .npy file format (version 1.0 written,
//     1.0 through 3.0 read). Used by the directory backend for arrays.
//   - JSON: scalars, sequences and mappings as JSON text, keeping the
//     distinction between integers and floats. Used by the directory backend
//     for other values.
package encoding
