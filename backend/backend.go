// Package backend defines the storage contract shared by every physical store
// and the helpers the stores have in common.
//
// A backend addresses a tree of nodes by slash-delimited paths (see package
// nodepath). Each node holds three disjoint kinds of names:
//
//   - child nodes, created with CreateNode;
//   - arrays, declared with one dimension name per axis and written with WriteArray;
//   - other values (scalars, sequences and mappings) written with WriteOther.
//
// Mappings and undeclared sequences need their own storage entity. They are
// stored under the mangled names "<name>.dict" and "<name>.list", and the
// suffix is stripped again on enumeration, so NodeNames, ArrayNames and
// OtherNames partition every name written to a node. Names starting with an
// underscore are reserved for bookkeeping and are never enumerated.
package backend

import (
	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/value"
)

// Backend is a tree-structured store for measurement objects.
//
// Implementations are not safe for concurrent use. Every method except Close,
// Closed and Metadata returns an error wrapping errs.ErrClosedResource once the
// backend has been closed.
type Backend interface {
	// CreateNode creates the node at path. Creating the root fails with
	// errs.ErrInvalidOperation, a missing parent with errs.ErrMissingParent and
	// an existing node with errs.ErrAlreadyExists.
	CreateNode(path string) error

	// WriteArray stores a under name at the node, binding each dimension name
	// that the node does not know yet to the matching axis length. A dimension
	// bound to another length fails with errs.ErrDimensionMismatch before
	// anything is written.
	WriteArray(nodePath, name string, a *array.Array, dims []string) error

	// WriteOther stores a scalar, sequence or mapping under name at the node.
	WriteOther(nodePath, name string, v value.Value) error

	// ReadArray returns the array stored under name.
	ReadArray(nodePath, name string) (*array.Array, error)

	// ArrayDims returns the dimension names the array under name was written with.
	ArrayDims(nodePath, name string) ([]string, error)

	// ReadOther returns the other value stored under name, or an error wrapping
	// errs.ErrNameNotFound.
	ReadOther(nodePath, name string) (value.Value, error)

	// NodeNames returns the sorted names of the child nodes, excluding mappings.
	NodeNames(nodePath string) ([]string, error)

	// ArrayNames returns the sorted names of the declared arrays, excluding sequences.
	ArrayNames(nodePath string) ([]string, error)

	// OtherNames returns the sorted names of the scalars, sequences and mappings.
	OtherNames(nodePath string) ([]string, error)

	// Metadata returns the metadata the store was created with.
	Metadata() value.Mapping

	// Close releases the store. It is idempotent.
	Close() error

	// Closed reports whether Close has been called.
	Closed() bool
}
