package backend

import (
	"fmt"
	"slices"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/nodepath"
)

// Dimensions is the per-node registry of dimension names and their bound lengths.
//
// The zero value is ready to use.
type Dimensions struct {
	lengths map[string]int
	order   []string
}

// NewDimensions returns an empty registry.
func NewDimensions() *Dimensions {
	return &Dimensions{}
}

// Check validates dims against shape without binding anything.
//
// It fails with errs.ErrDimensionMismatch when the number of names differs from
// the rank, when a name is not a valid node name, when a name is already bound
// to another length, or when the same name appears twice in dims with
// different axis lengths. Mangled names are never valid, so declared arrays
// cannot share the private dimension of a sequence.
func (d *Dimensions) Check(dims []string, shape []int) error {
	if len(dims) != len(shape) {
		return fmt.Errorf("%w: %d dimension names for an array of rank %d", errs.ErrDimensionMismatch, len(dims), len(shape))
	}

	pending := make(map[string]int, len(dims))
	for i, name := range dims {
		if !nodepath.ValidName(name) {
			return fmt.Errorf("%w: invalid dimension name %q for axis %d", errs.ErrDimensionMismatch, name, i)
		}
		want, ok := d.lengths[name]
		if !ok {
			want, ok = pending[name]
		}
		if ok && want != shape[i] {
			return fmt.Errorf("%w: dimension %q has length %d, axis %d has length %d",
				errs.ErrDimensionMismatch, name, want, i, shape[i])
		}
		pending[name] = shape[i]
	}

	return nil
}

// CheckPrivate validates binding the private dimension of a sequence. name
// must be a mangled sequence name that is not bound yet.
func (d *Dimensions) CheckPrivate(name string, length int) error {
	if _, ok := StripSequence(name); !ok {
		return fmt.Errorf("%w: %q is not a sequence dimension", errs.ErrInvalidOperation, name)
	}
	if length < 0 {
		return fmt.Errorf("%w: sequence dimension %q has length %d", errs.ErrDimensionMismatch, name, length)
	}
	if _, ok := d.lengths[name]; ok {
		return fmt.Errorf("%w: sequence dimension %q", errs.ErrAlreadyExists, name)
	}

	return nil
}

// Bind validates dims against shape and binds every new name. It returns the
// names that were bound by this call, in axis order. On error nothing is bound.
func (d *Dimensions) Bind(dims []string, shape []int) ([]string, error) {
	if err := d.Check(dims, shape); err != nil {
		return nil, err
	}

	var added []string
	for i, name := range dims {
		if _, ok := d.lengths[name]; ok {
			continue
		}
		d.set(name, shape[i])
		added = append(added, name)
	}

	return added, nil
}

// Set binds name to length, as when replaying a stored dimension table.
func (d *Dimensions) Set(name string, length int) error {
	if want, ok := d.lengths[name]; ok && want != length {
		return fmt.Errorf("%w: dimension %q has length %d, not %d", errs.ErrDimensionMismatch, name, want, length)
	}
	d.set(name, length)

	return nil
}

func (d *Dimensions) set(name string, length int) {
	if d.lengths == nil {
		d.lengths = make(map[string]int)
	}
	if _, ok := d.lengths[name]; !ok {
		d.order = append(d.order, name)
	}
	d.lengths[name] = length
}

// Length returns the length bound to name.
func (d *Dimensions) Length(name string) (int, bool) {
	n, ok := d.lengths[name]
	return n, ok
}

// Names returns the bound names in binding order.
func (d *Dimensions) Names() []string {
	return slices.Clone(d.order)
}

// Len returns the number of bound names.
func (d *Dimensions) Len() int {
	return len(d.order)
}
