// Package measurement defines the in-memory measurement object that the store
// persists: a typed, versioned record of declared arrays, other values and
// nested measurements, plus the registry of known measurement types.
package measurement

import (
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
)

// Names of the fields every measurement carries besides its attributes.
const (
	DescriptionName = "description"
	StateName       = "state"
)

// Location is where a measurement was last written to or read from.
type Location struct {
	Backend backend.Backend
	Path    string
}

// Measurement is a typed record of attributes. Each attribute is either an
// other value, a declared array (value.Array) or a nested measurement.
//
// A Measurement is not safe for concurrent use.
type Measurement struct {
	typeName    string
	version     int
	description string
	state       value.Mapping
	values      map[string]value.Value
	children    map[string]*Measurement
	location    *Location
}

// New returns an empty measurement of the given type and version. The
// description defaults to the type name.
func New(typeName string, version int) *Measurement {
	return &Measurement{
		typeName:    typeName,
		version:     version,
		description: typeName,
		state:       value.Mapping{},
		values:      make(map[string]value.Value),
		children:    make(map[string]*Measurement),
	}
}

// Type returns the type tag.
func (m *Measurement) Type() string {
	return m.typeName
}

// Version returns the type version.
func (m *Measurement) Version() int {
	return m.version
}

// Description returns the free-form description.
func (m *Measurement) Description() string {
	return m.description
}

// SetDescription sets the description.
func (m *Measurement) SetDescription(description string) {
	m.description = description
}

// State returns the state mapping. The returned mapping is owned by m.
func (m *Measurement) State() value.Mapping {
	return m.state
}

// SetState replaces the state mapping. A nil state is stored as an empty mapping.
func (m *Measurement) SetState(state value.Mapping) {
	if state == nil {
		state = value.Mapping{}
	}
	m.state = state
}

// Location returns the last location of m, or nil if m was never stored.
func (m *Measurement) Location() *Location {
	return m.location
}

// SetLocation records where m is stored.
func (m *Measurement) SetLocation(loc *Location) {
	m.location = loc
}

func (m *Measurement) checkName(name string) error {
	if err := backend.ValidateName(name); err != nil {
		return err
	}
	if backend.IsReserved(name) || name == DescriptionName || name == StateName {
		return fmt.Errorf("%w: attribute name %q is reserved", errs.ErrInvalidOperation, name)
	}
	if m.Has(name) {
		return fmt.Errorf("%w: attribute %q", errs.ErrAlreadyExists, name)
	}

	return nil
}

// Set adds an attribute. Nested measurements become children; anything else
// is converted with value.Of.
func (m *Measurement) Set(name string, v any) error {
	if child, ok := v.(*Measurement); ok {
		return m.SetChild(name, child)
	}

	val, err := value.Of(v)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}

	return m.SetValue(name, val)
}

// SetValue adds an attribute holding v.
func (m *Measurement) SetValue(name string, v value.Value) error {
	if err := m.checkName(name); err != nil {
		return err
	}
	if v == nil {
		v = value.Null{}
	}
	if a, ok := v.(value.Array); ok {
		if a.Data == nil {
			return fmt.Errorf("%w: array %q has no data", errs.ErrUnserializableValue, name)
		}
		if len(a.Dims) != a.Data.Rank() {
			return fmt.Errorf("%w: array %q has rank %d and %d dimension names",
				errs.ErrDimensionMismatch, name, a.Data.Rank(), len(a.Dims))
		}
	}
	m.values[name] = v

	return nil
}

// SetArray adds a declared array with one dimension name per axis.
func (m *Measurement) SetArray(name string, a *array.Array, dims ...string) error {
	return m.SetValue(name, value.NewArray(a, dims...))
}

// SetChild adds a nested measurement.
func (m *Measurement) SetChild(name string, child *Measurement) error {
	if err := m.checkName(name); err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("%w: nil child %q", errs.ErrUnserializableValue, name)
	}
	m.children[name] = child

	return nil
}

// Has reports whether m has an attribute or child called name.
func (m *Measurement) Has(name string) bool {
	_, isValue := m.values[name]
	_, isChild := m.children[name]

	return isValue || isChild
}

// Get returns the value of a non-measurement attribute.
func (m *Measurement) Get(name string) (value.Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Array returns a declared array attribute.
func (m *Measurement) Array(name string) (value.Array, bool) {
	a, ok := m.values[name].(value.Array)
	return a, ok
}

// Child returns a nested measurement.
func (m *Measurement) Child(name string) (*Measurement, bool) {
	c, ok := m.children[name]
	return c, ok
}

// Names returns all attribute and child names in sorted order.
func (m *Measurement) Names() []string {
	names := slices.AppendSeq(slices.Collect(maps.Keys(m.values)), maps.Keys(m.children))
	slices.Sort(names)

	return names
}

// Validate checks that declared arrays sharing a dimension name agree on its
// length, then validates every child.
func (m *Measurement) Validate() error {
	var dims backend.Dimensions
	for _, name := range slices.Sorted(maps.Keys(m.values)) {
		a, ok := m.values[name].(value.Array)
		if !ok {
			continue
		}
		if _, err := dims.Bind(a.Dims, a.Data.Shape()); err != nil {
			return fmt.Errorf("%s: array %q: %w", m.typeName, name, err)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(m.children)) {
		if err := m.children[name].Validate(); err != nil {
			return fmt.Errorf("%s.%s: %w", m.typeName, name, err)
		}
	}

	return nil
}

// Equal reports whether a and b hold the same type, version, description,
// state and attributes. NaN equals NaN. Locations are ignored.
func Equal(a, b *Measurement) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typeName != b.typeName || a.version != b.version || a.description != b.description {
		return false
	}
	if !value.Equal(a.state, b.state) || len(a.values) != len(b.values) || len(a.children) != len(b.children) {
		return false
	}
	for name, v := range a.values {
		w, ok := b.values[name]
		if !ok || !value.Equal(v, w) {
			return false
		}
	}
	for name, c := range a.children {
		d, ok := b.children[name]
		if !ok || !Equal(c, d) {
			return false
		}
	}

	return true
}

// Native returns m as plain Go values, keyed by attribute name plus the type,
// version, description and state. Nested measurements are converted
// recursively.
func (m *Measurement) Native() map[string]any {
	out := make(map[string]any, len(m.values)+len(m.children)+4)
	out[backend.ClassName] = m.typeName
	out[backend.VersionName] = int64(m.version)
	out[DescriptionName] = m.description
	out[StateName] = value.Native(m.state)
	for name, v := range m.values {
		out[name] = value.Native(v)
	}
	for name, c := range m.children {
		out[name] = c.Native()
	}

	return out
}
