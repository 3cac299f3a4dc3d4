package measurement

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/arloliu/measio/errs"
)

// Schema describes a registered measurement type.
type Schema struct {
	// Type is the type tag written as the class of every stored node.
	Type string
	// Version is the newest version readers of this type understand.
	Version int
	// Dimensions maps declared array attributes to their dimension names.
	Dimensions map[string][]string
}

// Check validates m against the schema: the version must not be newer and
// every declared array named by the schema must carry the declared
// dimension names.
func (s Schema) Check(m *Measurement) error {
	if m.Version() > s.Version {
		return fmt.Errorf("%w: %s version %d is newer than registered version %d",
			errs.ErrVersionMismatch, s.Type, m.Version(), s.Version)
	}
	for _, name := range slices.Sorted(maps.Keys(s.Dimensions)) {
		a, ok := m.Array(name)
		if !ok {
			continue
		}
		if !slices.Equal(a.Dims, s.Dimensions[name]) {
			return fmt.Errorf("%w: %s array %q has dimensions %v, want %v",
				errs.ErrDimensionMismatch, s.Type, name, a.Dims, s.Dimensions[name])
		}
	}

	return nil
}

// Registry maps type tags to schemas. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds s, replacing any schema registered under the same type.
func (r *Registry) Register(s Schema) error {
	if s.Type == "" {
		return fmt.Errorf("%w: schema without a type", errs.ErrInvalidOperation)
	}
	if s.Version < 0 {
		return fmt.Errorf("%w: %s has negative version %d", errs.ErrInvalidOperation, s.Type, s.Version)
	}

	dims := make(map[string][]string, len(s.Dimensions))
	for name, d := range s.Dimensions {
		dims[name] = slices.Clone(d)
	}
	s.Dimensions = dims

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Type] = s

	return nil
}

// Lookup returns the schema registered for typeName.
func (r *Registry) Lookup(typeName string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[typeName]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", errs.ErrUnknownType, typeName)
	}

	return s, nil
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.schemas))
}

// DefaultRegistry is the registry used by stores created without one.
var DefaultRegistry = NewRegistry()
