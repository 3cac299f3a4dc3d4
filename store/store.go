// Package store writes measurements to a backend and reads them back.
//
// A measurement is written to its own node: nested measurements become child
// nodes, declared arrays are written with their dimension names, and every
// other attribute is written as an other value. Each node also records the
// description, the state, and the reserved class and version names that
// identify the measurement type on read.
package store

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/measurement"
	"github.com/arloliu/measio/nodepath"
	"github.com/arloliu/measio/value"
)

// Store reads and writes measurements through a backend.
type Store struct {
	backend  backend.Backend
	registry *measurement.Registry
	logger   *slog.Logger
}

// New returns a store over b. The store owns b and closes it on Close.
func New(b backend.Backend, opts ...Option) (*Store, error) {
	o := &Options{Registry: measurement.DefaultRegistry}
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{backend: b, registry: o.Registry, logger: logger}, nil
}

// Backend returns the underlying backend.
func (s *Store) Backend() backend.Backend {
	return s.backend
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Closed reports whether the backend is closed.
func (s *Store) Closed() bool {
	return s.backend.Closed()
}

// path returns the node path of the top-level name; "" and "/" are the root.
func path(name string) (string, error) {
	if nodepath.IsRoot(name) {
		return nodepath.Root, nil
	}
	p := nodepath.Join(nodepath.Root, name)
	if err := nodepath.Validate(p); err != nil {
		return "", err
	}

	return p, nil
}

// Write stores m under name and records the location of m and every nested
// measurement. m is validated first, so a measurement with inconsistent
// dimensions writes nothing.
func (s *Store) Write(m *measurement.Measurement, name string) error {
	p, err := path(name)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	return s.write(m, p)
}

func (s *Store) write(m *measurement.Measurement, p string) error {
	if !nodepath.IsRoot(p) {
		if err := s.backend.CreateNode(p); err != nil {
			return err
		}
	}

	for _, name := range m.Names() {
		if child, ok := m.Child(name); ok {
			if err := s.write(child, nodepath.Join(p, name)); err != nil {
				return err
			}

			continue
		}

		v, _ := m.Get(name)
		var err error
		if a, ok := v.(value.Array); ok {
			err = s.backend.WriteArray(p, name, a.Data, a.Dims)
		} else {
			err = s.backend.WriteOther(p, name, v)
		}
		if err != nil {
			return fmt.Errorf("%s %q: %w", m.Type(), nodepath.Join(p, name), err)
		}
	}

	for _, attr := range []struct {
		name string
		v    value.Value
	}{
		{measurement.DescriptionName, value.Text(m.Description())},
		{measurement.StateName, m.State()},
		{backend.ClassName, value.Text(m.Type())},
		{backend.VersionName, value.Int(m.Version())},
	} {
		if err := s.backend.WriteOther(p, attr.name, attr.v); err != nil {
			return fmt.Errorf("%s %q: %w", m.Type(), nodepath.Join(p, attr.name), err)
		}
	}

	m.SetLocation(&measurement.Location{Backend: s.backend, Path: p})
	s.logger.Debug("measurement written", "path", p, "type", m.Type(), "version", m.Version())

	return nil
}

// Read rebuilds the measurement stored under name. Unless WithForce is
// given, its type must be registered and it must pass the schema check.
func (s *Store) Read(name string, opts ...ReadOption) (*measurement.Measurement, error) {
	p, err := path(name)
	if err != nil {
		return nil, err
	}
	o := &readOptions{}
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}

	return s.read(p, o.force)
}

func (s *Store) read(p string, force bool) (*measurement.Measurement, error) {
	typeName, version, err := s.class(p)
	if err != nil {
		return nil, err
	}
	m := measurement.New(typeName, version)

	nodes, err := s.backend.NodeNames(p)
	if err != nil {
		return nil, err
	}
	for _, name := range nodes {
		child, err := s.read(nodepath.Join(p, name), force)
		if err != nil {
			return nil, err
		}
		if err := m.SetChild(name, child); err != nil {
			return nil, err
		}
	}

	arrays, err := s.backend.ArrayNames(p)
	if err != nil {
		return nil, err
	}
	for _, name := range arrays {
		a, err := s.backend.ReadArray(p, name)
		if err != nil {
			return nil, err
		}
		dims, err := s.backend.ArrayDims(p, name)
		if err != nil {
			return nil, err
		}
		if err := m.SetArray(name, a, dims...); err != nil {
			return nil, err
		}
	}

	others, err := s.backend.OtherNames(p)
	if err != nil {
		return nil, err
	}
	for _, name := range others {
		v, err := s.backend.ReadOther(p, name)
		if err != nil {
			return nil, err
		}
		if err := s.setOther(m, p, name, v); err != nil {
			return nil, err
		}
	}

	if !force {
		schema, err := s.registry.Lookup(typeName)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		if err := schema.Check(m); err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
	}

	m.SetLocation(&measurement.Location{Backend: s.backend, Path: p})
	s.logger.Debug("measurement read", "path", p, "type", typeName, "version", version, "forced", force)

	return m, nil
}

// class reads the type tag and version of the measurement at p.
func (s *Store) class(p string) (string, int, error) {
	tag, err := s.backend.ReadOther(p, backend.ClassName)
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a measurement: %w", p, err)
	}
	typeName, ok := tag.(value.Text)
	if !ok {
		return "", 0, fmt.Errorf("%w: %q has class %v", errs.ErrCorruptedRecord, p, tag)
	}

	ver, err := s.backend.ReadOther(p, backend.VersionName)
	if err != nil {
		return "", 0, fmt.Errorf("%q has no version: %w", p, err)
	}
	version, ok := ver.(value.Int)
	if !ok {
		return "", 0, fmt.Errorf("%w: %q has version %v", errs.ErrCorruptedRecord, p, ver)
	}

	return string(typeName), int(version), nil
}

func (s *Store) setOther(m *measurement.Measurement, p, name string, v value.Value) error {
	switch name {
	case measurement.DescriptionName:
		text, ok := v.(value.Text)
		if !ok {
			return fmt.Errorf("%w: %q has description %v", errs.ErrCorruptedRecord, p, v)
		}
		m.SetDescription(string(text))
	case measurement.StateName:
		state, ok := v.(value.Mapping)
		if !ok {
			return fmt.Errorf("%w: %q has state %v", errs.ErrCorruptedRecord, p, v)
		}
		m.SetState(state)
	default:
		return m.SetValue(name, v)
	}

	return nil
}
