// Package memory implements an in-process backend.
//
// The memory backend keeps the tree in maps and applies the same validation,
// dimension binding, sequence coercion and no-overwrite policy as the file
// backends, so it is a fast stand-in for them in tests.
package memory

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/nodepath"
	"github.com/arloliu/measio/value"
)

// Options configures a memory backend.
type Options struct {
	backend.Config
}

// Option configures a memory backend.
type Option = options.Option[*Options]

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(o *Options) {
		o.Logger = logger
	})
}

// WithMetadata sets the store metadata.
func WithMetadata(metadata value.Mapping) Option {
	return options.NoError(func(o *Options) {
		o.Metadata = metadata
	})
}

type storedArray struct {
	data *array.Array
	dims []string
}

type node struct {
	children map[string]*node
	arrays   map[string]storedArray
	others   map[string]value.Value
	dims     backend.Dimensions
}

func newNode() *node {
	return &node{
		children: make(map[string]*node),
		arrays:   make(map[string]storedArray),
		others:   make(map[string]value.Value),
	}
}

func (n *node) has(name string) bool {
	_, child := n.children[name]
	_, arr := n.arrays[name]
	_, other := n.others[name]

	return child || arr || other
}

// Backend is an in-memory store.
type Backend struct {
	lifecycle backend.Lifecycle
	root      *node
	metadata  value.Mapping
	logger    *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New returns an open, empty memory backend.
func New(opts ...Option) (*Backend, error) {
	o := &Options{}
	if err := options.Apply(o, opts...); err != nil {
		return nil, err
	}

	b := &Backend{root: newNode(), logger: o.Log()}
	if o.Metadata != nil {
		md, err := backend.NormalizeOther(b.logger, nodepath.Root, backend.MetadataName, o.Metadata)
		if err != nil {
			return nil, err
		}
		b.metadata = md.(value.Mapping) //nolint:forcetypeassert
		b.root.others[backend.MetadataName] = b.metadata
	}
	if err := b.lifecycle.Open(); err != nil {
		return nil, err
	}
	b.logger.Debug("memory backend created")

	return b, nil
}

func (b *Backend) node(path string) (*node, error) {
	if err := b.lifecycle.Check(); err != nil {
		return nil, err
	}
	segs, err := backend.Resolve(path)
	if err != nil {
		return nil, err
	}

	n := b.root
	for _, s := range segs {
		child, ok := n.children[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrNodeNotFound, path)
		}
		n = child
	}

	return n, nil
}

// CreateNode implements backend.Backend.
func (b *Backend) CreateNode(path string) error {
	if err := b.lifecycle.Check(); err != nil {
		return err
	}
	if nodepath.IsRoot(path) {
		return fmt.Errorf("%w: cannot create the root node", errs.ErrInvalidOperation)
	}
	if err := nodepath.Validate(path); err != nil {
		return err
	}

	parentPath, name := nodepath.Split(path)
	parent, err := b.node(parentPath)
	if err != nil {
		return fmt.Errorf("%w: %q", errs.ErrMissingParent, path)
	}
	if parent.has(name) {
		return fmt.Errorf("%w: node %q", errs.ErrAlreadyExists, path)
	}
	parent.children[name] = newNode()
	b.logger.Debug("node created", "path", path)

	return nil
}

// WriteArray implements backend.Backend.
func (b *Backend) WriteArray(nodePath, name string, a *array.Array, dims []string) error {
	n, err := b.node(nodePath)
	if err != nil {
		return err
	}
	if err := backend.ValidateName(name); err != nil {
		return err
	}
	if n.has(name) {
		return fmt.Errorf("%w: %q in %q", errs.ErrAlreadyExists, name, nodePath)
	}
	if _, err := n.dims.Bind(dims, a.Shape()); err != nil {
		return fmt.Errorf("array %q: %w", name, err)
	}
	n.arrays[name] = storedArray{data: a, dims: slices.Clone(dims)}

	return nil
}

// WriteOther implements backend.Backend.
func (b *Backend) WriteOther(nodePath, name string, v value.Value) error {
	n, err := b.node(nodePath)
	if err != nil {
		return err
	}
	if err := backend.ValidateName(name); err != nil {
		return err
	}
	if n.has(name) {
		return fmt.Errorf("%w: %q in %q", errs.ErrAlreadyExists, name, nodePath)
	}
	stored, err := backend.NormalizeOther(b.logger, nodePath, name, v)
	if err != nil {
		return err
	}
	n.others[name] = stored

	return nil
}

// ReadArray implements backend.Backend.
func (b *Backend) ReadArray(nodePath, name string) (*array.Array, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}
	sa, ok := n.arrays[name]
	if !ok {
		return nil, fmt.Errorf("%w: array %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return sa.data, nil
}

// ArrayDims implements backend.Backend.
func (b *Backend) ArrayDims(nodePath, name string) ([]string, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}
	sa, ok := n.arrays[name]
	if !ok {
		return nil, fmt.Errorf("%w: array %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return slices.Clone(sa.dims), nil
}

// ReadOther implements backend.Backend.
func (b *Backend) ReadOther(nodePath, name string) (value.Value, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}
	v, ok := n.others[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return v, nil
}

// NodeNames implements backend.Backend.
func (b *Backend) NodeNames(nodePath string) ([]string, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}

	return visible(n.children), nil
}

// ArrayNames implements backend.Backend.
func (b *Backend) ArrayNames(nodePath string) ([]string, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}

	return visible(n.arrays), nil
}

// OtherNames implements backend.Backend.
func (b *Backend) OtherNames(nodePath string) ([]string, error) {
	n, err := b.node(nodePath)
	if err != nil {
		return nil, err
	}

	return visible(n.others), nil
}

func visible[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		if !backend.IsReserved(name) {
			names = append(names, name)
		}
	}

	return names
}

// Metadata implements backend.Backend.
func (b *Backend) Metadata() value.Mapping {
	return b.metadata
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	if b.lifecycle.Close() {
		b.root = nil
		b.logger.Debug("memory backend closed")
	}

	return nil
}

// Closed implements backend.Backend.
func (b *Backend) Closed() bool {
	return b.lifecycle.Closed()
}
