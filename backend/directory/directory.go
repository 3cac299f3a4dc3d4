// Package directory implements a backend that maps the tree onto a directory
// hierarchy of NPY and JSON files.
//
// Every node is a directory. Declared arrays are "<name>.npy" files, other
// scalars and sequences are JSON files named "<name>", and mappings are
// "<name>.dict" sub-directories holding one entry per key. Every node also
// keeps a "_dimensions" JSON file with the lengths bound to its dimension
// names and the dimension names of each array.
//
// Files are created exclusively: writing a name that a node already holds
// fails with errs.ErrAlreadyExists and never replaces data.
package directory

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/encoding"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/internal/options"
	"github.com/arloliu/measio/nodepath"
	"github.com/arloliu/measio/value"
)

// Extension is the conventional extension of store directories. It is not enforced.
const Extension = ".npj"

// Backend is a directory store.
type Backend struct {
	lifecycle backend.Lifecycle
	root      string
	memoryMap bool
	mapped    map[*MappedArray]struct{}
	metadata  value.Mapping
	logger    *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// Exists reports whether root is an existing directory.
func Exists(root string) bool {
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

// Open opens an existing store directory.
func Open(root string, opts ...Option) (*Backend, error) {
	b, _, err := newBackend(root, opts)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(b.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", errs.ErrInvalidOperation, b.root)
	}

	data, err := os.ReadFile(filepath.Join(b.root, backend.MetadataName))
	switch {
	case err == nil:
		v, err := encoding.UnmarshalValue(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", backend.MetadataName, err)
		}
		md, ok := v.(value.Mapping)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", errs.ErrCorruptedRecord, backend.MetadataName)
		}
		b.metadata = md
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := b.lifecycle.Open(); err != nil {
		return nil, err
	}
	b.logger.Debug("directory store opened", "root", b.root, "memory_map", b.memoryMap)

	return b, nil
}

// Create creates a new store directory. It fails with errs.ErrAlreadyExists
// when root exists.
func Create(root string, opts ...Option) (*Backend, error) {
	b, o, err := newBackend(root, opts)
	if err != nil {
		return nil, err
	}

	var md value.Value
	if o.Metadata != nil {
		// validate before anything touches the file system
		if md, err = backend.NormalizeOther(b.logger, nodepath.Root, backend.MetadataName, o.Metadata); err != nil {
			return nil, err
		}
		if err = checkJSON(md); err != nil {
			return nil, err
		}
	}

	if err := os.Mkdir(b.root, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrAlreadyExists, b.root)
		}

		return nil, err
	}
	if md != nil {
		data, err := encoding.MarshalValue(md)
		if err != nil {
			return nil, err
		}
		if err := createFile(filepath.Join(b.root, backend.MetadataName), data); err != nil {
			return nil, err
		}
		b.metadata = md.(value.Mapping) //nolint:forcetypeassert
	}

	if err := b.lifecycle.Open(); err != nil {
		return nil, err
	}
	b.logger.Debug("directory store created", "root", b.root)

	return b, nil
}

// OpenOrCreate opens root when it exists and creates it otherwise.
func OpenOrCreate(root string, opts ...Option) (*Backend, error) {
	if Exists(root) {
		return Open(root, opts...)
	}

	return Create(root, opts...)
}

func newBackend(root string, opts []Option) (*Backend, *Options, error) {
	o := &Options{}
	if err := options.Apply(o, opts...); err != nil {
		return nil, nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	return &Backend{
		root:      abs,
		memoryMap: o.MemoryMap,
		mapped:    make(map[*MappedArray]struct{}),
		logger:    o.Log(),
	}, o, nil
}

// Root returns the absolute path of the store directory.
func (b *Backend) Root() string {
	return b.root
}

// dir returns the directory of an existing node.
func (b *Backend) dir(nodePath string) (string, error) {
	if err := b.lifecycle.Check(); err != nil {
		return "", err
	}
	segs, err := backend.Resolve(nodePath)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(append([]string{b.root}, segs...)...)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", errs.ErrNodeNotFound, nodePath)
	}

	return dir, nil
}

// taken reports whether the external name is used by any entry in dir.
func taken(dir, name string) bool {
	for _, stored := range []string{name, name + encoding.NPYExtension, backend.MappingName(name)} {
		if _, err := os.Lstat(filepath.Join(dir, stored)); err == nil {
			return true
		}
	}

	return false
}

// createFile writes data to a new file and fails if path exists.
func createFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, path)
		}

		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return err
	}

	return f.Close()
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
	parent, err := b.dir(parentPath)
	if err != nil {
		return fmt.Errorf("%w: %q", errs.ErrMissingParent, path)
	}
	if taken(parent, name) {
		return fmt.Errorf("%w: node %q", errs.ErrAlreadyExists, path)
	}
	if err := os.Mkdir(filepath.Join(parent, name), 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: node %q", errs.ErrAlreadyExists, path)
		}

		return err
	}
	b.logger.Debug("node created", "path", path)

	return nil
}

func (b *Backend) target(nodePath, name string) (string, error) {
	dir, err := b.dir(nodePath)
	if err != nil {
		return "", err
	}
	if err := backend.ValidateName(name); err != nil {
		return "", err
	}
	if taken(dir, name) {
		return "", fmt.Errorf("%w: %q in %q", errs.ErrAlreadyExists, name, nodePath)
	}

	return dir, nil
}

// WriteArray implements backend.Backend.
func (b *Backend) WriteArray(nodePath, name string, a *array.Array, dims []string) error {
	dir, err := b.target(nodePath, name)
	if err != nil {
		return err
	}

	table, err := loadDimensions(dir)
	if err != nil {
		return err
	}
	if _, err := table.dims.Bind(dims, a.Shape()); err != nil {
		return fmt.Errorf("array %q: %w", name, err)
	}

	path := filepath.Join(dir, name+encoding.NPYExtension)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, path)
		}

		return err
	}
	if err := encoding.WriteNPY(f, a); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	table.arrays[name] = dims

	return table.save(dir)
}

// WriteOther implements backend.Backend.
func (b *Backend) WriteOther(nodePath, name string, v value.Value) error {
	dir, err := b.target(nodePath, name)
	if err != nil {
		return err
	}
	stored, err := backend.NormalizeOther(b.logger, nodePath, name, v)
	if err != nil {
		return err
	}
	if err := checkJSON(stored); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return writeOther(dir, name, stored)
}

// checkJSON reports the first leaf of v that has no JSON form.
func checkJSON(v value.Value) error {
	if m, ok := v.(value.Mapping); ok {
		for _, k := range m.Keys() {
			if err := checkJSON(m[k]); err != nil {
				return err
			}
		}

		return nil
	}
	_, err := encoding.MarshalValue(v)

	return err
}

func writeOther(dir, name string, v value.Value) error {
	m, ok := v.(value.Mapping)
	if !ok {
		data, err := encoding.MarshalValue(v)
		if err != nil {
			return err
		}

		return createFile(filepath.Join(dir, name), data)
	}

	sub := filepath.Join(dir, backend.MappingName(name))
	if err := os.Mkdir(sub, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, sub)
		}

		return err
	}
	for _, k := range m.Keys() {
		if err := writeOther(sub, k, m[k]); err != nil {
			return err
		}
	}

	return nil
}

// ReadArray implements backend.Backend.
func (b *Backend) ReadArray(nodePath, name string) (*array.Array, error) {
	if b.memoryMap {
		m, err := b.OpenMapped(nodePath, name)
		if err != nil {
			return nil, err
		}
		defer m.Close()

		return m.Array()
	}

	path, err := b.arrayPath(nodePath, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return encoding.DecodeNPY(data)
}

// OpenMapped maps the array stored under name. The caller must close the
// returned handle; Close on the backend releases it otherwise.
func (b *Backend) OpenMapped(nodePath, name string) (*MappedArray, error) {
	path, err := b.arrayPath(nodePath, name)
	if err != nil {
		return nil, err
	}

	data, release, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	h, err := encoding.ParseNPYHeader(data)
	if err != nil {
		_ = release(data)
		return nil, err
	}

	m := &MappedArray{owner: b, name: name, header: h, data: data, release: release}
	b.mapped[m] = struct{}{}

	return m, nil
}

func (b *Backend) arrayPath(nodePath, name string) (string, error) {
	dir, err := b.dir(nodePath)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+encoding.NPYExtension)
	if info, err := os.Stat(path); !nodepath.ValidName(name) || err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: array %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return path, nil
}

// ArrayDims implements backend.Backend.
func (b *Backend) ArrayDims(nodePath, name string) ([]string, error) {
	if _, err := b.arrayPath(nodePath, name); err != nil {
		return nil, err
	}
	dir, err := b.dir(nodePath)
	if err != nil {
		return nil, err
	}

	table, err := loadDimensions(dir)
	if err != nil {
		return nil, err
	}
	dims, ok := table.arrayDims(name)
	if !ok {
		return nil, fmt.Errorf("%w: no dimensions recorded for array %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return dims, nil
}

// ReadOther implements backend.Backend.
func (b *Backend) ReadOther(nodePath, name string) (value.Value, error) {
	dir, err := b.dir(nodePath)
	if err != nil {
		return nil, err
	}
	if !nodepath.ValidName(name) {
		return nil, fmt.Errorf("%w: %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	if info, err := os.Stat(filepath.Join(dir, backend.MappingName(name))); err == nil && info.IsDir() {
		return readMapping(filepath.Join(dir, backend.MappingName(name)))
	}
	v, err := readValue(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q in %q", errs.ErrNameNotFound, name, nodePath)
	}

	return v, err
}

func readValue(path string) (value.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fs.ErrNotExist
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := encoding.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}

func readMapping(dir string) (value.Mapping, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := make(value.Mapping, len(entries))
	for _, e := range entries {
		switch {
		case e.IsDir():
			name, ok := backend.StripMapping(e.Name())
			if !ok {
				continue
			}
			sub, err := readMapping(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, err
			}
			m[name] = sub
		case e.Type().IsRegular():
			v, err := readValue(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, err
			}
			m[e.Name()] = v
		}
	}

	return m, nil
}

// NodeNames implements backend.Backend.
func (b *Backend) NodeNames(nodePath string) ([]string, error) {
	return b.names(nodePath, func(e fs.DirEntry) (string, bool) {
		if !e.IsDir() || strings.HasSuffix(e.Name(), backend.MappingSuffix) {
			return "", false
		}

		return e.Name(), true
	})
}

// ArrayNames implements backend.Backend.
func (b *Backend) ArrayNames(nodePath string) ([]string, error) {
	return b.names(nodePath, func(e fs.DirEntry) (string, bool) {
		if !e.Type().IsRegular() {
			return "", false
		}

		return strings.CutSuffix(e.Name(), encoding.NPYExtension)
	})
}

// OtherNames implements backend.Backend.
func (b *Backend) OtherNames(nodePath string) ([]string, error) {
	return b.names(nodePath, func(e fs.DirEntry) (string, bool) {
		if e.IsDir() {
			return backend.StripMapping(e.Name())
		}
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), encoding.NPYExtension) {
			return "", false
		}

		return e.Name(), true
	})
}

// names lists the visible entries of a node accepted by pick, sorted by
// external name.
func (b *Backend) names(nodePath string, pick func(fs.DirEntry) (string, bool)) ([]string, error) {
	dir, err := b.dir(nodePath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		name, ok := pick(e)
		if ok && !backend.IsReserved(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	return names, nil
}

// Metadata implements backend.Backend.
func (b *Backend) Metadata() value.Mapping {
	return b.metadata
}

// Close implements backend.Backend. It releases every outstanding mapping.
func (b *Backend) Close() error {
	if !b.lifecycle.Close() {
		return nil
	}

	var errList []error
	for m := range b.mapped {
		errList = append(errList, m.Close())
	}
	b.logger.Debug("directory store closed", "root", b.root, "released_mappings", len(errList))

	return errors.Join(errList...)
}

// Closed implements backend.Backend.
func (b *Backend) Closed() bool {
	return b.lifecycle.Closed()
}
