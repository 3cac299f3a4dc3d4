package directory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/encoding"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
)

// Keys of the per-node dimension table.
const (
	tableLengths = "lengths"
	tableArrays  = "arrays"
)

// dimensionTable is the content of a node's _dimensions file: the bound
// dimension lengths and the dimension names of every array.
type dimensionTable struct {
	dims   backend.Dimensions
	arrays map[string][]string
}

func loadDimensions(dir string) (*dimensionTable, error) {
	t := &dimensionTable{arrays: make(map[string][]string)}

	data, err := os.ReadFile(filepath.Join(dir, backend.DimensionsName))
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	v, err := encoding.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", backend.DimensionsName, err)
	}
	m, ok := v.(value.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", errs.ErrCorruptedRecord, backend.DimensionsName)
	}

	lengths, _ := m[tableLengths].(value.Mapping)
	for _, name := range lengths.Keys() {
		n, ok := lengths[name].(value.Int)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%w: dimension %q has length %v", errs.ErrCorruptedRecord, name, lengths[name])
		}
		if err := t.dims.Set(name, int(n)); err != nil {
			return nil, err
		}
	}

	arrays, _ := m[tableArrays].(value.Mapping)
	for name, entry := range arrays {
		seq, ok := entry.(value.Sequence)
		if !ok {
			return nil, fmt.Errorf("%w: dimensions of %q are not a list", errs.ErrCorruptedRecord, name)
		}
		dims := make([]string, len(seq))
		for i, e := range seq {
			s, ok := e.(value.Text)
			if !ok {
				return nil, fmt.Errorf("%w: dimension %d of %q is not a name", errs.ErrCorruptedRecord, i, name)
			}
			dims[i] = string(s)
		}
		t.arrays[name] = dims
	}

	return t, nil
}

// save replaces the _dimensions file of dir.
func (t *dimensionTable) save(dir string) error {
	lengths := make(value.Mapping, t.dims.Len())
	for _, name := range t.dims.Names() {
		n, _ := t.dims.Length(name)
		lengths[name] = value.Int(n)
	}
	arrays := make(value.Mapping, len(t.arrays))
	for name, dims := range t.arrays {
		seq := make(value.Sequence, len(dims))
		for i, d := range dims {
			seq[i] = value.Text(d)
		}
		arrays[name] = seq
	}

	data, err := encoding.MarshalValue(value.Mapping{tableLengths: lengths, tableArrays: arrays})
	if err != nil {
		return err
	}

	return replaceFile(filepath.Join(dir, backend.DimensionsName), data)
}

func (t *dimensionTable) arrayDims(name string) ([]string, bool) {
	dims, ok := t.arrays[name]
	return slices.Clone(dims), ok
}

// replaceFile writes data to a temporary file next to path and renames it over path.
func replaceFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)

		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
