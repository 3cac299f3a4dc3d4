package directory

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/backend/backendtest"
	"github.com/arloliu/measio/encoding"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
	"github.com/stretchr/testify/require"
)

func factory(opts ...Option) backendtest.Factory {
	return backendtest.Factory{
		New: func(t *testing.T) backend.Backend {
			b, err := Create(filepath.Join(t.TempDir(), "store"+Extension), opts...)
			require.NoError(t, err)

			return b
		},
		Reopen: func(t *testing.T, b backend.Backend) backend.Backend {
			root := b.(*Backend).Root() //nolint:forcetypeassert
			require.NoError(t, b.Close())

			reopened, err := Open(root, opts...)
			require.NoError(t, err)

			return reopened
		},
	}
}

func TestConformance(t *testing.T) {
	backendtest.Run(t, factory())
}

func TestConformanceMemoryMap(t *testing.T) {
	backendtest.Run(t, factory(WithMemoryMap()))
}

func newStore(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b, err := Create(filepath.Join(t.TempDir(), "store"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return b
}

func TestLayout(t *testing.T) {
	b := newStore(t)

	require.NoError(t, b.CreateNode("/sweep"))
	require.NoError(t, b.WriteArray("/sweep", "freq", array.MustNew([]float64{1, 2, 3}), []string{"freq"}))
	require.NoError(t, b.WriteOther("/sweep", "gain", value.Float(1.5)))
	require.NoError(t, b.WriteOther("/sweep", "flags", value.Sequence{value.Bool(true), value.Bool(false)}))
	require.NoError(t, b.WriteOther("/sweep", "info", value.Mapping{
		"operator": value.Text("lab"),
		"nested":   value.Mapping{"n": value.Int(3)},
	}))

	dir := filepath.Join(b.Root(), "sweep")
	tests := []struct {
		file string
		want string
	}{
		{file: "gain", want: "1.5"},
		{file: "flags", want: "[true, false]"},
		{file: "info.dict/operator", want: `"lab"`},
		{file: "info.dict/nested.dict/n", want: "3"},
		{file: backend.DimensionsName, want: `{"arrays": {"freq": ["freq"]}, "lengths": {"freq": 3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			require.NoError(t, err)
			require.Equal(t, tt.want, string(data))
		})
	}

	f, err := os.Open(filepath.Join(dir, "freq"+encoding.NPYExtension))
	require.NoError(t, err)
	defer f.Close()
	a, err := encoding.ReadNPY(f)
	require.NoError(t, err)
	require.True(t, array.MustNew([]float64{1, 2, 3}).Equal(a))
}

func TestNonFiniteScalar(t *testing.T) {
	b := newStore(t)

	tests := map[string]value.Value{
		"nan":      value.Float(math.NaN()),
		"inf":      value.Float(math.Inf(-1)),
		"in_list":  value.Sequence{value.Float(1), value.Float(math.Inf(1))},
		"in_dict":  value.Mapping{"ok": value.Int(1), "bad": value.Float(math.NaN())},
		"deep_map": value.Mapping{"m": value.Mapping{"bad": value.Float(math.NaN())}},
	}
	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, b.WriteOther("/", name, v), errs.ErrUnserializableValue)

			_, err := os.Lstat(filepath.Join(b.Root(), name))
			require.ErrorIs(t, err, os.ErrNotExist)
			_, err = os.Lstat(filepath.Join(b.Root(), backend.MappingName(name)))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestInvalidUTF8(t *testing.T) {
	b := newStore(t)

	others := map[string]value.Value{
		"text":    value.Text("a\xffb"),
		"in_list": value.Sequence{value.Text("ok"), value.Text("\xc3")},
		"in_dict": value.Mapping{"ok": value.Int(1), "bad": value.Text("\xfe")},
	}
	for name, v := range others {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, b.WriteOther("/", name, v), errs.ErrUnserializableValue)

			_, err := os.Lstat(filepath.Join(b.Root(), name))
			require.ErrorIs(t, err, os.ErrNotExist)
			_, err = os.Lstat(filepath.Join(b.Root(), backend.MappingName(name)))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}

	err := b.WriteArray("/", "labels", array.MustNew([]string{"ok", "a\xffb"}), []string{"n"})
	require.ErrorIs(t, err, errs.ErrUnserializableValue)
	_, err = os.Lstat(filepath.Join(b.Root(), "labels"+encoding.NPYExtension))
	require.ErrorIs(t, err, os.ErrNotExist)

	names, err := b.ArrayNames("/")
	require.NoError(t, err)
	require.Empty(t, names)
	_, err = os.Lstat(filepath.Join(b.Root(), backend.DimensionsName))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappedArray(t *testing.T) {
	b := newStore(t, WithMemoryMap())
	want := array.MustNew([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, b.WriteArray("/", "grid", want, []string{"row", "col"}))

	m, err := b.OpenMapped("/", "grid")
	require.NoError(t, err)
	require.Equal(t, "grid", m.Name())
	require.Equal(t, []int{2, 2}, m.Header().Shape)
	require.Len(t, m.Bytes(), 16)

	got, err := m.Array()
	require.NoError(t, err)
	require.True(t, want.Equal(got))

	require.NoError(t, m.Close())
	require.True(t, m.Closed())
	require.Nil(t, m.Bytes())
	require.NoError(t, m.Close())
	_, err = m.Array()
	require.ErrorIs(t, err, errs.ErrClosedResource)

	// the decoded array outlives the mapping
	require.True(t, want.Equal(got))

	_, err = b.OpenMapped("/", "missing")
	require.ErrorIs(t, err, errs.ErrNameNotFound)
}

func TestCloseReleasesMappings(t *testing.T) {
	b := newStore(t)
	require.NoError(t, b.WriteArray("/", "a", array.MustNew([]float64{1, 2}), []string{"n"}))
	require.NoError(t, b.WriteArray("/", "b", array.MustNew([]float64{3, 4}), []string{"n"}))

	first, err := b.OpenMapped("/", "a")
	require.NoError(t, err)
	second, err := b.OpenMapped("/", "b")
	require.NoError(t, err)
	require.NoError(t, first.Close())
	require.Len(t, b.mapped, 1)

	require.NoError(t, b.Close())
	require.True(t, second.Closed())
	require.Empty(t, b.mapped)
}

func TestMetadata(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	md := value.Mapping{"operator": value.Text("lab"), "run": value.Int(7)}

	b, err := Create(root, WithMetadata(md))
	require.NoError(t, err)
	require.Equal(t, md, b.Metadata())
	require.NoError(t, b.Close())

	data, err := os.ReadFile(filepath.Join(root, backend.MetadataName))
	require.NoError(t, err)
	require.Equal(t, `{"operator": "lab", "run": 7}`, string(data))

	b, err = Open(root)
	require.NoError(t, err)
	defer b.Close()
	require.Equal(t, md, b.Metadata())

	names, err := b.OtherNames("/")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestInvalidMetadata(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")

	_, err := Create(root, WithMetadata(value.Mapping{"bad": value.Float(math.NaN())}))
	require.ErrorIs(t, err, errs.ErrUnserializableValue)
	require.False(t, Exists(root))
}

func TestCreateExisting(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	require.False(t, Exists(root))

	b, err := Create(root)
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.True(t, Exists(root))

	_, err = Create(root)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	b, err = OpenOrCreate(root)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	fresh, err := OpenOrCreate(filepath.Join(t.TempDir(), "fresh"))
	require.NoError(t, err)
	require.NoError(t, fresh.Close())
}

func TestOpenNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, errs.ErrInvalidOperation)
	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCorruptedDimensions(t *testing.T) {
	b := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(b.Root(), backend.DimensionsName), []byte("{"), 0o644))

	err := b.WriteArray("/", "a", array.MustNew([]float64{1}), []string{"n"})
	require.ErrorIs(t, err, errs.ErrCorruptedRecord)
}
