// Package backendtest is a conformance suite for backend.Backend implementations.
package backendtest

import (
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/backend"
	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
	"github.com/stretchr/testify/require"
)

// Factory creates the backends under test.
type Factory struct {
	// New returns an open, empty backend. The test closes it.
	New func(t *testing.T) backend.Backend
	// Reopen closes b and opens the same store again. Nil for backends
	// without persistent storage.
	Reopen func(t *testing.T, b backend.Backend) backend.Backend
}

// Run runs the conformance suite against the backends made by f.
func Run(t *testing.T, f Factory) {
	t.Helper()

	tests := map[string]func(*testing.T, Factory){
		"CreateNode":           testCreateNode,
		"Arrays":               testArrays,
		"DimensionSharing":     testDimensionSharing,
		"DimensionNames":       testDimensionNames,
		"Others":               testOthers,
		"SequenceCoercion":     testSequenceCoercion,
		"Unserializable":       testUnserializable,
		"Partition":            testPartition,
		"NoOverwrite":          testNoOverwrite,
		"NameNotFound":         testNameNotFound,
		"ReservedNames":        testReservedNames,
		"InvalidAttributeName": testInvalidAttributeName,
		"Closed":               testClosed,
		"Reopen":               testReopen,
	}

	for _, name := range slices.Sorted(maps.Keys(tests)) {
		t.Run(name, func(t *testing.T) {
			tests[name](t, f)
		})
	}
}

func open(t *testing.T, f Factory) backend.Backend {
	t.Helper()
	b := f.New(t)
	t.Cleanup(func() { _ = b.Close() })

	return b
}

// Arrays returns one array per supported element type, keyed by attribute name.
func Arrays() map[string]value.Array {
	return map[string]value.Array{
		"i8":      value.NewArray(array.MustNew([]int8{-1, 0, 1}), "three"),
		"i16":     value.NewArray(array.MustNew([]int16{-300, 300, 7}), "three"),
		"i32":     value.NewArray(array.MustNew([]int32{1, 2, 3, 4, 5, 6}, 2, 3), "two", "three"),
		"i64":     value.NewArray(array.MustNew([]int64{math.MinInt64, math.MaxInt64}), "two"),
		"u8":      value.NewArray(array.MustNew([]uint8{0, 128, 255}), "three"),
		"u16":     value.NewArray(array.MustNew([]uint16{1, 65535}), "two"),
		"u32":     value.NewArray(array.MustNew([]uint32{4, 5, 6}), "three"),
		"u64":     value.NewArray(array.MustNew([]uint64{math.MaxUint64, 1}), "two"),
		"f32":     value.NewArray(array.MustNew([]float32{0.5, -1.25}), "two"),
		"f64":     value.NewArray(array.MustNew([]float64{math.Pi, math.NaN(), math.Inf(1)}), "three"),
		"c64":     value.NewArray(array.MustNew([]complex64{1 + 1i, -2.5i, 3}), "three"),
		"c128":    value.NewArray(array.MustNew([]complex128{1 + 2i, 3 - 4i, 5, 6i, 7, 8}, 3, 2), "three", "two"),
		"labels":  value.NewArray(array.MustNew([]string{"a", "", "ünï"}), "three"),
		"empty":   value.NewArray(array.MustNew([]float64{}), "none"),
		"matrix3": value.NewArray(array.MustNew([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, 2, 3, 2), "two", "three", "two_again"),
	}
}

// Others returns the scalar, sequence and mapping values every backend round-trips.
func Others() map[string]value.Value {
	intList := value.Sequence{value.Int(-1), value.Int(0), value.Int(1), value.Int(2)}
	floatList := value.Sequence{value.Float(-0.1), value.Float(1), value.Float(math.Pi)}
	strList := value.Sequence{value.Text("zero"), value.Text("one"), value.Text("two"), value.Text("")}
	boolList := value.Sequence{value.Bool(false), value.Bool(true), value.Bool(false)}

	return map[string]value.Value{
		"zero_int":        value.Int(0),
		"zero_float":      value.Float(0),
		"one_int":         value.Int(1),
		"one_float":       value.Float(1),
		"minus_one_int":   value.Int(-1),
		"minus_one_float": value.Float(-1),
		"two_int":         value.Int(2),
		"two_float":       value.Float(2),
		"big_int":         value.Int(math.MaxInt64),
		"none":            value.Null{},
		"true":            value.Bool(true),
		"false":           value.Bool(false),
		"text":            value.Text("hello, world"),
		"empty_text":      value.Text(""),
		"empty_list":      value.Sequence{},
		"int_list":        intList,
		"float_list":      floatList,
		"str_list":        strList,
		"bool_list":       boolList,
		"none_dict":       value.Mapping{"none": value.Null{}},
		"dict_dict": value.Mapping{
			"one": value.Int(1),
			"a_dict": value.Mapping{
				"none":         value.Null{},
				"false":        value.Bool(false),
				"another_dict": value.Mapping{},
			},
		},
		"list_dict": value.Mapping{
			"empty_list": value.Sequence{},
			"int_list":   intList,
			"float_list": floatList,
			"str_list":   strList,
			"bool_list":  boolList,
		},
	}
}

func testCreateNode(t *testing.T, f Factory) {
	b := open(t, f)

	require.ErrorIs(t, b.CreateNode("/"), errs.ErrInvalidOperation)
	require.ErrorIs(t, b.CreateNode(""), errs.ErrInvalidOperation)
	require.ErrorIs(t, b.CreateNode("/missing/child"), errs.ErrMissingParent)
	require.ErrorIs(t, b.CreateNode("/bad-hyphen"), errs.ErrInvalidPath)

	require.NoError(t, b.CreateNode("/parent"))
	require.ErrorIs(t, b.CreateNode("/parent"), errs.ErrAlreadyExists)
	require.NoError(t, b.CreateNode("parent/child"))
	require.NoError(t, b.CreateNode("/parent/0"))

	names, err := b.NodeNames("/")
	require.NoError(t, err)
	require.Equal(t, []string{"parent"}, names)

	names, err = b.NodeNames("/parent")
	require.NoError(t, err)
	require.Equal(t, []string{"0", "child"}, names)

	_, err = b.NodeNames("/nowhere")
	require.Error(t, err)
}

func testArrays(t *testing.T, f Factory) {
	b := open(t, f)
	require.NoError(t, b.CreateNode("/arrays"))

	arrays := Arrays()
	for _, name := range slices.Sorted(maps.Keys(arrays)) {
		a := arrays[name]
		require.NoError(t, b.WriteArray("/arrays", name, a.Data, a.Dims), name)
	}
	checkArrays(t, b, "/arrays", arrays)
}

func checkArrays(t *testing.T, b backend.Backend, nodePath string, arrays map[string]value.Array) {
	t.Helper()

	names, err := b.ArrayNames(nodePath)
	require.NoError(t, err)
	require.Equal(t, slices.Sorted(maps.Keys(arrays)), names)

	for name, want := range arrays {
		got, err := b.ReadArray(nodePath, name)
		require.NoError(t, err, name)
		require.True(t, want.Data.Equal(got), "%s: got %v %v", name, got, got.Data())

		dims, err := b.ArrayDims(nodePath, name)
		require.NoError(t, err, name)
		require.Equal(t, want.Dims, dims, name)
	}
}

func testDimensionSharing(t *testing.T, f Factory) {
	b := open(t, f)

	time := array.MustNew([]float64{0, 1, 2, 3})
	data := array.MustNew([]complex128{1, 2, 3, 4, 5, 6, 7, 8}, 2, 4)
	require.NoError(t, b.WriteArray("/", "time", time, []string{"time"}))
	require.NoError(t, b.WriteArray("/", "data", data, []string{"channel", "time"}))

	short := array.MustNew([]float64{0, 1, 2})
	err := b.WriteArray("/", "short", short, []string{"time"})
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	err = b.WriteArray("/", "flat", short, []string{"time", "channel"})
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)

	names, err := b.ArrayNames("/")
	require.NoError(t, err)
	require.Equal(t, []string{"data", "time"}, names)

	got, err := b.ReadArray("/", "time")
	require.NoError(t, err)
	require.True(t, time.Equal(got))

	got, err = b.ReadArray("/", "data")
	require.NoError(t, err)
	require.True(t, data.Equal(got))

	// the same dimension name is independent in another node
	require.NoError(t, b.CreateNode("/other"))
	require.NoError(t, b.WriteArray("/other", "time", short, []string{"time"}))
}

func testDimensionNames(t *testing.T, f Factory) {
	b := open(t, f)

	a := array.MustNew([]int64{1, 2})
	for _, dim := range []string{"tags.list", "meta.dict", "bad-name", ""} {
		err := b.WriteArray("/", "a", a, []string{dim})
		require.ErrorIs(t, err, errs.ErrDimensionMismatch, dim)
	}

	names, err := b.ArrayNames("/")
	require.NoError(t, err)
	require.Empty(t, names)

	// a sequence keeps its own length even after a same-named dimension is refused
	tags := value.Sequence{value.Int(1), value.Int(2), value.Int(3)}
	require.NoError(t, b.WriteOther("/", "tags", tags))
	require.NoError(t, b.WriteArray("/", "a", a, []string{"tags"}))

	checkOthers(t, b, "/", map[string]value.Value{"tags": tags})
}

func testOthers(t *testing.T, f Factory) {
	b := open(t, f)
	require.NoError(t, b.CreateNode("/others"))

	others := Others()
	for _, name := range slices.Sorted(maps.Keys(others)) {
		require.NoError(t, b.WriteOther("/others", name, others[name]), name)
	}
	checkOthers(t, b, "/others", others)
}

func checkOthers(t *testing.T, b backend.Backend, nodePath string, others map[string]value.Value) {
	t.Helper()

	names, err := b.OtherNames(nodePath)
	require.NoError(t, err)
	require.Equal(t, slices.Sorted(maps.Keys(others)), names)

	for name, want := range others {
		got, err := b.ReadOther(nodePath, name)
		require.NoError(t, err, name)
		require.True(t, value.Equal(want, got), "%s: want %#v, got %#v", name, want, got)
	}
}

func testSequenceCoercion(t *testing.T, f Factory) {
	b := open(t, f)

	tests := map[string]struct {
		in   value.Sequence
		want value.Sequence
	}{
		"ints_and_floats": {
			in:   value.Sequence{value.Int(1), value.Float(2.5)},
			want: value.Sequence{value.Float(1), value.Float(2.5)},
		},
		"bools_and_ints": {
			in:   value.Sequence{value.Bool(true), value.Int(5)},
			want: value.Sequence{value.Int(1), value.Int(5)},
		},
		"numbers_and_text": {
			in:   value.Sequence{value.Int(1), value.Text("a")},
			want: value.Sequence{value.Text("1"), value.Text("a")},
		},
	}

	for name, tt := range tests {
		require.NoError(t, b.WriteOther("/", name, tt.in), name)
		got, err := b.ReadOther("/", name)
		require.NoError(t, err, name)
		require.True(t, value.Equal(tt.want, got), "%s: got %#v", name, got)
	}
}

func testUnserializable(t *testing.T, f Factory) {
	b := open(t, f)

	tests := map[string]value.Value{
		"null_in_list":   value.Sequence{value.Int(1), value.Null{}},
		"list_in_list":   value.Sequence{value.Sequence{}},
		"dict_in_list":   value.Sequence{value.Mapping{}},
		"bad_key":        value.Mapping{"bad-key": value.Int(1)},
		"array_as_other": value.NewArray(array.MustNew([]int8{1}), "x"),
		"deep_bad":       value.Mapping{"inner": value.Mapping{"list": value.Sequence{value.Null{}}}},
	}

	for name, v := range tests {
		require.ErrorIs(t, b.WriteOther("/", name, v), errs.ErrUnserializableValue, name)
	}
}

func testPartition(t *testing.T, f Factory) {
	b := open(t, f)

	require.NoError(t, b.CreateNode("/child"))
	require.NoError(t, b.WriteArray("/", "data", array.MustNew([]float64{1, 2}), []string{"data"}))
	require.NoError(t, b.WriteOther("/", "tags", value.Sequence{value.Text("a")}))
	require.NoError(t, b.WriteOther("/", "state", value.Mapping{"inner": value.Mapping{}}))
	require.NoError(t, b.WriteOther("/", "count", value.Int(3)))
	require.NoError(t, b.WriteOther("/", "empty", value.Sequence{}))

	nodes, err := b.NodeNames("/")
	require.NoError(t, err)
	arrays, err := b.ArrayNames("/")
	require.NoError(t, err)
	others, err := b.OtherNames("/")
	require.NoError(t, err)

	require.Equal(t, []string{"child"}, nodes)
	require.Equal(t, []string{"data"}, arrays)
	require.Equal(t, []string{"count", "empty", "state", "tags"}, others)

	all := slices.Concat(nodes, arrays, others)
	slices.Sort(all)
	require.Equal(t, []string{"child", "count", "data", "empty", "state", "tags"}, slices.Compact(all))
	require.Len(t, all, 6)
}

func testNoOverwrite(t *testing.T, f Factory) {
	b := open(t, f)

	a := array.MustNew([]int32{1, 2})
	require.NoError(t, b.WriteArray("/", "arr", a, []string{"n"}))
	require.ErrorIs(t, b.WriteArray("/", "arr", a, []string{"n"}), errs.ErrAlreadyExists)
	require.ErrorIs(t, b.WriteOther("/", "arr", value.Int(1)), errs.ErrAlreadyExists)

	require.NoError(t, b.WriteOther("/", "scalar", value.Int(1)))
	require.ErrorIs(t, b.WriteOther("/", "scalar", value.Int(2)), errs.ErrAlreadyExists)
	require.ErrorIs(t, b.WriteArray("/", "scalar", a, []string{"n"}), errs.ErrAlreadyExists)

	require.NoError(t, b.WriteOther("/", "seq", value.Sequence{value.Int(1)}))
	require.ErrorIs(t, b.WriteOther("/", "seq", value.Sequence{value.Int(2)}), errs.ErrAlreadyExists)

	require.NoError(t, b.WriteOther("/", "dict", value.Mapping{}))
	require.ErrorIs(t, b.WriteOther("/", "dict", value.Mapping{}), errs.ErrAlreadyExists)
	require.ErrorIs(t, b.WriteOther("/", "dict", value.Int(2)), errs.ErrAlreadyExists)

	require.NoError(t, b.CreateNode("/node"))
	require.ErrorIs(t, b.WriteOther("/", "node", value.Int(2)), errs.ErrAlreadyExists)
	require.ErrorIs(t, b.CreateNode("/scalar"), errs.ErrAlreadyExists)

	got, err := b.ReadOther("/", "scalar")
	require.NoError(t, err)
	require.Equal(t, value.Int(1), got)
}

func testNameNotFound(t *testing.T, f Factory) {
	b := open(t, f)

	_, err := b.ReadOther("/", "missing")
	require.ErrorIs(t, err, errs.ErrNameNotFound)

	_, err = b.ReadArray("/", "missing")
	require.ErrorIs(t, err, errs.ErrNameNotFound)

	_, err = b.ArrayDims("/", "missing")
	require.ErrorIs(t, err, errs.ErrNameNotFound)
}

func testReservedNames(t *testing.T, f Factory) {
	b := open(t, f)

	require.NoError(t, b.WriteOther("/", backend.VersionName, value.Int(2)))
	require.NoError(t, b.WriteOther("/", backend.ClassName, value.Text("Sweep")))
	require.NoError(t, b.WriteOther("/", "visible", value.Int(1)))

	names, err := b.OtherNames("/")
	require.NoError(t, err)
	require.Equal(t, []string{"visible"}, names)

	got, err := b.ReadOther("/", backend.VersionName)
	require.NoError(t, err)
	require.Equal(t, value.Int(2), got)

	got, err = b.ReadOther("/", backend.ClassName)
	require.NoError(t, err)
	require.Equal(t, value.Text("Sweep"), got)
}

func testInvalidAttributeName(t *testing.T, f Factory) {
	b := open(t, f)

	require.ErrorIs(t, b.WriteOther("/", "bad name", value.Int(1)), errs.ErrInvalidPath)
	require.ErrorIs(t, b.WriteArray("/", "x.list", array.MustNew([]int8{1}), []string{"x"}), errs.ErrInvalidPath)
	require.ErrorIs(t, b.WriteOther("/bad-path", "x", value.Int(1)), errs.ErrInvalidPath)
}

func testClosed(t *testing.T, f Factory) {
	b := f.New(t)
	require.NoError(t, b.CreateNode("/n"))
	require.False(t, b.Closed())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.True(t, b.Closed())

	a := array.MustNew([]int8{1})
	require.ErrorIs(t, b.CreateNode("/m"), errs.ErrClosedResource)
	require.ErrorIs(t, b.WriteArray("/", "a", a, []string{"x"}), errs.ErrClosedResource)
	require.ErrorIs(t, b.WriteOther("/", "o", value.Int(1)), errs.ErrClosedResource)

	_, err := b.ReadArray("/", "a")
	require.ErrorIs(t, err, errs.ErrClosedResource)
	_, err = b.ArrayDims("/", "a")
	require.ErrorIs(t, err, errs.ErrClosedResource)
	_, err = b.ReadOther("/", "o")
	require.ErrorIs(t, err, errs.ErrClosedResource)
	_, err = b.NodeNames("/")
	require.ErrorIs(t, err, errs.ErrClosedResource)
	_, err = b.ArrayNames("/")
	require.ErrorIs(t, err, errs.ErrClosedResource)
	_, err = b.OtherNames("/")
	require.ErrorIs(t, err, errs.ErrClosedResource)
}

func testReopen(t *testing.T, f Factory) {
	if f.Reopen == nil {
		t.Skip("backend has no persistent storage")
	}

	b := f.New(t)
	require.NoError(t, b.CreateNode("/m"))
	require.NoError(t, b.CreateNode("/m/child"))

	arrays := Arrays()
	for _, name := range slices.Sorted(maps.Keys(arrays)) {
		a := arrays[name]
		require.NoError(t, b.WriteArray("/m", name, a.Data, a.Dims), name)
	}
	others := Others()
	for _, name := range slices.Sorted(maps.Keys(others)) {
		require.NoError(t, b.WriteOther("/m", name, others[name]), name)
	}

	b = f.Reopen(t, b)
	t.Cleanup(func() { _ = b.Close() })

	nodes, err := b.NodeNames("/m")
	require.NoError(t, err)
	require.Equal(t, []string{"child"}, nodes)
	checkArrays(t, b, "/m", arrays)
	checkOthers(t, b, "/m", others)

	// reopened stores keep enforcing the bound dimensions and names
	err = b.WriteArray("/m", "late", array.MustNew([]float64{1}), []string{"three"})
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
	require.ErrorIs(t, b.WriteOther("/m", "zero_int", value.Int(0)), errs.ErrAlreadyExists)

	require.NoError(t, b.WriteArray("/m", "late", array.MustNew([]float64{1, 2, 3}), []string{"three"}))
	got, err := b.ReadArray("/m", "late")
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
}
