package backend

import (
	"testing"

	"github.com/arloliu/measio/errs"
	"github.com/arloliu/measio/value"
	"github.com/stretchr/testify/require"
)

func TestDimensionsBind(t *testing.T) {
	var d Dimensions

	added, err := d.Bind([]string{"time"}, []int{8})
	require.NoError(t, err)
	require.Equal(t, []string{"time"}, added)

	added, err = d.Bind([]string{"channel", "time"}, []int{4, 8})
	require.NoError(t, err)
	require.Equal(t, []string{"channel"}, added)

	n, ok := d.Length("time")
	require.True(t, ok)
	require.Equal(t, 8, n)
	require.Equal(t, []string{"time", "channel"}, d.Names())
	require.Equal(t, 2, d.Len())
}

func TestDimensionsMismatch(t *testing.T) {
	d := NewDimensions()
	_, err := d.Bind([]string{"time"}, []int{8})
	require.NoError(t, err)

	tests := map[string]struct {
		dims  []string
		shape []int
	}{
		"bound length":  {[]string{"time"}, []int{9}},
		"rank":          {[]string{"time", "extra"}, []int{8}},
		"repeated name": {[]string{"x", "x"}, []int{2, 3}},
		"empty name":    {[]string{""}, []int{1}},
		"sequence name": {[]string{"tags.list"}, []int{1}},
		"mapping name":  {[]string{"meta.dict"}, []int{1}},
		"invalid name":  {[]string{"a-b"}, []int{1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := d.Bind(tt.dims, tt.shape)
			require.ErrorIs(t, err, errs.ErrDimensionMismatch)
		})
	}

	// a failed bind leaves the registry untouched
	require.Equal(t, []string{"time"}, d.Names())
	_, ok := d.Length("extra")
	require.False(t, ok)
}

func TestDimensionsCheckPrivate(t *testing.T) {
	d := NewDimensions()
	require.NoError(t, d.CheckPrivate("tags.list", 3))
	require.NoError(t, d.CheckPrivate("empty.list", 0))

	require.ErrorIs(t, d.CheckPrivate("tags", 3), errs.ErrInvalidOperation)
	require.ErrorIs(t, d.CheckPrivate("meta.dict", 3), errs.ErrInvalidOperation)
	require.ErrorIs(t, d.CheckPrivate("tags.list", -1), errs.ErrDimensionMismatch)

	require.NoError(t, d.Set("tags.list", 3))
	require.ErrorIs(t, d.CheckPrivate("tags.list", 3), errs.ErrAlreadyExists)
}

func TestDimensionsSet(t *testing.T) {
	var d Dimensions
	require.NoError(t, d.Set("f", 3))
	require.NoError(t, d.Set("f", 3))
	require.ErrorIs(t, d.Set("f", 4), errs.ErrDimensionMismatch)
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		in   value.Value
		text value.Text
	}{
		{value.Null{}, NoneSentinel},
		{value.Bool(true), TrueSentinel},
		{value.Bool(false), FalseSentinel},
	}

	for _, tt := range tests {
		enc, ok := EncodeSentinel(tt.in)
		require.True(t, ok)
		require.Equal(t, tt.text, enc)

		dec, ok := DecodeSentinel(enc)
		require.True(t, ok)
		require.Equal(t, tt.in, dec)
	}

	v, ok := EncodeSentinel(value.Int(0))
	require.False(t, ok)
	require.Equal(t, value.Int(0), v)

	v, ok = DecodeSentinel(value.Text("_other"))
	require.False(t, ok)
	require.Equal(t, value.Text("_other"), v)
}

func TestDecodeSentinels(t *testing.T) {
	bools := value.Sequence{value.Text(FalseSentinel), value.Text(TrueSentinel)}
	require.Equal(t, value.Sequence{value.Bool(false), value.Bool(true)}, DecodeSentinels(bools))

	mixed := value.Sequence{value.Text(TrueSentinel), value.Text("yes")}
	require.Equal(t, mixed, DecodeSentinels(mixed))

	require.Empty(t, DecodeSentinels(value.Sequence{}))
}

func TestMangling(t *testing.T) {
	require.Equal(t, "state.dict", MappingName("state"))
	require.Equal(t, "tags.list", SequenceName("tags"))

	name, ok := StripMapping("state.dict")
	require.True(t, ok)
	require.Equal(t, "state", name)

	_, ok = StripMapping("state.list")
	require.False(t, ok)

	name, ok = StripSequence("tags.list")
	require.True(t, ok)
	require.Equal(t, "tags", name)

	require.True(t, IsReserved(VersionName))
	require.True(t, IsReserved(ClassName))
	require.False(t, IsReserved("version"))

	require.NoError(t, ValidateName("data"))
	require.NoError(t, ValidateName("_version"))
	require.NoError(t, ValidateName("12"))
	require.ErrorIs(t, ValidateName("bad-name"), errs.ErrInvalidPath)
	require.ErrorIs(t, ValidateName(""), errs.ErrInvalidPath)
	require.ErrorIs(t, ValidateName("a.dict"), errs.ErrInvalidPath)
}

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	require.Equal(t, StateUnopened, l.State())
	require.ErrorIs(t, l.Check(), errs.ErrClosedResource)

	require.NoError(t, l.Open())
	require.NoError(t, l.Check())
	require.ErrorIs(t, l.Open(), errs.ErrInvalidOperation)

	require.True(t, l.Close())
	require.True(t, l.Closed())
	require.False(t, l.Close())
	require.ErrorIs(t, l.Check(), errs.ErrClosedResource)
	require.ErrorIs(t, l.Open(), errs.ErrInvalidOperation)
	require.Equal(t, "closed", l.State().String())
}

func TestPrepareSequence(t *testing.T) {
	var cfg Config

	elem, seq, err := PrepareSequence(cfg.Log(), "/", "mixed", value.Sequence{value.Int(1), value.Float(0.5)})
	require.NoError(t, err)
	require.Equal(t, value.ElemFloat, elem)
	require.Equal(t, value.Sequence{value.Float(1), value.Float(0.5)}, seq)

	_, _, err = PrepareSequence(cfg.Log(), "/", "nested", value.Sequence{value.Sequence{}})
	require.ErrorIs(t, err, errs.ErrUnserializableValue)
}

func TestNormalizeOther(t *testing.T) {
	log := (&Config{}).Log()

	got, err := NormalizeOther(log, "/", "state", value.Mapping{
		"flags": value.Sequence{value.Bool(true), value.Int(2)},
		"inner": value.Mapping{"none": value.Null{}},
	})
	require.NoError(t, err)
	require.Equal(t, value.Mapping{
		"flags": value.Sequence{value.Int(1), value.Int(2)},
		"inner": value.Mapping{"none": value.Null{}},
	}, got)

	_, err = NormalizeOther(log, "/", "bad", value.Mapping{"bad-key": value.Int(1)})
	require.ErrorIs(t, err, errs.ErrUnserializableValue)

	_, err = NormalizeOther(log, "/", "nested", value.Mapping{"list": value.Sequence{value.Null{}}})
	require.ErrorIs(t, err, errs.ErrUnserializableValue)

	_, err = NormalizeOther(log, "/", "arr", value.Array{})
	require.ErrorIs(t, err, errs.ErrUnserializableValue)

	_, err = NormalizeOther(log, "/", "nil", nil)
	require.ErrorIs(t, err, errs.ErrUnserializableValue)
}

func TestResolve(t *testing.T) {
	segs, err := Resolve("")
	require.NoError(t, err)
	require.Empty(t, segs)

	segs, err = Resolve("/")
	require.NoError(t, err)
	require.Empty(t, segs)

	segs, err = Resolve("/a/0/b")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "0", "b"}, segs)

	segs, err = Resolve("a/b")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, segs)

	_, err = Resolve("/bad/end/")
	require.ErrorIs(t, err, errs.ErrInvalidPath)
}
