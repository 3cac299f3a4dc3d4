package value

import (
	"math"
	"testing"

	"github.com/arloliu/measio/array"
	"github.com/arloliu/measio/errs"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"true", true, Bool(true)},
		{"false", false, Bool(false)},
		{"zero int", 0, Int(0)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.0, Float(2)},
		{"string", "s", Text("s")},
		{"empty list", []any{}, Sequence{}},
		{"int list", []int{-1, 0, 1, 2}, Sequence{Int(-1), Int(0), Int(1), Int(2)}},
		{"string list", []string{"zero", ""}, Sequence{Text("zero"), Text("")}},
		{"nested map", map[string]any{"inner": nil, "m": map[string]int{"one": 1}},
			Mapping{"inner": Null{}, "m": Mapping{"one": Int(1)}}},
		{"existing value", Text("x"), Text("x")},
		{"1-d array", array.MustNew([]float64{1, 2}), Sequence{Float(1), Float(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Of(tt.input)
			require.NoError(t, err)
			require.True(t, Equal(tt.want, got), "want %#v, got %#v", tt.want, got)
		})
	}
}

func TestOfRejects(t *testing.T) {
	rejected := []any{
		complex(1, 2),
		uint64(math.MaxUint64),
		map[int]string{1: "one"},
		struct{}{},
		[]any{1, complex(0, 1)},
		array.MustNew([]float64{1, 2, 3, 4}, 2, 2),
	}

	for _, input := range rejected {
		_, err := Of(input)
		require.ErrorIs(t, err, errs.ErrUnserializableValue, "input %#v", input)
	}
}

func TestClassify(t *testing.T) {
	require.Equal(t, ClassArray, Classify(NewArray(array.MustNew([]int64{1}), "x")))
	require.Equal(t, ClassMapping, Classify(Mapping{}))
	require.Equal(t, ClassSequence, Classify(Sequence{}))
	require.Equal(t, ClassScalar, Classify(Null{}))
	require.Equal(t, ClassScalar, Classify(Bool(false)))
	require.Equal(t, ClassScalar, Classify(Int(0)))
	require.Equal(t, ClassScalar, Classify(Text("")))
}

func TestEqual(t *testing.T) {
	nan := Float(math.NaN())

	require.True(t, Equal(nan, nan))
	require.True(t, Equal(Null{}, Null{}))
	require.False(t, Equal(Int(0), Bool(false)))
	require.False(t, Equal(Int(1), Float(1)))
	require.False(t, Equal(Null{}, Text("_None")))
	require.True(t, Equal(Sequence(nil), Sequence{}))
	require.False(t, Equal(Sequence{Int(1)}, Sequence{Int(2)}))
	require.True(t, Equal(
		Mapping{"a": Mapping{"b": Sequence{nan}}},
		Mapping{"a": Mapping{"b": Sequence{nan}}},
	))
	require.False(t, Equal(Mapping{"a": Int(1)}, Mapping{"b": Int(1)}))
	require.False(t, Equal(Mapping{"a": Int(1)}, Mapping{"a": Int(1), "b": Int(2)}))

	a := NewArray(array.MustNew([]float64{1, 2}), "x")
	b := NewArray(array.MustNew([]float64{1, 2}), "y")
	require.True(t, Equal(a, NewArray(array.MustNew([]float64{1, 2}), "x")))
	require.False(t, Equal(a, b))
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name  string
		input Sequence
		elem  ElemType
		want  Sequence
		lossy bool
	}{
		{"empty", Sequence{}, ElemEmpty, Sequence{}, false},
		{"bools", Sequence{Bool(false), Bool(true)}, ElemBool, Sequence{Bool(false), Bool(true)}, false},
		{"ints", Sequence{Int(-1), Int(2)}, ElemInt, Sequence{Int(-1), Int(2)}, false},
		{"floats", Sequence{Float(-0.1), Float(math.Pi)}, ElemFloat, Sequence{Float(-0.1), Float(math.Pi)}, false},
		{"texts", Sequence{Text("a"), Text("")}, ElemText, Sequence{Text("a"), Text("")}, false},
		{"int and float", Sequence{Int(1), Float(0.5)}, ElemFloat, Sequence{Float(1), Float(0.5)}, true},
		{"bool and int", Sequence{Bool(true), Int(5)}, ElemInt, Sequence{Int(1), Int(5)}, true},
		{"mixed text", Sequence{Text("a"), Int(1), Float(2), Bool(true)}, ElemText,
			Sequence{Text("a"), Text("1"), Text("2.0"), Text("True")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elem, got, lossy, err := Infer(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.elem, elem)
			require.Equal(t, tt.lossy, lossy)
			require.True(t, Equal(tt.want, got), "want %#v, got %#v", tt.want, got)
		})
	}

	t.Run("Rejects nulls and containers", func(t *testing.T) {
		for _, seq := range []Sequence{{Null{}}, {Sequence{}}, {Mapping{}}} {
			_, _, _, err := Infer(seq)
			require.ErrorIs(t, err, errs.ErrUnserializableValue)
		}
	})
}

func TestNative(t *testing.T) {
	v := Mapping{"list": Sequence{Int(1), Text("a")}, "none": Null{}, "f": Float(1.5), "b": Bool(true)}
	native := Native(v).(map[string]any)
	require.Equal(t, []any{int64(1), "a"}, native["list"])
	require.Nil(t, native["none"])
	require.Equal(t, 1.5, native["f"])
	require.Equal(t, true, native["b"])

	back, err := Of(native)
	require.NoError(t, err)
	require.True(t, Equal(v, back))
}

func TestFormatFloat(t *testing.T) {
	require.Equal(t, "1.0", FormatFloat(1))
	require.Equal(t, "-0.1", FormatFloat(-0.1))
	require.Equal(t, "1e+21", FormatFloat(1e21))
	require.Equal(t, "NaN", FormatFloat(math.NaN()))
	require.Equal(t, "+Inf", FormatFloat(math.Inf(1)))
}

func TestMappingKeys(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, Mapping{"c": Null{}, "a": Null{}, "b": Null{}}.Keys())
}
