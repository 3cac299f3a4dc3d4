package nodepath

import (
	"testing"

	"github.com/arloliu/measio/errs"
	"github.com/stretchr/testify/require"
)

var (
	badPaths  = []string{"", " ", "\"", ":", "\\", "?", "!", "bad-hyphen", "0number", "//", "/bad/end/"}
	goodPaths = []string{"/", "relative", "/absolute", "/2/good", "underscore_is_fine/_/__really__", "0/12/345"}
)

func TestValidate(t *testing.T) {
	t.Run("Bad paths", func(t *testing.T) {
		for _, path := range badPaths {
			err := Validate(path)
			require.ErrorIs(t, err, errs.ErrInvalidPath, "path %q should fail", path)
		}
	})

	t.Run("Good paths", func(t *testing.T) {
		for _, path := range goodPaths {
			require.NoError(t, Validate(path), "path %q should pass", path)
		}
	})
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path   string
		parent string
		leaf   string
	}{
		{"", "", ""},
		{"one", "", "one"},
		{"/one", "/", "one"},
		{"one/two/three", "one/two", "three"},
		{"/one/two/three", "/one/two", "three"},
		{"/", "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, leaf := Split(tt.path)
			require.Equal(t, tt.parent, parent)
			require.Equal(t, tt.leaf, leaf)
		})
	}
}

func TestExplode(t *testing.T) {
	require.Empty(t, Explode("/"))
	require.Empty(t, Explode(""))
	require.Equal(t, []string{"boom"}, Explode("boom"))
	require.Equal(t, []string{"boom"}, Explode("/boom"))
	require.Equal(t, []string{"boom", "kaboom"}, Explode("boom/kaboom"))
}

func TestJoin(t *testing.T) {
	require.Equal(t, "one", Join("one"))
	require.Equal(t, "one/two/three", Join("one", "two", "three"))
	require.Equal(t, "/three", Join("/one", "/two", "/three"))
	require.Equal(t, "/name", Join("/", "name"))
	require.Equal(t, "/a/b", Join("/a", "", "b"))
	require.Equal(t, "", Join())
}

func TestJoinSplitInverse(t *testing.T) {
	for _, parent := range []string{"a", "/a", "/a/b", "x/y/z"} {
		for _, leaf := range []string{"b", "leaf", "_1", "42"} {
			p, l := Split(Join(parent, leaf))
			require.Equal(t, parent, p)
			require.Equal(t, leaf, l)
		}
	}
}

func TestIsRoot(t *testing.T) {
	require.True(t, IsRoot(""))
	require.True(t, IsRoot("/"))
	require.False(t, IsRoot("/a"))
	require.True(t, IsAbsolute("/a"))
	require.False(t, IsAbsolute("a"))
}
