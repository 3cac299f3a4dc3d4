package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	bb := NewByteBuffer(8)
	require.Equal(t, 0, bb.Len())

	_, _ = bb.Write([]byte("ab"))
	_ = bb.WriteByte('c')
	_, _ = bb.WriteString("de")
	require.Equal(t, []byte("abcde"), bb.Bytes())

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, "abcde", out.String())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 8, cap(bb.B))
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("No growth with enough capacity", func(t *testing.T) {
		bb := NewByteBuffer(16)
		bb.Grow(16)
		require.Equal(t, 16, cap(bb.B))
	})

	t.Run("Small buffers grow by the default size", func(t *testing.T) {
		bb := NewByteBuffer(16)
		_, _ = bb.Write([]byte("hello"))
		bb.Grow(100)
		require.Equal(t, 5+RecordBufferDefaultSize, cap(bb.B))
		require.Equal(t, []byte("hello"), bb.Bytes())
	})

	t.Run("Large requests grow exactly", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(RecordBufferDefaultSize * 3)
		require.Equal(t, RecordBufferDefaultSize*3, cap(bb.B))
	})
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(32, 64)

	bb := p.Get()
	require.NotNil(t, bb)
	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	reused := p.Get()
	require.Equal(t, 0, reused.Len())

	p.Put(nil)
	p.Put(NewByteBuffer(128))

	rb := GetRecordBuffer()
	require.NotNil(t, rb)
	PutRecordBuffer(rb)
}
