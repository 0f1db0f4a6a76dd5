package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	t.Run("retains without copying", func(t *testing.T) {
		src := []byte("hello")
		var c Chunk
		c.Append(src)
		require.Equal(t, "hello", c.String())

		src[0] = 'H'
		require.Equal(t, "Hello", c.String())
	})

	t.Run("skips empty segments", func(t *testing.T) {
		c := Of(nil, []byte{}, []byte("a"))
		require.Equal(t, 1, c.Len())
		require.Len(t, c.Segments(), 1)
	})
}

func TestAppendCopy(t *testing.T) {
	t.Run("isolates from the source", func(t *testing.T) {
		src := []byte("hello")
		var c Chunk
		c.AppendCopy(src)

		src[0] = 'H'
		require.Equal(t, "hello", c.String())
	})

	t.Run("extends the owned tail in place", func(t *testing.T) {
		var c Chunk
		c.AppendCopy([]byte("Hello, "))
		c.AppendCopy([]byte("world!"))
		require.Len(t, c.Segments(), 1)
		require.Equal(t, "Hello, world!", c.String())
	})

	t.Run("never extends a foreign segment", func(t *testing.T) {
		shared := []byte("Hello")
		var c Chunk
		c.Append(shared)
		c.AppendCopy([]byte(", world!"))
		require.Len(t, c.Segments(), 2)
		require.Equal(t, "Hello", string(shared))
		require.Equal(t, "Hello, world!", c.String())
	})
}

func TestAppendChunk(t *testing.T) {
	a := Of([]byte("Hello"), []byte(", "))
	b := Of([]byte("world!"))
	a.AppendChunk(b)
	require.Equal(t, "Hello, world!", a.String())
	require.Equal(t, 13, a.Len())
}

func TestBytes(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var c Chunk
		require.Nil(t, c.Bytes())
		require.True(t, c.Empty())
	})

	t.Run("single segment is returned as is", func(t *testing.T) {
		src := []byte("hello")
		c := Of(src)
		got := c.Bytes()
		require.Equal(t, "hello", string(got))

		src[0] = 'H'
		require.Equal(t, "Hello", string(got))
	})

	t.Run("multiple segments are joined", func(t *testing.T) {
		c := Of([]byte("Hello"), []byte(", "), []byte("world!"))
		require.Equal(t, "Hello, world!", string(c.Bytes()))
	})
}

func TestSlice(t *testing.T) {
	c := Of([]byte("Hello"), []byte(", "), []byte("world!"))

	t.Run("within a segment", func(t *testing.T) {
		require.Equal(t, "ell", c.Slice(1, 4).String())
	})

	t.Run("across segments", func(t *testing.T) {
		require.Equal(t, "lo, wo", c.Slice(3, 9).String())
	})

	t.Run("whole range", func(t *testing.T) {
		require.Equal(t, "Hello, world!", c.Slice(0, c.Len()).String())
	})

	t.Run("empty range", func(t *testing.T) {
		require.True(t, c.Slice(4, 4).Empty())
	})

	t.Run("out of bounds", func(t *testing.T) {
		require.True(t, c.Slice(-1, 4).Empty())
		require.True(t, c.Slice(0, c.Len()+1).Empty())
		require.True(t, c.Slice(5, 4).Empty())
	})

	t.Run("view shares the bytes", func(t *testing.T) {
		src := []byte("Hello")
		view := Of(src).Slice(0, 4)
		src[0] = 'J'
		require.Equal(t, "Jell", view.String())
	})
}

func TestWriteTo(t *testing.T) {
	c := Of([]byte("Hello"), []byte(", "), []byte("world!"))
	var sink bytes.Buffer
	n, err := c.WriteTo(&sink)
	require.NoError(t, err)
	require.EqualValues(t, c.Len(), n)
	require.Equal(t, "Hello, world!", sink.String())
}

func TestClear(t *testing.T) {
	src := []byte("hello")
	c := Of(src)
	view := c.Bytes()

	c.Clear()
	require.True(t, c.Empty())
	require.Zero(t, c.Len())
	// views handed out earlier survive the reset
	require.Equal(t, "hello", string(view))

	c.AppendCopy([]byte("next"))
	require.Equal(t, "next", c.String())
}

func TestFromString(t *testing.T) {
	c := FromString("hello")
	require.Equal(t, "hello", c.String())
	require.Equal(t, 5, c.Len())
}
