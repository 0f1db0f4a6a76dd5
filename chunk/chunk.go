package chunk

import (
	"io"

	"github.com/indigo-web/utils/uf"
)

// Chunk is a sequence of byte segments, used to pass message bodies around
// without copying them. Appending another chunk or a stable slice retains a
// view into the original backing array. Referenced bytes are treated as
// immutable: whoever shares a segment must never modify the visible range
// afterwards. Backing arrays stay alive for as long as any view references
// them, which the GC guarantees on its own.
type Chunk struct {
	segs [][]byte
	size int
	// owned reports whether the trailing segment is private to this chunk
	// and may be extended in place by AppendCopy
	owned bool
}

// Of assembles a chunk from the given segments without copying them.
func Of(segments ...[]byte) Chunk {
	var c Chunk
	for _, seg := range segments {
		c.Append(seg)
	}

	return c
}

// FromString copies the string into a single freshly allocated segment.
func FromString(s string) Chunk {
	var c Chunk
	c.AppendCopy(uf.S2B(s))

	return c
}

// Append retains the slice as a new segment, no bytes are copied. The caller
// must guarantee the slice stays stable for the chunk's whole lifetime.
func (c *Chunk) Append(seg []byte) {
	if len(seg) == 0 {
		return
	}

	c.segs = append(c.segs, seg)
	c.size += len(seg)
	c.owned = false
}

// AppendCopy copies the bytes into a segment owned by the chunk itself. This
// is the defensive path for input whose backing array may be reused by the
// caller.
func (c *Chunk) AppendCopy(data []byte) {
	if len(data) == 0 {
		return
	}

	if c.owned {
		last := len(c.segs) - 1
		c.segs[last] = append(c.segs[last], data...)
	} else {
		seg := make([]byte, len(data))
		copy(seg, data)
		c.segs = append(c.segs, seg)
		c.owned = true
	}

	c.size += len(data)
}

// AppendChunk retains all the segments of the other chunk.
func (c *Chunk) AppendChunk(other Chunk) {
	for _, seg := range other.segs {
		c.Append(seg)
	}
}

func (c Chunk) Len() int {
	return c.size
}

func (c Chunk) Empty() bool {
	return c.size == 0
}

// Segments exposes the underlying segments. The returned slices must not be
// modified.
func (c Chunk) Segments() [][]byte {
	return c.segs
}

// Bytes returns the chunk contents as a single slice. A single-segment chunk
// is returned as is, otherwise the segments are joined into a new allocation.
func (c Chunk) Bytes() []byte {
	switch len(c.segs) {
	case 0:
		return nil
	case 1:
		return c.segs[0]
	}

	joined := make([]byte, 0, c.size)
	for _, seg := range c.segs {
		joined = append(joined, seg...)
	}

	return joined
}

func (c Chunk) String() string {
	return uf.B2S(c.Bytes())
}

// Slice returns a zero-copy view of the [from:to) byte range.
func (c Chunk) Slice(from, to int) Chunk {
	if from < 0 || to > c.size || from > to {
		return Chunk{}
	}

	var view Chunk
	offset := 0

	for _, seg := range c.segs {
		if offset >= to {
			break
		}

		begin, end := 0, len(seg)
		if from > offset {
			begin = from - offset
		}
		if to < offset+len(seg) {
			end = to - offset
		}
		if begin < end {
			view.Append(seg[begin:end])
		}

		offset += len(seg)
	}

	return view
}

// WriteTo implements io.WriterTo.
func (c Chunk) WriteTo(w io.Writer) (n int64, err error) {
	for _, seg := range c.segs {
		written, err := w.Write(seg)
		n += int64(written)
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

// Clear drops all the segments, keeping the segment list allocation for
// reuse. The bytes themselves are untouched, so views stay valid.
func (c *Chunk) Clear() {
	c.segs = c.segs[:0]
	c.size = 0
	c.owned = false
}
