package packet

import (
	"io"
	"sync/atomic"
)

// growAlign is the granularity, in bytes, of Buffer capacity growth.
const growAlign = 512

// Buffer is a growable byte buffer with an explicit read/write position,
// in the manner of a memory stream. len(B) is the logical length of the
// buffer; N is the cursor.
//
// Buffers rented from a BufferPool carry an owner count that starts at one.
// Retain adds an owner and Release drops one; the buffer goes back to its
// pool when the last owner releases it.
type Buffer struct {
	B []byte // contents
	N int    // current position

	refs atomic.Int32
	pool *BufferPool
}

var (
	_ io.ReadWriteSeeker = (*Buffer)(nil)
	_ io.ByteWriter      = (*Buffer)(nil)
	_ io.ByteReader      = (*Buffer)(nil)
	_ io.StringWriter    = (*Buffer)(nil)
)

// NewBuffer creates an unpooled Buffer whose contents are b.
// The position starts at zero.
func NewBuffer(b []byte) *Buffer {
	buf := &Buffer{B: b}
	buf.refs.Store(1)
	return buf
}

// Write implements the io.Writer interface. It overwrites bytes at the
// current position and extends the buffer as needed.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.N + len(p)
	if end > len(b.B) {
		b.SetLength(end)
	}
	n := copy(b.B[b.N:], p)
	b.N += n
	return n, nil
}

// WriteString implements the io.StringWriter interface.
func (b *Buffer) WriteString(s string) (int, error) {
	end := b.N + len(s)
	if end > len(b.B) {
		b.SetLength(end)
	}
	n := copy(b.B[b.N:], s)
	b.N += n
	return n, nil
}

// WriteByte implements the io.ByteWriter interface.
func (b *Buffer) WriteByte(c byte) error {
	if b.N >= len(b.B) {
		b.SetLength(b.N + 1)
	}
	b.B[b.N] = c
	b.N++
	return nil
}

// Read implements the io.Reader interface.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.N >= len(b.B) {
		return 0, io.EOF
	}
	n := copy(p, b.B[b.N:])
	b.N += n
	return n, nil
}

// ReadByte implements the io.ByteReader interface.
func (b *Buffer) ReadByte() (byte, error) {
	if b.N >= len(b.B) {
		return 0, io.EOF
	}
	c := b.B[b.N]
	b.N++
	return c, nil
}

// Seek implements the io.Seeker interface. Seeking past the end is allowed;
// the gap is zero-filled by the next write.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.N) + offset
	case io.SeekEnd:
		abs = int64(len(b.B)) + offset
	default:
		return int64(b.N), ErrInvalidWhence
	}

	if abs < 0 {
		return int64(b.N), ErrInvalidSeek
	}

	b.N = int(abs)
	return abs, nil
}

// SetLength sets the logical length of the buffer. Growing zero-fills the
// new region; shrinking clamps the position.
func (b *Buffer) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	old := len(b.B)
	switch {
	case n <= old:
		b.B = b.B[:n]
		if b.N > n {
			b.N = n
		}
		return
	case n <= cap(b.B):
		b.B = b.B[:n]
	default:
		grown := make([]byte, n, Roundup(max(n, 2*cap(b.B)), growAlign))
		copy(grown, b.B)
		b.B = grown
	}
	clear(b.B[old:n])
}

// Grow ensures there is room for another n bytes without reallocating.
func (b *Buffer) Grow(n int) {
	if n <= 0 || len(b.B)+n <= cap(b.B) {
		return
	}
	grown := make([]byte, len(b.B), Roundup(len(b.B)+n, growAlign))
	copy(grown, b.B)
	b.B = grown
}

// Reset empties the buffer and rewinds the position, keeping the capacity.
func (b *Buffer) Reset() {
	b.B = b.B[:0]
	b.N = 0
}

// Len returns the logical length of the buffer.
func (b *Buffer) Len() int { return len(b.B) }

// Position returns the current read/write position.
func (b *Buffer) Position() int { return b.N }

// Bytes returns the full contents regardless of the position.
// The slice aliases the buffer and is only valid until the next write or release.
func (b *Buffer) Bytes() []byte { return b.B }

// Retain registers an additional owner of the buffer.
func (b *Buffer) Retain() *Buffer {
	b.refs.Add(1)
	return b
}

// Release drops one owner. The last release returns a pooled buffer to its
// pool. Releasing a buffer that has no owners left reports ErrAlreadyReleased
// and leaves the pool untouched.
func (b *Buffer) Release() error {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return ErrAlreadyReleased
		}
		if b.refs.CompareAndSwap(n, n-1) {
			if n == 1 && b.pool != nil {
				b.pool.put(b)
			}
			return nil
		}
	}
}
