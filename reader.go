package packet

import (
	"encoding/binary"
	"io"
)

// Reader decodes fixed-width integers from a seekable source with an explicit
// byte order. It never aliases the source memory, which makes it the decode
// path for runtimes that forbid reinterpreting raw bytes.
//
// Reader tracks the first error that occurs. Subsequent reads become no-ops.
type Reader struct {
	r       io.ReadSeeker
	count   int64 // current offset
	err     error // first error encountered.
	order   binary.ByteOrder
	scratch [8]byte
}

// NewReader creates a Reader using the wire byte order.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	return &Reader{r: r, order: Order}, nil
}

// WithByteOrder allows setting a custom byte order and returns
// the configured for chaining.
func (r *Reader) WithByteOrder(order binary.ByteOrder) *Reader {
	r.order = order
	return r
}

// Read implements the io.Reader interface.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.setError(err)
	return n, r.err
}

// Seek moves the read pointer.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.err != nil {
		return r.count, r.err
	}
	newPos, err := r.r.Seek(offset, whence)
	r.count = newPos
	r.setError(err)
	return newPos, err
}

func (r *Reader) Count() int64 { return r.count }
func (r *Reader) Err() error   { return r.err }

// setError records the first non-nil error.
func (r *Reader) setError(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Result returns the current offset and the final error state.
func (r *Reader) Result() (int64, error) {
	return r.count, r.err
}

// readFull reads exactly n bytes into the scratch area.
func (r *Reader) readFull(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := r.scratch[:n]
	read, err := io.ReadFull(r.r, buf)
	r.count += int64(read)
	if err != nil {
		if err == io.EOF {
			// A field that is cut off is different from a clean end-of-stream.
			r.err = io.ErrUnexpectedEOF
		} else {
			r.err = err
		}
		return nil
	}
	return buf
}

// --- Primitive Read Operations ---

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = r.order.Uint32(buf)
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = int32(r.order.Uint32(buf))
	}
}
