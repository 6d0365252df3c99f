package packet

import "sync"

// DefaultBufferSize is the initial capacity of pooled buffers.
// A 4KB default avoids re-allocations for common packet sizes.
const DefaultBufferSize = 4096

// BufferPool reuses Buffers for outgoing frames and received descriptors.
// It is safe for concurrent use.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool whose buffers start with size bytes of capacity.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		return &Buffer{B: make([]byte, 0, size), pool: p}
	}
	return p
}

// Rent returns an empty buffer owned by the caller.
func (p *BufferPool) Rent() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.refs.Store(1)
	return b
}

// RentSize returns an empty buffer with room for at least n bytes.
func (p *BufferPool) RentSize(n int) *Buffer {
	b := p.Rent()
	b.Grow(n)
	return b
}

// put takes back a buffer whose last owner released it.
// Buffers that grew far beyond the pool size are left to the GC so a single
// large frame does not pin memory for the lifetime of the pool.
func (p *BufferPool) put(b *Buffer) {
	if cap(b.B) > 4*p.size {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// packInfoPool reuses descriptors handed out by UnPack.
type packInfoPool struct {
	buffers *BufferPool
	pool    sync.Pool
}

func newPackInfoPool(buffers *BufferPool) *packInfoPool {
	p := &packInfoPool{buffers: buffers}
	p.pool.New = func() any {
		return &PackInfo{pool: p}
	}
	return p
}

func (p *packInfoPool) rent(kind Kind) *PackInfo {
	info := p.pool.Get().(*PackInfo)
	info.Kind = kind
	info.released.Store(false)
	return info
}

func (p *packInfoPool) put(info *PackInfo) {
	info.reset()
	p.pool.Put(info)
}
