package packet

import (
	"fmt"
	"sync/atomic"
)

// PackInfo describes one received frame. It owns a pooled buffer holding the
// whole frame, header included.
//
// RouteID is only meaningful for Inner frames. PacketLength is the raw length
// field as received; EmptyBodyLength marks a body that is empty on purpose.
//
// Whoever ends up holding the descriptor (normally the dispatcher) calls
// Release exactly once.
type PackInfo struct {
	Kind         Kind
	RpcID        uint32
	RouteID      int64
	ProtocolCode uint32
	PacketLength int32

	buffer   *Buffer
	pool     *packInfoPool
	released atomic.Bool
}

// RentBuffer attaches an empty buffer with room for size bytes and returns it.
func (p *PackInfo) RentBuffer(size int) *Buffer {
	if p.buffer != nil {
		_ = p.buffer.Release()
	}
	if p.pool != nil {
		p.buffer = p.pool.buffers.RentSize(size)
	} else {
		p.buffer = NewBuffer(make([]byte, 0, size))
	}
	return p.buffer
}

// Buffer returns the frame buffer, or nil before one was rented.
func (p *PackInfo) Buffer() *Buffer { return p.buffer }

// Frame returns the whole received frame.
func (p *PackInfo) Frame() []byte {
	if p.buffer == nil {
		return nil
	}
	return p.buffer.Bytes()
}

// Body returns the bytes following the header. It is nil when the sender
// marked the body as empty, whatever bytes trail the header.
func (p *PackInfo) Body() []byte {
	if p.PacketLength == EmptyBodyLength {
		return nil
	}
	frame := p.Frame()
	head := p.Kind.HeadLength()
	if len(frame) <= head {
		return nil
	}
	return frame[head:]
}

// IsEmptyBody reports whether the sender marked the body as empty, or no body
// bytes followed the header.
func (p *PackInfo) IsEmptyBody() bool {
	return p.PacketLength == EmptyBodyLength || len(p.Body()) == 0
}

// Message decodes the body as the type registered for the frame's protocol
// code and returns a pointer to it.
func (p *PackInfo) Message(reg *Registry) (any, error) {
	return reg.Deserialize(p.ProtocolCode, p.Body())
}

// Unmarshal decodes the body into dst with the serializer registered for the
// frame's protocol code.
func (p *PackInfo) Unmarshal(reg *Registry, dst any) error {
	mt, ok := reg.Lookup(p.ProtocolCode)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOpCode, p.ProtocolCode)
	}
	return mt.Serializer.Deserialize(p.Body(), dst)
}

// Release returns the buffer and the descriptor to their pools. A second
// call reports ErrAlreadyReleased.
func (p *PackInfo) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	if p.pool != nil {
		p.pool.put(p)
	} else {
		p.reset()
	}
	return nil
}

func (p *PackInfo) reset() {
	if p.buffer != nil {
		_ = p.buffer.Release()
		p.buffer = nil
	}
	p.RpcID = 0
	p.RouteID = 0
	p.ProtocolCode = 0
	p.PacketLength = 0
}
