package packet

import (
	"fmt"
	"io"
)

// Parser frames messages for one header shape.
//
// Parsers serve datagram transports: every UnPack call carries exactly one
// complete frame, so there is no reassembly of split or merged packets.
// Parsers hold no per-call state and are safe for concurrent use.
type Parser interface {
	// Kind returns the header shape this parser reads and writes.
	Kind() Kind

	// UnPack decodes the frame in buffer[:count]. It returns false with a nil
	// error when count is shorter than the header. Malformed length claims are
	// fatal errors (see IsFatal); a partial descriptor is never returned.
	UnPack(buffer []byte, count int) (*PackInfo, bool, error)

	// Pack produces a frame ready for transmission.
	//
	// When buf is non-nil it already holds a complete frame: only the rpc id
	// (and the route id, for inner frames) are overwritten and the same
	// buffer is returned. Otherwise msg is serialized into a freshly rented
	// buffer. Ownership of the returned buffer passes to the caller.
	Pack(rpcID uint32, routeID int64, buf *Buffer, msg any) (*Buffer, error)
}

// Variant selects a Parser implementation.
type Variant uint8

const (
	// VariantInner parses server-internal frames.
	VariantInner Variant = iota
	// VariantOuter parses client-facing frames with direct fixed-offset reads.
	VariantOuter
	// VariantOuterWebgl parses client-facing frames through the byte-order
	// Reader, for runtimes that cannot reinterpret raw memory.
	VariantOuterWebgl
)

func (v Variant) String() string {
	switch v {
	case VariantInner:
		return "inner"
	case VariantOuter:
		return "outer"
	case VariantOuterWebgl:
		return "outer-webgl"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// NewParser creates the parser for v bound to network, with the layout limits
// taken from cfg.
func NewParser(v Variant, network Network, cfg Config) (Parser, error) {
	switch v {
	case VariantInner:
		return newInnerParser(network, cfg.InnerLayout())
	case VariantOuter:
		return NewOuterBufferPacketParser(network, cfg.OuterLayout()), nil
	case VariantOuterWebgl:
		return NewOuterWebglBufferPacketParser(network, cfg.OuterLayout()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVariant, v)
	}
}

// checkCount rejects a count that claims more bytes than the buffer holds.
func checkCount(buffer []byte, count int) error {
	if count < 0 || len(buffer) < count {
		return fmt.Errorf("%w: buffer.Length=%d count=%d", ErrInconsistentLength, len(buffer), count)
	}
	return nil
}

// checkLength validates the length field of a received frame against the
// layout's limit and the number of bytes actually delivered.
func checkLength(l Layout, length int32, count int) error {
	if int(length) > l.MaxBodyLength() {
		return fmt.Errorf("%w: length=%d max=%d", ErrFrameOversized, length, l.MaxBodyLength())
	}
	if count < int(length) {
		return fmt.Errorf("%w: length=%d count=%d", ErrFrameTruncated, length, count)
	}
	return nil
}

// bodyLength derives the length field for a frame of written bytes.
func bodyLength(l Layout, written int) (int32, error) {
	body := written - l.HeadLength()
	if body == 0 {
		return EmptyBodyLength, nil
	}
	if body > l.MaxBodyLength() {
		return 0, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, body, l.MaxBodyLength())
	}
	return int32(body), nil
}

// serializeBody rents a buffer, reserves the header region and serializes msg
// after it. On success the buffer holds header space plus body and the
// caller owns it.
func serializeBody(network Network, l Layout, msg any) (*Buffer, *MessageType, int32, error) {
	if msg == nil {
		return nil, nil, 0, ErrNilMessage
	}
	reg := network.Registry()
	mt, err := reg.Resolve(msg)
	if err != nil {
		return nil, nil, 0, err
	}

	buf := network.RentBuffer()
	buf.SetLength(l.HeadLength())
	buf.Seek(int64(l.HeadLength()), io.SeekStart)

	n, err := reg.Serialize(msg, buf)
	if err != nil {
		_ = buf.Release()
		return nil, nil, 0, err
	}

	length, err := bodyLength(l, l.HeadLength()+n)
	if err != nil {
		_ = buf.Release()
		return nil, nil, 0, err
	}
	return buf, mt, length, nil
}

// checkPatch makes sure a pre-built frame is long enough to hold the header
// fields that a patch overwrites.
func checkPatch(l Layout, buf *Buffer) error {
	if buf.Len() < l.HeadLength() {
		return fmt.Errorf("%w: buffer of %d bytes has no %d byte header", ErrShortFrame, buf.Len(), l.HeadLength())
	}
	return nil
}
