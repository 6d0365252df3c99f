package packet

import (
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

// Order is the byte order of every header field on the wire.
var Order binary.ByteOrder = binary.LittleEndian

// EmptyBodyLength is written into the length field instead of 0 when a
// message serializes to no bytes at all. Stream decoders elsewhere in the
// stack use it to tell a legitimately empty body from a frame that has not
// fully arrived yet.
const EmptyBodyLength int32 = -1

// Roundup rounds n up to the nearest multiple of align.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// putField writes v at off in b using the wire byte order.
// The width of the field is the width of T.
func putField[T constraints.Integer](b []byte, off int, v T) {
	switch binary.Size(v) {
	case 1:
		b[off] = byte(v)
	case 2:
		Order.PutUint16(b[off:], uint16(v))
	case 4:
		Order.PutUint32(b[off:], uint32(v))
	case 8:
		Order.PutUint64(b[off:], uint64(v))
	default:
		panic("packet: unsupported field width")
	}
}
