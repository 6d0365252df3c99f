package packet

import (
	"fmt"
	"math"
)

// Header geometry shared by every frame shape.
//
// Client-facing (outer) frames:
//
//	0        4               8          12
//	┌────────┬───────────────┬──────────┬──────────────┐
//	│ length │ protocol code │  rpc id  │   body ...   │
//	│ int32  │    uint32     │  uint32  │              │
//	└────────┴───────────────┴──────────┴──────────────┘
//
// Server-internal (inner) frames append a route id:
//
//	0        4               8          12         20
//	┌────────┬───────────────┬──────────┬──────────┬──────────────┐
//	│ length │ protocol code │  rpc id  │ route id │   body ...   │
//	│ int32  │    uint32     │  uint32  │  int64   │              │
//	└────────┴───────────────┴──────────┴──────────┴──────────────┘
//
// All fields are little-endian.
const (
	PacketLength         = 4
	ProtocolCodeLocation = PacketLength

	OuterPacketRpcIDLocation = 8
	OuterPacketHeadLength    = 12

	InnerPacketRpcIDLocation   = 8
	InnerPacketRouteIDLocation = 12
	InnerPacketHeadLength      = 20

	// PacketBodyMaxLength is the default limit for the length field.
	PacketBodyMaxLength = math.MaxUint16 * 16
)

// Kind names the header shape of a frame.
type Kind uint8

const (
	// Outer frames travel between a server and its clients.
	Outer Kind = iota
	// Inner frames are routed between server processes and carry a route id.
	Inner
)

func (k Kind) String() string {
	switch k {
	case Outer:
		return "outer"
	case Inner:
		return "inner"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// HeadLength returns the header length of the shape.
func (k Kind) HeadLength() int {
	if k == Inner {
		return InnerPacketHeadLength
	}
	return OuterPacketHeadLength
}

// Layout describes where the header fields of one frame shape live and how
// large a frame may grow. Parsers are constructed with a Layout; the codec
// never hard-codes the maximum body length.
type Layout interface {
	Kind() Kind
	HeadLength() int
	RpcIDLocation() int
	// RouteIDLocation reports the route id offset, and false for shapes
	// without a route id.
	RouteIDLocation() (int, bool)
	MaxBodyLength() int
}

// InnerLayout is the server-internal header shape.
type InnerLayout struct {
	MaxBody int // zero means PacketBodyMaxLength
}

func (InnerLayout) Kind() Kind                   { return Inner }
func (InnerLayout) HeadLength() int              { return InnerPacketHeadLength }
func (InnerLayout) RpcIDLocation() int           { return InnerPacketRpcIDLocation }
func (InnerLayout) RouteIDLocation() (int, bool) { return InnerPacketRouteIDLocation, true }
func (l InnerLayout) MaxBodyLength() int         { return maxBodyOrDefault(l.MaxBody) }

// OuterLayout is the client-facing header shape.
type OuterLayout struct {
	MaxBody int // zero means PacketBodyMaxLength
}

func (OuterLayout) Kind() Kind                   { return Outer }
func (OuterLayout) HeadLength() int              { return OuterPacketHeadLength }
func (OuterLayout) RpcIDLocation() int           { return OuterPacketRpcIDLocation }
func (OuterLayout) RouteIDLocation() (int, bool) { return 0, false }
func (l OuterLayout) MaxBodyLength() int         { return maxBodyOrDefault(l.MaxBody) }

func maxBodyOrDefault(n int) int {
	if n <= 0 {
		return PacketBodyMaxLength
	}
	return n
}

// ValidateLayout checks that every field of l fits inside its header and
// does not overlap the length and protocol code fields.
func ValidateLayout(l Layout) error {
	head := l.HeadLength()
	rpc := l.RpcIDLocation()
	if rpc < ProtocolCodeLocation+4 || rpc+4 > head {
		return fmt.Errorf("%w: rpc id at %d does not fit a %d byte header", ErrInvalidLayout, rpc, head)
	}
	if route, ok := l.RouteIDLocation(); ok {
		if route < rpc+4 || route+8 > head {
			return fmt.Errorf("%w: route id at %d does not fit a %d byte header", ErrInvalidLayout, route, head)
		}
	}
	if l.MaxBodyLength() > math.MaxInt32 {
		return fmt.Errorf("%w: max body length %d overflows the length field", ErrInvalidLayout, l.MaxBodyLength())
	}
	return nil
}
