//go:build !client

package packet

import (
	"encoding/binary"
	"io"
)

// InnerBufferPacketParser frames server-internal traffic. Its header carries
// a route id naming the destination entity, and every serialization protocol
// is available to it.
type InnerBufferPacketParser struct {
	network Network
	layout  InnerLayout
}

var _ Parser = (*InnerBufferPacketParser)(nil)

// NewInnerBufferPacketParser binds an inner parser to network.
func NewInnerBufferPacketParser(network Network, layout InnerLayout) *InnerBufferPacketParser {
	return &InnerBufferPacketParser{network: network, layout: layout}
}

func (p *InnerBufferPacketParser) Kind() Kind { return Inner }

// UnPack reads the header fields straight from their fixed offsets.
func (p *InnerBufferPacketParser) UnPack(buffer []byte, count int) (*PackInfo, bool, error) {
	if err := checkCount(buffer, count); err != nil {
		return nil, false, err
	}
	if count < InnerPacketHeadLength {
		return nil, false, nil
	}

	frame := buffer[:count]
	_ = frame[InnerPacketHeadLength-1] // BCE hint: one check covers every header read below

	length := int32(binary.LittleEndian.Uint32(frame))
	if err := checkLength(p.layout, length, count); err != nil {
		return nil, false, err
	}

	info := p.network.RentPackInfo(Inner)
	info.PacketLength = length
	info.ProtocolCode = binary.LittleEndian.Uint32(frame[ProtocolCodeLocation:])
	info.RpcID = binary.LittleEndian.Uint32(frame[InnerPacketRpcIDLocation:])
	info.RouteID = int64(binary.LittleEndian.Uint64(frame[InnerPacketRouteIDLocation:]))
	info.RentBuffer(count).Write(frame)
	return info, true, nil
}

func (p *InnerBufferPacketParser) Pack(rpcID uint32, routeID int64, buf *Buffer, msg any) (*Buffer, error) {
	if buf != nil {
		return p.patch(rpcID, routeID, buf)
	}
	return p.serialize(rpcID, routeID, msg)
}

func (p *InnerBufferPacketParser) patch(rpcID uint32, routeID int64, buf *Buffer) (*Buffer, error) {
	if err := checkPatch(p.layout, buf); err != nil {
		return nil, err
	}
	putField(buf.B, InnerPacketRpcIDLocation, rpcID)
	putField(buf.B, InnerPacketRouteIDLocation, routeID)
	buf.Seek(0, io.SeekStart)
	return buf, nil
}

func (p *InnerBufferPacketParser) serialize(rpcID uint32, routeID int64, msg any) (*Buffer, error) {
	buf, mt, length, err := serializeBody(p.network, p.layout, msg)
	if err != nil {
		return nil, err
	}

	buf.Seek(0, io.SeekStart)
	w, _ := NewWriter(buf)
	w.WriteInt32(length)
	w.WriteUint32(mt.OpCode)
	w.WriteUint32(rpcID)
	w.WriteInt64(routeID)
	if _, err := w.Result(); err != nil {
		_ = buf.Release()
		return nil, err
	}
	buf.Seek(0, io.SeekStart)
	return buf, nil
}

func newInnerParser(network Network, layout InnerLayout) (Parser, error) {
	return NewInnerBufferPacketParser(network, layout), nil
}
